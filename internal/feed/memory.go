package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/mytolk/mytolk-server/internal/model"
)

var _ Bus = (*MemoryBus)(nil)

// MemoryBus is an in-process Bus for tests and single-node deployments.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]*memorySubscription
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]*memorySubscription)}
}

func (b *MemoryBus) Publish(_ context.Context, event model.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub.events <- event:
		default:
		}
	}

	return nil
}

// Subscribe opens a channel under key. Keys are unique: subscribing twice
// under the same key without closing the first is an error, which enforces
// the one-channel-per-active-conversation rule.
func (b *MemoryBus) Subscribe(_ context.Context, key string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[key]; ok {
		return nil, fmt.Errorf("subscription key %s already in use", key)
	}

	sub := &memorySubscription{
		key:    key,
		bus:    b,
		events: make(chan model.ChangeEvent, 64),
	}
	b.subs[key] = sub

	return sub, nil
}

// Open reports whether a subscription with the given key is active.
func (b *MemoryBus) Open(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subs[key]
	return ok
}

type memorySubscription struct {
	key       string
	bus       *MemoryBus
	events    chan model.ChangeEvent
	closeOnce sync.Once
}

func (s *memorySubscription) Events() <-chan model.ChangeEvent {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.key)
		s.bus.mu.Unlock()
		close(s.events)
	})
	return nil
}
