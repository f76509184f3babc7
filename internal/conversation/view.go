package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/feed"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// Store is the slice of the message service the view consumes.
type Store interface {
	Conversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]model.Message, error)
	RecentCounterparts(ctx context.Context, selfID uuid.UUID) ([]model.User, error)
}

// View is the active-conversation context. It exclusively owns the ordered
// message list and the single feed subscription; switching partners tears
// the old channel down before a freshly keyed one is opened, so no two
// conversations' events are ever merged into one list.
type View struct {
	selfID uuid.UUID
	store  Store
	bus    feed.Bus
	logger *logger.Logger

	// onAppend fires after a feed insert lands, for scroll-to-newest.
	onAppend func(model.Message)
	// onEvent fires for every event applied to the list, after the list has
	// been updated. Irrelevant inserts and updates are not reported.
	onEvent func(model.ChangeEvent)

	mu        sync.Mutex
	partnerID uuid.UUID
	hasActive bool
	messages  []model.Message
	recent    []model.User
	sub       feed.Subscription
	// generation increments on every partner switch; reloads and feed
	// consumers stamped with an older generation are discarded so an
	// in-flight request for an abandoned conversation can never overwrite
	// the newly selected one.
	generation uint64
}

func NewView(selfID uuid.UUID, store Store, bus feed.Bus, logger *logger.Logger) *View {
	return &View{
		selfID: selfID,
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// OnAppend registers the callback fired when a feed insert is appended.
func (v *View) OnAppend(fn func(model.Message)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onAppend = fn
}

// OnEvent registers the callback fired for every applied change event.
func (v *View) OnEvent(fn func(model.ChangeEvent)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onEvent = fn
}

// SetPartner switches the active conversation. The previous subscription
// is released first; passing uuid.Nil leaves the view unsubscribed with an
// empty list. A successful switch loads the conversation history.
func (v *View) SetPartner(ctx context.Context, partnerID uuid.UUID) error {
	v.mu.Lock()
	v.teardownLocked()
	v.generation++
	v.messages = nil
	v.partnerID = partnerID
	v.hasActive = partnerID != uuid.Nil
	generation := v.generation

	if !v.hasActive {
		v.mu.Unlock()
		return nil
	}

	sub, err := v.bus.Subscribe(ctx, feed.ConversationKey(partnerID, v.selfID))
	if err != nil {
		v.hasActive = false
		v.mu.Unlock()
		return fmt.Errorf("failed to open feed subscription: %w", err)
	}
	v.sub = sub
	v.mu.Unlock()

	go v.consume(sub, partnerID, generation)

	return v.Reload(ctx)
}

// Reload refetches the active conversation and reconciles the result with
// the current list. A reload whose conversation is no longer active is
// discarded.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	if !v.hasActive {
		v.mu.Unlock()
		return nil
	}
	partnerID := v.partnerID
	generation := v.generation
	v.mu.Unlock()

	fetched, err := v.store.Conversation(ctx, v.selfID, partnerID)
	if err != nil {
		return fmt.Errorf("failed to reload conversation: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		// The user switched conversations while this reload was in flight.
		return nil
	}
	v.messages = Merge(v.messages, fetched)

	return nil
}

// RefreshRecent refetches the recent-counterparts list.
func (v *View) RefreshRecent(ctx context.Context) error {
	recent, err := v.store.RecentCounterparts(ctx, v.selfID)
	if err != nil {
		return fmt.Errorf("failed to refresh recent chats: %w", err)
	}

	v.mu.Lock()
	v.recent = recent
	v.mu.Unlock()

	return nil
}

// Messages returns a snapshot of the ordered list.
func (v *View) Messages() []model.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Message(nil), v.messages...)
}

// Recent returns a snapshot of the recent-counterparts list.
func (v *View) Recent() []model.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.User(nil), v.recent...)
}

// Close releases the feed subscription. The view is unusable afterwards
// except through a new SetPartner.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.teardownLocked()
	v.hasActive = false
	v.generation++
}

func (v *View) teardownLocked() {
	if v.sub != nil {
		if err := v.sub.Close(); err != nil {
			v.logger.Error("failed to close feed subscription", "error", err.Error())
		}
		v.sub = nil
	}
}

// consume drains one subscription until it is closed. Events stamped with
// a stale generation are dropped: the subscription close on a partner
// switch may race with an event already received.
func (v *View) consume(sub feed.Subscription, partnerID uuid.UUID, generation uint64) {
	for event := range sub.Events() {
		v.mu.Lock()
		if generation != v.generation {
			v.mu.Unlock()
			return
		}

		v.messages = Apply(v.messages, event, v.selfID, partnerID)

		relevant := event.Type == model.ChangeDeleted || event.Message.InConversation(v.selfID, partnerID)
		relevantInsert := event.Type == model.ChangeInserted && event.Message.InConversation(v.selfID, partnerID)
		appended := v.onAppend
		applied := v.onEvent
		v.mu.Unlock()

		if relevant && applied != nil {
			applied(event)
		}

		if relevantInsert {
			// A new message may introduce a new counterpart, and the UI
			// scrolls to the newest entry.
			if err := v.RefreshRecent(context.Background()); err != nil {
				v.logger.Debug("failed to refresh recent chats", "error", err.Error())
			}
			if appended != nil {
				appended(event.Message)
			}
		}
	}
}
