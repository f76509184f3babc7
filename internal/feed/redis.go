package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// wireChannel is the single pub/sub channel carrying all messages-table
// changes. Subscribers filter by relevance themselves.
const wireChannel = "mytolk:messages:changes"

var _ Bus = (*RedisBus)(nil)

// RedisBus is the Redis pub/sub transport for change events.
type RedisBus struct {
	rdb    *redis.Client
	logger *logger.Logger
}

func NewRedisBus(rdb *redis.Client, logger *logger.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, event model.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.rdb.Publish(ctx, wireChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, key string) (Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, wireChannel)

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to open subscription %s: %w", key, err)
	}

	sub := &redisSubscription{
		key:    key,
		pubsub: pubsub,
		events: make(chan model.ChangeEvent, 64),
	}

	go sub.pump(b.logger)

	return sub, nil
}

type redisSubscription struct {
	key       string
	pubsub    *redis.PubSub
	events    chan model.ChangeEvent
	closeOnce sync.Once
}

func (s *redisSubscription) Events() <-chan model.ChangeEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		// Closing the pubsub ends the pump, which closes the events channel.
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) pump(logger *logger.Logger) {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var event model.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Error("failed to decode change event",
				"subscription", s.key,
				"error", err.Error())
			continue
		}

		select {
		case s.events <- event:
		default:
			// A consumer this far behind is resynced by its next reload.
			logger.Warn("dropping change event, subscriber is not keeping up",
				"subscription", s.key,
				"message_id", event.Message.ID)
		}
	}
}
