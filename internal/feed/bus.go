// Package feed carries row-level change events for the messages table from
// writers to per-conversation subscribers. The transport delivers every
// change unfiltered; relevance filtering happens at the receiving side.
package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/model"
)

// Bus publishes change events and opens keyed subscriptions to them.
type Bus interface {
	Publish(ctx context.Context, event model.ChangeEvent) error
	Subscribe(ctx context.Context, key string) (Subscription, error)
}

// Subscription is a cancellable handle on a push channel. Close releases
// the channel; after Close, Events is closed and delivers nothing.
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}

// ConversationKey builds the unique subscription key for the active
// (partner, self) pair. Keys must differ across concurrent conversations
// so that no two conversations share a channel.
func ConversationKey(partnerID, selfID uuid.UUID) string {
	return fmt.Sprintf("messages-%s-%s", partnerID, selfID)
}
