package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/feed"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// Message is the conversation store client: validated CRUD over the
// messages table scoped to sender/receiver pairs. Every successful write
// publishes a change event to the feed; failures surface a user-visible
// notification and leave state unchanged, with no retry.
//
// Ownership of a message is deliberately not verified before edit or
// delete; the actor id is used only for failure notifications.
type Message struct {
	messageStore model.MessageStore
	userStore    model.UserStore
	bus          feed.Bus
	notifier     model.Notifier
	logger       *logger.Logger
}

func NewMessage(
	messageStore model.MessageStore,
	userStore model.UserStore,
	bus feed.Bus,
	notifier model.Notifier,
	logger *logger.Logger,
) *Message {
	return &Message{
		messageStore: messageStore,
		userStore:    userStore,
		bus:          bus,
		notifier:     notifier,
		logger:       logger,
	}
}

// Send inserts a new message. Empty or whitespace-only text is rejected
// before any store call.
func (s *Message) Send(ctx context.Context, senderID, receiverID uuid.UUID, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, model.ErrEmptyMessage
	}

	message := model.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		IsDeleted:  false,
		CreatedAt:  time.Now(),
	}

	savedMessage, err := s.messageStore.Create(ctx, message)
	if err != nil {
		s.notifyError(ctx, senderID, "Failed to send message")
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}

	s.publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: savedMessage})

	return savedMessage, nil
}

// Edit sets the message text and the edited timestamp. Empty text is
// rejected before any store call.
func (s *Message) Edit(ctx context.Context, actorID, messageID uuid.UUID, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, model.ErrEmptyMessage
	}

	updatedMessage, err := s.messageStore.UpdateText(ctx, messageID, text, time.Now())
	if err != nil {
		s.notifyError(ctx, actorID, "Failed to edit message")
		return model.Message{}, fmt.Errorf("failed to update message: %w", err)
	}

	s.publish(ctx, model.ChangeEvent{Type: model.ChangeUpdated, Message: updatedMessage})

	return updatedMessage, nil
}

// SoftDelete flags the message as deleted. The text is retained in storage
// but must never be rendered again.
func (s *Message) SoftDelete(ctx context.Context, actorID, messageID uuid.UUID) (model.Message, error) {
	deletedMessage, err := s.messageStore.SoftDelete(ctx, messageID)
	if err != nil {
		s.notifyError(ctx, actorID, "Failed to delete message")
		return model.Message{}, fmt.Errorf("failed to soft-delete message: %w", err)
	}

	// A soft delete is an update at the row level.
	s.publish(ctx, model.ChangeEvent{Type: model.ChangeUpdated, Message: deletedMessage})

	return deletedMessage, nil
}

// HardDelete removes the message row permanently.
func (s *Message) HardDelete(ctx context.Context, actorID, messageID uuid.UUID) error {
	removedMessage, err := s.messageStore.HardDelete(ctx, messageID)
	if err != nil {
		s.notifyError(ctx, actorID, "Failed to unsend message")
		return fmt.Errorf("failed to hard-delete message: %w", err)
	}

	s.publish(ctx, model.ChangeEvent{Type: model.ChangeDeleted, Message: removedMessage})

	return nil
}

// Conversation returns the messages between self and partner in either
// direction, ordered by creation time ascending.
func (s *Message) Conversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]model.Message, error) {
	messages, err := s.messageStore.ListConversation(ctx, selfID, partnerID)
	if err != nil {
		s.notifyError(ctx, selfID, "Failed to fetch messages")
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}

	return messages, nil
}

// RecentCounterparts derives the distinct conversation partners of selfID,
// most recent first. The listing is already ordered by creation time
// descending, so first-seen-wins deduplication preserves recency order.
func (s *Message) RecentCounterparts(ctx context.Context, selfID uuid.UUID) ([]model.User, error) {
	messages, err := s.messageStore.ListInvolving(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	var counterparts []model.User
	for _, message := range messages {
		counterpartID := message.CounterpartOf(selfID)
		if counterpartID == selfID || seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true

		user, err := s.userStore.GetByID(ctx, counterpartID)
		if err != nil {
			// The counterpart account may have been deleted since.
			s.logger.Debug("skipping unknown counterpart",
				"user_id", counterpartID,
				"error", err.Error())
			continue
		}
		counterparts = append(counterparts, user)
	}

	return counterparts, nil
}

// publish is best-effort: subscribers that miss an event resync on their
// next reload, so a feed failure must not fail the write that caused it.
func (s *Message) publish(ctx context.Context, event model.ChangeEvent) {
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish change event",
			"event_type", event.Type,
			"message_id", event.Message.ID,
			"error", err.Error())
	}
}

func (s *Message) notifyError(ctx context.Context, userID uuid.UUID, description string) {
	s.notifier.Notify(ctx, userID, model.Notification{
		Title:       "Error",
		Description: description,
		Severity:    model.SeverityError,
	})
}
