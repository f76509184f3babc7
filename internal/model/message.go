package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeletedPlaceholder is rendered in place of a soft-deleted message body.
const DeletedPlaceholder = "This message was deleted"

// MessageStore defines persistence operations for messages.
type MessageStore interface {
	Create(ctx context.Context, message Message) (Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) (Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (Message, error)
	HardDelete(ctx context.Context, id uuid.UUID) (Message, error)
	ListConversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]Message, error)
	ListInvolving(ctx context.Context, selfID uuid.UUID) ([]Message, error)
	DeleteInvolving(ctx context.Context, selfID uuid.UUID) error
}

// Message represents a direct message between two users. The (sender,
// receiver) pair is immutable after creation; only text, the deleted flag
// and the edited timestamp may change.
type Message struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Text       string
	IsDeleted  bool
	EditedAt   *time.Time
	CreatedAt  time.Time
}

// Rendered returns the text to display: the placeholder when the message
// is soft-deleted, the stored body otherwise.
func (m Message) Rendered() string {
	if m.IsDeleted {
		return DeletedPlaceholder
	}
	return m.Text
}

// InConversation reports whether the message belongs to the conversation
// between self and partner, in either direction.
func (m Message) InConversation(selfID, partnerID uuid.UUID) bool {
	return (m.SenderID == selfID && m.ReceiverID == partnerID) ||
		(m.SenderID == partnerID && m.ReceiverID == selfID)
}

// CounterpartOf returns the other participant of the message relative to
// selfID.
func (m Message) CounterpartOf(selfID uuid.UUID) uuid.UUID {
	if m.SenderID == selfID {
		return m.ReceiverID
	}
	return m.SenderID
}
