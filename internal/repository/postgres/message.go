package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mytolk/mytolk-server/internal/model"
)

var _ model.MessageStore = (*MessageRepository)(nil)

const messageColumns = `id, sender_id, receiver_id, message_text, is_deleted, edited_at, created_at`

type MessageRepository struct {
	db *Connection
}

func NewMessageRepository(db *Connection) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var message model.Message
	err := row.Scan(
		&message.ID, &message.SenderID, &message.ReceiverID, &message.Text,
		&message.IsDeleted, &message.EditedAt, &message.CreatedAt,
	)
	return message, err
}

func (r *MessageRepository) Create(ctx context.Context, message model.Message) (model.Message, error) {
	query := `INSERT INTO messages (id, sender_id, receiver_id, message_text, is_deleted, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + messageColumns

	savedMessage, err := scanMessage(r.db.QueryRow(ctx, query,
		message.ID, message.SenderID, message.ReceiverID, message.Text,
		message.IsDeleted, message.CreatedAt,
	))
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to create message: %w", err)
	}

	return savedMessage, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	message, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to get message by id: %w", err)
	}

	return message, nil
}

// UpdateText sets the message body and edited timestamp. The stored
// (sender, receiver) pair is never touched.
func (r *MessageRepository) UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) (model.Message, error) {
	query := `UPDATE messages SET message_text = $2, edited_at = $3 WHERE id = $1
			  RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, id, text, editedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to update message text: %w", err)
	}

	return message, nil
}

// SoftDelete sets the deleted flag. The text column is retained in storage;
// rendering substitutes the placeholder.
func (r *MessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) (model.Message, error) {
	query := `UPDATE messages SET is_deleted = TRUE WHERE id = $1
			  RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to soft-delete message: %w", err)
	}

	return message, nil
}

// HardDelete removes the row permanently and returns it for the change feed.
func (r *MessageRepository) HardDelete(ctx context.Context, id uuid.UUID) (model.Message, error) {
	query := `DELETE FROM messages WHERE id = $1
			  RETURNING ` + messageColumns

	message, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, model.ErrNotFound
		}
		return model.Message{}, fmt.Errorf("failed to hard-delete message: %w", err)
	}

	return message, nil
}

// ListConversation returns the messages exchanged between self and partner
// in either direction, ordered by creation time ascending.
func (r *MessageRepository) ListConversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
			  WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
			  ORDER BY created_at ASC, id ASC`

	return r.listMessages(ctx, query, selfID, partnerID)
}

// ListInvolving returns every message sent or received by selfID ordered
// by creation time descending. Callers derive the recent-counterparts list
// from it with first-seen-wins deduplication.
func (r *MessageRepository) ListInvolving(ctx context.Context, selfID uuid.UUID) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
			  WHERE sender_id = $1 OR receiver_id = $1
			  ORDER BY created_at DESC, id DESC`

	return r.listMessages(ctx, query, selfID)
}

// DeleteInvolving removes every message sent or received by selfID.
func (r *MessageRepository) DeleteInvolving(ctx context.Context, selfID uuid.UUID) error {
	const query = `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`
	if _, err := r.db.Exec(ctx, query, selfID); err != nil {
		return fmt.Errorf("failed to delete messages involving user: %w", err)
	}
	return nil
}

func (r *MessageRepository) listMessages(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var message model.Message
		err := rows.Scan(
			&message.ID, &message.SenderID, &message.ReceiverID, &message.Text,
			&message.IsDeleted, &message.EditedAt, &message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}
