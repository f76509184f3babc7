package model

import (
	"context"

	"github.com/google/uuid"
)

// Severity distinguishes success notices from failures.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notification is a transient user-visible notice. Every asynchronous
// outcome, success or failure, surfaces exactly one of these.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Notifier delivers notifications to a user's connected clients.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, n Notification)
}
