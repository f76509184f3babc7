package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mytolk/mytolk-server/internal/model"
)

// Notifier is a mock implementation of model.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, userID uuid.UUID, notification model.Notification) {
	m.Called(ctx, userID, notification)
}
