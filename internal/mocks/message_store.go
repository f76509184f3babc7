package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mytolk/mytolk-server/internal/model"
)

// MessageStore is a mock implementation of model.MessageStore.
type MessageStore struct {
	mock.Mock
}

func (m *MessageStore) Create(ctx context.Context, message model.Message) (model.Message, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MessageStore) GetByID(ctx context.Context, id uuid.UUID) (model.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MessageStore) UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) (model.Message, error) {
	args := m.Called(ctx, id, text, editedAt)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MessageStore) SoftDelete(ctx context.Context, id uuid.UUID) (model.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MessageStore) HardDelete(ctx context.Context, id uuid.UUID) (model.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Message), args.Error(1)
}

func (m *MessageStore) ListConversation(ctx context.Context, selfID, partnerID uuid.UUID) ([]model.Message, error) {
	args := m.Called(ctx, selfID, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageStore) ListInvolving(ctx context.Context, selfID uuid.UUID) ([]model.Message, error) {
	args := m.Called(ctx, selfID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageStore) DeleteInvolving(ctx context.Context, selfID uuid.UUID) error {
	args := m.Called(ctx, selfID)
	return args.Error(0)
}
