package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mytolk/mytolk-server/internal/feed"
	servermocks "github.com/mytolk/mytolk-server/internal/mocks"
	"github.com/mytolk/mytolk-server/internal/model"
	"github.com/mytolk/mytolk-server/internal/testutil"
)

func newMessageFixture() (*servermocks.MessageStore, *servermocks.UserStore, *feed.MemoryBus, *servermocks.Notifier, *Message) {
	messageStore := &servermocks.MessageStore{}
	userStore := &servermocks.UserStore{}
	bus := feed.NewMemoryBus()
	notifier := &servermocks.Notifier{}

	s := NewMessage(messageStore, userStore, bus, notifier, testutil.MakeNoopLogger())
	return messageStore, userStore, bus, notifier, s
}

func drainEvent(t *testing.T, sub feed.Subscription) model.ChangeEvent {
	t.Helper()
	select {
	case event := <-sub.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return model.ChangeEvent{}
	}
}

func TestMessage_Send_Success(t *testing.T) {
	ctx := context.Background()
	messageStore, _, bus, _, s := newMessageFixture()

	senderID := uuid.New()
	receiverID := uuid.New()

	sub, err := bus.Subscribe(ctx, feed.ConversationKey(receiverID, senderID))
	require.NoError(t, err)
	defer sub.Close()

	messageStore.On("Create", mock.Anything, mock.MatchedBy(func(m model.Message) bool {
		return m.SenderID == senderID && m.ReceiverID == receiverID && m.Text == "hello"
	})).Return(model.Message{ID: uuid.New(), SenderID: senderID, ReceiverID: receiverID, Text: "hello"}, nil).Once()

	message, err := s.Send(ctx, senderID, receiverID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", message.Text)

	event := drainEvent(t, sub)
	assert.Equal(t, model.ChangeInserted, event.Type)
	assert.Equal(t, message.ID, event.Message.ID)
}

func TestMessage_Send_EmptyText(t *testing.T) {
	ctx := context.Background()
	messageStore, _, _, _, s := newMessageFixture()

	_, err := s.Send(ctx, uuid.New(), uuid.New(), "   ")
	require.ErrorIs(t, err, model.ErrEmptyMessage)
	messageStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMessage_Send_StoreError(t *testing.T) {
	ctx := context.Background()
	messageStore, _, _, notifier, s := newMessageFixture()

	senderID := uuid.New()
	messageStore.On("Create", mock.Anything, mock.Anything).Return(model.Message{}, assert.AnError).Once()
	notifier.On("Notify", mock.Anything, senderID, mock.MatchedBy(func(n model.Notification) bool {
		return n.Severity == model.SeverityError
	})).Return()

	_, err := s.Send(ctx, senderID, uuid.New(), "hello")
	require.Error(t, err)
	notifier.AssertExpectations(t)
}

func TestMessage_Edit_PublishesUpdate(t *testing.T) {
	ctx := context.Background()
	messageStore, _, bus, _, s := newMessageFixture()

	senderID := uuid.New()
	receiverID := uuid.New()
	messageID := uuid.New()

	sub, err := bus.Subscribe(ctx, feed.ConversationKey(receiverID, senderID))
	require.NoError(t, err)
	defer sub.Close()

	editedAt := time.Now()
	messageStore.On("UpdateText", mock.Anything, messageID, "revised", mock.Anything).Return(model.Message{
		ID: messageID, SenderID: senderID, ReceiverID: receiverID, Text: "revised", EditedAt: &editedAt,
	}, nil).Once()

	message, err := s.Edit(ctx, senderID, messageID, "revised")
	require.NoError(t, err)
	assert.NotNil(t, message.EditedAt)

	event := drainEvent(t, sub)
	assert.Equal(t, model.ChangeUpdated, event.Type)
	assert.Equal(t, "revised", event.Message.Text)
}

func TestMessage_Edit_EmptyText(t *testing.T) {
	ctx := context.Background()
	messageStore, _, _, _, s := newMessageFixture()

	_, err := s.Edit(ctx, uuid.New(), uuid.New(), "")
	require.ErrorIs(t, err, model.ErrEmptyMessage)
	messageStore.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMessage_SoftDelete_PublishesUpdate(t *testing.T) {
	ctx := context.Background()
	messageStore, _, bus, _, s := newMessageFixture()

	senderID := uuid.New()
	receiverID := uuid.New()
	messageID := uuid.New()

	sub, err := bus.Subscribe(ctx, feed.ConversationKey(receiverID, senderID))
	require.NoError(t, err)
	defer sub.Close()

	messageStore.On("SoftDelete", mock.Anything, messageID).Return(model.Message{
		ID: messageID, SenderID: senderID, ReceiverID: receiverID, Text: "secret", IsDeleted: true,
	}, nil).Once()

	message, err := s.SoftDelete(ctx, senderID, messageID)
	require.NoError(t, err)
	assert.True(t, message.IsDeleted)
	assert.Equal(t, model.DeletedPlaceholder, message.Rendered())

	event := drainEvent(t, sub)
	assert.Equal(t, model.ChangeUpdated, event.Type)
	assert.True(t, event.Message.IsDeleted)
}

func TestMessage_HardDelete_PublishesDelete(t *testing.T) {
	ctx := context.Background()
	messageStore, _, bus, _, s := newMessageFixture()

	senderID := uuid.New()
	receiverID := uuid.New()
	messageID := uuid.New()

	sub, err := bus.Subscribe(ctx, feed.ConversationKey(receiverID, senderID))
	require.NoError(t, err)
	defer sub.Close()

	messageStore.On("HardDelete", mock.Anything, messageID).Return(model.Message{
		ID: messageID, SenderID: senderID, ReceiverID: receiverID,
	}, nil).Once()

	require.NoError(t, s.HardDelete(ctx, senderID, messageID))

	event := drainEvent(t, sub)
	assert.Equal(t, model.ChangeDeleted, event.Type)
	assert.Equal(t, messageID, event.Message.ID)
}

func TestMessage_RecentCounterparts_DedupPreservesRecency(t *testing.T) {
	ctx := context.Background()
	messageStore, userStore, _, _, s := newMessageFixture()

	selfID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	// Listing is newest first; alice appears twice and must keep her
	// first (most recent) position.
	messageStore.On("ListInvolving", mock.Anything, selfID).Return([]model.Message{
		{SenderID: alice, ReceiverID: selfID},
		{SenderID: selfID, ReceiverID: bob},
		{SenderID: selfID, ReceiverID: alice},
	}, nil).Once()
	userStore.On("GetByID", mock.Anything, alice).Return(model.User{ID: alice}, nil).Once()
	userStore.On("GetByID", mock.Anything, bob).Return(model.User{ID: bob}, nil).Once()

	counterparts, err := s.RecentCounterparts(ctx, selfID)
	require.NoError(t, err)
	require.Len(t, counterparts, 2)
	assert.Equal(t, alice, counterparts[0].ID)
	assert.Equal(t, bob, counterparts[1].ID)
}

func TestMessage_RecentCounterparts_SkipsDeletedAccounts(t *testing.T) {
	ctx := context.Background()
	messageStore, userStore, _, _, s := newMessageFixture()

	selfID := uuid.New()
	gone := uuid.New()
	alive := uuid.New()

	messageStore.On("ListInvolving", mock.Anything, selfID).Return([]model.Message{
		{SenderID: gone, ReceiverID: selfID},
		{SenderID: alive, ReceiverID: selfID},
	}, nil).Once()
	userStore.On("GetByID", mock.Anything, gone).Return(model.User{}, model.ErrNotFound).Once()
	userStore.On("GetByID", mock.Anything, alive).Return(model.User{ID: alive}, nil).Once()

	counterparts, err := s.RecentCounterparts(ctx, selfID)
	require.NoError(t, err)
	require.Len(t, counterparts, 1)
	assert.Equal(t, alive, counterparts[0].ID)
}

func TestMessage_Conversation(t *testing.T) {
	ctx := context.Background()
	messageStore, _, _, _, s := newMessageFixture()

	selfID := uuid.New()
	partnerID := uuid.New()
	messageStore.On("ListConversation", mock.Anything, selfID, partnerID).Return([]model.Message{
		{SenderID: selfID, ReceiverID: partnerID, Text: "hi"},
	}, nil).Once()

	messages, err := s.Conversation(ctx, selfID, partnerID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
}
