package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytolk/mytolk-server/internal/model"
)

func TestConversationKey(t *testing.T) {
	partner := uuid.New()
	self := uuid.New()

	key := ConversationKey(partner, self)
	assert.Equal(t, "messages-"+partner.String()+"-"+self.String(), key)

	// Keys are directional: the two ends of a conversation hold distinct
	// channels.
	assert.NotEqual(t, key, ConversationKey(self, partner))
}

func TestMemoryBus_PublishReachesSubscriber(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, "key-1")
	require.NoError(t, err)
	defer sub.Close()

	event := model.ChangeEvent{Type: model.ChangeInserted, Message: model.Message{ID: uuid.New()}}
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case got := <-sub.Events():
		assert.Equal(t, event.Message.ID, got.Message.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBus_DuplicateKeyRejected(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, "key-1")
	require.NoError(t, err)
	defer sub.Close()

	_, err = bus.Subscribe(ctx, "key-1")
	require.Error(t, err)
}

func TestMemoryBus_CloseFreesKey(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, bus.Open("key-1"))

	require.NoError(t, sub.Close())
	assert.False(t, bus.Open("key-1"))

	reopened, err := bus.Subscribe(ctx, "key-1")
	require.NoError(t, err)
	defer reopened.Close()
}

func TestMemoryBus_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	sub, err := bus.Subscribe(ctx, "key-1")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}
