package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytolk/mytolk-server/internal/feed"
	"github.com/mytolk/mytolk-server/internal/model"
	"github.com/mytolk/mytolk-server/internal/testutil"
)

// fakeStore serves canned conversations keyed by partner id. An optional
// gate channel blocks Conversation until released, to simulate a slow
// in-flight reload.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID][]model.Message
	recent        []model.User
	gate          chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: make(map[uuid.UUID][]model.Message)}
}

func (s *fakeStore) Conversation(_ context.Context, _, partnerID uuid.UUID) ([]model.Message, error) {
	s.mu.Lock()
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.conversations[partnerID]...), nil
}

func (s *fakeStore) RecentCounterparts(context.Context, uuid.UUID) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.recent...), nil
}

func (s *fakeStore) set(partnerID uuid.UUID, messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[partnerID] = messages
}

func TestView_SetPartner_LoadsHistory(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	m := model.Message{ID: uuid.New(), SenderID: partner, ReceiverID: self, Text: "hi", CreatedAt: time.Now()}
	store.set(partner, []model.Message{m})

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, partner))
	require.Len(t, v.Messages(), 1)
	assert.Equal(t, m.ID, v.Messages()[0].ID)
	assert.True(t, bus.Open(feed.ConversationKey(partner, self)))
}

func TestView_SwitchPartner_ClosesOldChannel(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, bob))
	require.True(t, bus.Open(feed.ConversationKey(bob, self)))

	require.NoError(t, v.SetPartner(ctx, carol))
	assert.False(t, bus.Open(feed.ConversationKey(bob, self)))
	assert.True(t, bus.Open(feed.ConversationKey(carol, self)))
}

func TestView_FeedInsert_Appends(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	var appended []model.Message
	var mu sync.Mutex
	v.OnAppend(func(m model.Message) {
		mu.Lock()
		appended = append(appended, m)
		mu.Unlock()
	})

	require.NoError(t, v.SetPartner(ctx, partner))

	m := model.Message{ID: uuid.New(), SenderID: partner, ReceiverID: self, Text: "ping", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: m}))

	require.Eventually(t, func() bool {
		return len(v.Messages()) == 1
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(appended) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestView_ForeignPairEvent_DoesNotMutateList(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, carol))

	// A message from the abandoned conversation with bob arrives late.
	stray := model.Message{ID: uuid.New(), SenderID: bob, ReceiverID: self, Text: "late", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: stray}))

	relevant := model.Message{ID: uuid.New(), SenderID: carol, ReceiverID: self, Text: "here", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: relevant}))

	require.Eventually(t, func() bool {
		return len(v.Messages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, relevant.ID, v.Messages()[0].ID)
}

func TestView_SoftDeleteEvent_RendersPlaceholder(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	m := model.Message{ID: uuid.New(), SenderID: self, ReceiverID: partner, Text: "secret", CreatedAt: time.Now()}
	store.set(partner, []model.Message{m})

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, partner))

	deleted := m
	deleted.IsDeleted = true
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeUpdated, Message: deleted}))

	require.Eventually(t, func() bool {
		messages := v.Messages()
		return len(messages) == 1 && messages[0].IsDeleted
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, model.DeletedPlaceholder, v.Messages()[0].Rendered())
}

func TestView_DeleteEvent_RemovesEntry(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	m := model.Message{ID: uuid.New(), SenderID: self, ReceiverID: partner, Text: "oops", CreatedAt: time.Now()}
	store.set(partner, []model.Message{m})

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, partner))
	require.Len(t, v.Messages(), 1)

	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeDeleted, Message: m}))

	require.Eventually(t, func() bool {
		return len(v.Messages()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestView_StaleReload_Discarded(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	bobMsg := model.Message{ID: uuid.New(), SenderID: bob, ReceiverID: self, Text: "from bob", CreatedAt: time.Now()}
	store.set(bob, []model.Message{bobMsg})

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	require.NoError(t, v.SetPartner(ctx, bob))

	// Start a reload for bob that stalls, then switch to carol before it
	// completes. The stale result must not overwrite carol's list.
	gate := make(chan struct{})
	store.mu.Lock()
	store.gate = gate
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- v.Reload(ctx) }()

	// Give the reload goroutine time to stamp its generation and block.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, v.SetPartner(ctx, carol))

	close(gate)
	require.NoError(t, <-done)

	assert.Empty(t, v.Messages())
}

func TestView_Close_ReleasesSubscription(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	require.NoError(t, v.SetPartner(ctx, partner))
	require.True(t, bus.Open(feed.ConversationKey(partner, self)))

	v.Close()
	assert.False(t, bus.Open(feed.ConversationKey(partner, self)))
}

func TestView_OnEvent_FiresForAppliedEvents(t *testing.T) {
	ctx := context.Background()
	self := uuid.New()
	partner := uuid.New()
	stranger := uuid.New()
	store := newFakeStore()
	bus := feed.NewMemoryBus()

	v := NewView(self, store, bus, testutil.MakeNoopLogger())
	defer v.Close()

	var mu sync.Mutex
	var seen []model.ChangeEvent
	v.OnEvent(func(e model.ChangeEvent) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	require.NoError(t, v.SetPartner(ctx, partner))

	stray := model.Message{ID: uuid.New(), SenderID: stranger, ReceiverID: stranger, Text: "x", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: stray}))

	relevant := model.Message{ID: uuid.New(), SenderID: partner, ReceiverID: self, Text: "y", CreatedAt: time.Now()}
	require.NoError(t, bus.Publish(ctx, model.ChangeEvent{Type: model.ChangeInserted, Message: relevant}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, relevant.ID, seen[0].Message.ID)
}
