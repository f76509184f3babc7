package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytolk/mytolk-server/internal/model"
)

func TestHolder_InitialStateIsLoading(t *testing.T) {
	h := New()

	assert.True(t, h.Loading())
	assert.Nil(t, h.Current())
}

func TestHolder_SetInstallsPrincipal(t *testing.T) {
	h := New()
	user := model.User{ID: uuid.New(), Email: "a@b.c"}

	h.Set(user)

	assert.False(t, h.Loading())
	require.NotNil(t, h.Current())
	assert.Equal(t, user.ID, h.Current().ID)
}

func TestHolder_ClearRemovesPrincipal(t *testing.T) {
	h := New()
	h.Set(model.User{ID: uuid.New()})

	h.Clear()

	assert.False(t, h.Loading())
	assert.Nil(t, h.Current())
}

func TestHolder_ListenersFireOnChange(t *testing.T) {
	h := New()

	var calls []*model.User
	h.OnChange(func(u *model.User) {
		calls = append(calls, u)
	})

	user := model.User{ID: uuid.New()}
	h.Set(user)
	h.Clear()

	require.Len(t, calls, 2)
	require.NotNil(t, calls[0])
	assert.Equal(t, user.ID, calls[0].ID)
	assert.Nil(t, calls[1])
}
