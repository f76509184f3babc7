// Package session holds the current authenticated principal for a client
// context and notifies dependents when it changes.
package session

import (
	"sync"

	"github.com/mytolk/mytolk-server/internal/model"
)

// Holder tracks the signed-in user and a loading flag. The zero-value-like
// state produced by New is "loading, nobody signed in"; Set and Clear move
// it through the session lifecycle and fire the registered listeners.
type Holder struct {
	mu        sync.RWMutex
	principal *model.User
	loading   bool
	listeners []func(*model.User)
}

func New() *Holder {
	return &Holder{loading: true}
}

// Current returns the signed-in principal, or nil when absent.
func (h *Holder) Current() *model.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.principal
}

// Loading reports whether the initial session restore is still pending.
func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// Set installs the principal after a successful sign-in or session restore.
func (h *Holder) Set(user model.User) {
	h.mu.Lock()
	h.principal = &user
	h.loading = false
	listeners := append(([]func(*model.User))(nil), h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(&user)
	}
}

// Clear tears the session down on sign-out or failed restore.
func (h *Holder) Clear() {
	h.mu.Lock()
	h.principal = nil
	h.loading = false
	listeners := append(([]func(*model.User))(nil), h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
}

// OnChange registers a listener invoked with the new principal (nil when
// signed out) after every Set or Clear.
func (h *Holder) OnChange(fn func(*model.User)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}
