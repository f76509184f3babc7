package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status enumerates presence states.
type Status string

const (
	// StatusOnline marks a user with an active session.
	StatusOnline Status = "online"
	// StatusOffline marks a user without an active session.
	StatusOffline Status = "offline"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Search(ctx context.Context, query string) (User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash []byte) error
	UpdateProfile(ctx context.Context, id uuid.UUID, profile Profile) error
	ResetProfile(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// User represents a stored user with credentials and profile fields.
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   []byte
	DisplayName    *string
	Country        *string
	PhoneNumber    *string
	ProfilePicture *string
	Profession     *string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile carries the user-editable subset of User fields.
type Profile struct {
	DisplayName    *string
	Country        *string
	PhoneNumber    *string
	ProfilePicture *string
	Profession     *string
}
