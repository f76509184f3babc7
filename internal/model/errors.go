package model

import "errors"

var (
	// ErrNotFound signals that a requested row does not exist. For directory
	// lookups this is a distinguished outcome, not a transport failure.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous signals that a directory query matched more than one user.
	ErrAmbiguous = errors.New("query matched multiple users")
	// ErrEmptyMessage rejects empty or whitespace-only message text before
	// any store call.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrEmailTaken signals a sign-up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials signals a failed password check.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
