package apierrors

import (
	"fmt"
	"net/http"
)

// APIError is an error with an HTTP status intended for the client.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func NewErrEmailIsTaken(email string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: fmt.Sprintf("email %s is already registered", email)}
}

func NewErrUserNotFound(query string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("no user found for %q", query)}
}

func NewErrAmbiguousQuery(query string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: fmt.Sprintf("query %q matched multiple users", query)}
}

func NewErrMessageNotFound() *APIError {
	return &APIError{Status: http.StatusNotFound, Message: "message not found"}
}

func NewErrEmptyMessage() *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: "message text must not be empty"}
}

func NewErrInvalidCredentials() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: "invalid email or password"}
}

func NewErrMissingAuthorizationToken() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: "missing authorization token"}
}

func NewErrInvalidAuthorizationToken() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: "invalid authorization token"}
}
