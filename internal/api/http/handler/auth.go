package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// AuthService covers the account lifecycle operations the auth endpoints
// expose.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, displayName *string) (model.User, error)
	SignIn(ctx context.Context, email, password string) (model.User, string, string, error)
	SignOut(ctx context.Context, userID uuid.UUID, refreshToken string) error
	ResetPassword(ctx context.Context, email string) (string, error)
	CompletePasswordReset(ctx context.Context, resetToken, newPassword string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	UpdateEmail(ctx context.Context, userID uuid.UUID, newEmail string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	ResetAccount(ctx context.Context, userID uuid.UUID) error
}

// SessionService issues and rotates token pairs.
type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
}

// Auth handles the authentication and account endpoints.
type Auth struct {
	authService    AuthService
	sessionService SessionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler instance.
func NewAuth(
	authService AuthService,
	sessionService SessionService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		sessionService: sessionService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type signUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// SignUp registers a new account.
func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("Auth handler: invalid sign-up payload", "error", err.Error())
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	user, err := h.authService.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.logger.Error("Auth handler: sign-up failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// SignIn verifies credentials and starts a session.
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, accessToken, refreshToken, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Auth handler: sign-in failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		User:         toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token into a fresh token pair.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh_token is required"})
		return
	}

	accessToken, refreshToken, err := h.sessionService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Debug("Auth handler: refresh failed", "error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

type signOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOut marks the principal offline and revokes the presented session.
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	var req signOutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.authService.SignOut(r.Context(), userID, req.RefreshToken); err != nil {
		h.logger.Error("Auth handler: sign-out failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordResponse struct {
	ResetToken string `json:"reset_token"`
}

// ResetPassword issues a single-use reset token for the given email. The
// token is returned to the caller for out-of-band delivery.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	resetToken, err := h.authService.ResetPassword(r.Context(), req.Email)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resetPasswordResponse{ResetToken: resetToken})
}

type completeResetRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// CompletePasswordReset consumes a reset token and installs a new password.
func (h *Auth) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req completeResetRequest
	if err := decodeJSON(r, &req); err != nil || req.ResetToken == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reset_token and new_password are required"})
		return
	}

	if err := h.authService.CompletePasswordReset(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UpdatePassword replaces the principal's password.
func (h *Auth) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "new_password is required"})
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), userID, req.NewPassword); err != nil {
		h.logger.Error("Auth handler: password update failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateEmailRequest struct {
	NewEmail string `json:"new_email"`
}

// UpdateEmail changes the principal's account email.
func (h *Auth) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	var req updateEmailRequest
	if err := decodeJSON(r, &req); err != nil || req.NewEmail == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "new_email is required"})
		return
	}

	if err := h.authService.UpdateEmail(r.Context(), userID, req.NewEmail); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount permanently removes the principal's account and all data
// referencing it.
func (h *Auth) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), userID); err != nil {
		h.logger.Error("Auth handler: account deletion failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	h.logger.Info("Auth handler: account deleted", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

// ResetAccount wipes the principal's chat history and profile fields while
// keeping the account itself.
func (h *Auth) ResetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	if err := h.authService.ResetAccount(r.Context(), userID); err != nil {
		h.logger.Error("Auth handler: account reset failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
