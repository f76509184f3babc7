package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mytolk/mytolk-server/internal/apierrors"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// Auth owns the account lifecycle: registration, session start/end with
// presence tracking, credential updates, and the destructive account
// operations (reset, delete).
type Auth struct {
	userStore    model.UserStore
	messageStore model.MessageStore
	tokenService *TokenService
	notifier     model.Notifier
	logger       *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	messageStore model.MessageStore,
	refreshTokenStore model.RefreshTokenStore,
	tokenManager model.TokenManager,
	notifier model.Notifier,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		messageStore: messageStore,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		notifier:     notifier,
		logger:       logger,
	}
}

// Tokens returns the session token service backing this Auth instance.
func (a *Auth) Tokens() *TokenService {
	return a.tokenService
}

// SignUp registers a new user. The principal row is created immediately
// with presence offline; it becomes online on first sign-in.
func (a *Auth) SignUp(ctx context.Context, email, password string, displayName *string) (model.User, error) {
	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	existingUser, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if existingUser.ID != uuid.Nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.User{}, apierrors.NewErrEmailIsTaken(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Status:       model.StatusOffline,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	savedUser, err := a.userStore.Create(ctx, user)
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered successfully",
		"email", email,
		"user_id", savedUser.ID)

	return savedUser, nil
}

// SignIn verifies credentials, marks the principal online and issues a
// session token pair.
func (a *Auth) SignIn(ctx context.Context, email, password string) (model.User, string, string, error) {
	a.logger.Debug("Auth service: starting user sign-in",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, "", "", apierrors.NewErrInvalidCredentials()
	}
	if err != nil {
		return model.User{}, "", "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return model.User{}, "", "", apierrors.NewErrInvalidCredentials()
	}

	if err := a.userStore.UpdateStatus(ctx, user.ID, model.StatusOnline); err != nil {
		return model.User{}, "", "", fmt.Errorf("failed to mark user online: %w", err)
	}
	user.Status = model.StatusOnline

	accessToken, refreshToken, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		return model.User{}, "", "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user signed in",
		"email", email,
		"user_id", user.ID)

	return user, accessToken, refreshToken, nil
}

// Restore resolves the principal behind an access token on app start.
// An invalid token or a missing row yields an absent session, not an error
// notification.
func (a *Auth) Restore(ctx context.Context, accessToken string) (model.User, error) {
	userID, err := a.tokenService.GetUserID(ctx, accessToken)
	if err != nil {
		return model.User{}, apierrors.NewErrInvalidAuthorizationToken()
	}

	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrInvalidAuthorizationToken()
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if err := a.userStore.UpdateStatus(ctx, user.ID, model.StatusOnline); err != nil {
		return model.User{}, fmt.Errorf("failed to mark user online: %w", err)
	}
	user.Status = model.StatusOnline

	return user, nil
}

// SignOut marks the principal offline before invalidating the session.
func (a *Auth) SignOut(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := a.userStore.UpdateStatus(ctx, userID, model.StatusOffline); err != nil {
		a.notifyError(ctx, userID, "Sign Out Failed")
		return fmt.Errorf("failed to mark user offline: %w", err)
	}

	if err := a.tokenService.RevokeByToken(ctx, refreshToken); err != nil {
		a.notifyError(ctx, userID, "Sign Out Failed")
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	a.notifier.Notify(ctx, userID, model.Notification{
		Title:    "Signed out successfully",
		Severity: model.SeverityInfo,
	})

	a.logger.Info("Auth service: user signed out", "user_id", userID)

	return nil
}

// ResetPassword issues a single-use reset token for the account behind
// email, to be delivered out of band. Unknown emails yield ErrNotFound.
func (a *Auth) ResetPassword(ctx context.Context, email string) (string, error) {
	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return "", apierrors.NewErrUserNotFound(email)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	resetToken, err := a.tokenService.manager.GenerateResetToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}

	a.logger.Info("Auth service: password reset requested",
		"user_id", user.ID)

	return resetToken, nil
}

// CompletePasswordReset consumes a reset token and installs the new
// password, revoking every open session.
func (a *Auth) CompletePasswordReset(ctx context.Context, resetToken, newPassword string) error {
	userID, err := a.tokenService.manager.ParseResetToken(resetToken)
	if err != nil {
		return apierrors.NewErrInvalidAuthorizationToken()
	}

	return a.UpdatePassword(ctx, userID, newPassword)
}

// UpdatePassword replaces the password and revokes every open session so
// stolen refresh tokens die with the old credential.
func (a *Auth) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.userStore.UpdatePassword(ctx, userID, hash); err != nil {
		a.notifyError(ctx, userID, "Password Update Failed")
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := a.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		a.notifyError(ctx, userID, "Password Update Failed")
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	a.notifier.Notify(ctx, userID, model.Notification{
		Title:    "Password updated successfully",
		Severity: model.SeverityInfo,
	})

	return nil
}

// UpdateEmail changes the account email.
func (a *Auth) UpdateEmail(ctx context.Context, userID uuid.UUID, newEmail string) error {
	existingUser, err := a.userStore.GetByEmail(ctx, newEmail)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if existingUser.ID != uuid.Nil && existingUser.ID != userID {
		return apierrors.NewErrEmailIsTaken(newEmail)
	}

	if err := a.userStore.UpdateEmail(ctx, userID, newEmail); err != nil {
		a.notifyError(ctx, userID, "Email Update Failed")
		return fmt.Errorf("failed to update email: %w", err)
	}

	a.notifier.Notify(ctx, userID, model.Notification{
		Title:    "Email updated successfully",
		Severity: model.SeverityInfo,
	})

	return nil
}

// DeleteAccount removes the principal row, then revokes the identity.
// Message and session rows foreign-key the principal and are removed by
// the store-level cascade. No rollback is attempted on partial failure.
func (a *Auth) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := a.userStore.Delete(ctx, userID); err != nil {
		a.notifyError(ctx, userID, "Account Deletion Failed")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := a.tokenService.RevokeAllForUser(ctx, userID); err != nil {
		a.notifyError(ctx, userID, "Account Deletion Failed")
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	a.logger.Info("Auth service: account deleted", "user_id", userID)

	return nil
}

// ResetAccount deletes all messages involving the principal, then clears
// the profile while preserving id and email. The two writes are not
// transactional: if the profile clear fails after the messages are gone,
// the account is left in an intermediate state and only a generic failure
// notification is produced.
func (a *Auth) ResetAccount(ctx context.Context, userID uuid.UUID) error {
	if err := a.messageStore.DeleteInvolving(ctx, userID); err != nil {
		a.notifyError(ctx, userID, "Account Reset Failed")
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	if err := a.userStore.ResetProfile(ctx, userID); err != nil {
		a.notifyError(ctx, userID, "Account Reset Failed")
		return fmt.Errorf("failed to reset profile: %w", err)
	}

	a.notifier.Notify(ctx, userID, model.Notification{
		Title:       "Account reset successfully",
		Description: "Your chat history and profile have been cleared.",
		Severity:    model.SeverityInfo,
	})

	a.logger.Info("Auth service: account reset", "user_id", userID)

	return nil
}

func (a *Auth) notifyError(ctx context.Context, userID uuid.UUID, title string) {
	a.notifier.Notify(ctx, userID, model.Notification{
		Title:       title,
		Description: "An unexpected error occurred",
		Severity:    model.SeverityError,
	})
}
