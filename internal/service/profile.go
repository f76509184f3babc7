package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/apierrors"
	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
	storage "github.com/mytolk/mytolk-server/internal/storage/minio"
)

// Profile manages the user-editable profile fields and the profile
// picture blob.
type Profile struct {
	userStore model.UserStore
	storage   model.BlobStorage
	notifier  model.Notifier
	logger    *logger.Logger
}

func NewProfile(
	userStore model.UserStore,
	storage model.BlobStorage,
	notifier model.Notifier,
	logger *logger.Logger,
) *Profile {
	return &Profile{
		userStore: userStore,
		storage:   storage,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *Profile) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, apierrors.NewErrUserNotFound(userID.String())
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// Update persists the editable profile fields. Only the owning principal
// reaches this path; the handler derives userID from the session.
func (s *Profile) Update(ctx context.Context, userID uuid.UUID, profile model.Profile) error {
	if err := s.userStore.UpdateProfile(ctx, userID, profile); err != nil {
		s.notifier.Notify(ctx, userID, model.Notification{
			Title:       "Error",
			Description: "Failed to update profile",
			Severity:    model.SeverityError,
		})
		return fmt.Errorf("failed to update profile: %w", err)
	}

	s.notifier.Notify(ctx, userID, model.Notification{
		Title:       "Profile updated",
		Description: "Your profile has been saved successfully",
		Severity:    model.SeverityInfo,
	})

	return nil
}

// UploadPicture stores the picture under the user's avatar key, overwriting
// any previous one, persists the returned public URL on the profile and
// returns it.
func (s *Profile) UploadPicture(ctx context.Context, userID uuid.UUID, fileExt, contentType string, reader io.Reader, size int64) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	key := storage.PictureKey(userID, fileExt)
	url, err := s.storage.Upload(ctx, key, reader, size, contentType)
	if err != nil {
		s.notifier.Notify(ctx, userID, model.Notification{
			Title:       "Upload failed",
			Description: "Failed to upload profile picture",
			Severity:    model.SeverityError,
		})
		return "", fmt.Errorf("failed to upload picture: %w", err)
	}

	profile := model.Profile{
		DisplayName:    user.DisplayName,
		Country:        user.Country,
		PhoneNumber:    user.PhoneNumber,
		ProfilePicture: &url,
		Profession:     user.Profession,
	}
	if err := s.userStore.UpdateProfile(ctx, userID, profile); err != nil {
		return "", fmt.Errorf("failed to persist picture url: %w", err)
	}

	s.notifier.Notify(ctx, userID, model.Notification{
		Title:       "Profile picture updated",
		Description: "Your profile picture has been uploaded successfully",
		Severity:    model.SeverityInfo,
	})

	return url, nil
}
