package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// maxPictureSize caps profile picture uploads at 5 MiB.
const maxPictureSize = 5 << 20

// ProfileService covers the profile endpoints.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (model.User, error)
	Update(ctx context.Context, userID uuid.UUID, profile model.Profile) error
	UploadPicture(ctx context.Context, userID uuid.UUID, fileExt, contentType string, reader io.Reader, size int64) (string, error)
}

// Profile handles the profile endpoints.
type Profile struct {
	profileService ProfileService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewProfile creates a new Profile handler instance.
func NewProfile(profileService ProfileService, contextManager model.ContextManager, logger *logger.Logger) *Profile {
	return &Profile{
		profileService: profileService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Get returns the principal's own profile.
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Country     *string `json:"country"`
	PhoneNumber *string `json:"phone_number"`
	Profession  *string `json:"profession"`
}

// Update persists the editable profile fields and returns the refreshed
// profile.
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	current, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	profile := model.Profile{
		DisplayName:    req.DisplayName,
		Country:        req.Country,
		PhoneNumber:    req.PhoneNumber,
		ProfilePicture: current.ProfilePicture,
		Profession:     req.Profession,
	}

	if err := h.profileService.Update(r.Context(), userID, profile); err != nil {
		h.logger.Error("Profile handler: update failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type uploadPictureResponse struct {
	URL string `json:"url"`
}

// UploadPicture accepts a multipart upload under the "picture" field and
// replaces the principal's profile picture.
func (h *Profile) UploadPicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r, h.contextManager)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxPictureSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "picture file is required"})
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	if ext == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "picture file must have an extension"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.profileService.UploadPicture(r.Context(), userID, ext, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("Profile handler: picture upload failed",
			"user_id", userID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadPictureResponse{URL: url})
}
