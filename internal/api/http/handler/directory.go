package handler

import (
	"context"
	"net/http"

	"github.com/mytolk/mytolk-server/internal/logger"
	"github.com/mytolk/mytolk-server/internal/model"
)

// DirectoryService resolves search queries to a single user.
type DirectoryService interface {
	Lookup(ctx context.Context, query string) (model.User, error)
}

// Directory handles the user search endpoint.
type Directory struct {
	directoryService DirectoryService
	logger           *logger.Logger
}

// NewDirectory creates a new Directory handler instance.
func NewDirectory(directoryService DirectoryService, logger *logger.Logger) *Directory {
	return &Directory{directoryService: directoryService, logger: logger}
}

// Search resolves ?q= to exactly one user. No match is a 404; more than
// one match is a 409.
func (h *Directory) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	user, err := h.directoryService.Lookup(r.Context(), query)
	if err != nil {
		h.logger.Debug("Directory handler: lookup failed",
			"query", query,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
