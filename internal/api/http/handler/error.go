package handler

import (
	"errors"
	"net/http"

	"github.com/mytolk/mytolk-server/internal/apierrors"
	"github.com/mytolk/mytolk-server/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func handleError(w http.ResponseWriter, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, errorResponse{Error: apiErr.Message})
		return
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, model.ErrAmbiguous):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "query matched multiple users"})
	case errors.Is(err, model.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message text must not be empty"})
	case errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired),
		errors.Is(err, model.ErrTokenMismatch):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid session"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
