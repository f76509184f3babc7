package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/mytolk/mytolk-server/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// principalID reads the authenticated user ID from the request context,
// writing a 401 when the middleware did not set one.
func principalID(w http.ResponseWriter, r *http.Request, cm model.ContextManager) (uuid.UUID, bool) {
	userID, ok := cm.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing authenticated user"})
		return uuid.Nil, false
	}
	return userID, true
}
