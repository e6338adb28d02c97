package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// writeJSON serializes v with the application/json content type.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error payload.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store sentinel errors to their status codes and
// degrades everything else to a 500 carrying the raw error text.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Already exists")
	default:
		writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}
