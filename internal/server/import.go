package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// handleCheckIncoming polls the shared external mailbox and imports
// unseen messages addressed to the calling user.
func (s *Server) handleCheckIncoming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if s.importer == nil {
		writeError(w, http.StatusBadRequest, "IMAP credentials not configured")
		return
	}

	ctx := r.Context()

	user, err := s.store.GetUserByID(ctx, callerID(ctx))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	result, err := s.importer.Run(ctx, *user)
	if err != nil {
		// Inserts committed before the failure stay committed.
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("IMAP error: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"imported": result.Imported,
		"message":  fmt.Sprintf("Imported %d new emails", result.Imported),
	})
}
