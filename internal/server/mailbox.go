package server

import (
	"encoding/json"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/http"
	"strings"

	"github.com/pr-poehali-dev/email-creation-site/internal/model"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// emailActionRequest is the body of a POST /emails call.
type emailActionRequest struct {
	Action         string `json:"action"`
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	EmailID        int64  `json:"email_id"`
}

// handleEmails serves the mailbox: GET lists a folder, POST performs
// one of the send/draft/mark_read/check_inbox actions.
func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFolder(w, r)
	case http.MethodPost:
		s.emailAction(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// listFolder lists the caller's inbox, sent, or drafts view.
func (s *Server) listFolder(w http.ResponseWriter, r *http.Request) {
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

	folder := model.Folder(r.URL.Query().Get("box"))
	if folder == "" {
		folder = model.FolderInbox
	}
	if !model.ValidFolder(folder) {
		writeError(w, http.StatusBadRequest, "Invalid box parameter")
		return
	}

	summaries, err := s.store.ListMessages(ctx, user.ID, user.Email, folder)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if summaries == nil {
		summaries = []model.MessageSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"emails": summaries})
}

func (s *Server) emailAction(w http.ResponseWriter, r *http.Request) {
	var req emailActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" {
		req.Action = "send"
	}

	switch req.Action {
	case "send", "draft":
		s.sendOrDraft(w, r, req)
	case "mark_read":
		s.markRead(w, r, req)
	case "check_inbox":
		s.checkInbox(w, r)
	default:
		writeError(w, http.StatusBadRequest, "Invalid action")
	}
}

// sendOrDraft stores a message and, for sends, attempts delivery
// through the relay. The row is durable before delivery starts, so a
// relay failure is logged and the response still reports success.
func (s *Server) sendOrDraft(w http.ResponseWriter, r *http.Request, req emailActionRequest) {
	ctx := r.Context()
	draft := req.Action == "draft"

	recipient := strings.TrimSpace(req.RecipientEmail)
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)

	if recipient == "" || subject == "" || body == "" {
		writeError(w, http.StatusBadRequest, "recipient_email, subject, and body are required")
		return
	}

	if _, err := netmail.ParseAddress(recipient); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recipient address")
		return
	}

	if !draft && s.relay == nil {
		writeError(w, http.StatusBadRequest, "SMTP credentials not configured")
		return
	}

	emailID, err := s.store.SaveOutbound(ctx, callerID(ctx), recipient, subject, body, draft)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	message := "Email sent via SMTP"
	if draft {
		message = "Draft saved"
	} else if err := s.relay.Send(recipient, subject, body); err != nil {
		// The message is already saved; delivery is best-effort.
		s.logger.Error("relay delivery failed",
			"email_id", emailID, "recipient", recipient, "error", err)
		message = "Email saved, delivery failed"
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"email_id": emailID,
		"message":  message,
	})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request, req emailActionRequest) {
	if req.EmailID == 0 {
		writeError(w, http.StatusBadRequest, "email_id is required")
		return
	}

	if err := s.store.MarkRead(r.Context(), req.EmailID); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// checkInbox runs the shared import operation for the calling user and
// echoes short previews of what arrived.
func (s *Server) checkInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.importer == nil {
		writeError(w, http.StatusBadRequest, "IMAP credentials not configured")
		return
	}

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
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("IMAP error: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"new_emails": result.Imported,
		"emails":     result.Messages,
	})
}
