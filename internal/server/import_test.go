package server_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/email-creation-site/internal/mail"
	"github.com/pr-poehali-dev/email-creation-site/internal/model"
)

func TestCheckIncoming_ImportsForCaller(t *testing.T) {
	mailbox := &fakeMailbox{}
	env := newTestEnv(t, mailbox)
	alice := env.registerUser(t, "alice", "pw")

	mailbox.messages = []mail.InboundMessage{
		{UID: 1, Subject: "a", From: "x@example.com", To: []string{alice.Email}, Body: "1"},
		{UID: 2, Subject: "b", From: "y@example.com", To: []string{alice.Email}, Body: "2"},
		{UID: 3, Subject: "c", From: "z@example.com", To: []string{"other@skzry.ru"}, Body: "3"},
	}

	rec := env.do(t, http.MethodPost, "/check-incoming", nil, alice.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["imported"])
	assert.Equal(t, "Imported 2 new emails", body["message"])

	inbox, err := env.store.ListMessages(
		context.Background(), alice.ID, alice.Email, model.FolderInbox,
	)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
}

func TestCheckIncoming_RequiresIdentity(t *testing.T) {
	env := newTestEnv(t, &fakeMailbox{})

	rec := env.do(t, http.MethodPost, "/check-incoming", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckIncoming_UnknownUser(t *testing.T) {
	env := newTestEnv(t, &fakeMailbox{})

	rec := env.do(t, http.MethodPost, "/check-incoming", nil, 404404)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckIncoming_WithoutIMAPConfig(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice", "pw")

	rec := env.do(t, http.MethodPost, "/check-incoming", nil, alice.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckIncoming_IMAPFailure(t *testing.T) {
	mailbox := &fakeMailbox{err: errors.New("TLS handshake failed")}
	env := newTestEnv(t, mailbox)
	alice := env.registerUser(t, "alice", "pw")

	rec := env.do(t, http.MethodPost, "/check-incoming", nil, alice.ID)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "TLS handshake failed")
}

func TestCheckIncoming_WrongMethod(t *testing.T) {
	env := newTestEnv(t, &fakeMailbox{})
	alice := env.registerUser(t, "alice", "pw")

	rec := env.do(t, http.MethodDelete, "/check-incoming", nil, alice.ID)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
