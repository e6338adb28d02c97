package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
	"github.com/pr-poehali-dev/email-creation-site/internal/importer"
	"github.com/pr-poehali-dev/email-creation-site/internal/mail"
	"github.com/pr-poehali-dev/email-creation-site/internal/model"
	"github.com/pr-poehali-dev/email-creation-site/internal/server"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
	"github.com/pr-poehali-dev/email-creation-site/tests/testutil"
)

// fakeRelay records delivery attempts and optionally fails them.
type fakeRelay struct {
	sent []string
	err  error
}

func (f *fakeRelay) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

// fakeMailbox serves canned unseen messages.
type fakeMailbox struct {
	messages []mail.InboundMessage
	err      error
}

func (f *fakeMailbox) FetchUnseen(_ context.Context, limit int) ([]mail.InboundMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	msgs := f.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// testEnv bundles a server over an in-memory store.
type testEnv struct {
	srv   *server.Server
	store *store.SQLiteStore
	relay *fakeRelay
}

func newTestEnv(t *testing.T, mailbox importer.Mailbox) *testEnv {
	t.Helper()

	st := testutil.NewTestStore(t)
	relay := &fakeRelay{}
	cfg := &config.AppConfig{Mail: config.MailConfig{Domain: "skzry.ru"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		srv:   server.New(st, mailbox, relay, cfg, logger),
		store: st,
		relay: relay,
	}
}

// newTestEnvWithoutRelay builds a server with no SMTP relay wired, as
// when the relay credentials are absent from the config.
func newTestEnvWithoutRelay(t *testing.T) *testEnv {
	t.Helper()

	st := testutil.NewTestStore(t)
	cfg := &config.AppConfig{Mail: config.MailConfig{Domain: "skzry.ru"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		srv:   server.New(st, nil, nil, cfg, logger),
		store: st,
	}
}

// do performs one request against the server and returns the recorder.
func (e *testEnv) do(
	t *testing.T,
	method, target string,
	body interface{},
	userID int64,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID != 0 {
		req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
	}

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response body.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerUser creates an account through the API and returns it.
func (e *testEnv) registerUser(t *testing.T, username, password string) model.User {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth", map[string]string{
		"action": "register", "username": username, "password": password,
	}, 0)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	user := body["user"].(map[string]interface{})

	return model.User{
		ID:       int64(user["id"].(float64)),
		Username: user["username"].(string),
		Email:    user["email"].(string),
	}
}
