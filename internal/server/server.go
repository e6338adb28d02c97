// Package server exposes the webmail backend over HTTP: registration
// and login, folder listings, sending and drafting mail, and importing
// inbound mail from the shared external mailbox.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
	"github.com/pr-poehali-dev/email-creation-site/internal/importer"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// Relay delivers one outbound message. A nil Relay on the server means
// the SMTP side is not configured.
type Relay interface {
	Send(to, subject, body string) error
}

// Server routes and handles all webmail HTTP endpoints.
type Server struct {
	store    store.Store
	importer *importer.Importer
	relay    Relay
	domain   string
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New assembles a server. mailbox and relay may be nil when the
// corresponding credentials are absent; the handlers that need them
// respond 400 in that case.
func New(
	st store.Store,
	mailbox importer.Mailbox,
	relay Relay,
	cfg *config.AppConfig,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:  st,
		relay:  relay,
		domain: cfg.Mail.Domain,
		logger: logger,
	}

	if mailbox != nil {
		s.importer = importer.New(mailbox, st)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.handleAuth)
	mux.HandleFunc("/emails", s.withIdentity(s.handleEmails))
	mux.HandleFunc("/check-incoming", s.withIdentity(s.handleCheckIncoming))
	s.mux = mux

	return s
}

// ServeHTTP applies the middleware chain and dispatches to the mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.withLogging(s.withCORS(s.mux.ServeHTTP))(w, r)
}

// withCORS sets the permissive CORS headers on every response and
// short-circuits preflight requests.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// withLogging logs one line per request with a generated request id.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		s.logger.Info("request",
			"request_id", uuid.New().String(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	}
}

// withIdentity requires the numeric X-User-Id header on every
// non-preflight request. Identity is trusted as given; the session
// tokens issued at login are not verified here.
func (s *Server) withIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("X-User-Id")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized. X-User-Id header required")
			return
		}

		userID, err := strconv.ParseInt(header, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized. X-User-Id header required")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

type ctxKey int

const userIDKey ctxKey = iota

// callerID returns the authenticated user id placed on the context by
// withIdentity.
func callerID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
