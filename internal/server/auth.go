package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pr-poehali-dev/email-creation-site/internal/model"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// authRequest is the body of a POST /auth call.
type authRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is the user payload returned on successful registration or
// login.
type authUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// authResponse is the success payload of POST /auth.
type authResponse struct {
	Success bool     `json:"success"`
	User    authUser `json:"user"`
	Token   string   `json:"token"`
}

// handleAuth registers or logs in a user. Both paths issue a fresh
// random session token; no token is ever stored or checked afterwards,
// matching the trust-the-header identity model.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	switch req.Action {
	case "register":
		s.register(w, r, req)
	case "login":
		s.login(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "Invalid action. Use register or login")
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, req authRequest) {
	ctx := r.Context()
	email := model.DeriveEmail(req.Username, s.domain)

	exists, err := s.store.UserExists(ctx, req.Username, email)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}

	user, err := s.store.CreateUser(ctx, req.Username, email, hashPassword(req.Password))
	if errors.Is(err, store.ErrConflict) {
		// Lost the race against a concurrent registration.
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	token, err := newSessionToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		User:    authUser{ID: user.ID, Username: user.Username, Email: user.Email},
		Token:   token,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, req authRequest) {
	user, err := s.store.GetUserByCredentials(
		r.Context(), req.Username, hashPassword(req.Password),
	)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	token, err := newSessionToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		User:    authUser{ID: user.ID, Username: user.Username, Email: user.Email},
		Token:   token,
	})
}

// hashPassword digests the plaintext password. A single unsalted
// SHA-256 round, hex-encoded, kept for compatibility with existing
// stored credentials.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// newSessionToken returns an opaque URL-safe token with 32 bytes of
// entropy.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
