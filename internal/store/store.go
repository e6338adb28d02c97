package store

import (
	"context"
	"errors"

	"github.com/pr-poehali-dev/email-creation-site/internal/model"
)

// Sentinel errors returned by store operations. Handlers map these to
// HTTP status codes at the boundary.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint rejects an
	// insert, e.g. registering a username or email twice.
	ErrConflict = errors.New("already exists")
)

// Store defines the persistence interface for accounts and messages.
type Store interface {
	// === Accounts ===

	CreateUser(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByCredentials(ctx context.Context, username, passwordHash string) (*model.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	GetRegisteredUsers(ctx context.Context) ([]model.User, error)
	AddSecondaryEmail(ctx context.Context, userID int64, email string) error

	// === Messages ===

	// SaveInbound resolves or creates the sender account for fromEmail
	// and inserts the message, all within one transaction.
	SaveInbound(ctx context.Context, fromEmail, recipientEmail, subject, body string) (int64, error)

	// SaveOutbound resolves or creates the recipient account and
	// inserts the message, all within one transaction.
	SaveOutbound(ctx context.Context, senderID int64, recipientEmail, subject, body string, draft bool) (int64, error)

	ListMessages(ctx context.Context, userID int64, userEmail string, folder model.Folder) ([]model.MessageSummary, error)
	GetMessageByID(ctx context.Context, id int64) (*model.Message, error)
	MarkRead(ctx context.Context, id int64) error
}
