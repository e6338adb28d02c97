package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pr-poehali-dev/email-creation-site/internal/model"
)

// CreateUser inserts a new account row and returns it with the
// assigned id. A username or email collision yields ErrConflict.
func (s *SQLiteStore) CreateUser(
	ctx context.Context,
	username, email, passwordHash string,
) (*model.User, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("creating user %s: %w", username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new user id: %w", err)
	}

	return &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByID retrieves a single account by id.
func (s *SQLiteStore) GetUserByID(
	ctx context.Context, id int64,
) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a single account by its primary address.
func (s *SQLiteStore) GetUserByEmail(
	ctx context.Context, email string,
) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &u, nil
}

// GetUserByCredentials retrieves the account matching both username
// and password hash. The username match is case-sensitive.
func (s *SQLiteStore) GetUserByCredentials(
	ctx context.Context, username, passwordHash string,
) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		"SELECT * FROM users WHERE username = ? AND password_hash = ?",
		username, passwordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by credentials: %w", err)
	}
	return &u, nil
}

// UserExists reports whether any account already uses the given
// username or email.
func (s *SQLiteStore) UserExists(
	ctx context.Context, username, email string,
) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM users WHERE username = ? OR email = ?",
		username, email,
	)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return count > 0, nil
}

// GetRegisteredUsers retrieves all accounts that can log in, i.e.
// every row that is not an auto-created external correspondent.
func (s *SQLiteStore) GetRegisteredUsers(
	ctx context.Context,
) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT * FROM users WHERE password_hash != ? ORDER BY id",
		model.SentinelPasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("querying registered users: %w", err)
	}
	return users, nil
}

// AddSecondaryEmail associates an additional address with an account.
// Adding the same address twice is a no-op.
func (s *SQLiteStore) AddSecondaryEmail(
	ctx context.Context, userID int64, email string,
) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_emails (user_id, email) VALUES (?, ?)",
		userID, email,
	)
	if err != nil {
		return fmt.Errorf("adding secondary email for user %d: %w", userID, err)
	}
	return nil
}

// resolveOrCreateUserTx looks up an account by email inside tx,
// inserting an external correspondent row when none exists. The
// username of a created row is the address's local part.
func resolveOrCreateUserTx(
	ctx context.Context, tx *sqlx.Tx, email string,
) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM users WHERE email = ?", email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up user by email: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		model.LocalPart(email), email, model.SentinelPasswordHash, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating external correspondent %s: %w", email, err)
	}

	return res.LastInsertId()
}
