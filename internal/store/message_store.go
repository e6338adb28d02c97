package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pr-poehali-dev/email-creation-site/internal/model"
)

// SaveInbound stores one imported message. The sender account is
// resolved by the message's From address, creating an external
// correspondent row when the address is unknown. Both steps run in a
// single transaction so a failed insert never leaves an orphaned
// correspondent behind.
func (s *SQLiteStore) SaveInbound(
	ctx context.Context,
	fromEmail, recipientEmail, subject, body string,
) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	senderID, err := resolveOrCreateUserTx(ctx, tx, fromEmail)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO emails (
			sender_id, recipient_email, subject, body,
			is_draft, is_read, sent_at, created_at
		) VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		senderID, recipientEmail, subject, body, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting inbound message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new message id: %w", err)
	}

	return id, tx.Commit()
}

// SaveOutbound stores one authored message or draft. An unknown
// recipient address gets an external correspondent row, in the same
// transaction as the message insert.
func (s *SQLiteStore) SaveOutbound(
	ctx context.Context,
	senderID int64,
	recipientEmail, subject, body string,
	draft bool,
) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := resolveOrCreateUserTx(ctx, tx, recipientEmail); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO emails (
			sender_id, recipient_email, subject, body,
			is_draft, is_read, sent_at, created_at
		) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		senderID, recipientEmail, subject, body, boolToInt(draft), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting outbound message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new message id: %w", err)
	}

	return id, tx.Commit()
}

// ListMessages retrieves one folder view for the given account,
// newest first. Inbox rows carry the sender address, sent and drafts
// rows carry the recipient address; drafts order by creation time.
func (s *SQLiteStore) ListMessages(
	ctx context.Context,
	userID int64,
	userEmail string,
	folder model.Folder,
) ([]model.MessageSummary, error) {
	var (
		query string
		args  []interface{}
	)

	switch folder {
	case model.FolderInbox:
		query = `
			SELECT e.id, u.email AS from_email, e.subject, e.body, e.is_read, e.sent_at
			FROM emails e
			JOIN users u ON e.sender_id = u.id
			WHERE (e.recipient_email = ?
			       OR e.recipient_email IN (SELECT email FROM user_emails WHERE user_id = ?))
			      AND e.is_draft = 0
			ORDER BY e.sent_at DESC`
		args = []interface{}{userEmail, userID}
	case model.FolderSent:
		query = `
			SELECT id, recipient_email AS to_email, subject, body, is_read, sent_at
			FROM emails
			WHERE sender_id = ? AND is_draft = 0
			ORDER BY sent_at DESC`
		args = []interface{}{userID}
	case model.FolderDrafts:
		query = `
			SELECT id, recipient_email AS to_email, subject, body, is_read, created_at AS sent_at
			FROM emails
			WHERE sender_id = ? AND is_draft = 1
			ORDER BY created_at DESC`
		args = []interface{}{userID}
	default:
		return nil, fmt.Errorf("unknown folder %q", folder)
	}

	var summaries []model.MessageSummary
	if err := s.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("querying %s messages: %w", folder, err)
	}

	return summaries, nil
}

// GetMessageByID retrieves a single message by id.
func (s *SQLiteStore) GetMessageByID(
	ctx context.Context, id int64,
) (*model.Message, error) {
	var m model.Message
	err := s.db.GetContext(ctx, &m, "SELECT * FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting message %d: %w", id, err)
	}
	return &m, nil
}

// MarkRead flips is_read on a message. The operation is idempotent
// and deliberately does not check who the caller is.
func (s *SQLiteStore) MarkRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE emails SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking message %d as read: %w", id, err)
	}
	return nil
}
