package model

import "time"

// Folder identifies one of the three logical message views.
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderSent   Folder = "sent"
	FolderDrafts Folder = "drafts"
)

// ValidFolder reports whether f is one of the known folders.
func ValidFolder(f Folder) bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts:
		return true
	}
	return false
}

// Message is one unit of mail. A message is owned by its sender
// account; a recipient sees it only by address match on
// RecipientEmail, never through a foreign key.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	SenderID       int64     `json:"sender_id" db:"sender_id"`
	RecipientEmail string    `json:"recipient_email" db:"recipient_email"`
	Subject        string    `json:"subject" db:"subject"`
	Body           string    `json:"body" db:"body"`
	IsDraft        bool      `json:"is_draft" db:"is_draft"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MessageSummary is one row of a folder listing. Exactly one of From
// and To is set: inbox rows carry the sender address, sent and drafts
// rows carry the recipient address.
type MessageSummary struct {
	ID      int64     `json:"id" db:"id"`
	From    string    `json:"from,omitempty" db:"from_email"`
	To      string    `json:"to,omitempty" db:"to_email"`
	Subject string    `json:"subject" db:"subject"`
	Body    string    `json:"body" db:"body"`
	IsRead  bool      `json:"is_read" db:"is_read"`
	SentAt  time.Time `json:"sent_at" db:"sent_at"`
}
