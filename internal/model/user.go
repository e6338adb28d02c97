package model

import (
	"strings"
	"time"
)

// SentinelPasswordHash marks accounts that were auto-created to
// represent an external correspondent. Such rows exist only so that a
// message can reference a sender; they can never authenticate, because
// login always compares against a 64-character hex digest.
const SentinelPasswordHash = "external"

// User is one account row: either a registered local user or an
// auto-created external correspondent.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsExternal reports whether the user is an auto-created correspondent
// rather than a registered account.
func (u User) IsExternal() bool {
	return u.PasswordHash == SentinelPasswordHash
}

// LocalPart returns the part of an email address before the '@'.
// It is used as the username when auto-creating a correspondent.
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// DeriveEmail builds the primary address for a registered username on
// the given local mail domain.
func DeriveEmail(username, domain string) string {
	return username + "@" + domain
}
