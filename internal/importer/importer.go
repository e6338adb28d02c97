// Package importer pulls unseen messages from the shared external
// mailbox into the message store. It is the single import path used by
// the check-incoming endpoint, the mailbox handler's check_inbox
// action, and the background poller.
package importer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pr-poehali-dev/email-creation-site/internal/mail"
	"github.com/pr-poehali-dev/email-creation-site/internal/model"
)

// DefaultLimit caps how many unseen messages one import run looks at.
// Older unseen messages are left for a later run.
const DefaultLimit = 10

// previewLen caps message bodies echoed back in import results. The
// stored body is never truncated.
const previewLen = 200

// Mailbox fetches unseen messages from the external mailbox.
type Mailbox interface {
	FetchUnseen(ctx context.Context, limit int) ([]mail.InboundMessage, error)
}

// Store is the subset of the message store the importer writes to.
type Store interface {
	SaveInbound(ctx context.Context, fromEmail, recipientEmail, subject, body string) (int64, error)
}

// Preview is a short echo of one imported message.
type Preview struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Result reports one import run.
type Result struct {
	Imported int       `json:"imported"`
	Messages []Preview `json:"messages"`
}

// Importer imports unseen external mail for a target account.
type Importer struct {
	mailbox Mailbox
	store   Store
	limit   int
}

// New creates an importer over the given mailbox and store.
func New(mailbox Mailbox, store Store) *Importer {
	return &Importer{
		mailbox: mailbox,
		store:   store,
		limit:   DefaultLimit,
	}
}

// Run fetches up to the limit of unseen messages and imports every
// one addressed to the target user. A message counts as addressed when
// the user's stored email appears, case-insensitively, inside any of
// its To addresses. Inserts already committed before a failure stay
// committed; the partial result is returned alongside the error.
func (im *Importer) Run(ctx context.Context, user model.User) (Result, error) {
	var result Result

	messages, err := im.mailbox.FetchUnseen(ctx, im.limit)
	if err != nil {
		return result, err
	}

	for _, msg := range messages {
		if msg.From == "" || !addressedTo(msg, user.Email) {
			continue
		}

		if _, err := im.store.SaveInbound(
			ctx, msg.From, user.Email, msg.Subject, msg.Body,
		); err != nil {
			return result, err
		}

		result.Imported++
		result.Messages = append(result.Messages, Preview{
			From:    msg.From,
			Subject: msg.Subject,
			Body:    truncate(msg.Body, previewLen),
		})
	}

	return result, nil
}

// addressedTo reports whether the user's email occurs inside any of
// the message's To addresses, ignoring case.
func addressedTo(msg mail.InboundMessage, userEmail string) bool {
	needle := strings.ToLower(userEmail)
	for _, to := range msg.To {
		if strings.Contains(strings.ToLower(to), needle) {
			return true
		}
	}
	return false
}

// truncate shortens s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
