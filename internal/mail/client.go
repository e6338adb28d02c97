// Package mail wraps the external mail protocols: an IMAP client for
// pulling inbound messages from the shared mailbox and an SMTP relay
// for delivering outbound ones.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
)

// IMAPClient wraps go-imap v2 for connecting to and querying the
// shared external mailbox.
type IMAPClient struct {
	cfg config.IMAPConfig
}

// NewIMAPClient creates a new IMAP client from the injected mailbox
// credentials.
func NewIMAPClient(cfg config.IMAPConfig) *IMAPClient {
	return &IMAPClient{cfg: cfg}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *IMAPClient) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.cfg.Host + ":" + c.cfg.Port

	var client *imapclient.Client
	var err error

	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("IMAP login for %s: %w", c.cfg.Username, err)
	}

	return client, nil
}

// FetchUnseen connects to the mailbox, searches INBOX for unseen
// messages, and returns the last `limit` of them with their bodies.
// The fetch does not peek, so the mailbox flips its own \Seen flag on
// every returned message as a side effect.
func (c *IMAPClient) FetchUnseen(
	ctx context.Context, limit int,
) ([]InboundMessage, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Keep only the most recent UIDs; anything older is silently
	// left for a later poll.
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{}

	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var messages []InboundMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		inbound := messageFromBuffer(buf, bodySection)
		messages = append(messages, inbound)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching unseen messages: %w", err)
	}

	return messages, nil
}

// messageFromBuffer extracts an InboundMessage from a fetched buffer.
// go-imap decodes encoded-word subject headers when it parses the
// envelope.
func messageFromBuffer(
	buf *imapclient.FetchMessageBuffer,
	bodySection *imap.FetchItemBodySection,
) InboundMessage {
	msg := InboundMessage{
		UID:     uint32(buf.UID),
		Subject: NoSubject,
	}

	if buf.Envelope != nil {
		if buf.Envelope.Subject != "" {
			msg.Subject = buf.Envelope.Subject
		}
		msg.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			msg.From = buf.Envelope.From[0].Addr()
		}
		for _, to := range buf.Envelope.To {
			msg.To = append(msg.To, to.Addr())
		}
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		msg.Body = extractTextBody(raw)
	}

	return msg
}

// extractTextBody parses a raw RFC 2822 message and returns the first
// text/plain part, or the whole payload when the message is not
// parseable as MIME. Invalid UTF-8 bytes are replaced.
func extractTextBody(raw []byte) string {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	defer mr.Close()

	var fallback string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		if strings.HasPrefix(contentType, "text/plain") {
			return strings.ToValidUTF8(string(body), string(utf8.RuneError))
		}
		if fallback == "" {
			fallback = string(body)
		}
	}

	return strings.ToValidUTF8(fallback, string(utf8.RuneError))
}
