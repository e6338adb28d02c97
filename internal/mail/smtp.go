package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
)

// Relay delivers outbound messages through the configured SMTP server
// over an implicit TLS connection.
type Relay struct {
	cfg config.SMTPConfig
}

// NewRelay creates a relay from the injected SMTP credentials.
func NewRelay(cfg config.SMTPConfig) *Relay {
	return &Relay{cfg: cfg}
}

// Send composes a text/plain message from the relay account to the
// given address and delivers it.
func (r *Relay) Send(to, subject, body string) error {
	from := r.cfg.Username

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := r.cfg.Host + ":" + r.cfg.Port

	return sendWithTLS(addr, r.cfg, from, to, msg.String())
}

// sendWithTLS sends an email over an implicit TLS connection.
func sendWithTLS(
	addr string, cfg config.SMTPConfig,
	from, to, body string,
) error {
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return sendViaClient(client, from, to, body)
}

// sendViaClient sends a message using an already-authenticated SMTP
// client.
func sendViaClient(client *smtp.Client, from, to, body string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}

	if _, err := writer.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
