// internal/app/system/mailer/mailer.go

// Package mailer sends transactional mail (password resets) over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Email is one outgoing message. HTMLBody is optional; when present the
// message is sent as multipart/alternative.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends Email values through a single SMTP endpoint.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
}

// New creates a Mailer. Username/password may be empty for unauthenticated
// relays (local Mailpit in dev).
func New(host string, port int, username, password, from, fromName string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

// IsConfigured reports whether the mailer has enough config to send.
func (m *Mailer) IsConfigured() bool {
	return m.host != "" && m.port != 0 && m.from != ""
}

// Send delivers one message. Errors are returned, not retried.
func (m *Mailer) Send(e Email) error {
	if !m.IsConfigured() {
		return fmt.Errorf("mailer not configured")
	}

	from := m.from
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.from)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")

	if e.HTMLBody != "" {
		const boundary = "primebug-alt"
		fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, e.TextBody)
		fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, e.HTMLBody)
		fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(e.TextBody)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{e.To}, []byte(msg.String()))
}
