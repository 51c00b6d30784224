package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/akvarma/devpulse/internal/model"
)

// SMTPProvider sends notifications by email. Recipients are resolved at send
// time so the runtime-mutable alert destination takes effect without a
// restart.
type SMTPProvider struct {
	host       string
	port       int
	username   string
	password   string
	recipients func() []string
}

// NewSMTP creates an email notification provider. The caller is expected to
// construct it only when host, username, and password are all present.
func NewSMTP(host string, port int, username, password string, recipients func() []string) *SMTPProvider {
	return &SMTPProvider{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		recipients: recipients,
	}
}

func (p *SMTPProvider) Name() string { return "smtp" }

// Ready reports whether at least one recipient is configured. The destination
// list is runtime-mutable, so an empty list means not-yet-configured, not a
// delivery failure.
func (p *SMTPProvider) Ready() bool {
	return len(p.recipients()) > 0
}

func (p *SMTPProvider) Send(_ context.Context, n model.Notification) error {
	to := p.recipients()
	if len(to) == 0 {
		return fmt.Errorf("smtp: no recipients configured")
	}

	msg := buildMessage(p.username, to, n)
	addr := net.JoinHostPort(p.host, strconv.Itoa(p.port))
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	if err := smtp.SendMail(addr, auth, p.username, to, msg); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from string, to []string, n model.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", n.Title)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(n.Message, "\n", "\r\n"))
	return []byte(b.String())
}
