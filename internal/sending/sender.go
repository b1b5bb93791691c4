// Package sending dispatches approved outreach emails. Sending is the one
// irreversible external action in the pipeline; it only ever runs behind the
// email review gate.
package sending

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Sender sends one approved draft. Implementations must not mutate the draft.
type Sender interface {
	Send(ctx context.Context, draft types.EmailDraft) error
}

// SendError represents a failure dispatching one email.
type SendError struct {
	Recipient string
	Message   string
	Cause     error
}

func (e *SendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("send error to %s: %s: %v", e.Recipient, e.Message, e.Cause)
	}
	return fmt.Sprintf("send error to %s: %s", e.Recipient, e.Message)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPSender implements Sender over an authenticated SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// Send dispatches one draft. Validation failures and relay failures are both
// SendErrors; the caller records them per row and continues the batch.
func (s *SMTPSender) Send(ctx context.Context, draft types.EmailDraft) error {
	if err := ctx.Err(); err != nil {
		return &SendError{Recipient: draft.HREmail, Message: "cancelled", Cause: err}
	}
	if !strings.Contains(draft.HREmail, "@") {
		return &SendError{Recipient: draft.HREmail, Message: "invalid recipient address"}
	}
	if strings.TrimSpace(draft.Subject) == "" || strings.TrimSpace(draft.Body) == "" {
		return &SendError{Recipient: draft.HREmail, Message: "empty subject or body"}
	}

	msg := buildMessage(s.cfg.From, draft)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := s.send(s.cfg.Addr(), auth, s.cfg.From, []string{draft.HREmail}, msg); err != nil {
		return &SendError{Recipient: draft.HREmail, Message: "smtp relay failed", Cause: err}
	}
	return nil
}

// buildMessage assembles an RFC 5322 message. Header values are folded onto
// one line to keep injection via edited subjects impossible.
func buildMessage(from string, draft types.EmailDraft) []byte {
	subject := strings.NewReplacer("\r", " ", "\n", " ").Replace(draft.Subject)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", draft.HREmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(draft.Body)
	return []byte(b.String())
}
