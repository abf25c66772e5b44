// internal/app/system/mailer/mailer.go
//
// Package mailer sends transactional email over SMTP. When no SMTP host is
// configured the mailer runs in log-only mode, which keeps dev setups and
// tests working without a mail relay.
package mailer

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is one outbound message. TextBody is required; HTMLBody is optional
// and sent as the preferred alternative when present.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings.
type Config struct {
	Host     string // empty disables sending
	Port     int
	Username string
	Password string
	From     string // e.g. "MentorHub <no-reply@example.org>"
}

// Mailer sends Email values. Safe for concurrent use.
type Mailer struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Mailer. A zero Host yields a log-only mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Enabled reports whether the mailer has a relay configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers the email. In log-only mode the message is logged and
// dropped.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return fmt.Errorf("mailer: empty recipient")
	}

	if !m.Enabled() {
		m.logger.Info("mailer disabled, dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := m.build(e)
	if err := smtp.SendMail(addr, auth, envelopeFrom(m.cfg.From), []string{e.To}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}

	m.logger.Debug("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) build(e Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + e.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", e.Subject) + "\r\n")
	b.WriteString("Message-ID: <" + uuid.New().String() + "@" + m.cfg.Host + ">\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if e.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(e.TextBody)
		return []byte(b.String())
	}

	boundary := "alt-" + uuid.New().String()
	b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.TextBody + "\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(e.HTMLBody + "\r\n")
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

// envelopeFrom extracts the bare address from a "Name <addr>" From header.
func envelopeFrom(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}
