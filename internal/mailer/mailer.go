// Package mailer sends plain-text transactional email over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends email through a single SMTP endpoint.
type Mailer struct {
	cfg  Config
	addr string
}

// New constructs a Mailer.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
}

// Send delivers a plain-text message. Auth is skipped when no username is
// configured, which is how local catch-all servers run.
func (m *Mailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(m.addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
