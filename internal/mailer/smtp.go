package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPMailer sends the password-reset email over plain SMTP. The reset
// link points at the configured frontend base URL.
type SMTPMailer struct {
	addr     string
	username string
	password string
	from     string
	baseURL  string
}

func NewSMTPMailer(addr string, username string, password string, from string, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to string, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password Reset Request\r\n")
	b.WriteString("\r\n")
	b.WriteString("Hello,\r\n\r\n")
	b.WriteString("You have requested to reset your password. Please click on the link below to reset your password:\r\n\r\n")
	b.WriteString(resetURL + "\r\n\r\n")
	b.WriteString("If you did not request a password reset, please ignore this email.\r\n\r\n")
	b.WriteString("This link will expire in 15 minutes.\r\n")

	var auth smtp.Auth
	if m.username != "" {
		host := m.addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	slog.Info("password reset email sent", "to", to)
	return nil
}
