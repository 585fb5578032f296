// Package mail sends account notification emails. Delivery is behind the
// Mailer interface so the notifier pool and tests don't care whether mail
// goes out over SMTP or just into the log.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/laptruong-hub/iam-service/pkg/slogx"
)

type Mailer interface {
	// SendWelcomeEmail greets a freshly registered account.
	SendWelcomeEmail(ctx context.Context, to, fullName string) error

	// SendPasswordResetEmail delivers a recovery code.
	SendPasswordResetEmail(ctx context.Context, to, fullName, code string) error
}

// SMTPConfig holds the connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer returns a Mailer that delivers over plain SMTP with AUTH.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) SendWelcomeEmail(ctx context.Context, to, fullName string) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour account has been created. You can now sign in with your email address.\r\n",
		fullName,
	)
	return m.send(ctx, to, "Welcome", body)
}

func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, to, fullName, code string) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour password reset code is: %s\r\n\r\nThe code expires in 5 minutes. If you did not request a reset, ignore this email.\r\n",
		fullName, code,
	)
	return m.send(ctx, to, "Password Reset Code", body)
}

func (m *smtpMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
}

type logMailer struct{}

// NewLogMailer returns a Mailer that only logs, for development and tests.
func NewLogMailer() Mailer {
	return &logMailer{}
}

func (l *logMailer) SendWelcomeEmail(ctx context.Context, to, fullName string) error {
	slogx.FromContext(ctx).Info("welcome email", "to", to, "full_name", fullName)
	return nil
}

func (l *logMailer) SendPasswordResetEmail(ctx context.Context, to, fullName, code string) error {
	slogx.FromContext(ctx).Info("password reset email", "to", to, "full_name", fullName, "code", code)
	return nil
}
