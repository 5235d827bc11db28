// Package notify delivers outbound notifications for captured leads.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

const defaultFromName = "ChatDesk"

// EmailSender sends one email. Implementations must be safe for
// concurrent use.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single outbound email. HTML is optional; when empty
// the plain-text body serves both parts.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logging.Logger
}

// SendGridConfig holds the SendGrid account settings.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured, letting
// the caller leave notifications disabled.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	name := cfg.FromName
	if name == "" {
		name = defaultFromName
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(name, cfg.FromEmail),
		logger: logger,
	}
}

// Send delivers msg. Any non-success SendGrid response counts as an
// error so the caller can log the degradation.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return errors.New("notify: sendgrid client not configured")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, html)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid responded %d", resp.StatusCode)
	}
	s.logger.Info("notification email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender logs instead of sending; it stands in when email is
// disabled in development.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates the logging stand-in.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send records the email without delivering it.
func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}
