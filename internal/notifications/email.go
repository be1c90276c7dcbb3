package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/config"
)

// Message is a single transactional email
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers transactional emails
type EmailSender interface {
	Send(ctx context.Context, message *Message) error
	Name() string
}

// NewEmailSender returns SendGrid when an API key is configured, otherwise a sender that only logs
func NewEmailSender(cfg config.EmailConfig, logger *logrus.Logger) EmailSender {
	if cfg.SendGridAPIKey == "" {
		return NewLogSender(logger)
	}
	return NewSendGridSender(cfg, logger)
}

// SendGridSender sends email through the SendGrid v3 API
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
	logger   *logrus.Logger
}

// NewSendGridSender creates a new SendGrid sender
func NewSendGridSender(cfg config.EmailConfig, logger *logrus.Logger) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

func (s *SendGridSender) Name() string {
	return "sendgrid"
}

func (s *SendGridSender) Send(ctx context.Context, message *Message) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(message.ToName, message.To)
	m := mail.NewSingleEmail(from, message.Subject, to, message.Text, message.HTML)

	// tracking rewrites links, which breaks recovery tokens in some clients
	trackingSettings := mail.NewTrackingSettings()
	clickTracking := mail.NewClickTrackingSetting()
	clickTracking.SetEnable(false)
	clickTracking.SetEnableText(false)
	trackingSettings.SetClickTracking(clickTracking)
	openTracking := mail.NewOpenTrackingSetting()
	openTracking.SetEnable(false)
	trackingSettings.SetOpenTracking(openTracking)
	m.SetTrackingSettings(trackingSettings)

	response, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid API error: %d - %s", response.StatusCode, response.Body)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
	}).Info("Email sent")
	return nil
}

// LogSender writes emails to the log; used in development and when SendGrid is not configured
type LogSender struct {
	logger *logrus.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string {
	return "log"
}

func (s *LogSender) Send(ctx context.Context, message *Message) error {
	s.logger.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
		"body":    message.Text,
	}).Info("Email not sent, no provider configured")
	return nil
}
