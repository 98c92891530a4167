package alerts

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"github.com/wneessen/go-mail"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type ChatSender interface {
	Send(ctx context.Context, webhookURL, message string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers plain-text mail through a single relay.
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// WebhookChatSender posts to Slack-compatible incoming webhooks.
type WebhookChatSender struct {
	client *http.Client
}

func NewWebhookChatSender(timeout time.Duration) *WebhookChatSender {
	return &WebhookChatSender{client: &http.Client{Timeout: timeout}}
}

func (s *WebhookChatSender) Send(ctx context.Context, webhookURL, message string) error {
	msg := &slack.WebhookMessage{Text: message}
	if err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("failed to post chat message: %w", err)
	}
	return nil
}
