package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/spec-kit/eats-backend/internal/config"
)

const (
	verifyTemplate = "verify-email"
	verifySubject  = "Verify Your Email"
)

// MailgunSender sends templated verification mails through the Mailgun API.
type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

// NewMailgunSender builds a sender for the configured domain and API base.
func NewMailgunSender(cfg config.MailConfig) *MailgunSender {
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		mg.SetAPIBase(base)
	}
	if cfg.Timeout > 0 {
		mg.SetClient(&http.Client{Timeout: cfg.Timeout})
	}
	return &MailgunSender{mg: mg, from: cfg.From}
}

func (s *MailgunSender) Send(ctx context.Context, to, code string) error {
	msg := s.mg.NewMessage(s.from, verifySubject, "Your verification code is "+code, to)
	msg.SetTemplate(verifyTemplate)
	if err := msg.AddVariable("code", code); err != nil {
		return fmt.Errorf("mailgun variable code: %w", err)
	}
	if err := msg.AddVariable("username", to); err != nil {
		return fmt.Errorf("mailgun variable username: %w", err)
	}

	if _, _, err := s.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
