package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/config"
)

// Sender delivers a verification code to an email address.
type Sender interface {
	Send(ctx context.Context, to, code string) error
}

// NewSender returns a Mailgun sender when an API key and domain are configured,
// otherwise a sender that only logs.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.Domain) == "" {
		return NewLogSender(logger)
	}
	return NewMailgunSender(cfg)
}

// LogSender writes the verification mail to the log instead of sending it.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, code string) error {
	s.logger.Info("verification email", zap.String("to", to), zap.String("code", code))
	return nil
}
