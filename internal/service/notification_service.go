package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/events"
	"github.com/spec-kit/eats-backend/internal/notify"
)

// NotificationService delivers the mails requested by account events.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVerificationRequested, n.handleVerificationRequested)
}

func (n *NotificationService) handleVerificationRequested(ctx context.Context, event events.Event) error {
	var payload events.VerificationRequestedPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode verification payload: %w", err)
	}
	if payload.Email == "" || payload.Code == "" {
		return fmt.Errorf("incomplete verification payload for event %s", event.ID)
	}

	if err := n.sender.Send(ctx, payload.Email, payload.Code); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	n.logger.Debug("verification email sent", zap.String("event_id", event.ID), zap.String("to", payload.Email))
	return nil
}
