package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/eats-backend/internal/events"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  map[string]string
	sendF func(to, code string) error
}

func (s *fakeSender) Send(_ context.Context, to, code string) error {
	if s.sendF != nil {
		if err := s.sendF(to, code); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[string]string{}
	}
	s.sent[to] = code
	return nil
}

func (s *fakeSender) codeFor(to string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.sent[to]
	return code, ok
}

func TestNotificationService_HandleVerificationRequested(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotificationService(nil, sender, zap.NewNop())

	ev, err := events.NewEvent(events.EventVerificationRequested, events.VerificationRequestedPayload{Email: "a@b.c", Code: "xyz"})
	require.NoError(t, err)
	require.NoError(t, n.handleVerificationRequested(context.Background(), ev))

	code, ok := sender.codeFor("a@b.c")
	require.True(t, ok)
	assert.Equal(t, "xyz", code)

	incomplete, err := events.NewEvent(events.EventVerificationRequested, events.VerificationRequestedPayload{Email: "a@b.c"})
	require.NoError(t, err)
	assert.Error(t, n.handleVerificationRequested(context.Background(), incomplete))

	failing := NewNotificationService(nil, &fakeSender{sendF: func(string, string) error { return errors.New("mailgun 500") }}, nil)
	assert.ErrorContains(t, failing.handleVerificationRequested(context.Background(), ev), "mailgun 500")
}

func TestNotificationService_SignupSendsMail(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(8, zap.NewNop())
	sender := &fakeSender{}
	NewNotificationService(dispatcher, sender, zap.NewNop()).RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = dispatcher.Run(ctx) }()

	f := newFixture(t)
	svc := NewAccountService(AccountDependencies{
		Store:      f.store,
		Tokens:     f.tokens,
		Publisher:  dispatcher,
		BcryptCost: 4,
	})
	require.True(t, svc.CreateAccount(ctx, CreateAccountInput{Email: "a@b.c", Password: "pw", Role: "Owner"}).OK)

	var code string
	require.Eventually(t, func() bool {
		var ok bool
		code, ok = sender.codeFor("a@b.c")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, svc.VerifyEmail(ctx, code).OK)
}
