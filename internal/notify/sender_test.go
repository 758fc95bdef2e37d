package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/eats-backend/internal/config"
)

func formValues(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		assert.NoError(t, err)
	}
	if r.PostForm == nil {
		assert.NoError(t, r.ParseForm())
	}
	out := map[string]string{}
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	if r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			out[k] = v[0]
		}
	}
	return out
}

func TestMailgunSender_Send(t *testing.T) {
	var (
		gotPath string
		gotUser string
		gotPass string
		gotForm map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		gotForm = formValues(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Queued. Thank you.","id":"<1@mg.example.com>"}`))
	}))
	defer srv.Close()

	sender := NewMailgunSender(config.MailConfig{
		APIKey:  "key-123",
		Domain:  "mg.example.com",
		BaseURL: srv.URL + "/v3/",
		From:    "Eats <noreply@example.com>",
		Timeout: time.Second,
	})

	require.NoError(t, sender.Send(context.Background(), "user@example.com", "abc"))

	assert.Equal(t, "/v3/mg.example.com/messages", gotPath)
	assert.Equal(t, "api", gotUser)
	assert.Equal(t, "key-123", gotPass)
	assert.Equal(t, "user@example.com", gotForm["to"])
	assert.Equal(t, "Eats <noreply@example.com>", gotForm["from"])
	assert.Equal(t, "verify-email", gotForm["template"])
	assert.Equal(t, "abc", strings.Trim(gotForm["v:code"], `"`))
	assert.Equal(t, "user@example.com", strings.Trim(gotForm["v:username"], `"`))
}

func TestMailgunSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewMailgunSender(config.MailConfig{APIKey: "k", Domain: "d", BaseURL: srv.URL + "/v3", From: "a@b.c", Timeout: time.Second})

	err := sender.Send(context.Background(), "user@example.com", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, &LogSender{}, NewSender(config.MailConfig{}, zap.NewNop()))
	assert.IsType(t, &LogSender{}, NewSender(config.MailConfig{APIKey: "k"}, zap.NewNop()))
	assert.IsType(t, &MailgunSender{}, NewSender(config.MailConfig{APIKey: "k", Domain: "d"}, zap.NewNop()))
}

func TestLogSender_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))

	require.NoError(t, sender.Send(context.Background(), "user@example.com", "abc"))

	entries := logs.FilterMessage("verification email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "user@example.com", entries[0].ContextMap()["to"])
}
