package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testQueueKey = "eats:test:notifications"

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisDispatcher_PublishPushesJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	d := NewRedisDispatcher(client, testQueueKey, zap.NewNop())

	ev := newVerificationEvent(t, "a@b.c")
	require.NoError(t, d.Publish(context.Background(), ev))

	items, err := mr.List(testQueueKey)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var stored Event
	require.NoError(t, json.Unmarshal([]byte(items[0]), &stored))
	assert.Equal(t, ev.ID, stored.ID)
	assert.Equal(t, EventVerificationRequested, stored.Type)
}

func TestRedisDispatcher_RunDeliversAndSkipsMalformed(t *testing.T) {
	client, _ := setupTestRedis(t)
	d := NewRedisDispatcher(client, testQueueKey, zap.NewNop())

	received := make(chan VerificationRequestedPayload, 1)
	d.Subscribe(EventVerificationRequested, func(_ context.Context, ev Event) error {
		var p VerificationRequestedPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		received <- p
		return nil
	})

	// Consumed first (BRPOP takes from the tail), and must not stop the loop.
	require.NoError(t, client.LPush(context.Background(), testQueueKey, "{not json").Err())
	require.NoError(t, d.Publish(context.Background(), newVerificationEvent(t, "a@b.c")))

	runDispatcher(t, d)

	select {
	case p := <-received:
		assert.Equal(t, "a@b.c", p.Email)
		assert.Equal(t, "code-a@b.c", p.Code)
	case <-time.After(3 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestRedisDispatcher_PublishFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	d := NewRedisDispatcher(client, testQueueKey, zap.NewNop())

	mock.CustomMatch(func(expected, actual []interface{}) error { return nil }).
		ExpectLPush(testQueueKey, "ignored").
		SetErr(errors.New("READONLY replica"))

	err := d.Publish(context.Background(), newVerificationEvent(t, "a@b.c"))
	assert.ErrorContains(t, err, "enqueue event")
	assert.NoError(t, mock.ExpectationsWereMet())
}
