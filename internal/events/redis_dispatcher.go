package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisPollTimeout  = time.Second
	redisRetryBackoff = 500 * time.Millisecond
)

// redisDispatcher queues events on a Redis list so pending notifications
// outlive the process that produced them.
type redisDispatcher struct {
	*registry
	client *redis.Client
	key    string
}

// NewRedisDispatcher builds a dispatcher that LPUSHes onto key and BRPOPs from it.
func NewRedisDispatcher(client *redis.Client, key string, logger *zap.Logger) Dispatcher {
	return &redisDispatcher{
		registry: newRegistry(logger),
		client:   client,
		key:      key,
	}
}

func (d *redisDispatcher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := d.client.LPush(ctx, d.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

func (d *redisDispatcher) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := d.client.BRPop(ctx, redisPollTimeout, d.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Warn("dequeue event failed", zap.String("queue", d.key), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(redisRetryBackoff):
			}
			continue
		}

		// BRPOP replies with [key, value].
		if len(res) != 2 {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			d.logger.Error("dropping malformed event", zap.String("queue", d.key), zap.Error(err))
			continue
		}
		d.dispatch(ctx, event)
	}
}
