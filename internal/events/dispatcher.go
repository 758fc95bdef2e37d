package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by the in-memory dispatcher when its buffer is exhausted.
var ErrQueueFull = errors.New("event queue full")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Publisher hands events to the queue without waiting for them to be handled.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publisher
	Subscribe(eventType EventType, handler EventHandler)
	// Run consumes the queue until ctx is cancelled.
	Run(ctx context.Context) error
}

// registry fans events out to subscribed handlers. Handler failures are
// logged and never reach the publisher.
type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

func newRegistry(logger *zap.Logger) *registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registry{listeners: make(map[EventType][]EventHandler), logger: logger}
}

// Subscribe registers a handler for the given event type.
func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) dispatch(ctx context.Context, event Event) {
	r.mu.RLock()
	handlers := append([]EventHandler{}, r.listeners[event.Type]...)
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.Warn("no handler for event", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
		return
	}
	for _, handler := range handlers {
		if err := r.safeCall(ctx, handler, event); err != nil {
			r.logger.Error("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
}

func (r *registry) safeCall(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, event)
}

// inMemoryDispatcher queues events on a buffered channel inside the process.
type inMemoryDispatcher struct {
	*registry
	queue chan Event
}

// NewInMemoryDispatcher creates a dispatcher with the given buffer size.
func NewInMemoryDispatcher(size int, logger *zap.Logger) Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &inMemoryDispatcher{
		registry: newRegistry(logger),
		queue:    make(chan Event, size),
	}
}

// Publish enqueues without blocking.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *inMemoryDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-d.queue:
			d.dispatch(ctx, event)
		}
	}
}
