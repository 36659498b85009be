package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrQueueFull = errors.New("events: queue full")

// Buffered queues events for a single worker that forwards them to next, so
// Publish never waits on the broker. Events beyond the queue size are dropped.
type Buffered struct {
	next   Publisher
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewBuffered(next Publisher, size int, logger *slog.Logger) *Buffered {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Buffered{
		next:   next,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Buffered) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrQueueFull
	}
	select {
	case b.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queued ones to be forwarded.
func (b *Buffered) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *Buffered) run() {
	defer close(b.done)
	for e := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := b.next.Publish(ctx, e); err != nil {
			b.logger.Warn("event_publish_failed", "type", e.Type, "error", err)
		}
		cancel()
	}
}
