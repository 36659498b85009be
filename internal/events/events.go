// Package events publishes storefront analytics events.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

const (
	TypeCartItemAdded  = "cart_item_added"
	TypeOrderPlaced    = "order_placed"
	TypePaymentOutcome = "payment_outcome"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"-"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(eventType, key string, data map[string]any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and logs a failure instead of returning it. The request's
// cancellation does not abort the publish. Broker-backed publishers are wrapped
// in Buffered so Emit does not wait on the network.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(pctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "error", err)
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(t string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
