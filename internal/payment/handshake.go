package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
)

type Phase int

const (
	Loading Phase = iota
	Open
	Succeeded
	Cancelled
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Open:
		return "open"
	case Succeeded:
		return "succeeded"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

const (
	MsgCancelled    = "Payment was cancelled."
	MsgFailed       = "Payment failed. Please try again."
	MsgScriptFailed = "Failed to load Razorpay. Please check your connection."

	themeColor = "#2563eb"
)

var (
	ErrWidgetOpen     = errors.New("payment widget already open")
	ErrRetryRequired  = errors.New("payment widget needs an explicit retry")
	ErrAlreadyPaid    = errors.New("payment already completed")
	ErrNothingToRetry = errors.New("no failed payment to retry")
)

// Config is handed to the widget verbatim; field names follow the gateway's
// checkout options.
type Config struct {
	Key         string `json:"key"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Theme       Theme  `json:"theme"`
}

type Theme struct {
	Color string `json:"color"`
}

// Failure is reported by the widget when it closes without a payment.
type Failure struct {
	Dismissed   bool
	Description string
}

type Widget interface {
	Open(cfg Config, onSuccess func(), onFailure func(Failure)) error
}

type ScriptLoader interface {
	Load(ctx context.Context) error
}

type Status struct {
	Phase    Phase
	Message  string
	Redirect string
	Err      error
}

// Handshake drives Loading -> Open -> Succeeded|Cancelled|Failed for one
// payment page. The latch allows one armed widget at a time and is reset only
// by Retry; callbacks from an earlier widget instance are ignored.
type Handshake struct {
	intent    models.PaymentIntent
	storeName string
	loader    ScriptLoader
	widget    Widget

	loadMu sync.Mutex
	loaded bool

	mu      sync.Mutex
	phase   Phase
	latched bool
	gen     uint64
	message string
	err     error
}

func NewHandshake(intent models.PaymentIntent, storeName string, loader ScriptLoader, widget Widget) *Handshake {
	return &Handshake{intent: intent, storeName: storeName, loader: loader, widget: widget, phase: Loading}
}

func (h *Handshake) OrderID() string { return h.intent.OrderID }

func (h *Handshake) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statusLocked()
}

func (h *Handshake) statusLocked() Status {
	s := Status{Phase: h.phase, Message: h.message, Err: h.err}
	if h.phase == Succeeded {
		s.Redirect = ConfirmationRoute(h.intent.OrderID)
	}
	return s
}

// Config builds the widget options for the intent.
func (h *Handshake) Config() Config {
	short := h.intent.OrderID
	if len(short) > 8 {
		short = short[:8]
	}
	return Config{
		Key:         h.intent.GatewayKeyID,
		Amount:      h.intent.Amount,
		Currency:    h.intent.Currency,
		OrderID:     h.intent.GatewayOrderID,
		Name:        h.storeName,
		Description: "Order #" + short,
		Theme:       Theme{Color: themeColor},
	}
}

// Open loads the widget script if it is not loaded yet and opens the first
// widget instance.
func (h *Handshake) Open(ctx context.Context) (Status, error) {
	h.mu.Lock()
	switch {
	case h.phase == Succeeded:
		h.mu.Unlock()
		return h.Status(), ErrAlreadyPaid
	case h.phase == Open:
		h.mu.Unlock()
		return h.Status(), ErrWidgetOpen
	case h.phase != Loading:
		h.mu.Unlock()
		return h.Status(), ErrRetryRequired
	}
	h.mu.Unlock()
	return h.open(ctx)
}

// Retry releases the latch after a cancelled or failed attempt and opens
// exactly one new widget instance.
func (h *Handshake) Retry(ctx context.Context) (Status, error) {
	h.mu.Lock()
	switch h.phase {
	case Succeeded:
		h.mu.Unlock()
		return h.Status(), ErrAlreadyPaid
	case Open:
		h.mu.Unlock()
		return h.Status(), ErrWidgetOpen
	case Loading:
		h.mu.Unlock()
		return h.Status(), ErrNothingToRetry
	}
	h.latched = false
	h.phase = Loading
	h.message = ""
	h.err = nil
	h.mu.Unlock()
	return h.open(ctx)
}

func (h *Handshake) open(ctx context.Context) (Status, error) {
	if err := h.ensureScript(ctx); err != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.phase = Failed
		h.message = MsgScriptFailed
		h.err = fmt.Errorf("%w: load payment script: %w", apiclient.ErrNetworkUnavailable, err)
		return h.statusLocked(), h.err
	}

	h.mu.Lock()
	if h.latched {
		h.mu.Unlock()
		return h.Status(), ErrWidgetOpen
	}
	h.latched = true
	h.gen++
	gen := h.gen
	h.phase = Open
	h.message = ""
	h.err = nil
	h.mu.Unlock()

	err := h.widget.Open(h.Config(),
		func() { h.succeed(gen) },
		func(f Failure) { h.fail(gen, f) },
	)
	if err != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.gen == gen && h.phase == Open {
			h.phase = Failed
			h.message = MsgFailed
			h.err = &FailedError{Reason: err.Error()}
		}
		return h.statusLocked(), err
	}
	return h.Status(), nil
}

// ensureScript loads the script at most once per successful load; a failed
// load is attempted again on the next retry.
func (h *Handshake) ensureScript(ctx context.Context) error {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()
	if h.loaded {
		return nil
	}
	if err := h.loader.Load(ctx); err != nil {
		return err
	}
	h.loaded = true
	return nil
}

func (h *Handshake) succeed(gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || h.phase != Open {
		return
	}
	h.phase = Succeeded
	h.message = ""
	h.err = nil
}

func (h *Handshake) fail(gen uint64, f Failure) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || h.phase != Open {
		return
	}
	if f.Dismissed {
		h.phase = Cancelled
		h.message = MsgCancelled
		h.err = ErrPaymentCancelled
		return
	}
	h.phase = Failed
	h.message = MsgFailed
	if f.Description != "" {
		h.message = f.Description
	}
	h.err = &FailedError{Reason: h.message}
}
