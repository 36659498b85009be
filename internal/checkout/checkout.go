// Package checkout turns a non-empty cart and a shipping address into exactly
// one backend order and decides where the shopper goes next.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/cache"
	"github.com/Skotchmaster/mobileshop/internal/events"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrInvalidAddress      = errors.New("invalid shipping address")
	ErrDuplicateSubmission = errors.New("checkout already in progress")
)

const (
	RouteCart            = "/cart"
	RouteCheckoutInvalid = "/checkout?error=invalid"
	RouteCheckoutFailed  = "/checkout?error=submit"
	RouteCheckoutDup     = "/checkout?error=duplicate"
)

func PaymentRoute(orderID string) string { return "/checkout/payment/" + orderID }

// Outcome is the terminal result of one submission. Trace lists the states
// the submission passed through.
type Outcome struct {
	State    State
	Redirect string
	Order    *models.Order
	Fields   FieldErrors
	Err      error
	Trace    []State
}

type CartReader interface {
	Get(ctx context.Context, sessionID string) models.Cart
}

type Orchestrator struct {
	api            *apiclient.Client
	carts          CartReader
	views          *cache.ViewCache
	guard          *Guard
	events         events.Publisher
	defaultCountry string
}

type Deps struct {
	API            *apiclient.Client
	Carts          CartReader
	Views          *cache.ViewCache
	Guard          *Guard
	Events         events.Publisher
	DefaultCountry string
}

func New(d Deps) *Orchestrator {
	if d.DefaultCountry == "" {
		d.DefaultCountry = "IN"
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &Orchestrator{
		api:            d.API,
		carts:          d.Carts,
		views:          d.Views,
		guard:          d.Guard,
		events:         d.Events,
		defaultCountry: d.DefaultCountry,
	}
}

// Submit runs Idle -> Validating -> Submitting -> Succeeded|Failed. An empty
// cart stops in Idle with a redirect to the cart.
func (o *Orchestrator) Submit(ctx context.Context, w session.Writer, form Form) Outcome {
	l := logging.FromContext(ctx).With("svc", "checkout")
	out := Outcome{State: Idle, Trace: []State{Idle}}
	to := func(s State) {
		out.State = s
		out.Trace = append(out.Trace, s)
	}

	existing, _ := w.CartSession()
	if o.carts.Get(ctx, existing).IsEmpty() {
		l.Info("checkout_empty_cart")
		out.Redirect = RouteCart
		return out
	}

	to(Validating)
	addr, err := form.Address(o.defaultCountry)
	if err != nil {
		to(Failed)
		errors.As(err, &out.Fields)
		out.Err = fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		out.Redirect = RouteCheckoutInvalid
		return out
	}

	guarded := o.guard != nil && form.SubmissionToken != ""
	if guarded {
		claim, orderID := o.guard.Begin(ctx, form.SubmissionToken)
		switch claim {
		case ClaimCompleted:
			l.Info("checkout_replay", "order_id", orderID)
			to(Succeeded)
			out.Redirect = PaymentRoute(orderID)
			return out
		case ClaimInFlight:
			l.Warn("checkout_duplicate_submission")
			to(Failed)
			out.Err = ErrDuplicateSubmission
			out.Redirect = RouteCheckoutDup
			return out
		}
	}

	to(Submitting)
	sessionID := w.GetOrCreateCartSession()
	order, err := apiclient.Request[models.Order](ctx, o.api, "/api/orders/checkout/", apiclient.Options{
		Method:  http.MethodPost,
		Headers: session.CartHeaders(sessionID),
		Body:    addr,
	})
	if err == nil && order.ID == "" {
		err = errors.New("checkout response without order id")
	}
	if err != nil {
		if guarded {
			o.guard.Release(ctx, form.SubmissionToken)
		}
		l.Warn("checkout_submit_failed", "status", apiclient.StatusOf(err), "error", err)
		to(Failed)
		out.Err = fmt.Errorf("submit checkout: %w", err)
		out.Redirect = RouteCheckoutFailed
		return out
	}

	if guarded {
		o.guard.Complete(ctx, form.SubmissionToken, order.ID)
	}
	o.views.Invalidate(ctx, sessionID, cache.ViewCart, cache.ViewCheckout)
	events.Emit(ctx, o.events, events.New(events.TypeOrderPlaced, sessionID, map[string]any{
		"order_id": order.ID,
		"subtotal": order.Subtotal.String(),
		"currency": order.Currency,
		"items":    len(order.Items),
	}))
	l.Info("checkout_success", "order_id", order.ID)

	to(Succeeded)
	out.Order = &order
	out.Redirect = PaymentRoute(order.ID)
	return out
}
