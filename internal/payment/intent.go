// Package payment hands a placed order to the hosted payment widget and
// tracks the widget's outcome for one payment page.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var (
	// ErrGatewayUnavailable is the backend saying no gateway is configured.
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
	ErrUnusableIntent     = errors.New("payment intent incomplete")
	ErrPaymentCancelled   = errors.New("payment cancelled")
)

// FailedError is a payment the gateway declined.
type FailedError struct {
	Reason string
}

func (e *FailedError) Error() string { return "payment failed: " + e.Reason }

func ConfirmationRoute(orderID string) string { return "/order/" + orderID }

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// CreateIntent asks the backend for a fresh gateway order. It is never cached.
func (s *Service) CreateIntent(ctx context.Context, orderID string) (models.PaymentIntent, error) {
	intent, err := apiclient.Request[models.PaymentIntent](ctx, s.api, "/api/orders/razorpay/create/", apiclient.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"order_id": orderID},
	})
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusServiceUnavailable {
			return models.PaymentIntent{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
		}
		return models.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	if !intent.Usable() {
		return models.PaymentIntent{}, ErrUnusableIntent
	}
	return intent, nil
}

// Plan is what the payment page does: open the widget for Intent, or skip
// payment and go to Redirect.
type Plan struct {
	Intent   *models.PaymentIntent
	Redirect string
	Reason   error
}

// Prepare never fails: whenever no usable intent can be had the order already
// exists, so the shopper lands on its confirmation page.
func (s *Service) Prepare(ctx context.Context, orderID string) Plan {
	l := logging.FromContext(ctx).With("svc", "payment", "order_id", orderID)

	intent, err := s.CreateIntent(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			l.Info("payment_skipped", "reason", "gateway not configured")
		} else {
			l.Warn("payment_intent_failed", "error", err)
		}
		return Plan{Redirect: ConfirmationRoute(orderID), Reason: err}
	}
	return Plan{Intent: &intent}
}
