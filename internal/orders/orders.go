// Package orders reads orders, tracking and shipping estimates.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var ErrInvalidPincode = errors.New("pincode must be 5 or 6 digits")

type Service struct {
	api  *apiclient.Client
	auth *session.Manager
}

func NewService(api *apiclient.Client, auth *session.Manager) *Service {
	return &Service{api: api, auth: auth}
}

// Order fetches one order as the shopper r identifies: guests by cart session,
// logged-in users by bearer token.
func (s *Service) Order(ctx context.Context, r session.Reader, id string) (models.Order, error) {
	o, err := apiclient.Get[models.Order](ctx, s.api, "/api/orders/"+url.PathEscape(id)+"/", apiclient.Options{
		Headers: session.RequestHeaders(r),
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (s *Service) Tracking(ctx context.Context, r session.Reader, id string) (models.OrderTracking, error) {
	t, err := apiclient.Get[models.OrderTracking](ctx, s.api, "/api/orders/"+url.PathEscape(id)+"/tracking/", apiclient.Options{
		Headers: session.RequestHeaders(r),
	})
	if err != nil {
		return models.OrderTracking{}, fmt.Errorf("get tracking %s: %w", id, err)
	}
	return t, nil
}

// ShippingEstimate strips non-digits from pincode and makes no call unless
// 5 or 6 digits remain.
func (s *Service) ShippingEstimate(ctx context.Context, pincode string) (models.ShippingEstimate, error) {
	pin := NormalizePincode(pincode)
	if len(pin) < 5 {
		return models.ShippingEstimate{}, ErrInvalidPincode
	}
	est, err := apiclient.Get[models.ShippingEstimate](ctx, s.api, "/api/orders/shipping/estimate/", apiclient.Options{
		Query: map[string]string{"pincode": pin},
	})
	if err != nil {
		return models.ShippingEstimate{}, fmt.Errorf("shipping estimate: %w", err)
	}
	return est, nil
}

// History lists the logged-in user's orders. Any failure, including not
// being logged in, yields no orders.
func (s *Service) History(ctx context.Context, r session.Reader) []models.Order {
	raw, err := session.FetchWithAuth[json.RawMessage](ctx, s.auth, r, "/api/orders/")
	if err != nil {
		if !errors.Is(err, session.ErrNotAuthenticated) {
			logging.FromContext(ctx).Warn("order_history_failed", "svc", "orders", "error", err)
		}
		return nil
	}
	var list []models.Order
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var page models.Paginated[models.Order]
	if err := json.Unmarshal(raw, &page); err != nil {
		logging.FromContext(ctx).Warn("order_history_decode_failed", "svc", "orders", "error", err)
		return nil
	}
	return page.Results
}

func NormalizePincode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 6 {
				break
			}
		}
	}
	return b.String()
}

// DisplayStatus renders a backend status like "out_for_delivery".
func DisplayStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

type TimelineEntry struct {
	models.TrackingEvent
	Current bool
}

// Timeline keeps the events in the order provided and marks the last one as
// the current status.
func Timeline(sh *models.Shipment) []TimelineEntry {
	if sh == nil || len(sh.Events) == 0 {
		return nil
	}
	out := make([]TimelineEntry, len(sh.Events))
	for i, e := range sh.Events {
		out[i] = TimelineEntry{TrackingEvent: e}
	}
	out[len(out)-1].Current = true
	return out
}

// EstimateMessage formats an estimate as the product page shows it.
func EstimateMessage(est models.ShippingEstimate) string {
	msg := fmt.Sprintf("Delivery in %d–%d days", est.MinDays, est.MaxDays)
	if d, err := time.Parse("2006-01-02", est.EstimatedDate); err == nil {
		msg += " (by " + d.Format("Mon, Jan 2") + ")"
	}
	return msg
}

const EstimateUnavailable = "Delivery estimate currently unavailable."
