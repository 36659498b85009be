package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/orders"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

type OrderHandler struct {
	Orders *orders.Service
	Pages  Pages
}

// Order renders the confirmation page. A failed fetch still renders: the
// generic "order placed" banner is shown instead of the details.
func (h *OrderHandler) Order(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	data := view.OrderData{}
	if o, err := h.Orders.Order(ctx, r, id); err != nil {
		logging.FromContext(ctx).Warn("order_fetch_failed", "handler", "order", "order_id", id, "error", err)
	} else {
		data.Order = &o
	}
	return c.Render(http.StatusOK, "order", h.Pages.New(c, r, "Order", data))
}

func (h *OrderHandler) Tracking(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	data := view.TrackingData{OrderID: id}
	if t, err := h.Orders.Tracking(ctx, r, id); err != nil {
		logging.FromContext(ctx).Warn("tracking_fetch_failed", "handler", "tracking", "order_id", id, "error", err)
	} else {
		data.Tracking = &t
		data.Timeline = orders.Timeline(t.Shipment)
	}
	return c.Render(http.StatusOK, "tracking", h.Pages.New(c, r, "Tracking", data))
}

type estimateResponse struct {
	Message string `json:"message"`
}

func (h *OrderHandler) ShippingEstimate(c echo.Context) error {
	ctx := c.Request().Context()

	est, err := h.Orders.ShippingEstimate(ctx, c.QueryParam("pincode"))
	if err != nil {
		if errors.Is(err, orders.ErrInvalidPincode) {
			return c.JSON(http.StatusBadRequest, estimateResponse{Message: "Please enter a valid pincode."})
		}
		logging.FromContext(ctx).Warn("shipping_estimate_failed", "handler", "shipping_estimate", "error", err)
		return c.JSON(http.StatusOK, estimateResponse{Message: orders.EstimateUnavailable})
	}
	return c.JSON(http.StatusOK, estimateResponse{Message: orders.EstimateMessage(est)})
}
