package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/events"
	"github.com/Skotchmaster/mobileshop/internal/payment"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

const msgPaymentExpired = "This payment page has expired. Please reload it."

type PaymentHandler struct {
	Payments  *payment.Service
	Registry  *payment.Registry
	Events    events.Publisher
	ScriptURL string
	Pages     Pages
}

type relayRequest struct {
	Kind        payment.OutcomeKind `json:"kind"`
	Description string              `json:"description"`
	Generation  uint64              `json:"generation"`
}

type relayResponse struct {
	State      string          `json:"state"`
	Message    string          `json:"message,omitempty"`
	Redirect   string          `json:"redirect,omitempty"`
	Config     *payment.Config `json:"config,omitempty"`
	Generation uint64          `json:"generation,omitempty"`
}

// Page asks for a payment intent. Without a usable intent the shopper goes
// straight to the order confirmation; the widget script is never rendered.
func (h *PaymentHandler) Page(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	plan := h.Payments.Prepare(ctx, orderID)
	if plan.Intent == nil {
		return seeOther(c, plan.Redirect)
	}

	pg := h.Registry.Start(*plan.Intent, h.Pages.StoreName)
	logging.FromContext(ctx).Info("payment_page_started", "handler", "payment", "order_id", orderID, "page_id", pg.ID)

	return c.Render(http.StatusOK, "payment", h.Pages.New(c, r, "Payment", view.PaymentData{
		OrderID:   orderID,
		PageID:    pg.ID,
		Intent:    *plan.Intent,
		ScriptURL: h.ScriptURL,
	}))
}

func (h *PaymentHandler) page(c echo.Context) (*payment.Page, error) {
	pg, ok := h.Registry.Get(c.QueryParam("page"), c.Param("orderId"))
	if !ok {
		return nil, c.JSON(http.StatusNotFound, relayResponse{State: payment.Failed.String(), Message: msgPaymentExpired})
	}
	return pg, nil
}

// Open is called by the browser once the gateway script has loaded.
func (h *PaymentHandler) Open(c echo.Context, r session.Reader) error {
	pg, err := h.page(c)
	if pg == nil {
		return err
	}
	pg.Loader.Report(nil)
	st, err := pg.Handshake.Open(c.Request().Context())
	return h.respond(c, r, pg, st, err)
}

func (h *PaymentHandler) Retry(c echo.Context, r session.Reader) error {
	pg, err := h.page(c)
	if pg == nil {
		return err
	}
	pg.Loader.Report(nil)
	st, err := pg.Handshake.Retry(c.Request().Context())
	return h.respond(c, r, pg, st, err)
}

// Outcome relays a widget callback or a failed script load from the browser.
func (h *PaymentHandler) Outcome(c echo.Context, r session.Reader) error {
	pg, err := h.page(c)
	if pg == nil {
		return err
	}
	var req relayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid outcome")
	}

	ctx := c.Request().Context()
	switch req.Kind {
	case payment.OutcomeScriptError:
		pg.Loader.Report(payment.ErrScriptLoad)
		if pg.Handshake.Status().Phase == payment.Loading {
			st, err := pg.Handshake.Open(ctx)
			return h.respond(c, r, pg, st, err)
		}
		st, err := pg.Handshake.Retry(ctx)
		return h.respond(c, r, pg, st, err)
	case payment.OutcomeSuccess, payment.OutcomeDismissed, payment.OutcomeFailed:
		err := pg.Widget.Deliver(req.Generation, req.Kind, req.Description)
		return h.respond(c, r, pg, pg.Handshake.Status(), err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "unknown outcome kind")
}

func (h *PaymentHandler) respond(c echo.Context, r session.Reader, pg *payment.Page, st payment.Status, err error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_relay", "order_id", pg.Handshake.OrderID(), "page_id", pg.ID)

	code := http.StatusOK
	switch {
	case errors.Is(err, payment.ErrWidgetOpen),
		errors.Is(err, payment.ErrRetryRequired),
		errors.Is(err, payment.ErrNothingToRetry),
		errors.Is(err, payment.ErrStaleOutcome):
		l.Info("payment_relay_rejected", "phase", st.Phase.String(), "error", err)
		code = http.StatusConflict
	case err != nil && !errors.Is(err, payment.ErrAlreadyPaid):
		l.Warn("payment_attempt_failed", "phase", st.Phase.String(), "error", err)
	}

	resp := relayResponse{State: st.Phase.String(), Message: st.Message, Redirect: st.Redirect}
	if st.Phase == payment.Open {
		cfg, gen, open := pg.Widget.Current()
		if open {
			resp.Config = &cfg
			resp.Generation = gen
		}
	}

	if code == http.StatusOK && !errors.Is(err, payment.ErrAlreadyPaid) {
		h.emitTerminal(ctx, r, pg, st)
	}
	return c.JSON(code, resp)
}

func (h *PaymentHandler) emitTerminal(ctx context.Context, r session.Reader, pg *payment.Page, st payment.Status) {
	switch st.Phase {
	case payment.Succeeded, payment.Cancelled, payment.Failed:
	default:
		return
	}
	sid, _ := r.CartSession()
	events.Emit(ctx, h.Events, events.New(events.TypePaymentOutcome, sid, map[string]any{
		"order_id": pg.Handshake.OrderID(),
		"outcome":  st.Phase.String(),
		"message":  st.Message,
	}))
	logging.FromContext(ctx).Info("payment_outcome", "order_id", pg.Handshake.OrderID(), "outcome", st.Phase.String())
}
