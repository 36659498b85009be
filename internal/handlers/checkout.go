package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/cache"
	"github.com/Skotchmaster/mobileshop/internal/cart"
	"github.com/Skotchmaster/mobileshop/internal/checkout"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var checkoutErrors = map[string]string{
	"invalid":   "Please fill in all required address fields.",
	"submit":    "We couldn't place your order. Please try again.",
	"duplicate": "Your order is already being placed. Please wait a moment.",
}

type CheckoutHandler struct {
	Checkout       *checkout.Orchestrator
	Carts          *cart.Service
	Views          *cache.ViewCache
	DefaultCountry string
	Pages          Pages
}

// Page renders the address form with a fresh submission token. An empty cart
// goes back to the cart page.
func (h *CheckoutHandler) Page(c echo.Context, r session.Reader) error {
	ct := cachedCart(c, r, h.Carts, h.Views, cache.ViewCheckout)
	if ct.IsEmpty() {
		return seeOther(c, checkout.RouteCart)
	}

	page := h.Pages.New(c, r, "Checkout", view.CheckoutData{
		Cart:            ct,
		SubmissionToken: uuid.NewString(),
		DefaultCountry:  h.DefaultCountry,
	})
	page.CartCount = ct.ItemCount
	page.Error = errorCode(c, checkoutErrors)
	return c.Render(http.StatusOK, "checkout", page)
}

func (h *CheckoutHandler) Submit(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout_submit")

	var form checkout.Form
	if err := c.Bind(&form); err != nil {
		l.Warn("checkout_bind_failed", "error", err)
		return seeOther(c, checkout.RouteCheckoutInvalid)
	}

	out := h.Checkout.Submit(ctx, w, form)
	if out.Err != nil {
		l.Info("checkout_not_placed", "state", out.State.String(), "error", out.Err)
	}
	return seeOther(c, out.Redirect)
}
