package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/cache"
	"github.com/Skotchmaster/mobileshop/internal/cart"
	"github.com/Skotchmaster/mobileshop/internal/events"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var cartErrors = map[string]string{
	"quantity": "Quantity must be at least one.",
	"update":   "Could not update the cart. Please try again.",
	"delete":   "Could not remove the item. Please try again.",
}

type CartHandler struct {
	Carts  *cart.Service
	Views  *cache.ViewCache
	Events events.Publisher
	Pages  Pages
}

// cachedCart serves the cart from the view cache when a fresh copy exists.
// Empty carts are not cached since a failed read also yields one.
func cachedCart(c echo.Context, r session.Reader, carts *cart.Service, views *cache.ViewCache, path string) models.Cart {
	sid, ok := r.CartSession()
	if !ok {
		return models.EmptyCart()
	}
	return cache.Fetch(c.Request().Context(), views, path, sid, func(ctx context.Context) (models.Cart, bool) {
		ct := carts.Get(ctx, sid)
		return ct, !ct.IsEmpty()
	})
}

func (h *CartHandler) Cart(c echo.Context, r session.Reader) error {
	ct := cachedCart(c, r, h.Carts, h.Views, cache.ViewCart)
	page := h.Pages.New(c, r, "Cart", view.CartData{Cart: ct})
	page.CartCount = ct.ItemCount
	page.Error = errorCode(c, cartErrors)
	return c.Render(http.StatusOK, "cart", page)
}

type addToCartRequest struct {
	VariantID int `form:"variant_id"`
	Quantity  int `form:"quantity"`
}

func (h *CartHandler) AddToCart(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	l := logging.FromContext(ctx).With("handler", "add_to_cart", "slug", slug)
	back := "/product/" + url.PathEscape(slug)

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return seeOther(c, back+"?error=invalid")
	}

	item, sid, err := h.Carts.AddItem(ctx, w, req.VariantID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrValidation) {
			return seeOther(c, back+"?error=invalid")
		}
		l.Warn("add_to_cart_failed", "variant_id", req.VariantID, "error", err)
		return seeOther(c, back+"?error=add")
	}

	h.Views.Invalidate(ctx, sid, cache.ViewCart, cache.ViewCheckout)
	events.Emit(ctx, h.Events, events.New(events.TypeCartItemAdded, sid, map[string]any{
		"variant_id": req.VariantID,
		"quantity":   req.Quantity,
		"item_id":    item.ID,
		"slug":       slug,
	}))
	l.Info("cart_item_added", "variant_id", req.VariantID, "quantity", req.Quantity)
	return seeOther(c, "/cart")
}

func (h *CartHandler) UpdateItem(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update_cart_item")

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return seeOther(c, "/cart?error=update")
	}
	qty, err := strconv.Atoi(c.FormValue("quantity"))
	if err != nil {
		return seeOther(c, "/cart?error=quantity")
	}

	sid, _ := w.CartSession()
	if _, err := h.Carts.UpdateItem(ctx, sid, itemID, qty); err != nil {
		if errors.Is(err, cart.ErrValidation) {
			return seeOther(c, "/cart?error=quantity")
		}
		l.Warn("update_cart_item_failed", "item_id", itemID, "error", err)
		return seeOther(c, "/cart?error=update")
	}
	h.Views.Invalidate(ctx, sid, cache.ViewCart, cache.ViewCheckout)
	return seeOther(c, "/cart")
}

func (h *CartHandler) DeleteItem(c echo.Context, w session.Writer) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_cart_item")

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return seeOther(c, "/cart?error=delete")
	}

	sid, _ := w.CartSession()
	if err := h.Carts.DeleteItem(ctx, sid, itemID); err != nil {
		l.Warn("delete_cart_item_failed", "item_id", itemID, "error", err)
		return seeOther(c, "/cart?error=delete")
	}
	h.Views.Invalidate(ctx, sid, cache.ViewCart, cache.ViewCheckout)
	return seeOther(c, "/cart")
}
