package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/mobileshop/internal/catalog"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/money"
	"github.com/Skotchmaster/mobileshop/internal/orders"
)

func render(t *testing.T, name string, p Page) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, p, nil))
	return buf.String()
}

func TestNew_ParsesAllPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, name := range []string{"home", "shop", "product", "cart", "checkout", "payment", "order", "tracking", "login", "register", "account", "notfound"} {
		assert.Contains(t, r.pages, name)
	}

	err = r.Render(&bytes.Buffer{}, "missing", Page{}, nil)
	assert.Error(t, err)
}

func TestCartPage_RendersLoosePricesIdentically(t *testing.T) {
	c := models.Cart{
		ID:        "c1",
		ItemCount: 2,
		Subtotal:  money.MustParse("144900.00"),
		Items: []models.CartItem{
			{ID: 1, Quantity: 1, PriceSnapshot: money.MustParse("144900.00"), ProductVariant: models.ProductVariant{SKU: "A"}},
			{ID: 2, Quantity: 1, PriceSnapshot: money.FromInt(144900), ProductVariant: models.ProductVariant{SKU: "B"}},
		},
	}

	html := render(t, "cart", Page{StoreName: "MobileShop", CSRFToken: "tok", Data: CartData{Cart: c}})
	assert.Equal(t, 3, bytes.Count([]byte(html), []byte("₹1,44,900")))
	assert.Contains(t, html, `action="/cart/items/1/delete"`)
	assert.Contains(t, html, `value="tok"`)
}

func TestCartPage_Empty(t *testing.T) {
	html := render(t, "cart", Page{StoreName: "MobileShop", Data: CartData{Cart: models.EmptyCart()}})
	assert.Contains(t, html, "Your cart is empty")
}

func TestTrackingPage_MarksLastEventCurrent(t *testing.T) {
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	sh := &models.Shipment{Events: []models.TrackingEvent{
		{Status: "packed", OccurredAt: base},
		{Status: "out_for_delivery", OccurredAt: base.Add(time.Hour)},
	}}

	html := render(t, "tracking", Page{StoreName: "MobileShop", Data: TrackingData{
		OrderID:  "9b2c51d0-aaaa",
		Tracking: &models.OrderTracking{Status: "in_transit", Shipment: sh},
		Timeline: orders.Timeline(sh),
	}})

	assert.Equal(t, 1, strings.Count(html, `class="current"`))
	current := strings.Index(html, `class="current"`)
	assert.Greater(t, current, strings.Index(html, "<strong>packed</strong>"))
	assert.Less(t, current, strings.Index(html, "<strong>out for delivery</strong>"))
	assert.Contains(t, html, "9b2c51d0")
}

func TestOrderPage_FallbackWhenMissing(t *testing.T) {
	html := render(t, "order", Page{StoreName: "MobileShop", Data: OrderData{}})
	assert.Contains(t, html, "Order Placed!")
}

func TestPaymentPage_CarriesRelayIdentifiers(t *testing.T) {
	html := render(t, "payment", Page{StoreName: "MobileShop", CSRFToken: "csrf", Data: PaymentData{
		OrderID:   "o1",
		PageID:    "page-1",
		Intent:    models.PaymentIntent{Amount: 14490000, Currency: "INR"},
		ScriptURL: "https://checkout.razorpay.com/v1/checkout.js",
	}})

	assert.Contains(t, html, `data-page="page-1"`)
	assert.Contains(t, html, "₹1,44,900")
	assert.Contains(t, html, `href="/order/o1"`)
}

func TestShopPage_Pager(t *testing.T) {
	html := render(t, "shop", Page{StoreName: "MobileShop", Data: ShopData{
		Count: 41,
		Pager: catalog.Paginate(2, 41),
		PageLinks: []PageLink{
			{Number: 1, Href: "/shop?page=1"},
			{Number: 2, Href: "/shop?page=2", Active: true},
		},
	}})
	assert.Contains(t, html, `aria-current="page"`)
	assert.Contains(t, html, "No products found.")
}
