package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_DecodesLooseMoney(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "c1",
		"item_count": 2,
		"subtotal": "289800.00",
		"items": [{
			"id": 7,
			"product_variant": {"id": 3, "sku": "PX-128", "price": 144900, "mrp": "159900.00", "attributes": {"storage": "128GB", "color": "Black"}, "stock_qty": 4},
			"quantity": 2,
			"price_snapshot": "144900.00",
			"mrp_snapshot": null
		}]
	}`

	var c Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Len(t, c.Items, 1)
	assert.False(t, c.IsEmpty())
	assert.Equal(t, "289800", c.Subtotal.String())
	assert.True(t, c.Items[0].PriceSnapshot.Equal(c.Items[0].ProductVariant.Price))
	assert.False(t, c.Items[0].MRPSnapshot.Valid)
	assert.Equal(t, "color: Black • storage: 128GB", c.Items[0].ProductVariant.Label())
}

func TestEmptyCart(t *testing.T) {
	t.Parallel()

	c := EmptyCart()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.ID)
	assert.Equal(t, 0, c.ItemCount)
	assert.NotNil(t, c.Items)
	assert.True(t, c.Subtotal.Valid)
	assert.True(t, c.Subtotal.IsZero())
}

func TestProductVariant_LabelFallsBackToSKU(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SKU-1", ProductVariant{SKU: "SKU-1"}.Label())
}

func TestPaymentIntent_Usable(t *testing.T) {
	t.Parallel()

	ok := PaymentIntent{OrderID: "o", GatewayOrderID: "order_X", GatewayKeyID: "rzp_test", Amount: 100}
	assert.True(t, ok.Usable())

	missing := ok
	missing.GatewayKeyID = ""
	assert.False(t, missing.Usable())
}

func TestOrderItem_DecodesVariantObjectOrID(t *testing.T) {
	t.Parallel()

	var items []OrderItem
	require.NoError(t, json.Unmarshal([]byte(`[
		{"product_variant": {"id": 3, "sku": "PX-128"}, "quantity": 1, "price_snapshot": "10.00"},
		{"product_variant": 42, "quantity": 2, "price_snapshot": 20}
	]`), &items))

	require.Len(t, items, 2)
	assert.Equal(t, "PX-128", items[0].Label())
	assert.Equal(t, 42, items[1].ProductVariant.ID)
	assert.Equal(t, "Variant #42", items[1].Label())
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, "20", items[1].PriceSnapshot.String())
}
