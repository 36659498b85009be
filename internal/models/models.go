package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Skotchmaster/mobileshop/internal/money"
)

type Brand struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Category struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	Parent   *int       `json:"parent"`
	Children []Category `json:"children,omitempty"`
}

type ProductListItem struct {
	ID       int          `json:"id"`
	Title    string       `json:"title"`
	Slug     string       `json:"slug"`
	Brand    Brand        `json:"brand"`
	Category Category     `json:"category"`
	IsActive bool         `json:"is_active"`
	Price    money.Amount `json:"price"`
	MRP      money.Amount `json:"mrp"`
	ImageURL *string      `json:"image_url"`
}

type ProductVariant struct {
	ID         int            `json:"id"`
	SKU        string         `json:"sku"`
	Price      money.Amount   `json:"price"`
	MRP        money.Amount   `json:"mrp"`
	Attributes map[string]any `json:"attributes"`
	StockQty   int            `json:"stock_qty"`
}

// Label joins attributes as "key: value" pairs in key order, falling back to
// the SKU when the variant has none.
func (v ProductVariant) Label() string {
	if len(v.Attributes) == 0 {
		return v.SKU
	}
	keys := make([]string, 0, len(v.Attributes))
	for k := range v.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v.Attributes[k]))
	}
	return strings.Join(parts, " • ")
}

type ProductImage struct {
	ID        int    `json:"id"`
	ImageURL  string `json:"image_url"`
	SortOrder int    `json:"sort_order"`
}

type ProductDetail struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Brand       Brand            `json:"brand"`
	Category    Category         `json:"category"`
	IsActive    bool             `json:"is_active"`
	Variants    []ProductVariant `json:"variants"`
	Images      []ProductImage   `json:"images"`
}

type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type CartItem struct {
	ID             int            `json:"id"`
	ProductVariant ProductVariant `json:"product_variant"`
	Quantity       int            `json:"quantity"`
	PriceSnapshot  money.Amount   `json:"price_snapshot"`
	MRPSnapshot    money.Amount   `json:"mrp_snapshot"`
}

type Cart struct {
	ID        string       `json:"id"`
	ItemCount int          `json:"item_count"`
	Subtotal  money.Amount `json:"subtotal"`
	Items     []CartItem   `json:"items"`
}

// EmptyCart is the cart rendered when no server-side cart exists or the
// backend cannot be reached.
func EmptyCart() Cart {
	return Cart{ID: "", ItemCount: 0, Subtotal: money.MustParse("0.00"), Items: []CartItem{}}
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

type Address struct {
	ID         string `json:"id,omitempty"`
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type OrderItem struct {
	ProductVariant ProductVariant `json:"product_variant"`
	Quantity       int            `json:"quantity"`
	PriceSnapshot  money.Amount   `json:"price_snapshot"`
	MRPSnapshot    money.Amount   `json:"mrp_snapshot"`
}

// UnmarshalJSON accepts product_variant either as a nested object or as a
// bare variant id.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	type plain OrderItem
	var raw struct {
		plain
		ProductVariant json.RawMessage `json:"product_variant"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = OrderItem(raw.plain)
	v := bytes.TrimSpace(raw.ProductVariant)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '{':
		return json.Unmarshal(v, &i.ProductVariant)
	default:
		return json.Unmarshal(v, &i.ProductVariant.ID)
	}
	return nil
}

func (i OrderItem) Label() string {
	v := i.ProductVariant
	if v.SKU == "" && len(v.Attributes) == 0 {
		return fmt.Sprintf("Variant #%d", v.ID)
	}
	return v.Label()
}

type TrackingEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Shipment struct {
	Carrier               string          `json:"carrier"`
	TrackingNumber        string          `json:"tracking_number"`
	Status                string          `json:"status"`
	EstimatedDeliveryDate *string         `json:"estimated_delivery_date"`
	Events                []TrackingEvent `json:"events"`
}

type Order struct {
	ID              string       `json:"id"`
	Status          string       `json:"status"`
	Subtotal        money.Amount `json:"subtotal"`
	Currency        string       `json:"currency"`
	Items           []OrderItem  `json:"items"`
	ShippingAddress *Address     `json:"shipping_address"`
	PaymentStatus   *string      `json:"payment_status"`
	Shipment        *Shipment    `json:"shipment"`
	CreatedAt       time.Time    `json:"created_at"`
}

type OrderTracking struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Shipment *Shipment `json:"shipment"`
}

// PaymentIntent is issued per order by the backend; Amount is in minor units.
type PaymentIntent struct {
	OrderID        string `json:"order_id"`
	PaymentID      string `json:"payment_id"`
	GatewayOrderID string `json:"razorpay_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	GatewayKeyID   string `json:"razorpay_key_id"`
}

func (p PaymentIntent) Usable() bool {
	return p.OrderID != "" && p.GatewayOrderID != "" && p.GatewayKeyID != "" && p.Amount > 0
}

type ShippingEstimate struct {
	Pincode       string `json:"pincode"`
	MinDays       int    `json:"min_days"`
	MaxDays       int    `json:"max_days"`
	EstimatedDate string `json:"estimated_date"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
