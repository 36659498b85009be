package view

import (
	"github.com/Skotchmaster/mobileshop/internal/catalog"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/orders"
)

type HomeData struct {
	Categories []models.Category
	Brands     []models.Brand
	Products   []models.ProductListItem
}

type ShopData struct {
	Query      catalog.ProductQuery
	Categories []models.Category
	Orderings  []OrderingLink
	Products   []models.ProductListItem
	Count      int
	Pager      catalog.Pager
	PageLinks  []PageLink
}

type OrderingLink struct {
	Label  string
	Href   string
	Active bool
}

type PageLink struct {
	Number int
	Href   string
	Active bool
}

type ProductData struct {
	Product  models.ProductDetail
	Primary  models.ProductVariant
	Gallery  []models.ProductImage
	Discount int
}

type CartData struct {
	Cart models.Cart
}

type CheckoutData struct {
	Cart            models.Cart
	SubmissionToken string
	DefaultCountry  string
}

type PaymentData struct {
	OrderID   string
	PageID    string
	Intent    models.PaymentIntent
	ScriptURL string
}

type OrderData struct {
	Order *models.Order
}

type TrackingData struct {
	OrderID  string
	Tracking *models.OrderTracking
	Timeline []orders.TimelineEntry
}

type AccountData struct {
	LoggedIn bool
	Orders   []models.Order
}

type AuthData struct {
	Username string
	Email    string
}
