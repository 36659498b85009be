package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/catalog"
	"github.com/Skotchmaster/mobileshop/internal/money"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var productErrors = map[string]string{
	"invalid": "Choose a variant and a quantity of at least one.",
	"add":     "Could not add to cart. Please try again.",
}

type ProductHandler struct {
	Catalog *catalog.Service
	Pages   Pages
}

func (h *ProductHandler) Home(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "home")

	data := view.HomeData{}
	if cats, err := h.Catalog.Categories(ctx); err != nil {
		l.Warn("categories_failed", "error", err)
	} else {
		data.Categories = catalog.CategoryTree(cats)
	}
	if brands, err := h.Catalog.Brands(ctx); err != nil {
		l.Warn("brands_failed", "error", err)
	} else {
		data.Brands = brands
	}
	if list, err := h.Catalog.Products(ctx, catalog.ProductQuery{Ordering: catalog.DefaultOrdering}); err != nil {
		l.Warn("products_failed", "error", err)
	} else {
		data.Products = list.Results
	}

	return c.Render(http.StatusOK, "home", h.Pages.New(c, r, "", data))
}

func (h *ProductHandler) Product(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	l := logging.FromContext(ctx).With("handler", "product", "slug", slug)

	p, err := h.Catalog.Product(ctx, slug)
	if err != nil {
		l.Info("product_not_found", "error", err)
		return notFound(c, h.Pages, r)
	}

	data := view.ProductData{Product: p, Gallery: catalog.Gallery(p)}
	if v, ok := catalog.PrimaryVariant(p); ok {
		data.Primary = v
		data.Discount = money.DiscountPercent(v.Price, v.MRP)
	}

	page := h.Pages.New(c, r, p.Title, data)
	page.Error = errorCode(c, productErrors)
	return c.Render(http.StatusOK, "product", page)
}
