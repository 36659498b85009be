package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mobileshop/internal/catalog"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/internal/view"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

// Shop lists products filtered by category, brand and search text. A backend
// failure renders an empty listing.
func (h *ProductHandler) Shop(c echo.Context, r session.Reader) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop")

	q := shopQuery(c)
	data := view.ShopData{Query: q}

	if cats, err := h.Catalog.Categories(ctx); err != nil {
		l.Warn("categories_failed", "error", err)
	} else {
		data.Categories = catalog.CategoryTree(cats)
	}

	list, err := h.Catalog.Products(ctx, q)
	if err != nil {
		l.Warn("products_failed", "error", err)
	} else {
		data.Products = list.Results
		data.Count = list.Count
	}

	data.Pager = catalog.Paginate(q.Page, data.Count)
	data.Orderings = orderingLinks(q)
	data.PageLinks = pageLinks(q, data.Pager)

	return c.Render(http.StatusOK, "shop", h.Pages.New(c, r, "Shop", data))
}

func shopQuery(c echo.Context) catalog.ProductQuery {
	q := catalog.ProductQuery{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Brand:    strings.TrimSpace(c.QueryParam("brand")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Ordering: catalog.DefaultOrdering,
		Page:     catalog.ParseIntDefault(c.QueryParam("page"), 1),
	}
	for _, o := range catalog.Orderings {
		if o.Value == c.QueryParam("ordering") {
			q.Ordering = o.Value
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// shopHref keeps the filters of q and drops values equal to their defaults.
func shopHref(q catalog.ProductQuery) string {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Brand != "" {
		v.Set("brand", q.Brand)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" && q.Ordering != catalog.DefaultOrdering {
		v.Set("ordering", q.Ordering)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(v) == 0 {
		return "/shop"
	}
	return "/shop?" + v.Encode()
}

func orderingLinks(q catalog.ProductQuery) []view.OrderingLink {
	links := make([]view.OrderingLink, 0, len(catalog.Orderings))
	for _, o := range catalog.Orderings {
		next := q
		next.Ordering = o.Value
		next.Page = 1
		links = append(links, view.OrderingLink{Label: o.Label, Href: shopHref(next), Active: o.Value == q.Ordering})
	}
	return links
}

func pageLinks(q catalog.ProductQuery, p catalog.Pager) []view.PageLink {
	links := make([]view.PageLink, 0, len(p.Pages))
	for _, n := range p.Pages {
		next := q
		next.Page = n
		links = append(links, view.PageLink{Number: n, Href: shopHref(next), Active: n == p.Page})
	}
	return links
}
