// Package catalog reads products, categories and brands from the backend.
// Every call is a render-context read.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
)

const DefaultOrdering = "-created_at"

// Orderings the shop page offers, in display order.
var Orderings = []struct {
	Label string
	Value string
}{
	{"Newest", "-created_at"},
	{"Price ↑", "price"},
	{"Price ↓", "-price"},
	{"Name", "title"},
}

type ProductQuery struct {
	Category string
	Brand    string
	Search   string
	Ordering string
	Page     int
}

func (q ProductQuery) params() map[string]string {
	p := map[string]string{
		"category": q.Category,
		"brand":    q.Brand,
		"search":   q.Search,
		"ordering": q.Ordering,
	}
	if q.Page > 0 {
		p["page"] = strconv.Itoa(q.Page)
	}
	return p
}

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func (s *Service) Products(ctx context.Context, q ProductQuery) (models.Paginated[models.ProductListItem], error) {
	out, err := apiclient.Get[models.Paginated[models.ProductListItem]](ctx, s.api, "/api/catalog/products/",
		apiclient.Options{Query: q.params()})
	if err != nil {
		return models.Paginated[models.ProductListItem]{}, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *Service) Product(ctx context.Context, slug string) (models.ProductDetail, error) {
	out, err := apiclient.Get[models.ProductDetail](ctx, s.api, "/api/catalog/products/"+url.PathEscape(slug)+"/", apiclient.Options{})
	if err != nil {
		return models.ProductDetail{}, fmt.Errorf("get product %s: %w", slug, err)
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	out, err := listOf[models.Category](ctx, s.api, "/api/catalog/categories/")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Service) Brands(ctx context.Context) ([]models.Brand, error) {
	out, err := listOf[models.Brand](ctx, s.api, "/api/brands/")
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return out, nil
}

// listOf accepts both a bare JSON array and a paginated envelope.
func listOf[T any](ctx context.Context, api *apiclient.Client, path string) ([]T, error) {
	raw, err := apiclient.Get[json.RawMessage](ctx, api, path, apiclient.Options{})
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var page models.Paginated[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return page.Results, nil
}

// Gallery returns the product images ordered by sort_order.
func Gallery(p models.ProductDetail) []models.ProductImage {
	imgs := append([]models.ProductImage(nil), p.Images...)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].SortOrder < imgs[j].SortOrder })
	return imgs
}

// PrimaryVariant is the first variant in server order.
func PrimaryVariant(p models.ProductDetail) (models.ProductVariant, bool) {
	if len(p.Variants) == 0 {
		return models.ProductVariant{}, false
	}
	return p.Variants[0], true
}

// CategoryTree splits a flat category list into roots and their direct
// children, keeping server order.
func CategoryTree(cats []models.Category) []models.Category {
	children := map[int][]models.Category{}
	for _, c := range cats {
		if c.Parent != nil {
			children[*c.Parent] = append(children[*c.Parent], c)
		}
	}
	var roots []models.Category
	for _, c := range cats {
		if c.Parent == nil {
			c.Children = children[c.ID]
			roots = append(roots, c)
		}
	}
	return roots
}
