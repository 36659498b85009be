// Package cart reads and mutates the backend cart keyed by the cart session.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/mobileshop/internal/apiclient"
	"github.com/Skotchmaster/mobileshop/internal/models"
	"github.com/Skotchmaster/mobileshop/internal/session"
	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNoSession  = errors.New("no cart session")
)

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// Get returns the cart for sessionID. Without a session, or when the backend
// fails, it returns the empty cart; a cart read never fails a page.
func (s *Service) Get(ctx context.Context, sessionID string) models.Cart {
	if sessionID == "" {
		return models.EmptyCart()
	}
	c, err := apiclient.Get[models.Cart](ctx, s.api, "/api/cart/", apiclient.Options{
		Headers: session.CartHeaders(sessionID),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("get_cart_failed", "svc", "cart", "error", err)
		return models.EmptyCart()
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c
}

// AddItem creates the cart session if needed and adds the variant. The caller
// invalidates rendered cart views.
func (s *Service) AddItem(ctx context.Context, w session.Writer, variantID, quantity int) (models.CartItem, string, error) {
	if variantID <= 0 {
		return models.CartItem{}, "", fmt.Errorf("variant id must be positive: %w", ErrValidation)
	}
	if quantity <= 0 {
		return models.CartItem{}, "", fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	sessionID := w.GetOrCreateCartSession()
	item, err := apiclient.Request[models.CartItem](ctx, s.api, "/api/cart/items/", apiclient.Options{
		Method:  http.MethodPost,
		Headers: session.CartHeaders(sessionID),
		Body:    map[string]int{"product_variant_id": variantID, "quantity": quantity},
	})
	if err != nil {
		return models.CartItem{}, sessionID, fmt.Errorf("add cart item: %w", err)
	}
	return item, sessionID, nil
}

func (s *Service) UpdateItem(ctx context.Context, sessionID string, itemID, quantity int) (models.CartItem, error) {
	if sessionID == "" {
		return models.CartItem{}, ErrNoSession
	}
	if quantity <= 0 {
		return models.CartItem{}, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}
	item, err := apiclient.Request[models.CartItem](ctx, s.api, itemPath(itemID), apiclient.Options{
		Method:  http.MethodPatch,
		Headers: session.CartHeaders(sessionID),
		Body:    map[string]int{"quantity": quantity},
	})
	if err != nil {
		return models.CartItem{}, fmt.Errorf("update cart item %d: %w", itemID, err)
	}
	return item, nil
}

// DeleteItem accepts an empty 204 response as success.
func (s *Service) DeleteItem(ctx context.Context, sessionID string, itemID int) error {
	if sessionID == "" {
		return ErrNoSession
	}
	err := s.api.Do(ctx, itemPath(itemID), apiclient.Options{
		Method:  http.MethodDelete,
		Headers: session.CartHeaders(sessionID),
	}, nil)
	if err != nil {
		return fmt.Errorf("delete cart item %d: %w", itemID, err)
	}
	return nil
}

func itemPath(id int) string {
	return "/api/cart/items/" + strconv.Itoa(id) + "/"
}
