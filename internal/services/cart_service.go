package services

import (
	"context"
	"fmt"

	"lapak/internal/models"
	"lapak/internal/repositories"
)

// CartService handles the per-user persisted cart. The browser owns the cart
// between visits; on login it pushes its copy here, and the webhook receiver
// clears it once the matching order is paid.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's persisted cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.cartRepo.Get(ctx, userID)
}

// ReplaceCart overwrites the persisted cart with the browser's copy. Each
// line is re-priced from the current catalog so the stored price is never
// older than the sync; checkout re-reads the catalog again anyway.
func (s *CartService) ReplaceCart(ctx context.Context, userID string, items []models.CartItem) (*models.Cart, error) {
	for i := range items {
		product, err := s.productRepo.GetByID(items[i].ProductID)
		if err != nil {
			return nil, fmt.Errorf("cart references unknown product %s", items[i].ProductID)
		}
		items[i].Price = product.Price
	}

	cart := &models.Cart{UserID: userID, Items: items}
	if err := s.cartRepo.Put(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
