package repositories

import (
	"context"

	"lapak/internal/models"
)

// CartRepository defines the interface for the per-user persisted cart.
type CartRepository interface {
	// Get returns the user's cart, or an empty cart if none is stored.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// Put replaces the stored cart, as happens when the browser cart is
	// synchronized on login.
	Put(ctx context.Context, cart *models.Cart) error
	// Clear drops the stored cart. Invoked by the webhook receiver once the
	// user's order is paid; clearing a missing cart is a no-op.
	Clear(ctx context.Context, userID string) error
}
