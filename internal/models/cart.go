package models

import "time"

// CartItem is a single line of a customer's cart. The price is the catalog
// price at the time the item was added; checkout re-reads the catalog and
// captures fresh prices on the order lines, so a stale cart price never leaks
// into an order.
type CartItem struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price"`
}

// Cart is the per-user persisted cart, synchronized from the browser on login
// and cleared by the webhook receiver once the matching order is paid.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
