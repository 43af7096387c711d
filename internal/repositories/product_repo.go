package repositories

import (
	"lapak/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetActive() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock lowers the product's stock by qty, clamping at zero.
	// Used by the fulfillment path after a payment confirmation.
	DecrementStock(id string, qty int) error
	// IncrementStock raises the product's stock by qty, unbounded.
	// Used by return completion.
	IncrementStock(id string, qty int) error
}
