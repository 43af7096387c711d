package repositories

import (
	"lapak/internal/models"
)

// ReturnRepository defines the interface for return (RMA) data access.
type ReturnRepository interface {
	Create(ret *models.Return) error
	GetByID(id string) (*models.Return, error)
	ListByOrder(orderID string) ([]models.Return, error)
	GetAll() ([]models.Return, error)
	UpdateStatus(id string, status string) error
}
