package repositories

import (
	"errors"
	"fmt"

	"lapak/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReturnRepository is a GORM implementation of ReturnRepository.
type GORMReturnRepository struct {
	db *gorm.DB
}

// NewGORMReturnRepository creates a new instance of GORMReturnRepository.
func NewGORMReturnRepository(db *gorm.DB) *GORMReturnRepository {
	return &GORMReturnRepository{
		db: db,
	}
}

// Create persists a return together with its items.
func (r *GORMReturnRepository) Create(ret *models.Return) error {
	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}
	for i := range ret.Items {
		if ret.Items[i].ID == "" {
			ret.Items[i].ID = uuid.New().String()
		}
		ret.Items[i].ReturnID = ret.ID
	}
	if err := r.db.Create(ret).Error; err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	return nil
}

// GetByID retrieves a return with its items.
func (r *GORMReturnRepository) GetByID(id string) (*models.Return, error) {
	var ret models.Return
	if err := r.db.Preload("Items").First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("return with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get return by ID %s: %w", id, err)
	}
	return &ret, nil
}

// ListByOrder retrieves all returns filed against an order.
func (r *GORMReturnRepository) ListByOrder(orderID string) ([]models.Return, error) {
	var returns []models.Return
	if err := r.db.Preload("Items").Where("order_id = ?", orderID).Find(&returns).Error; err != nil {
		return nil, fmt.Errorf("failed to list returns for order %s: %w", orderID, err)
	}
	return returns, nil
}

// GetAll retrieves all returns.
func (r *GORMReturnRepository) GetAll() ([]models.Return, error) {
	var returns []models.Return
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&returns).Error; err != nil {
		return nil, fmt.Errorf("failed to get all returns: %w", err)
	}
	return returns, nil
}

// UpdateStatus updates the status of a return.
func (r *GORMReturnRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Return{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for return %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("return with ID %s not found for status update", id)
	}
	return nil
}
