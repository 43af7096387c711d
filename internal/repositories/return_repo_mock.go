package repositories

import (
	"fmt"
	"sync"
	"time"

	"lapak/internal/models"

	"github.com/google/uuid"
)

// MockReturnRepository is an in-memory implementation of ReturnRepository.
type MockReturnRepository struct {
	returns map[string]models.Return
	mu      sync.RWMutex
}

// NewMockReturnRepository creates a new instance of MockReturnRepository.
func NewMockReturnRepository() *MockReturnRepository {
	return &MockReturnRepository{
		returns: make(map[string]models.Return),
	}
}

// Create adds a new return with its items.
func (r *MockReturnRepository) Create(ret *models.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}
	for i := range ret.Items {
		if ret.Items[i].ID == "" {
			ret.Items[i].ID = uuid.New().String()
		}
		ret.Items[i].ReturnID = ret.ID
	}
	ret.CreatedAt = time.Now()
	ret.UpdatedAt = time.Now()
	r.returns[ret.ID] = *ret
	return nil
}

// GetByID returns a return by its ID.
func (r *MockReturnRepository) GetByID(id string) (*models.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret, ok := r.returns[id]
	if !ok {
		return nil, fmt.Errorf("return with ID %s not found", id)
	}
	return &ret, nil
}

// ListByOrder returns all returns filed against an order.
func (r *MockReturnRepository) ListByOrder(orderID string) ([]models.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var returnList []models.Return
	for _, ret := range r.returns {
		if ret.OrderID == orderID {
			returnList = append(returnList, ret)
		}
	}
	return returnList, nil
}

// GetAll returns all returns.
func (r *MockReturnRepository) GetAll() ([]models.Return, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	returnList := make([]models.Return, 0, len(r.returns))
	for _, ret := range r.returns {
		returnList = append(returnList, ret)
	}
	return returnList, nil
}

// UpdateStatus updates the status of a return.
func (r *MockReturnRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ret, ok := r.returns[id]
	if !ok {
		return fmt.Errorf("return with ID %s not found for status update", id)
	}
	ret.Status = status
	ret.UpdatedAt = time.Now()
	r.returns[id] = ret
	return nil
}
