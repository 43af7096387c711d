package repositories

import (
	"sync"
	"time"

	"lapak/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order with its lines.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == "" {
			order.Lines[i].ID = uuid.New().String()
		}
		order.Lines[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// GetByPaymentIntentID returns the order recorded against a payment intent.
func (r *MockOrderRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.PaymentIntentID == paymentIntentID {
			o := order
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	return orderList, nil
}

// ListByUser returns all orders belonging to a user.
func (r *MockOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.UserID != nil && *order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// MarkPaid transitions the order to paid only if it is still pending,
// mirroring the conditional update of the GORM implementation.
func (r *MockOrderRepository) MarkPaid(id string, paymentIntentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusPaid
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentIntentID = paymentIntentID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *MockOrderRepository) UpdatePaymentStatus(id string, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.PaymentStatus = paymentStatus
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// MarkRefunded records the refund amount and flips both status fields, only
// while the payment status is paid, mirroring the guarded update of the GORM
// implementation.
func (r *MockOrderRepository) MarkRefunded(id string, amount float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.PaymentStatus != models.PaymentStatusPaid {
		return false, nil
	}
	order.Status = models.OrderStatusRefunded
	order.PaymentStatus = models.PaymentStatusRefunded
	order.RefundAmount = amount
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MarkDisputed flips the payment status to disputed, only from paid.
func (r *MockOrderRepository) MarkDisputed(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.PaymentStatus != models.PaymentStatusPaid {
		return false, nil
	}
	order.PaymentStatus = models.PaymentStatusDisputed
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// SetSessionID records the hosted checkout session for an order.
func (r *MockOrderRepository) SetSessionID(id string, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	order.SessionID = sessionID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
