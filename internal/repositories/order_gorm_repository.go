package repositories

import (
	"errors"
	"fmt"

	"lapak/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists an order together with its lines.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == "" {
			order.Lines[i].ID = uuid.New().String()
		}
		order.Lines[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its lines.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByPaymentIntentID retrieves the order recorded against a provider
// payment intent. The column carries a unique index, so at most one order can
// match.
func (r *GORMOrderRepository) GetByPaymentIntentID(paymentIntentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Lines").First(&order, "payment_intent_id = ?", paymentIntentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by payment intent %s: %w", paymentIntentID, err)
	}
	return &order, nil
}

// GetAll retrieves all orders with their lines.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Lines").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// ListByUser retrieves all orders belonging to a registered user.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Lines").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// MarkPaid transitions the order to paid only if it is still pending. The
// guard in the WHERE clause is what makes webhook redelivery safe: the second
// delivery affects zero rows and the caller skips stock, cart and email side
// effects.
func (r *GORMOrderRepository) MarkPaid(id string, paymentIntentID string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":            models.OrderStatusPaid,
			"payment_status":    models.PaymentStatusPaid,
			"payment_intent_id": paymentIntentID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus updates the order status field.
func (r *GORMOrderRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdatePaymentStatus updates the payment status field only, leaving the
// order status untouched so a failed payment can be retried.
func (r *GORMOrderRepository) UpdatePaymentStatus(id string, paymentStatus string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("payment_status", paymentStatus)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkRefunded records the refund amount and flips both status fields. The
// payment-status guard keeps a stray refund event from flipping an order that
// was never paid.
func (r *GORMOrderRepository) MarkRefunded(id string, amount float64) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"status":         models.OrderStatusRefunded,
			"payment_status": models.PaymentStatusRefunded,
			"refund_amount":  amount,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s refunded: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkDisputed flips the payment status to disputed, only from paid.
func (r *GORMOrderRepository) MarkDisputed(id string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusPaid).
		Update("payment_status", models.PaymentStatusDisputed)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s disputed: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetSessionID records the hosted checkout session opened for the order.
func (r *GORMOrderRepository) SetSessionID(id string, sessionID string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("session_id", sessionID)
	if res.Error != nil {
		return fmt.Errorf("failed to set session id for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
