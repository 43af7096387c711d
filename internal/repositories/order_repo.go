package repositories

import (
	"lapak/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByPaymentIntentID(paymentIntentID string) (*models.Order, error)
	GetAll() ([]models.Order, error)
	ListByUser(userID string) ([]models.Order, error)
	// MarkPaid performs the conditional pending -> paid transition and records
	// the provider payment intent id. It reports whether the transition
	// actually happened: false means the order was no longer pending, so a
	// redelivered event must skip all downstream side effects.
	MarkPaid(id string, paymentIntentID string) (bool, error)
	UpdateStatus(id string, status string) error
	UpdatePaymentStatus(id string, paymentStatus string) error
	// MarkRefunded records the refund amount and flips both status fields to
	// refunded, but only while the payment status is paid. It reports whether
	// the transition happened: false means the order was never paid, so a
	// stray refund event must not touch it.
	MarkRefunded(id string, amount float64) (bool, error)
	// MarkDisputed flips the payment status to disputed, only from paid.
	MarkDisputed(id string) (bool, error)
	SetSessionID(id string, sessionID string) error
}
