package models

import "time"

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Payment statuses, tracked separately from the order status so a failed
// payment leaves the order open for retry.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
	PaymentStatusDisputed = "disputed"
)

// ShippingAddress is embedded into the order row. Pickup orders carry the
// pickup marker and leave the address fields empty.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Pickup        bool   `json:"pickup"`
}

// Order represents a customer's purchase intent, created in pending status at
// checkout time and reconciled against the payment provider's webhooks.
//
// Invariants: an order reaches paid at most once per successful payment
// confirmation (the transition is a conditional update guarded on the current
// status), and the total is immutable after creation except for the refund
// amount recorded on refund events. PaymentIntentID carries a unique index so
// the charge-to-order lookup used by refund and dispute events can never be
// ambiguous.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          *string         `json:"user_id,omitempty" gorm:"type:varchar(36);index"` // nil for guest checkout
	CustomerEmail   string          `json:"customer_email" gorm:"type:varchar(255)"`
	Status          string          `json:"status" gorm:"type:varchar(20);index;default:pending"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(20);default:pending"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shipping_cost"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	RefundAmount    float64         `json:"refund_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	SessionID       string          `json:"session_id" gorm:"type:varchar(100);index"`
	PaymentIntentID string          `json:"payment_intent_id" gorm:"type:varchar(100);uniqueIndex:ux_orders_payment_intent,where:payment_intent_id <> ''"`
	Lines           []OrderLine     `json:"lines" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderLine captures one product line at order-creation time. The unit price
// is the catalog price read when the order was created and is never
// recomputed afterwards; invoices and return refunds read it back from here.
type OrderLine struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string  `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID   string  `json:"product_id" gorm:"type:varchar(36);index"`
	ProductName string  `json:"product_name" gorm:"type:varchar(100)"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price"`
}
