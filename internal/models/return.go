package models

import "time"

// Return statuses.
const (
	ReturnStatusPending   = "pending"
	ReturnStatusApproved  = "approved"
	ReturnStatusReceived  = "received"
	ReturnStatusCompleted = "completed"
	ReturnStatusRejected  = "rejected"
	ReturnStatusCancelled = "cancelled"
)

// Return is a post-delivery request to send goods back for a refund. The
// refund amount is computed server-side from the persisted order-line unit
// prices (shipping excluded) and never trusts prices supplied by the caller.
// Completing a return replenishes stock for every returned line and flips the
// parent order to refunded.
type Return struct {
	ID           string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string       `json:"order_id" gorm:"type:varchar(36);index"`
	ReturnNumber string       `json:"return_number" gorm:"type:varchar(30);uniqueIndex"`
	Reason       string       `json:"reason" gorm:"type:varchar(100)" validate:"required"`
	Description  string       `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status       string       `json:"status" gorm:"type:varchar(20);index;default:pending"`
	RefundAmount float64      `json:"refund_amount"`
	Items        []ReturnItem `json:"items" gorm:"foreignKey:ReturnID"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ReturnItem references the order line being sent back.
type ReturnItem struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ReturnID    string `json:"return_id" gorm:"type:varchar(36);index"`
	OrderLineID string `json:"order_line_id" gorm:"type:varchar(36)"`
	ProductID   string `json:"product_id" gorm:"type:varchar(36)"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}
