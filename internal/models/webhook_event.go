package models

import "time"

// Webhook event processing outcomes.
const (
	WebhookProcessed = "processed"
	WebhookSkipped   = "skipped"
	WebhookFailed    = "failed"
)

// WebhookEvent is the audit trail of payment provider webhooks. The provider
// event id carries a unique index and doubles as the dedupe key: inserting the
// row is the first thing the receiver does, and a duplicate-key error means
// the event was delivered before. Whether the redelivery is then skipped
// depends on Status: processed and skipped events are settled, while a failed
// or outcome-less row lets the retry run the handler again.
type WebhookEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   string    `json:"event_id" gorm:"type:varchar(100);uniqueIndex:ux_webhook_events_event_id"`
	EventType string    `json:"event_type" gorm:"type:varchar(100);index"`
	Status    string    `json:"status" gorm:"type:varchar(20)"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
