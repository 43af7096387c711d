package repositories

import (
	"lapak/internal/models"
)

// WebhookEventRepository defines the interface for the webhook audit trail.
type WebhookEventRepository interface {
	// Insert records a newly delivered event. It returns ErrDuplicateEvent if
	// an event with the same provider event id has already been recorded.
	Insert(event *models.WebhookEvent) error
	// MarkOutcome records how processing of the event ended.
	MarkOutcome(eventID string, status string, errMsg string) error
	GetByEventID(eventID string) (*models.WebhookEvent, error)
}
