package repositories

import (
	"errors"
	"fmt"

	"lapak/internal/models"

	"gorm.io/gorm"
)

// GORMWebhookEventRepository is a GORM implementation of
// WebhookEventRepository. It relies on the unique index on the provider event
// id for dedupe; the gorm.Config used to open the connection must have
// TranslateError enabled so duplicate-key violations surface as
// gorm.ErrDuplicatedKey on both Postgres and SQLite.
type GORMWebhookEventRepository struct {
	db *gorm.DB
}

// NewGORMWebhookEventRepository creates a new instance of
// GORMWebhookEventRepository.
func NewGORMWebhookEventRepository(db *gorm.DB) *GORMWebhookEventRepository {
	return &GORMWebhookEventRepository{
		db: db,
	}
}

// Insert records a newly delivered event, returning ErrDuplicateEvent when
// the provider event id was seen before.
func (r *GORMWebhookEventRepository) Insert(event *models.WebhookEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record webhook event %s: %w", event.EventID, err)
	}
	return nil
}

// MarkOutcome records the processing outcome on the audit row.
func (r *GORMWebhookEventRepository) MarkOutcome(eventID string, status string, errMsg string) error {
	res := r.db.Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{"status": status, "error": errMsg})
	if res.Error != nil {
		return fmt.Errorf("failed to mark outcome for webhook event %s: %w", eventID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("webhook event %s not found for outcome update", eventID)
	}
	return nil
}

// GetByEventID retrieves an audit row by the provider event id.
func (r *GORMWebhookEventRepository) GetByEventID(eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.First(&event, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("webhook event %s not found", eventID)
		}
		return nil, fmt.Errorf("failed to get webhook event %s: %w", eventID, err)
	}
	return &event, nil
}
