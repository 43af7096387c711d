package repositories

import (
	"fmt"
	"sync"
	"time"

	"lapak/internal/models"
)

// MockWebhookEventRepository is an in-memory implementation of
// WebhookEventRepository.
type MockWebhookEventRepository struct {
	events map[string]models.WebhookEvent
	nextID uint
	mu     sync.RWMutex
}

// NewMockWebhookEventRepository creates a new instance of
// MockWebhookEventRepository.
func NewMockWebhookEventRepository() *MockWebhookEventRepository {
	return &MockWebhookEventRepository{
		events: make(map[string]models.WebhookEvent),
	}
}

// Insert records a new event, enforcing provider event id uniqueness the same
// way the unique index does in the GORM implementation.
func (r *MockWebhookEventRepository) Insert(event *models.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.EventID]; ok {
		return ErrDuplicateEvent
	}
	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	r.events[event.EventID] = *event
	return nil
}

// MarkOutcome records the processing outcome.
func (r *MockWebhookEventRepository) MarkOutcome(eventID string, status string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("webhook event %s not found for outcome update", eventID)
	}
	event.Status = status
	event.Error = errMsg
	event.UpdatedAt = time.Now()
	r.events[eventID] = event
	return nil
}

// GetByEventID retrieves an audit row by the provider event id.
func (r *MockWebhookEventRepository) GetByEventID(eventID string) (*models.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[eventID]
	if !ok {
		return nil, fmt.Errorf("webhook event %s not found", eventID)
	}
	return &event, nil
}
