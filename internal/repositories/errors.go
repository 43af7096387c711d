package repositories

import "errors"

// Sentinel errors shared by all repository implementations.
var (
	// ErrDuplicateEvent is returned when a webhook event with the same
	// provider event id has already been recorded. Callers consult the audit
	// row's outcome to decide between skipping and reprocessing.
	ErrDuplicateEvent = errors.New("webhook event already recorded")

	// ErrOrderNotFound is returned when an order lookup matches nothing.
	ErrOrderNotFound = errors.New("order not found")
)
