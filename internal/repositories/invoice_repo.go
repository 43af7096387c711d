package repositories

import (
	"lapak/internal/models"
)

// InvoiceRepository defines the interface for invoice data access.
type InvoiceRepository interface {
	// CreateIfAbsent persists the invoice unless a document of the same kind
	// already exists for the same order or return, in which case the existing
	// document is returned. This is what makes invoice generation safe to
	// re-run from a redelivered webhook or a repeated admin action.
	CreateIfAbsent(invoice *models.Invoice) (*models.Invoice, error)
	GetByRef(kind string, refID string) (*models.Invoice, error)
}
