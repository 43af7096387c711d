package repositories

import (
	"errors"
	"fmt"
	"time"

	"lapak/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMInvoiceRepository is a GORM implementation of InvoiceRepository.
type GORMInvoiceRepository struct {
	db *gorm.DB
}

// NewGORMInvoiceRepository creates a new instance of GORMInvoiceRepository.
func NewGORMInvoiceRepository(db *gorm.DB) *GORMInvoiceRepository {
	return &GORMInvoiceRepository{
		db: db,
	}
}

// CreateIfAbsent inserts the invoice, falling back to the existing document
// when the unique (kind, ref) index rejects the insert. Losing the race to a
// concurrent insert therefore still returns the one document that won.
func (r *GORMInvoiceRepository) CreateIfAbsent(invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = time.Now()
	}
	err := r.db.Create(invoice).Error
	if err == nil {
		return invoice, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.GetByRef(invoice.Kind, invoice.RefID)
	}
	return nil, fmt.Errorf("failed to create invoice for %s %s: %w", invoice.Kind, invoice.RefID, err)
}

// GetByRef retrieves the document of the given kind for an order or return.
func (r *GORMInvoiceRepository) GetByRef(kind string, refID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.First(&invoice, "kind = ? AND ref_id = ?", kind, refID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s for %s not found", kind, refID)
		}
		return nil, fmt.Errorf("failed to get %s for %s: %w", kind, refID, err)
	}
	return &invoice, nil
}
