package repositories

import (
	"fmt"
	"sync"
	"time"

	"lapak/internal/models"

	"github.com/google/uuid"
)

// MockInvoiceRepository is an in-memory implementation of InvoiceRepository.
type MockInvoiceRepository struct {
	invoices map[string]models.Invoice // keyed by kind + ref id
	mu       sync.RWMutex
}

// NewMockInvoiceRepository creates a new instance of MockInvoiceRepository.
func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[string]models.Invoice),
	}
}

func invoiceKey(kind, refID string) string {
	return kind + ":" + refID
}

// CreateIfAbsent inserts the invoice unless one already exists for the same
// kind and ref, in which case the existing one is returned.
func (r *MockInvoiceRepository) CreateIfAbsent(invoice *models.Invoice) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := invoiceKey(invoice.Kind, invoice.RefID)
	if existing, ok := r.invoices[key]; ok {
		return &existing, nil
	}
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = time.Now()
	}
	invoice.CreatedAt = time.Now()
	r.invoices[key] = *invoice
	return invoice, nil
}

// GetByRef retrieves the document of the given kind for an order or return.
func (r *MockInvoiceRepository) GetByRef(kind string, refID string) (*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, ok := r.invoices[invoiceKey(kind, refID)]
	if !ok {
		return nil, fmt.Errorf("%s for %s not found", kind, refID)
	}
	return &invoice, nil
}
