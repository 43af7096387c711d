package services

import (
	"fmt"
	"strings"
	"time"

	"lapak/internal/models"
	"lapak/internal/repositories"

	"github.com/google/uuid"
)

// InvoiceService generates billing documents. Generation is idempotent by
// existence check: the repository refuses a second document of the same kind
// for the same order or return and hands back the first one instead.
type InvoiceService struct {
	repo repositories.InvoiceRepository
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(repo repositories.InvoiceRepository) *InvoiceService {
	return &InvoiceService{
		repo: repo,
	}
}

func documentNumber(prefix string) string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102"), frag)
}

// GenerateForOrder produces the invoice for a paid order, or returns the
// existing one.
func (s *InvoiceService) GenerateForOrder(order *models.Order) (*models.Invoice, error) {
	return s.repo.CreateIfAbsent(&models.Invoice{
		Number: documentNumber("INV"),
		Kind:   models.InvoiceKindInvoice,
		RefID:  order.ID,
		Total:  order.Total,
	})
}

// GenerateCreditNote produces the credit note for a completed return, or
// returns the existing one.
func (s *InvoiceService) GenerateCreditNote(ret *models.Return) (*models.Invoice, error) {
	return s.repo.CreateIfAbsent(&models.Invoice{
		Number: documentNumber("CN"),
		Kind:   models.InvoiceKindCreditNote,
		RefID:  ret.ID,
		Total:  ret.RefundAmount,
	})
}
