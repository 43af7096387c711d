package models

import "time"

// Invoice kinds.
const (
	InvoiceKindInvoice    = "invoice"
	InvoiceKindCreditNote = "credit_note"
)

// Invoice is the persisted billing document for a paid order or a completed
// return. Generation is "create if not already generated": the (kind, ref)
// pair carries a unique index, so regenerating for the same order or return
// returns the existing document instead of issuing a second one.
type Invoice struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Number    string    `json:"number" gorm:"type:varchar(30);uniqueIndex"`
	Kind      string    `json:"kind" gorm:"type:varchar(20);uniqueIndex:ux_invoices_kind_ref,priority:1"`
	RefID     string    `json:"ref_id" gorm:"type:varchar(36);uniqueIndex:ux_invoices_kind_ref,priority:2"` // order or return id
	Total     float64   `json:"total"`
	IssuedAt  time.Time `json:"issued_at"`
	CreatedAt time.Time `json:"created_at"`
}
