package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HotelInvoice is a B2B invoice (hotel and corporate customers) settled by
// bank transfer. Branch can be empty for invoices billed centrally.
type HotelInvoice struct {
	ID                   int                  `gorm:"primary_key" json:"id"`
	BusinessId           string               `gorm:"index;not null" json:"business_id"`
	BranchId             int                  `gorm:"index" json:"branch_id"`
	InvoiceNumber        string               `gorm:"size:255;not null" json:"invoice_number"`
	CompanyName          string               `gorm:"size:255" json:"company_name"`
	CurrentStatus        string               `gorm:"size:100;not null" json:"current_status"`
	InvoiceTotalAmount   decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_total_amount"`
	InvoiceDate          time.Time            `gorm:"not null" json:"invoice_date"`
	DueDate              *time.Time           `json:"due_date"`
	ReconciliationStatus ReconciliationStatus `gorm:"index;not null;type:enum('Pending','Settled');default:'Pending'" json:"reconciliation_status"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	HotelInvoiceStatusIssued    = "Issued"
	HotelInvoiceStatusCancelled = "Cancelled"
)

func (i HotelInvoice) CandidateKind() CandidateKind     { return CandidateKindInvoice }
func (i HotelInvoice) CandidateId() int                 { return i.ID }
func (i HotelInvoice) CandidateAmount() decimal.Decimal { return i.InvoiceTotalAmount }
func (i HotelInvoice) CandidateEventDate() time.Time    { return i.InvoiceDate }
func (i HotelInvoice) CandidateLabel() string           { return i.InvoiceNumber + " " + i.CompanyName }
func (i HotelInvoice) CandidateReconciliationStatus() ReconciliationStatus {
	return i.ReconciliationStatus
}

func (i HotelInvoice) CandidateBranchId() *int {
	if i.BranchId == 0 {
		return nil
	}
	id := i.BranchId
	return &id
}

func PendingHotelInvoiceScope(db *gorm.DB, businessId string) *gorm.DB {
	return db.Model(&HotelInvoice{}).
		Where("business_id = ?", businessId).
		Where("current_status = ?", HotelInvoiceStatusIssued).
		Where("reconciliation_status = ?", ReconciliationStatusPending)
}
