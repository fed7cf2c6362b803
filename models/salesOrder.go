package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesOrder is a point-of-sale order owned by the POS subsystem. The
// reconciliation engine reads transfer-paid orders and flips their
// reconciliation status on approval; everything else about orders belongs
// to POS.
type SalesOrder struct {
	ID                   int                  `gorm:"primary_key" json:"id"`
	BusinessId           string               `gorm:"index;not null" json:"business_id"`
	BranchId             int                  `gorm:"index" json:"branch_id"`
	OrderNumber          string               `gorm:"size:255;not null" json:"order_number"`
	CustomerName         string               `gorm:"size:255" json:"customer_name"`
	PaymentMethod        string               `gorm:"size:100;not null" json:"payment_method"`
	CurrentStatus        string               `gorm:"size:100;not null" json:"current_status"`
	OrderTotalAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"order_total_amount"`
	OrderDate            time.Time            `gorm:"not null" json:"order_date"`
	ReconciliationStatus ReconciliationStatus `gorm:"index;not null;type:enum('Pending','Settled');default:'Pending'" json:"reconciliation_status"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	SalesOrderPaymentMethodTransfer = "Transfer"

	SalesOrderStatusVoid     = "Void"
	SalesOrderStatusRefunded = "Refunded"
)

func (o SalesOrder) CandidateKind() CandidateKind     { return CandidateKindSale }
func (o SalesOrder) CandidateId() int                 { return o.ID }
func (o SalesOrder) CandidateAmount() decimal.Decimal { return o.OrderTotalAmount }
func (o SalesOrder) CandidateEventDate() time.Time    { return o.OrderDate }
func (o SalesOrder) CandidateLabel() string           { return o.OrderNumber + " " + o.CustomerName }
func (o SalesOrder) CandidateReconciliationStatus() ReconciliationStatus {
	return o.ReconciliationStatus
}

func (o SalesOrder) CandidateBranchId() *int {
	if o.BranchId == 0 {
		return nil
	}
	id := o.BranchId
	return &id
}

// PendingSalesOrderScope narrows to orders that can still expect a transfer:
// transfer-paid, not void or refunded, not yet settled.
func PendingSalesOrderScope(db *gorm.DB, businessId string) *gorm.DB {
	return db.Model(&SalesOrder{}).
		Where("business_id = ?", businessId).
		Where("payment_method = ?", SalesOrderPaymentMethodTransfer).
		Where("current_status NOT IN ?", []string{SalesOrderStatusVoid, SalesOrderStatusRefunded}).
		Where("reconciliation_status = ?", ReconciliationStatusPending)
}
