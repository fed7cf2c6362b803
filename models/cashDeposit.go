package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashDeposit is a branch cash-drop submission: cash counted at a branch
// and carried to the bank, expected to surface as a credit on the
// statement.
type CashDeposit struct {
	ID                   int                  `gorm:"primary_key" json:"id"`
	BusinessId           string               `gorm:"index;not null" json:"business_id"`
	BranchId             int                  `gorm:"index;not null" json:"branch_id"`
	DepositNumber        string               `gorm:"size:255;not null" json:"deposit_number"`
	DepositedByName      string               `gorm:"size:255" json:"deposited_by_name"`
	CurrentStatus        string               `gorm:"size:100;not null" json:"current_status"`
	Amount               decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"amount"`
	DepositDate          time.Time            `gorm:"not null" json:"deposit_date"`
	ReconciliationStatus ReconciliationStatus `gorm:"index;not null;type:enum('Pending','Settled');default:'Pending'" json:"reconciliation_status"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	CashDepositStatusSubmitted = "Submitted"
	CashDepositStatusRejected  = "Rejected"
)

func (d CashDeposit) CandidateKind() CandidateKind     { return CandidateKindDeposit }
func (d CashDeposit) CandidateId() int                 { return d.ID }
func (d CashDeposit) CandidateAmount() decimal.Decimal { return d.Amount }
func (d CashDeposit) CandidateEventDate() time.Time    { return d.DepositDate }
func (d CashDeposit) CandidateLabel() string           { return d.DepositNumber + " " + d.DepositedByName }
func (d CashDeposit) CandidateReconciliationStatus() ReconciliationStatus {
	return d.ReconciliationStatus
}

func (d CashDeposit) CandidateBranchId() *int {
	if d.BranchId == 0 {
		return nil
	}
	id := d.BranchId
	return &id
}

func PendingCashDepositScope(db *gorm.DB, businessId string) *gorm.DB {
	return db.Model(&CashDeposit{}).
		Where("business_id = ?", businessId).
		Where("current_status = ?", CashDepositStatusSubmitted).
		Where("reconciliation_status = ?", ReconciliationStatusPending)
}
