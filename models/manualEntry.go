package models

import (
	"time"
)

// ManualEntry is the terminal path for a mutation with no settlement
// candidate: owner capital, owner loan, other income or a supplier refund.
// BranchId is mandatory because these entries move per-branch equity.
type ManualEntry struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"index;not null" json:"business_id"`
	MutationId      int                 `gorm:"not null;uniqueIndex" json:"mutation_id"`
	BranchId        int                 `gorm:"index;not null" json:"branch_id"`
	Category        ManualEntryCategory `gorm:"not null;type:enum('OwnerCapital','OwnerLoan','OtherIncome','SupplierRefund')" json:"category"`
	Description     string              `gorm:"type:text" json:"description"`
	TargetAccountId int                 `gorm:"not null" json:"target_account_id"`
	RecordedBy      int                 `json:"recorded_by"`
	RecordedAt      time.Time           `json:"recorded_at"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (e ManualEntry) GetId() int {
	return e.ID
}
