package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal is one balanced ledger entry written by the posting gateway when
// a match is approved or a mutation is recorded manually. The engine never
// mutates journals after creation; corrections are separate reversing
// entries outside this engine.
type Journal struct {
	ID                 int                  `gorm:"primary_key" json:"id"`
	BusinessId         string               `gorm:"index;not null" json:"business_id"`
	BranchId           int                  `gorm:"index" json:"branch_id"`
	JournalDate        time.Time            `gorm:"not null" json:"journal_date"`
	JournalNotes       string               `gorm:"type:text" json:"journal_notes"`
	ReferenceType      LedgerReferenceType  `gorm:"not null;type:enum('BankMatch','ManualRecord')" json:"reference_type"`
	ReferenceId        int                  `gorm:"index;not null" json:"reference_id"`
	JournalTotalAmount decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"journal_total_amount"`
	Transactions       []JournalTransaction `gorm:"foreignKey:JournalId" json:"transactions"`
	CreatedAt          time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type JournalTransaction struct {
	ID          int             `gorm:"primary_key" json:"id"`
	JournalId   int             `gorm:"index;not null" json:"journal_id"`
	AccountId   int             `gorm:"index;not null" json:"account_id"`
	BranchId    int             `json:"branch_id"`
	Description string          `gorm:"size:255" json:"description"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
}

func (j Journal) GetId() int {
	return j.ID
}

func (jt JournalTransaction) GetId() int {
	return jt.ID
}
