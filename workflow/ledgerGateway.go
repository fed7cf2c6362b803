package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LedgerEntry describes one inbound posting: debit the deposit account,
// credit the counter account implied by the entry's origin. Amount is always
// the bank mutation amount, never the candidate's.
type LedgerEntry struct {
	BusinessId       string
	BranchId         int
	TransactionDate  time.Time
	Amount           decimal.Decimal
	DepositAccountId int
	ReferenceType    models.LedgerReferenceType
	ReferenceId      int

	// CandidateKind is set for BankMatch entries, Category for ManualRecord
	// entries; the other one stays zero.
	CandidateKind models.CandidateKind
	Category      models.ManualEntryCategory

	Description string
}

// LedgerGateway posts a ledger entry inside the caller's transaction, so a
// failed posting rolls back together with the state transition that needed
// it.
type LedgerGateway interface {
	Post(tx *gorm.DB, ctx context.Context, entry LedgerEntry) error
}

type journalGateway struct {
	logger *logrus.Logger
}

func NewJournalGateway(logger *logrus.Logger) LedgerGateway {
	return &journalGateway{logger: logger}
}

// creditAccountCode maps an entry's origin to the system account credited.
func creditAccountCode(entry LedgerEntry) (models.AccountCode, error) {
	switch entry.ReferenceType {
	case models.LedgerReferenceTypeBankMatch:
		switch entry.CandidateKind {
		case models.CandidateKindSale:
			return models.AccountCodeSalesClearing, nil
		case models.CandidateKindDeposit:
			return models.AccountCodeDepositsInTransit, nil
		case models.CandidateKindInvoice:
			return models.AccountCodeAccountReceivable, nil
		}
		return "", utils.NewValidationError("invalid candidate kind")
	case models.LedgerReferenceTypeManualRecord:
		switch entry.Category {
		case models.ManualEntryCategoryOwnerCapital:
			return models.AccountCodeOwnerCapital, nil
		case models.ManualEntryCategoryOwnerLoan:
			return models.AccountCodeOwnerLoan, nil
		case models.ManualEntryCategoryOtherIncome:
			return models.AccountCodeOtherIncome, nil
		case models.ManualEntryCategorySupplierRefund:
			return models.AccountCodeSupplierRefund, nil
		}
		return "", utils.NewValidationError("invalid manual entry category")
	}
	return "", utils.NewValidationError("invalid ledger reference type")
}

func (g *journalGateway) Post(tx *gorm.DB, ctx context.Context, entry LedgerEntry) error {
	creditCode, err := creditAccountCode(entry)
	if err != nil {
		return err
	}

	systemAccounts, err := models.GetSystemAccounts(ctx, entry.BusinessId)
	if err != nil {
		config.LogError(g.logger, "ledgerGateway.go", "Post", "GetSystemAccounts", entry.BusinessId, err)
		return utils.NewLedgerPostingError("system accounts unavailable", err)
	}
	creditAccountId, ok := systemAccounts[creditCode]
	if !ok {
		return utils.NewLedgerPostingError("system account "+string(creditCode)+" is not configured", nil)
	}

	journal := models.Journal{
		BusinessId:         entry.BusinessId,
		BranchId:           entry.BranchId,
		JournalDate:        entry.TransactionDate,
		JournalNotes:       entry.Description,
		ReferenceType:      entry.ReferenceType,
		ReferenceId:        entry.ReferenceId,
		JournalTotalAmount: entry.Amount,
		Transactions: []models.JournalTransaction{
			{
				AccountId:   entry.DepositAccountId,
				BranchId:    entry.BranchId,
				Description: entry.Description,
				Debit:       entry.Amount,
				Credit:      decimal.Zero,
			},
			{
				AccountId:   creditAccountId,
				BranchId:    entry.BranchId,
				Description: entry.Description,
				Debit:       decimal.Zero,
				Credit:      entry.Amount,
			},
		},
	}

	if err := tx.WithContext(ctx).Create(&journal).Error; err != nil {
		config.LogError(g.logger, "ledgerGateway.go", "Post", "Create Journal", journal, err)
		return utils.NewLedgerPostingError("journal write failed", err)
	}
	return nil
}
