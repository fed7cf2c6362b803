package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementSource is the minimal shape the scorer and the match lifecycle
// need from any of the three candidate kinds. Kind-specific fields stay in
// the source models; nothing downstream switches on them.
type SettlementSource interface {
	CandidateKind() CandidateKind
	CandidateId() int
	CandidateAmount() decimal.Decimal
	CandidateEventDate() time.Time
	CandidateBranchId() *int
	CandidateLabel() string
	CandidateReconciliationStatus() ReconciliationStatus
}

// SettlementCandidate is the normalized read shape handed to operators and
// the scorer.
type SettlementCandidate struct {
	Kind                 CandidateKind        `json:"kind"`
	ID                   int                  `json:"id"`
	Amount               decimal.Decimal      `json:"amount"`
	EventDate            time.Time            `json:"event_date"`
	BranchId             *int                 `json:"branch_id"`
	ReconciliationStatus ReconciliationStatus `json:"reconciliation_status"`
	Label                string               `json:"label"`
}

func NewSettlementCandidate(source SettlementSource) SettlementCandidate {
	return SettlementCandidate{
		Kind:                 source.CandidateKind(),
		ID:                   source.CandidateId(),
		Amount:               source.CandidateAmount(),
		EventDate:            source.CandidateEventDate(),
		BranchId:             source.CandidateBranchId(),
		ReconciliationStatus: source.CandidateReconciliationStatus(),
		Label:                source.CandidateLabel(),
	}
}

// FetchCandidateForUpdate row-locks the candidate's source row and returns
// its normalized shape. Used inside lifecycle transactions to re-check the
// pending precondition.
func FetchCandidateForUpdate(tx *gorm.DB, ctx context.Context, businessId string, kind CandidateKind, id int) (*SettlementCandidate, error) {
	locked := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessId)

	var source SettlementSource
	switch kind {
	case CandidateKindSale:
		var order SalesOrder
		if err := locked.First(&order, id).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		source = order
	case CandidateKindDeposit:
		var deposit CashDeposit
		if err := locked.First(&deposit, id).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		source = deposit
	case CandidateKindInvoice:
		var invoice HotelInvoice
		if err := locked.First(&invoice, id).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		source = invoice
	default:
		return nil, utils.NewValidationError("invalid candidate kind")
	}

	candidate := NewSettlementCandidate(source)
	return &candidate, nil
}

// SettleCandidate flips a candidate from pending to settled. The guarded
// update turns a lost race into a ConflictError instead of double-booking
// the same funds.
//
// Rollback side effects are per-kind on purpose: today all three kinds only
// carry the reconciliation flag, but a kind that later grows a downstream
// flag gets its own arm here.
func SettleCandidate(tx *gorm.DB, ctx context.Context, businessId string, kind CandidateKind, id int) error {
	var result *gorm.DB
	switch kind {
	case CandidateKindSale:
		result = tx.WithContext(ctx).Model(&SalesOrder{}).
			Where("business_id = ? AND id = ? AND reconciliation_status = ?", businessId, id, ReconciliationStatusPending).
			Update("reconciliation_status", ReconciliationStatusSettled)
	case CandidateKindDeposit:
		result = tx.WithContext(ctx).Model(&CashDeposit{}).
			Where("business_id = ? AND id = ? AND reconciliation_status = ?", businessId, id, ReconciliationStatusPending).
			Update("reconciliation_status", ReconciliationStatusSettled)
	case CandidateKindInvoice:
		result = tx.WithContext(ctx).Model(&HotelInvoice{}).
			Where("business_id = ? AND id = ? AND reconciliation_status = ?", businessId, id, ReconciliationStatusPending).
			Update("reconciliation_status", ReconciliationStatusSettled)
	default:
		return utils.NewValidationError("invalid candidate kind")
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewConflictError("candidate is no longer pending")
	}
	return nil
}
