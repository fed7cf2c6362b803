package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"gorm.io/gorm"
)

// CandidateFilter narrows the pending pool. Nil fields mean "no filter".
type CandidateFilter struct {
	Kind      *models.CandidateKind
	BranchId  *int
	StartDate *time.Time
	EndDate   *time.Time
}

func (f CandidateFilter) includes(kind models.CandidateKind) bool {
	return f.Kind == nil || *f.Kind == kind
}

func applyPoolFilter(scope *gorm.DB, dateColumn string, filter CandidateFilter) *gorm.DB {
	if filter.BranchId != nil {
		scope = scope.Where("branch_id = ?", *filter.BranchId)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		scope = scope.Where(dateColumn+" BETWEEN ? AND ?", filter.StartDate, filter.EndDate)
	}
	return scope
}

// FetchPendingCandidates assembles the unified pool from the three
// settlement sources. Each source decides its own "still expects a transfer"
// rule in its Pending*Scope; the pool only merges and orders.
func FetchPendingCandidates(ctx context.Context, filter CandidateFilter) ([]models.SettlementCandidate, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, utils.NewValidationError("invalid candidate kind")
	}

	db := config.GetDB()
	candidates := []models.SettlementCandidate{}

	if filter.includes(models.CandidateKindSale) {
		var orders []models.SalesOrder
		scope := applyPoolFilter(models.PendingSalesOrderScope(db.WithContext(ctx), businessId), "order_date", filter)
		if err := scope.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
			return nil, err
		}
		for _, order := range orders {
			candidates = append(candidates, models.NewSettlementCandidate(order))
		}
	}

	if filter.includes(models.CandidateKindDeposit) {
		var deposits []models.CashDeposit
		scope := applyPoolFilter(models.PendingCashDepositScope(db.WithContext(ctx), businessId), "deposit_date", filter)
		if err := scope.Order("deposit_date DESC, id DESC").Find(&deposits).Error; err != nil {
			return nil, err
		}
		for _, deposit := range deposits {
			candidates = append(candidates, models.NewSettlementCandidate(deposit))
		}
	}

	if filter.includes(models.CandidateKindInvoice) {
		var invoices []models.HotelInvoice
		scope := applyPoolFilter(models.PendingHotelInvoiceScope(db.WithContext(ctx), businessId), "invoice_date", filter)
		if err := scope.Order("invoice_date DESC, id DESC").Find(&invoices).Error; err != nil {
			return nil, err
		}
		for _, invoice := range invoices {
			candidates = append(candidates, models.NewSettlementCandidate(invoice))
		}
	}

	sortCandidatePool(candidates)
	return candidates, nil
}

// sortCandidatePool orders newest first, then kind, then id. Total order:
// repeated requests over unchanged data always list identically.
func sortCandidatePool(candidates []models.SettlementCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].EventDate.Equal(candidates[j].EventDate) {
			return candidates[i].EventDate.After(candidates[j].EventDate)
		}
		if candidates[i].Kind != candidates[j].Kind {
			return candidates[i].Kind < candidates[j].Kind
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// FetchScoredCandidates is the match screen query: the pending pool graded
// against one mutation, best guesses first.
func FetchScoredCandidates(ctx context.Context, mutationId int, filter CandidateFilter) ([]ScoredCandidate, error) {
	mutation, err := models.GetBankMutation(ctx, mutationId)
	if err != nil {
		return nil, err
	}
	candidates, err := FetchPendingCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}
	return AnnotateCandidates(mutation, candidates), nil
}
