package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type NewMatch struct {
	MutationId              int                  `json:"mutation_id" binding:"required"`
	CandidateKind           models.CandidateKind `json:"candidate_kind" binding:"required"`
	CandidateId             int                  `json:"candidate_id" binding:"required"`
	AmountMismatchConfirmed bool                 `json:"amount_mismatch_confirmed"`
}

type NewManualRecord struct {
	MutationId      int                        `json:"mutation_id" binding:"required"`
	BranchId        int                        `json:"branch_id"`
	Category        models.ManualEntryCategory `json:"category" binding:"required"`
	TargetAccountId int                        `json:"target_account_id" binding:"required"`
	Description     string                     `json:"description"`
}

// mutationStateConflict names the state that blocked a transition, so the
// operator sees why instead of a generic failure.
func mutationStateConflict(status models.MutationStatus) error {
	switch status {
	case models.MutationStatusMatchedDraft:
		return utils.NewConflictError("bank mutation already has a draft match")
	case models.MutationStatusApproved:
		return utils.NewConflictError("bank mutation is already approved")
	case models.MutationStatusRecorded:
		return utils.NewConflictError("bank mutation is already recorded")
	case models.MutationStatusIgnored:
		return utils.NewConflictError("bank mutation is already ignored")
	}
	return utils.NewConflictError("bank mutation is not available")
}

// matchPreconditions holds every rule CreateMatch enforces after locking the
// rows. Amount mismatch is the only soft rule: the operator can confirm it.
func matchPreconditions(mutation *models.BankMutation, candidate *models.SettlementCandidate, amountMismatchConfirmed bool) error {
	if mutation.Status != models.MutationStatusUnmatched {
		return mutationStateConflict(mutation.Status)
	}
	if mutation.Direction != models.MutationDirectionCredit {
		return utils.NewValidationError("only credit mutations can be matched")
	}
	if candidate.ReconciliationStatus != models.ReconciliationStatusPending {
		return utils.NewConflictError("candidate is no longer pending")
	}
	if !mutation.Amount.Equal(candidate.Amount) && !amountMismatchConfirmed {
		return utils.NewValidationError("amount mismatch, confirmation required")
	}
	return nil
}

// approvePreconditions re-checks the full chain before any money moves.
func approvePreconditions(match *models.MatchRecord, mutation *models.BankMutation, candidate *models.SettlementCandidate) error {
	if match.Status != models.MatchStatusDraft {
		return utils.NewConflictError("match is already approved")
	}
	if mutation.Status != models.MutationStatusMatchedDraft {
		return mutationStateConflict(mutation.Status)
	}
	if candidate.ReconciliationStatus != models.ReconciliationStatusPending {
		return utils.NewConflictError("candidate is no longer pending")
	}
	return nil
}

// CreateMatch pairs an unmatched mutation with a pending candidate as a
// draft. The candidate stays pending; nothing posts until approval. Both
// rows are locked so two operators racing on the same mutation or candidate
// resolve to exactly one draft.
func CreateMatch(ctx context.Context, input *NewMatch) (*models.MatchRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)
	if !input.CandidateKind.Valid() {
		return nil, utils.NewValidationError("invalid candidate kind")
	}

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.Begin()

	mutation, err := models.FetchBankMutationForUpdate(tx, ctx, businessId, input.MutationId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	candidate, err := models.FetchCandidateForUpdate(tx, ctx, businessId, input.CandidateKind, input.CandidateId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := matchPreconditions(mutation, candidate, input.AmountMismatchConfirmed); err != nil {
		tx.Rollback()
		return nil, err
	}

	match := models.MatchRecord{
		BusinessId:    businessId,
		MutationId:    mutation.ID,
		IsActive:      utils.NewTrue(),
		CandidateKind: input.CandidateKind,
		CandidateId:   input.CandidateId,
		Status:        models.MatchStatusDraft,
		MatchedBy:     userId,
		MatchedAt:     time.Now(),
	}
	if err := tx.WithContext(ctx).Create(&match).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("bank mutation already has a draft match")
		}
		config.LogError(logger, "reconciliationWorkflow.go", "CreateMatch", "Create MatchRecord", input, err)
		return nil, err
	}
	if err := models.UpdateBankMutationStatus(tx, ctx, businessId, mutation.ID,
		models.MutationStatusUnmatched, models.MutationStatusMatchedDraft); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "CreateMatch", "Commit", input, err)
		return nil, err
	}
	return &match, nil
}

// Unmatch retires a draft match and returns the mutation to the pool. The
// record is deactivated, not deleted; the pairing stays in the audit trail.
// Draft matches never settled their candidate, so there is nothing to undo
// on the candidate's side.
func Unmatch(ctx context.Context, matchId int) (*models.BankMutation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.Begin()

	match, err := models.FetchMatchRecordForUpdate(tx, ctx, businessId, matchId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if match.Status != models.MatchStatusDraft {
		tx.Rollback()
		return nil, utils.NewConflictError("approved matches cannot be unmatched")
	}

	if err := models.DeactivateMatchRecord(tx, ctx, businessId, match.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := models.UpdateBankMutationStatus(tx, ctx, businessId, match.MutationId,
		models.MutationStatusMatchedDraft, models.MutationStatusUnmatched); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "Unmatch", "Commit", matchId, err)
		return nil, err
	}
	return models.GetBankMutation(ctx, match.MutationId)
}

// ApproveMatch is the only operation that moves money. The ledger posting,
// the candidate settlement and both status flips share one transaction: a
// failed posting leaves the match a draft, and a posted journal can never
// exist without the settled candidate behind it.
func ApproveMatch(ctx context.Context, gateway LedgerGateway, matchId int, depositAccountId int) (*models.MatchRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.Begin()

	match, err := models.FetchMatchRecordForUpdate(tx, ctx, businessId, matchId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	mutation, err := models.FetchBankMutationForUpdate(tx, ctx, businessId, match.MutationId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	candidate, err := models.FetchCandidateForUpdate(tx, ctx, businessId, match.CandidateKind, match.CandidateId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := approvePreconditions(match, mutation, candidate); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := models.ValidateDepositAccount(tx, ctx, businessId, depositAccountId); err != nil {
		tx.Rollback()
		return nil, err
	}

	branchId := 0
	if candidate.BranchId != nil {
		branchId = *candidate.BranchId
	}
	entry := LedgerEntry{
		BusinessId:       businessId,
		BranchId:         branchId,
		TransactionDate:  mutation.TransactionDate,
		Amount:           mutation.Amount,
		DepositAccountId: depositAccountId,
		ReferenceType:    models.LedgerReferenceTypeBankMatch,
		ReferenceId:      match.ID,
		CandidateKind:    match.CandidateKind,
		Description:      mutation.Description,
	}
	if err := gateway.Post(tx, ctx, entry); err != nil {
		tx.Rollback()
		config.LogError(logger, "reconciliationWorkflow.go", "ApproveMatch", "Post", entry, err)
		return nil, err
	}

	if err := models.SettleCandidate(tx, ctx, businessId, match.CandidateKind, match.CandidateId); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	result := tx.WithContext(ctx).Model(&models.MatchRecord{}).
		Where("business_id = ? AND id = ? AND status = ? AND is_active = true", businessId, match.ID, models.MatchStatusDraft).
		Updates(map[string]interface{}{
			"status":            models.MatchStatusApproved,
			"approved_by":       userId,
			"approved_at":       now,
			"target_account_id": depositAccountId,
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("match is not an active draft")
	}

	if err := models.UpdateBankMutationStatus(tx, ctx, businessId, mutation.ID,
		models.MutationStatusMatchedDraft, models.MutationStatusApproved); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ApproveMatch", "Commit", matchId, err)
		return nil, err
	}

	match.Status = models.MatchStatusApproved
	match.ApprovedBy = &userId
	match.ApprovedAt = &now
	match.TargetAccountId = depositAccountId
	return match, nil
}

// RecordManual closes a mutation that has no settlement candidate: owner
// capital, owner loan, other income or a supplier refund. Branch is
// mandatory because these entries move per-branch equity.
func RecordManual(ctx context.Context, gateway LedgerGateway, input *NewManualRecord) (*models.ManualEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	if input.BranchId == 0 {
		return nil, utils.NewValidationError("branch is required for manual recording")
	}
	if !input.Category.Valid() {
		return nil, utils.NewValidationError("invalid manual entry category")
	}
	if err := utils.ValidateResourceId[models.Branch](ctx, businessId, input.BranchId); err != nil {
		return nil, utils.NewValidationError("branch not found")
	}

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.Begin()

	mutation, err := models.FetchBankMutationForUpdate(tx, ctx, businessId, input.MutationId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if mutation.Status != models.MutationStatusUnmatched {
		tx.Rollback()
		return nil, mutationStateConflict(mutation.Status)
	}
	if err := models.ValidateDepositAccount(tx, ctx, businessId, input.TargetAccountId); err != nil {
		tx.Rollback()
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = mutation.Description
	}
	manualEntry := models.ManualEntry{
		BusinessId:      businessId,
		MutationId:      mutation.ID,
		BranchId:        input.BranchId,
		Category:        input.Category,
		Description:     description,
		TargetAccountId: input.TargetAccountId,
		RecordedBy:      userId,
		RecordedAt:      time.Now(),
	}
	if err := tx.WithContext(ctx).Create(&manualEntry).Error; err != nil {
		tx.Rollback()
		if isDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("bank mutation is already recorded")
		}
		config.LogError(logger, "reconciliationWorkflow.go", "RecordManual", "Create ManualEntry", input, err)
		return nil, err
	}

	entry := LedgerEntry{
		BusinessId:       businessId,
		BranchId:         input.BranchId,
		TransactionDate:  mutation.TransactionDate,
		Amount:           mutation.Amount,
		DepositAccountId: input.TargetAccountId,
		ReferenceType:    models.LedgerReferenceTypeManualRecord,
		ReferenceId:      manualEntry.ID,
		Category:         input.Category,
		Description:      description,
	}
	if err := gateway.Post(tx, ctx, entry); err != nil {
		tx.Rollback()
		config.LogError(logger, "reconciliationWorkflow.go", "RecordManual", "Post", entry, err)
		return nil, err
	}

	if err := models.UpdateBankMutationStatus(tx, ctx, businessId, mutation.ID,
		models.MutationStatusUnmatched, models.MutationStatusRecorded); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "RecordManual", "Commit", input, err)
		return nil, err
	}
	return &manualEntry, nil
}

// IgnoreMutation parks a mutation that needs no accounting action, such as
// an internal transfer between own accounts. Terminal: there is no un-ignore.
func IgnoreMutation(ctx context.Context, mutationId int) (*models.BankMutation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.Begin()

	mutation, err := models.FetchBankMutationForUpdate(tx, ctx, businessId, mutationId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if mutation.Status != models.MutationStatusUnmatched {
		tx.Rollback()
		return nil, mutationStateConflict(mutation.Status)
	}
	if err := models.UpdateBankMutationStatus(tx, ctx, businessId, mutation.ID,
		models.MutationStatusUnmatched, models.MutationStatusIgnored); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "IgnoreMutation", "Commit", mutationId, err)
		return nil, err
	}

	mutation.Status = models.MutationStatusIgnored
	return mutation, nil
}
