package workflow

import (
	"context"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the lifecycle
// semantics the guarded updates and row locks enforce in MySQL:
// - a mutation holds at most one active match
// - terminal states never transition again
// - a failed ledger posting leaves the whole approval untouched
//
// Full DB integration tests should be added in an environment that can run MySQL.

func unmatchedCredit(amount int64) *models.BankMutation {
	return &models.BankMutation{
		ID:              1,
		Amount:          decimal.NewFromInt(amount),
		TransactionDate: day("2024-05-01"),
		Direction:       models.MutationDirectionCredit,
		Status:          models.MutationStatusUnmatched,
	}
}

func pendingCandidate(amount int64) *models.SettlementCandidate {
	return &models.SettlementCandidate{
		Kind:                 models.CandidateKindSale,
		ID:                   10,
		Amount:               decimal.NewFromInt(amount),
		EventDate:            day("2024-05-01"),
		ReconciliationStatus: models.ReconciliationStatusPending,
	}
}

func TestMatchPreconditions_HappyPath(t *testing.T) {
	if err := matchPreconditions(unmatchedCredit(150000), pendingCandidate(150000), false); err != nil {
		t.Fatalf("expected match to be allowed, got %v", err)
	}
}

func TestMatchPreconditions_AmountMismatchNeedsConfirmation(t *testing.T) {
	mutation := unmatchedCredit(150000)
	candidate := pendingCandidate(149000)

	err := matchPreconditions(mutation, candidate, false)
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for unconfirmed mismatch, got %v", err)
	}
	if err := matchPreconditions(mutation, candidate, true); err != nil {
		t.Fatalf("confirmed mismatch should be allowed, got %v", err)
	}
}

func TestMatchPreconditions_RejectsNonUnmatchedStates(t *testing.T) {
	for _, status := range []models.MutationStatus{
		models.MutationStatusMatchedDraft,
		models.MutationStatusApproved,
		models.MutationStatusRecorded,
		models.MutationStatusIgnored,
	} {
		mutation := unmatchedCredit(150000)
		mutation.Status = status
		err := matchPreconditions(mutation, pendingCandidate(150000), false)
		if !utils.IsConflictError(err) {
			t.Fatalf("status %s: expected conflict error, got %v", status, err)
		}
	}
}

func TestMatchPreconditions_RejectsSettledCandidate(t *testing.T) {
	candidate := pendingCandidate(150000)
	candidate.ReconciliationStatus = models.ReconciliationStatusSettled

	err := matchPreconditions(unmatchedCredit(150000), candidate, false)
	if !utils.IsConflictError(err) {
		t.Fatalf("expected conflict error for settled candidate, got %v", err)
	}
}

func TestApprovePreconditions(t *testing.T) {
	match := &models.MatchRecord{Status: models.MatchStatusDraft}
	mutation := unmatchedCredit(150000)
	mutation.Status = models.MutationStatusMatchedDraft
	candidate := pendingCandidate(150000)

	if err := approvePreconditions(match, mutation, candidate); err != nil {
		t.Fatalf("expected approval to be allowed, got %v", err)
	}

	approved := &models.MatchRecord{Status: models.MatchStatusApproved}
	if err := approvePreconditions(approved, mutation, candidate); !utils.IsConflictError(err) {
		t.Fatalf("expected conflict error for approved match, got %v", err)
	}

	settled := pendingCandidate(150000)
	settled.ReconciliationStatus = models.ReconciliationStatusSettled
	if err := approvePreconditions(match, mutation, settled); !utils.IsConflictError(err) {
		t.Fatalf("expected conflict error for settled candidate, got %v", err)
	}
}

func TestCreditAccountCode(t *testing.T) {
	cases := []struct {
		entry LedgerEntry
		want  models.AccountCode
	}{
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeBankMatch, CandidateKind: models.CandidateKindSale}, models.AccountCodeSalesClearing},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeBankMatch, CandidateKind: models.CandidateKindDeposit}, models.AccountCodeDepositsInTransit},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeBankMatch, CandidateKind: models.CandidateKindInvoice}, models.AccountCodeAccountReceivable},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeManualRecord, Category: models.ManualEntryCategoryOwnerCapital}, models.AccountCodeOwnerCapital},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeManualRecord, Category: models.ManualEntryCategoryOwnerLoan}, models.AccountCodeOwnerLoan},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeManualRecord, Category: models.ManualEntryCategoryOtherIncome}, models.AccountCodeOtherIncome},
		{LedgerEntry{ReferenceType: models.LedgerReferenceTypeManualRecord, Category: models.ManualEntryCategorySupplierRefund}, models.AccountCodeSupplierRefund},
	}
	for _, c := range cases {
		got, err := creditAccountCode(c.entry)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Fatalf("expected %s, got %s", c.want, got)
		}
	}

	if _, err := creditAccountCode(LedgerEntry{ReferenceType: models.LedgerReferenceTypeBankMatch}); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for missing candidate kind, got %v", err)
	}
	if _, err := creditAccountCode(LedgerEntry{ReferenceType: models.LedgerReferenceTypeManualRecord}); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for missing category, got %v", err)
	}
}

// fakeLifecycle mirrors the guarded status updates: every transition checks
// the expected current state under a lock, the way the SQL WHERE clauses do.
type fakeLifecycle struct {
	mu              sync.Mutex
	mutationStatus  models.MutationStatus
	candidateStatus models.ReconciliationStatus
	activeMatch     bool
	matchStatus     models.MatchStatus
	journals        int
}

func newFakeLifecycle() *fakeLifecycle {
	return &fakeLifecycle{
		mutationStatus:  models.MutationStatusUnmatched,
		candidateStatus: models.ReconciliationStatusPending,
	}
}

func (f *fakeLifecycle) createMatch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationStatus != models.MutationStatusUnmatched {
		return mutationStateConflict(f.mutationStatus)
	}
	if f.candidateStatus != models.ReconciliationStatusPending {
		return utils.NewConflictError("candidate is no longer pending")
	}
	if f.activeMatch {
		return utils.NewConflictError("bank mutation already has a draft match")
	}
	f.activeMatch = true
	f.matchStatus = models.MatchStatusDraft
	f.mutationStatus = models.MutationStatusMatchedDraft
	return nil
}

func (f *fakeLifecycle) unmatch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.activeMatch || f.matchStatus != models.MatchStatusDraft {
		return utils.NewConflictError("match is not an active draft")
	}
	f.activeMatch = false
	f.mutationStatus = models.MutationStatusUnmatched
	return nil
}

func (f *fakeLifecycle) approve(postErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.activeMatch || f.matchStatus != models.MatchStatusDraft {
		return utils.NewConflictError("match is not an active draft")
	}
	if f.mutationStatus != models.MutationStatusMatchedDraft {
		return mutationStateConflict(f.mutationStatus)
	}
	if f.candidateStatus != models.ReconciliationStatusPending {
		return utils.NewConflictError("candidate is no longer pending")
	}
	if postErr != nil {
		// Posting failed inside the transaction; nothing else changes.
		return postErr
	}
	f.journals++
	f.candidateStatus = models.ReconciliationStatusSettled
	f.matchStatus = models.MatchStatusApproved
	f.mutationStatus = models.MutationStatusApproved
	return nil
}

func TestLifecycle_ConcurrentMatchResolvesToOneDraft(t *testing.T) {
	f := newFakeLifecycle()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.createMatch(); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly 1 successful match, got %d", created)
	}
	if f.mutationStatus != models.MutationStatusMatchedDraft {
		t.Fatalf("expected MatchedDraft, got %s", f.mutationStatus)
	}
}

func TestLifecycle_UnmatchReturnsToPool(t *testing.T) {
	f := newFakeLifecycle()
	if err := f.createMatch(); err != nil {
		t.Fatal(err)
	}
	if err := f.unmatch(); err != nil {
		t.Fatal(err)
	}
	if f.mutationStatus != models.MutationStatusUnmatched {
		t.Fatalf("expected Unmatched after unmatch, got %s", f.mutationStatus)
	}
	if f.candidateStatus != models.ReconciliationStatusPending {
		t.Fatalf("draft never settled the candidate; expected Pending, got %s", f.candidateStatus)
	}
	if err := f.createMatch(); err != nil {
		t.Fatalf("rematch after unmatch should succeed, got %v", err)
	}
}

func TestLifecycle_FailedPostingLeavesDraftIntact(t *testing.T) {
	f := newFakeLifecycle()
	if err := f.createMatch(); err != nil {
		t.Fatal(err)
	}

	postErr := utils.NewLedgerPostingError("journal write failed", nil)
	if err := f.approve(postErr); !utils.IsLedgerPostingError(err) {
		t.Fatalf("expected posting error, got %v", err)
	}
	if f.journals != 0 {
		t.Fatalf("expected no journal, got %d", f.journals)
	}
	if f.matchStatus != models.MatchStatusDraft || f.mutationStatus != models.MutationStatusMatchedDraft {
		t.Fatalf("failed posting must leave the draft untouched, got match=%s mutation=%s", f.matchStatus, f.mutationStatus)
	}
	if f.candidateStatus != models.ReconciliationStatusPending {
		t.Fatalf("failed posting must leave the candidate pending, got %s", f.candidateStatus)
	}

	if err := f.approve(nil); err != nil {
		t.Fatalf("retry after fixing the posting should succeed, got %v", err)
	}
	if f.journals != 1 {
		t.Fatalf("expected exactly 1 journal, got %d", f.journals)
	}
}

func TestRecordManual_InputValidation(t *testing.T) {
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")
	gateway := NewJournalGateway(nil)

	_, err := RecordManual(ctx, gateway, &NewManualRecord{
		MutationId:      1,
		BranchId:        0,
		Category:        models.ManualEntryCategoryOwnerCapital,
		TargetAccountId: 5,
	})
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for missing branch, got %v", err)
	}

	_, err = RecordManual(ctx, gateway, &NewManualRecord{
		MutationId:      1,
		BranchId:        2,
		Category:        models.ManualEntryCategory("Lottery"),
		TargetAccountId: 5,
	})
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}
}

func TestLifecycle_ApprovedIsTerminal(t *testing.T) {
	f := newFakeLifecycle()
	if err := f.createMatch(); err != nil {
		t.Fatal(err)
	}
	if err := f.approve(nil); err != nil {
		t.Fatal(err)
	}

	if err := f.unmatch(); !utils.IsConflictError(err) {
		t.Fatalf("expected conflict error unmatching an approved match, got %v", err)
	}
	if err := f.approve(nil); !utils.IsConflictError(err) {
		t.Fatalf("expected conflict error re-approving, got %v", err)
	}
	if f.journals != 1 {
		t.Fatalf("expected exactly 1 journal, got %d", f.journals)
	}
	if f.mutationStatus != models.MutationStatusApproved {
		t.Fatalf("expected Approved, got %s", f.mutationStatus)
	}
}
