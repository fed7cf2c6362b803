package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/models"
	"github.com/shopspring/decimal"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestScoreAmountDate_Tiers(t *testing.T) {
	amount := decimal.NewFromInt(150000)
	other := decimal.NewFromInt(150001)

	cases := []struct {
		name            string
		mutationAmount  decimal.Decimal
		candidateAmount decimal.Decimal
		mutationDate    time.Time
		candidateDate   time.Time
		want            models.ConfidenceTier
	}{
		{"equal amount same day", amount, amount, day("2024-05-01"), day("2024-05-01"), models.ConfidenceTierPerfect},
		{"equal amount next day", amount, amount, day("2024-05-01"), day("2024-05-02"), models.ConfidenceTierPerfect},
		{"equal amount day before", amount, amount, day("2024-05-02"), day("2024-05-01"), models.ConfidenceTierPerfect},
		{"equal amount two days out", amount, amount, day("2024-05-01"), day("2024-05-03"), models.ConfidenceTierPossible},
		{"equal amount three days out", amount, amount, day("2024-05-01"), day("2024-05-04"), models.ConfidenceTierPossible},
		{"equal amount four days out", amount, amount, day("2024-05-01"), day("2024-05-05"), models.ConfidenceTierNone},
		{"amount differs same day", amount, other, day("2024-05-01"), day("2024-05-01"), models.ConfidenceTierNone},
		{"amount differs far date", amount, other, day("2024-05-01"), day("2024-06-01"), models.ConfidenceTierNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ScoreAmountDate(c.mutationAmount, c.mutationDate, c.candidateAmount, c.candidateDate)
			if got != c.want {
				t.Fatalf("expected %s, got %s", c.want, got)
			}
		})
	}
}

func TestScoreAmountDate_IgnoresTimeOfDay(t *testing.T) {
	amount := decimal.NewFromInt(99000)
	mutationDate := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	candidateDate := time.Date(2024, 5, 2, 0, 1, 0, 0, time.UTC)

	if got := ScoreAmountDate(amount, mutationDate, amount, candidateDate); got != models.ConfidenceTierPerfect {
		t.Fatalf("calendar-day distance expected Perfect, got %s", got)
	}
}

func TestScoreAmountDate_ScaleDifferenceStillEqual(t *testing.T) {
	a := decimal.RequireFromString("150000")
	b := decimal.RequireFromString("150000.0000")

	if got := ScoreAmountDate(a, day("2024-05-01"), b, day("2024-05-01")); got != models.ConfidenceTierPerfect {
		t.Fatalf("same value at different scale expected Perfect, got %s", got)
	}
}

func TestAnnotateCandidates_OrdersByConfidence(t *testing.T) {
	mutation := &models.BankMutation{
		Amount:          decimal.NewFromInt(150000),
		TransactionDate: day("2024-05-01"),
		Direction:       models.MutationDirectionCredit,
	}
	candidates := []models.SettlementCandidate{
		{Kind: models.CandidateKindSale, ID: 1, Amount: decimal.NewFromInt(120000), EventDate: day("2024-05-01")},
		{Kind: models.CandidateKindDeposit, ID: 2, Amount: decimal.NewFromInt(150000), EventDate: day("2024-05-03")},
		{Kind: models.CandidateKindInvoice, ID: 3, Amount: decimal.NewFromInt(150000), EventDate: day("2024-05-01")},
	}

	scored := AnnotateCandidates(mutation, candidates)
	if len(scored) != 3 {
		t.Fatalf("expected 3 scored candidates, got %d", len(scored))
	}
	if scored[0].ID != 3 || scored[0].Confidence != models.ConfidenceTierPerfect {
		t.Fatalf("expected invoice 3 Perfect first, got %d %s", scored[0].ID, scored[0].Confidence)
	}
	if scored[1].ID != 2 || scored[1].Confidence != models.ConfidenceTierPossible {
		t.Fatalf("expected deposit 2 Possible second, got %d %s", scored[1].ID, scored[1].Confidence)
	}
	if scored[2].ID != 1 || scored[2].Confidence != models.ConfidenceTierNone {
		t.Fatalf("expected sale 1 None last, got %d %s", scored[2].ID, scored[2].Confidence)
	}
}

func TestAnnotateCandidates_Deterministic(t *testing.T) {
	mutation := &models.BankMutation{
		Amount:          decimal.NewFromInt(80000),
		TransactionDate: day("2024-05-10"),
	}
	candidates := []models.SettlementCandidate{
		{Kind: models.CandidateKindSale, ID: 7, Amount: decimal.NewFromInt(80000), EventDate: day("2024-05-10")},
		{Kind: models.CandidateKindSale, ID: 8, Amount: decimal.NewFromInt(80000), EventDate: day("2024-05-10")},
		{Kind: models.CandidateKindDeposit, ID: 9, Amount: decimal.NewFromInt(80000), EventDate: day("2024-05-12")},
	}

	first := AnnotateCandidates(mutation, candidates)
	for i := 0; i < 10; i++ {
		again := AnnotateCandidates(mutation, candidates)
		for j := range first {
			if first[j].ID != again[j].ID || first[j].Confidence != again[j].Confidence {
				t.Fatalf("ordering changed between runs at index %d", j)
			}
		}
	}
}

func TestSortCandidatePool_TotalOrder(t *testing.T) {
	candidates := []models.SettlementCandidate{
		{Kind: models.CandidateKindSale, ID: 5, EventDate: day("2024-05-01")},
		{Kind: models.CandidateKindInvoice, ID: 2, EventDate: day("2024-05-03")},
		{Kind: models.CandidateKindDeposit, ID: 4, EventDate: day("2024-05-03")},
		{Kind: models.CandidateKindDeposit, ID: 1, EventDate: day("2024-05-03")},
	}

	sortCandidatePool(candidates)

	wantIds := []int{1, 4, 2, 5}
	for i, want := range wantIds {
		if candidates[i].ID != want {
			t.Fatalf("position %d: expected id %d, got %d", i, want, candidates[i].ID)
		}
	}
}
