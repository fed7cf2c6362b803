package workflow

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/shopspring/decimal"
)

// Score weights. An exact amount plus a same-or-next-day event is the only
// way to reach Perfect; amount alone or dates alone never clear Possible.
const (
	amountEqualScore   = 50
	dateNearScore      = 50
	dateCloseScore     = 30
	dateCloseLimitDays = 3

	perfectThreshold  = 100
	possibleThreshold = 80
)

// ScoreAmountDate grades one mutation/candidate pair. Pure and deterministic:
// the same inputs always produce the same tier, regardless of wall clock or
// evaluation order. The tier is advisory; it never blocks or creates a match.
func ScoreAmountDate(mutationAmount decimal.Decimal, mutationDate time.Time, candidateAmount decimal.Decimal, candidateDate time.Time) models.ConfidenceTier {
	score := 0
	if mutationAmount.Equal(candidateAmount) {
		score += amountEqualScore
	}
	days := utils.AbsDaysBetween(mutationDate, candidateDate)
	if days <= 1 {
		score += dateNearScore
	} else if days <= dateCloseLimitDays {
		score += dateCloseScore
	}

	if score >= perfectThreshold {
		return models.ConfidenceTierPerfect
	}
	if score >= possibleThreshold {
		return models.ConfidenceTierPossible
	}
	return models.ConfidenceTierNone
}

func ScoreMatch(mutation *models.BankMutation, candidate models.SettlementCandidate) models.ConfidenceTier {
	return ScoreAmountDate(mutation.Amount, mutation.TransactionDate, candidate.Amount, candidate.EventDate)
}

type ScoredCandidate struct {
	models.SettlementCandidate
	Confidence models.ConfidenceTier `json:"confidence"`
}

func tierRank(tier models.ConfidenceTier) int {
	switch tier {
	case models.ConfidenceTierPerfect:
		return 0
	case models.ConfidenceTierPossible:
		return 1
	}
	return 2
}

// AnnotateCandidates scores every candidate against the mutation and orders
// the result by confidence. Ties keep the pool's order (event date, kind, id),
// so two requests over the same data render identically.
func AnnotateCandidates(mutation *models.BankMutation, candidates []models.SettlementCandidate) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, ScoredCandidate{
			SettlementCandidate: candidate,
			Confidence:          ScoreMatch(mutation, candidate),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return tierRank(scored[i].Confidence) < tierRank(scored[j].Confidence)
	})
	return scored
}
