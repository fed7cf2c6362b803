package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRecord pairs exactly one bank mutation with exactly one settlement
// candidate. Unmatching deactivates the record instead of deleting it, so
// the audit trail keeps every pairing that ever existed.
//
// IsActive is 1 for the live record and NULL once deactivated; the unique
// index over (mutation_id, is_active) therefore admits at most one active
// record per mutation while ignoring the deactivated history rows.
type MatchRecord struct {
	ID              int           `gorm:"primary_key" json:"id"`
	BusinessId      string        `gorm:"index;not null" json:"business_id"`
	MutationId      int           `gorm:"not null;uniqueIndex:idx_match_records_active_mutation" json:"mutation_id"`
	IsActive        *bool         `gorm:"uniqueIndex:idx_match_records_active_mutation" json:"is_active"`
	CandidateKind   CandidateKind `gorm:"not null;type:enum('Sale','Deposit','Invoice')" json:"candidate_kind"`
	CandidateId     int           `gorm:"index;not null" json:"candidate_id"`
	Status          MatchStatus   `gorm:"not null;type:enum('Draft','Approved');default:'Draft'" json:"status"`
	MatchedBy       int           `json:"matched_by"`
	MatchedAt       time.Time     `json:"matched_at"`
	ApprovedBy      *int          `json:"approved_by"`
	ApprovedAt      *time.Time    `json:"approved_at"`
	TargetAccountId int           `json:"target_account_id"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m MatchRecord) GetId() int {
	return m.ID
}

func GetMatchRecord(ctx context.Context, id int) (*MatchRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[MatchRecord](ctx, businessId, id)
}

// FetchMatchRecordForUpdate row-locks an active match inside the caller's
// transaction.
func FetchMatchRecordForUpdate(tx *gorm.DB, ctx context.Context, businessId string, id int) (*MatchRecord, error) {
	var match MatchRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND is_active = true", businessId).
		First(&match, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &match, nil
}

// DeactivateMatchRecord retires a draft match. Approved matches are terminal
// and cannot be deactivated through the engine.
func DeactivateMatchRecord(tx *gorm.DB, ctx context.Context, businessId string, id int) error {
	result := tx.WithContext(ctx).Model(&MatchRecord{}).
		Where("business_id = ? AND id = ? AND status = ? AND is_active = true", businessId, id, MatchStatusDraft).
		Update("is_active", gorm.Expr("NULL"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewConflictError("match is not an active draft")
	}
	return nil
}

// ListActiveMatches returns the active match (draft or approved) per
// mutation in the given set, for list screens.
func ListActiveMatches(ctx context.Context, mutationIds []int) ([]*MatchRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if len(mutationIds) == 0 {
		return nil, nil
	}

	db := config.GetDB()
	var matches []*MatchRecord
	err := db.WithContext(ctx).
		Where("business_id = ? AND is_active = true AND mutation_id IN ?", businessId, utils.UniqueSlice(mutationIds)).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
