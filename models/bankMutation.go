package models

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/statement"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankMutation is one credit line from an imported bank statement. Rows are
// never physically deleted; terminal states (Approved, Recorded, Ignored)
// keep them out of the working pool but in the audit trail.
//
// The identity index makes re-importing the same file, or two exports with
// overlapping date ranges, a no-op for rows already present. MySQL cannot
// place a unique key on the TEXT description column, so the store hashes the
// normalized description into description_hash; callers never set it.
type BankMutation struct {
	ID              int               `gorm:"primary_key" json:"id"`
	BusinessId      string            `gorm:"index;not null;uniqueIndex:idx_bank_mutations_identity" json:"business_id"`
	TransactionDate time.Time         `gorm:"not null;uniqueIndex:idx_bank_mutations_identity" json:"transaction_date"`
	Description     string            `gorm:"type:text" json:"description"`
	DescriptionHash string            `gorm:"size:64;not null;uniqueIndex:idx_bank_mutations_identity" json:"-"`
	Amount          decimal.Decimal   `gorm:"type:decimal(20,4);not null;uniqueIndex:idx_bank_mutations_identity" json:"amount"`
	Direction       MutationDirection `gorm:"not null;type:enum('Credit','Debit');uniqueIndex:idx_bank_mutations_identity" json:"direction"`
	Status          MutationStatus    `gorm:"index;not null;type:enum('Unmatched','MatchedDraft','Approved','Recorded','Ignored');default:'Unmatched'" json:"status"`
	ImportBatchId   string            `gorm:"size:36;index" json:"import_batch_id"`
	ImportedBy      int               `gorm:"index" json:"imported_by"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m BankMutation) GetId() int {
	return m.ID
}

// returns decoded cursor string
func (m BankMutation) GetCursor() string {
	return m.TransactionDate.Format("2006-01-02 15:04:05")
}

// DescriptionIdentityHash normalizes and hashes a statement description for
// the identity index. Case and surrounding whitespace differences between
// two exports of the same statement must not defeat dedup.
func DescriptionIdentityHash(description string) string {
	normalized := strings.ToUpper(strings.Join(strings.Fields(description), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

type ImportResult struct {
	ImportBatchId  string `json:"import_batch_id"`
	InsertedCount  int    `json:"inserted_count"`
	DuplicateCount int    `json:"duplicate_count"`
}

var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// ImportStatement parses an uploaded statement export and persists its
// credit rows. Safe to repeat: the identity index plus insert-ignore makes
// duplicate rows silent no-ops, and only genuinely new rows are counted.
func ImportStatement(ctx context.Context, fileName string, content []byte) (*ImportResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	var rows []statement.ParsedRow
	var err error
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") || bytes.HasPrefix(content, xlsxMagic) {
		rows, err = statement.ParseStatementXLSX(content, time.Now())
	} else {
		rows, err = statement.ParseStatement(string(content), time.Now())
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.NewValidationError("no inbound transactions found in file")
	}

	// Best-effort serialization of concurrent uploads per business. The
	// unique identity index is the hard idempotency guarantee; the lock only
	// avoids needless duplicate-key churn when two operators upload at once.
	if locker := config.GetRedisLock(); locker != nil {
		lock, lockErr := locker.Obtain(ctx, "statementImport:"+businessId, 30*time.Second, nil)
		if lockErr == nil {
			defer lock.Release(ctx)
		}
	}

	batchId := uuid.NewString()
	mutations := make([]BankMutation, 0, len(rows))
	for _, row := range rows {
		mutations = append(mutations, BankMutation{
			BusinessId:      businessId,
			TransactionDate: row.TransactionDate,
			Description:     row.Description,
			DescriptionHash: DescriptionIdentityHash(row.Description),
			Amount:          row.Amount,
			Direction:       MutationDirectionCredit,
			Status:          MutationStatusUnmatched,
			ImportBatchId:   batchId,
			ImportedBy:      userId,
		})
	}

	inserted, err := ImportBatch(ctx, mutations)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		ImportBatchId:  batchId,
		InsertedCount:  inserted,
		DuplicateCount: len(mutations) - inserted,
	}, nil
}

// ImportBatch upserts mutations on the identity key, ignoring conflicts, and
// returns the count of genuinely new rows.
func ImportBatch(ctx context.Context, mutations []BankMutation) (int, error) {
	if len(mutations) == 0 {
		return 0, nil
	}

	db := config.GetDB()
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&mutations)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func GetBankMutation(ctx context.Context, id int) (*BankMutation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[BankMutation](ctx, businessId, id)
}

// FetchBankMutationForUpdate row-locks a mutation inside the caller's
// transaction so lifecycle transitions can re-check preconditions without
// racing a concurrent operator.
func FetchBankMutationForUpdate(tx *gorm.DB, ctx context.Context, businessId string, id int) (*BankMutation, error) {
	var mutation BankMutation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessId).
		First(&mutation, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &mutation, nil
}

// UpdateBankMutationStatus flips status only when the row still holds the
// expected one; a lost race surfaces as ConflictError, never as a silent
// double transition.
func UpdateBankMutationStatus(tx *gorm.DB, ctx context.Context, businessId string, id int, from MutationStatus, to MutationStatus) error {
	result := tx.WithContext(ctx).Model(&BankMutation{}).
		Where("business_id = ? AND id = ? AND status = ?", businessId, id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NewConflictError("bank mutation is no longer " + string(from))
	}
	return nil
}

type BankMutationsConnection struct {
	Edges    []*BankMutationsEdge `json:"edges"`
	PageInfo *PageInfo            `json:"pageInfo"`
}

type BankMutationsEdge Edge[BankMutation]

func PaginateBankMutations(
	ctx context.Context, limit *int, after *string,
	status *MutationStatus,
	descriptionSearch *string,
	startDate *time.Time,
	endDate *time.Time,
) (*BankMutationsConnection, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)

	if status != nil && *status != "" {
		dbCtx.Where("status = ?", *status)
	}
	if descriptionSearch != nil && *descriptionSearch != "" {
		dbCtx.Where("description LIKE ?", "%"+*descriptionSearch+"%")
	}
	if startDate != nil && endDate != nil {
		dbCtx.Where("transaction_date BETWEEN ? AND ?", startDate, endDate)
	}

	pageLimit := config.SearchLimit
	if limit != nil && *limit > 0 {
		pageLimit = *limit
	}

	edges, pageInfo, err := FetchPageCompositeCursor[BankMutation](dbCtx, pageLimit, after, "transaction_date", "<")
	if err != nil {
		return nil, err
	}
	var connection BankMutationsConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		mutationEdge := BankMutationsEdge(edge)
		connection.Edges = append(connection.Edges, &mutationEdge)
	}

	return &connection, nil
}
