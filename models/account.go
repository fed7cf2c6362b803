package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"gorm.io/gorm"
)

// Account is one chart-of-accounts row. The reconciliation engine only reads
// accounts: deposit targets must be active Bank/Cash accounts, and the
// posting gateway resolves system accounts (clearing, equity, income) by
// their well-known codes.
type Account struct {
	ID              int               `gorm:"primary_key" json:"id"`
	BusinessId      string            `gorm:"index;not null" json:"business_id"`
	Name            string            `gorm:"size:255;not null" json:"name" binding:"required"`
	Code            string            `gorm:"size:100" json:"code"`
	SystemCode      AccountCode       `gorm:"size:100;index" json:"system_code"`
	MainType        AccountMainType   `gorm:"not null;type:enum('Asset','Liability','Equity','Income','Expense');" json:"main_type"`
	DetailType      AccountDetailType `gorm:"size:100;not null" json:"detail_type"`
	IsActive        *bool             `gorm:"not null;default:true" json:"is_active"`
	IsSystemDefault *bool             `gorm:"not null;default:false" json:"is_system_default"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	SystemAccounts:$businessId
*/

func GetAccount(ctx context.Context, id int) (*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return utils.FetchModel[Account](ctx, businessId, id)
}

// FetchAccountForPosting loads an account inside the caller's transaction.
func FetchAccountForPosting(tx *gorm.DB, ctx context.Context, businessId string, id int) (*Account, error) {
	var account Account
	err := tx.WithContext(ctx).Where("business_id = ?", businessId).First(&account, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &account, nil
}

// ValidateDepositAccount checks the target of an approval/manual record:
// it must exist, be active, and be a Bank or Cash account.
func ValidateDepositAccount(tx *gorm.DB, ctx context.Context, businessId string, accountId int) error {
	account, err := FetchAccountForPosting(tx, ctx, businessId, accountId)
	if err != nil {
		return utils.NewValidationError("target account not found")
	}
	if account.IsActive == nil || !*account.IsActive {
		return utils.NewValidationError("target account is inactive")
	}
	if account.DetailType != AccountDetailTypeBank && account.DetailType != AccountDetailTypeCash {
		return utils.NewValidationError("target account must be a bank or cash account")
	}
	return nil
}

// GetSystemAccounts returns the accountCode => accountId map of the business,
// redis or db.
func GetSystemAccounts(ctx context.Context, businessId string) (map[AccountCode]int, error) {
	systemAccounts := make(map[AccountCode]int)
	redisKey := "SystemAccounts:" + businessId
	exists, err := config.GetRedisObject(redisKey, &systemAccounts)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		var accounts []*Account
		if err := db.WithContext(ctx).
			Where("business_id = ? AND system_code <> ''", businessId).
			Find(&accounts).Error; err != nil {
			return nil, err
		}
		for _, account := range accounts {
			systemAccounts[account.SystemCode] = account.ID
		}
		if err := config.SetRedisObject(redisKey, &systemAccounts, 0); err != nil {
			return nil, err
		}
	}
	return systemAccounts, nil
}

func ListActiveAccounts(ctx context.Context) ([]*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var accounts []*Account
	err := db.WithContext(ctx).
		Where("business_id = ? AND is_active = true", businessId).
		Order("main_type, name").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
