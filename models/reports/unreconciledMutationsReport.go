package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"github.com/xuri/excelize/v2"
)

func getUnreconciledMutations(ctx context.Context, startDate, endDate *time.Time) ([]*models.BankMutation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Where("status IN ?", []models.MutationStatus{
			models.MutationStatusUnmatched,
			models.MutationStatusMatchedDraft,
		})
	if startDate != nil && endDate != nil {
		dbCtx = dbCtx.Where("transaction_date BETWEEN ? AND ?", startDate, endDate)
	}

	var mutations []*models.BankMutation
	if err := dbCtx.Order("transaction_date, id").Find(&mutations).Error; err != nil {
		return nil, err
	}
	return mutations, nil
}

// ExportUnreconciledMutationsExcel builds the month-end worksheet of credits
// that still need an operator decision.
func ExportUnreconciledMutationsExcel(ctx context.Context, startDate, endDate *time.Time) (*excelize.File, error) {
	mutations, err := getUnreconciledMutations(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "TransactionDate")
	f.SetCellValue(sheet, "B1", "Description")
	f.SetCellValue(sheet, "C1", "Amount")
	f.SetCellValue(sheet, "D1", "Status")
	f.SetCellValue(sheet, "E1", "ImportBatchId")

	// Add data
	for i, m := range mutations {
		f.SetCellValue(sheet, "A"+fmt.Sprint(i+2), m.TransactionDate.Format("2006-01-02"))
		f.SetCellValue(sheet, "B"+fmt.Sprint(i+2), m.Description)
		f.SetCellValue(sheet, "C"+fmt.Sprint(i+2), m.Amount.String())
		f.SetCellValue(sheet, "D"+fmt.Sprint(i+2), string(m.Status))
		f.SetCellValue(sheet, "E"+fmt.Sprint(i+2), m.ImportBatchId)
	}

	return f, nil
}
