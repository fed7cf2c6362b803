package reports

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
)

type ReconciliationSummaryResponse struct {
	Status      string `json:"status"`
	RowCount    int    `json:"row_count"`
	TotalAmount string `json:"total_amount"`
}

// GetReconciliationSummary groups the imported credit mutations by lifecycle
// status, for the dashboard tiles.
func GetReconciliationSummary(ctx context.Context) ([]*ReconciliationSummaryResponse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	sql := `
SELECT
    status,
    COUNT(id) AS row_count,
    SUM(amount) AS total_amount
FROM
    bank_mutations
WHERE
    business_id = ?
GROUP BY
    status
ORDER BY
    status;
`

	var records []*ReconciliationSummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, businessId).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
