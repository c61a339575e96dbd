package sheets

import (
	"context"

	"github.com/mamadbah2/fournil/internal/domain/models"
)

const (
	orderLedgerRange   = "Ordres!A:G"
	summaryLedgerRange = "Rapports!A:F"
	dateFormat         = "2006-01-02"
)

// AppendOrderRow mirrors a freshly created production order into the
// auxiliary spreadsheet ledger.
func (r *GoogleSheetRepository) AppendOrderRow(ctx context.Context, order models.Order) error {
	targetDate := ""
	if order.TargetDate != nil {
		targetDate = order.TargetDate.Format(dateFormat)
	}

	values := []interface{}{
		order.LotCode,
		order.ProductRef,
		order.PlannedQuantity,
		string(order.Priority),
		string(order.Status),
		targetDate,
		order.CreatedAt.Format(dateFormat),
	}
	return r.WriteRow(ctx, orderLedgerRange, values)
}

// AppendDailySummary records the daily production snapshot in the ledger.
func (r *GoogleSheetRepository) AppendDailySummary(ctx context.Context, summary models.DailySummary) error {
	values := []interface{}{
		summary.Date.Format(dateFormat),
		summary.ActiveOrders,
		summary.OpenStages,
		summary.BatchesProduced,
		summary.AverageCompletion,
		summary.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	return r.WriteRow(ctx, summaryLedgerRange, values)
}
