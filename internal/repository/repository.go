// Package repository declares the persistence boundary of the workflow
// engine. Implementations live in the mongodb and memory subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/fournil/internal/domain/models"
)

// ErrNotFound is returned when a referenced record does not exist. Callers
// must treat it as distinct from a valid empty result.
var ErrNotFound = errors.New("record not found")

// OrderRepository stores production orders.
type OrderRepository interface {
	InsertOrder(ctx context.Context, order models.Order) (models.Order, error)
	UpdateOrder(ctx context.Context, id string, update models.OrderUpdate) (models.Order, error)
	FindOrderByID(ctx context.Context, id string) (models.Order, error)
	FindOrderByLotCode(ctx context.Context, lotCode string) (models.Order, error)
	FindOrdersByStatus(ctx context.Context, status models.Status) ([]models.Order, error)
	// FindActiveOrders returns non-terminal orders in no particular order;
	// queue ordering is applied by the orders service.
	FindActiveOrders(ctx context.Context) ([]models.Order, error)
	// FindLotCodes returns every lot code starting with the given prefix.
	FindLotCodes(ctx context.Context, prefix string) ([]string, error)
}

// StageLogRepository stores per-stage execution logs.
type StageLogRepository interface {
	InsertStageLog(ctx context.Context, log models.StageLog) (models.StageLog, error)
	UpdateStageLog(ctx context.Context, id string, update models.StageLogUpdate) (models.StageLog, error)
	FindStageLogByID(ctx context.Context, id string) (models.StageLog, error)
	// FindStageLogsByOrder returns the order's logs sorted by open time ascending.
	FindStageLogsByOrder(ctx context.Context, orderID string) ([]models.StageLog, error)
}

// BatchRepository stores dough-mixing batches keyed by their owning stage log.
type BatchRepository interface {
	InsertBatch(ctx context.Context, batch models.Batch) (models.Batch, error)
	UpdateBatch(ctx context.Context, id string, update models.BatchUpdate) (models.Batch, error)
	DeleteBatch(ctx context.Context, id string) error
	FindBatchByID(ctx context.Context, id string) (models.Batch, error)
	FindBatchesByStageLog(ctx context.Context, stageLogID string) ([]models.Batch, error)
}

// SummaryRepository stores daily production summaries.
type SummaryRepository interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}
