// Package progress derives completion readouts for a production order by
// combining the order record, its stage logs, its mixing batches and the
// unit-conversion algebra.
package progress

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/conversion"
	"github.com/mamadbah2/fournil/internal/domain/models"
)

// OrderStore is the slice of the order service the calculator needs.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (models.Order, error)
}

// StageLogStore is the slice of the stage-log service the calculator needs.
type StageLogStore interface {
	FindByOrder(ctx context.Context, orderID string) ([]models.StageLog, error)
}

// BatchStore is the slice of the batch manager the calculator needs.
type BatchStore interface {
	ListForOrder(ctx context.Context, orderID string) ([]models.Batch, error)
}

// Service implements the progress calculator.
type Service struct {
	orders  OrderStore
	logs    StageLogStore
	batches BatchStore
	logger  *zap.Logger
}

// NewService constructs a progress calculator.
func NewService(orders OrderStore, logs StageLogStore, batches BatchStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, logs: logs, batches: batches, logger: logger}
}

// Calculate builds the progress readout for the order using the supplied
// conversion context. A missing recipe yield surfaces as a warning flag on
// the result, never as an error.
func (s *Service) Calculate(ctx context.Context, orderID string, cctx models.ConversionContext) (models.Progress, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return models.Progress{}, err
	}

	logs, err := s.logs.FindByOrder(ctx, orderID)
	if err != nil {
		return models.Progress{}, fmt.Errorf("load stage logs: %w", err)
	}

	batches, err := s.batches.ListForOrder(ctx, orderID)
	if err != nil {
		return models.Progress{}, fmt.Errorf("load batches: %w", err)
	}

	var batchesProduced float64
	for _, b := range batches {
		batchesProduced += b.BatchCount
	}

	conv := conversion.Convert(models.StageDoughMixing, order.PlannedQuantity, cctx)

	produced := producedQuantity(logs)
	percent := 0.0
	if order.PlannedQuantity > 0 {
		percent = produced / order.PlannedQuantity * 100
	}

	remaining := float64(conv.Batches) - batchesProduced
	if remaining < 0 {
		remaining = 0
	}

	current := currentStage(order, logs)
	next := nextStage(current)

	return models.Progress{
		OrderID:            order.ID,
		LotCode:            order.LotCode,
		PlannedQuantity:    order.PlannedQuantity,
		ProducedQuantity:   produced,
		PercentComplete:    percent,
		BatchesProduced:    batchesProduced,
		BatchesRequired:    conv.Batches,
		BatchesRemaining:   remaining,
		MissingRecipeYield: conv.MissingRecipeYield,
		CurrentStage:       current,
		NextStage:          next,
	}, nil
}

// producedQuantity picks the output of the closed log whose stage sits
// furthest along the canonical order; among several closed runs of that
// stage the most recently closed one wins.
func producedQuantity(logs []models.StageLog) float64 {
	bestRank := -1
	var bestLog models.StageLog

	for _, log := range logs {
		if log.ClosedAt == nil {
			continue
		}
		rank := log.Stage.Rank()
		if rank > bestRank {
			bestRank = rank
			bestLog = log
		} else if rank == bestRank && log.ClosedAt.After(*bestLog.ClosedAt) {
			bestLog = log
		}
	}

	if bestRank < 0 {
		return 0
	}
	return bestLog.OutputQuantity
}

// currentStage prefers an open log; the order status is the authoritative
// fallback when none is open.
func currentStage(order models.Order, logs []models.StageLog) models.Stage {
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].Open() {
			return logs[i].Stage
		}
	}

	if stage, ok := order.Status.Stage(); ok {
		return stage
	}
	return ""
}

func nextStage(current models.Stage) models.Stage {
	if current == "" {
		return models.StageDoughMixing
	}
	next, ok := current.Next()
	if !ok {
		return ""
	}
	return next
}
