// Package reporting builds the daily production summary pushed to the
// supervisor and archived in MongoDB and the spreadsheet ledger.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
)

const dateLayout = "2006-01-02"

// Engine is the slice of the production facade the reporter reads from.
type Engine interface {
	ListActiveOrders(ctx context.Context) ([]models.Order, error)
	GetProgress(ctx context.Context, orderID string) (models.Progress, error)
	ListStageLogs(ctx context.Context, orderID string) ([]models.StageLog, error)
}

// SummaryLedger mirrors the daily snapshot into the spreadsheet.
type SummaryLedger interface {
	AppendDailySummary(ctx context.Context, summary models.DailySummary) error
}

// Service aggregates per-order progress into a daily text summary.
type Service struct {
	engine    Engine
	summaries repository.SummaryRepository
	ledger    SummaryLedger
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance. Summaries repository
// and ledger may be nil; archiving is then skipped.
func NewService(engine Engine, summaries repository.SummaryRepository, ledger SummaryLedger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, summaries: summaries, ledger: ledger, logger: logger, now: time.Now}
}

// GenerateDailySummary walks the active queue, collects each order's
// progress and returns a formatted report. Orders whose progress cannot be
// computed (e.g. missing catalog row) are skipped with a log line rather
// than failing the whole report.
func (s *Service) GenerateDailySummary(ctx context.Context) (string, error) {
	active, err := s.engine.ListActiveOrders(ctx)
	if err != nil {
		return "", fmt.Errorf("load active orders: %w", err)
	}

	now := s.now().UTC()
	header := fmt.Sprintf("Production summary %s", now.Format(dateLayout))

	if len(active) == 0 {
		return header + "\nNo active orders.", nil
	}

	var (
		lines        []string
		totalBatches float64
		totalPercent float64
		counted      int
		openStages   int
	)

	for _, order := range active {
		prog, err := s.engine.GetProgress(ctx, order.ID)
		if err != nil {
			s.logger.Debug("skip order in summary", zap.String("lot_code", order.LotCode), zap.Error(err))
			continue
		}

		logs, err := s.engine.ListStageLogs(ctx, order.ID)
		if err == nil {
			for _, log := range logs {
				if log.Open() {
					openStages++
				}
			}
		}

		stage := "not started"
		if prog.CurrentStage != "" {
			stage = string(prog.CurrentStage)
		}

		line := fmt.Sprintf("- %s (%s): %.1f%%, %g/%d batches, stage %s",
			order.LotCode, order.ProductRef, prog.PercentComplete, prog.BatchesProduced, prog.BatchesRequired, stage)
		if prog.MissingRecipeYield {
			line += " [no recipe linked]"
		}
		lines = append(lines, line)

		totalBatches += prog.BatchesProduced
		totalPercent += prog.PercentComplete
		counted++
	}

	if counted == 0 {
		return header + "\nNo reportable orders.", nil
	}

	summary := models.DailySummary{
		Date:              time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		ActiveOrders:      len(active),
		OpenStages:        openStages,
		BatchesProduced:   totalBatches,
		AverageCompletion: totalPercent / float64(counted),
		CreatedAt:         now,
	}
	s.archive(ctx, summary)

	report := header + "\n" + strings.Join(lines, "\n")
	report += fmt.Sprintf("\nTotal: %d active orders, %d open stages, %g batches mixed, avg %.1f%% complete.",
		summary.ActiveOrders, summary.OpenStages, summary.BatchesProduced, summary.AverageCompletion)
	return report, nil
}

func (s *Service) archive(ctx context.Context, summary models.DailySummary) {
	if s.summaries != nil {
		if err := s.summaries.SaveDailySummary(ctx, summary); err != nil {
			s.logger.Warn("failed to store daily summary", zap.Error(err))
		}
	}
	if s.ledger != nil {
		if err := s.ledger.AppendDailySummary(ctx, summary); err != nil {
			s.logger.Warn("failed to append summary row", zap.Error(err))
		}
	}
}
