// Package production is the workflow facade the transport layers call: it
// advances orders through the stage state machine, guards the single-open-
// stage rule on the common path, mirrors order status, and fans out to the
// ledger and the notifier on a best-effort basis.
package production

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/service/batches"
	"github.com/mamadbah2/fournil/internal/service/orders"
	"github.com/mamadbah2/fournil/internal/service/progress"
	"github.com/mamadbah2/fournil/internal/service/steps"
)

// ErrStageAlreadyOpen indicates the order already has an open stage log.
// There is no cross-caller lock behind this check; two concurrent starts
// can still race at the persistence boundary.
var ErrStageAlreadyOpen = errors.New("order already has an open stage")

// Catalog supplies per-product conversion ratios. The engine queries it on
// every call and never caches the result.
type Catalog interface {
	ConversionContext(ctx context.Context, productRef string) (models.ConversionContext, error)
}

// Ledger mirrors created orders into the auxiliary spreadsheet.
type Ledger interface {
	AppendOrderRow(ctx context.Context, order models.Order) error
}

// Notifier pushes operator notifications. Failures never fail the
// triggering operation.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Service wires the four core services behind the caller-facing contract.
type Service struct {
	orders        *orders.Service
	steps         *steps.Service
	batches       *batches.Service
	progress      *progress.Service
	catalog       Catalog
	ledger        Ledger
	notifier      Notifier
	supervisorRef string
	logger        *zap.Logger
}

// NewService constructs the facade. Ledger and notifier may be nil, in
// which case the corresponding side effects are skipped.
func NewService(
	orderSvc *orders.Service,
	stepSvc *steps.Service,
	batchSvc *batches.Service,
	progressSvc *progress.Service,
	catalog Catalog,
	ledger Ledger,
	notifier Notifier,
	supervisorRef string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:        orderSvc,
		steps:         stepSvc,
		batches:       batchSvc,
		progress:      progressSvc,
		catalog:       catalog,
		ledger:        ledger,
		notifier:      notifier,
		supervisorRef: supervisorRef,
		logger:        logger,
	}
}

// SetNotifier installs the notifier after construction. The messaging
// channel consumes the facade, so the two are wired in two steps.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateOrder opens a production order and mirrors it into the ledger.
func (s *Service) CreateOrder(ctx context.Context, input orders.CreateInput) (models.Order, error) {
	order, err := s.orders.Create(ctx, input)
	if err != nil {
		return models.Order{}, err
	}

	if s.ledger != nil {
		if err := s.ledger.AppendOrderRow(ctx, order); err != nil {
			s.logger.Warn("ledger append failed", zap.Error(err), zap.String("lot_code", order.LotCode))
		}
	}
	return order, nil
}

// ListActiveOrders returns the operator queue.
func (s *Service) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindActive(ctx)
}

// StartStage opens a stage log for the order and mirrors the order status
// to the stage name. It refuses to open a second stage while one is open.
func (s *Service) StartStage(ctx context.Context, orderID string, stage models.Stage, operatorRef string, mixing *models.MixingFields) (models.StageLog, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return models.StageLog{}, err
	}

	open, err := s.steps.FindOpenByOrder(ctx, order.ID)
	if err != nil {
		return models.StageLog{}, err
	}
	if len(open) > 0 {
		return models.StageLog{}, fmt.Errorf("%w: %s is open", ErrStageAlreadyOpen, open[0].Stage)
	}

	log, err := s.steps.Create(ctx, steps.CreateInput{
		OrderID:     order.ID,
		Stage:       stage,
		OperatorRef: operatorRef,
		Mixing:      mixing,
	})
	if err != nil {
		return models.StageLog{}, err
	}

	status := models.Status(stage)
	if _, err := s.orders.Update(ctx, order.ID, models.OrderUpdate{Status: &status}); err != nil {
		s.logger.Warn("status mirror failed", zap.Error(err), zap.String("order_id", order.ID))
	}
	return log, nil
}

// RecordBatch records a mixing pass against an explicitly named stage log.
func (s *Service) RecordBatch(ctx context.Context, stageLogID string, input batches.RecordInput) (models.Batch, error) {
	return s.batches.Record(ctx, stageLogID, input)
}

// UpdateBatch corrects a recorded mixing pass.
func (s *Service) UpdateBatch(ctx context.Context, batchID string, update models.BatchUpdate) (models.Batch, error) {
	return s.batches.Update(ctx, batchID, update)
}

// DeleteBatch removes a mixing pass and its contribution.
func (s *Service) DeleteBatch(ctx context.Context, batchID string) error {
	return s.batches.Delete(ctx, batchID)
}

// ListBatches returns the batches of one stage log.
func (s *Service) ListBatches(ctx context.Context, stageLogID string) ([]models.Batch, error) {
	return s.batches.List(ctx, stageLogID)
}

// CompleteStage closes a stage log, marks the order completed when the
// packaging stage closes, and notifies the supervisor.
func (s *Service) CompleteStage(ctx context.Context, stageLogID string, input steps.CloseInput) (models.StageLog, error) {
	log, err := s.steps.Close(ctx, stageLogID, input)
	if err != nil {
		return models.StageLog{}, err
	}

	order, err := s.orders.FindByID(ctx, log.OrderID)
	if err != nil {
		s.logger.Warn("order lookup after close failed", zap.Error(err), zap.String("order_id", log.OrderID))
		return log, nil
	}

	if log.Stage == models.StagePackaging {
		status := models.StatusCompleted
		if _, err := s.orders.Update(ctx, order.ID, models.OrderUpdate{Status: &status}); err != nil {
			s.logger.Warn("status mirror failed", zap.Error(err), zap.String("order_id", order.ID))
		}
	}

	s.notifyStageCompletion(ctx, order, log)
	return log, nil
}

// GetProgress resolves the product's conversion context through the
// catalog and computes the order's progress.
func (s *Service) GetProgress(ctx context.Context, orderID string) (models.Progress, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return models.Progress{}, err
	}

	cctx, err := s.catalog.ConversionContext(ctx, order.ProductRef)
	if err != nil {
		return models.Progress{}, fmt.Errorf("catalog lookup for %s: %w", order.ProductRef, err)
	}

	return s.progress.Calculate(ctx, order.ID, cctx)
}

// GetProgressByLotCode is the lot-code flavoured lookup the WhatsApp
// channel uses.
func (s *Service) GetProgressByLotCode(ctx context.Context, lotCode string) (models.Progress, error) {
	order, err := s.orders.FindByLotCode(ctx, lotCode)
	if err != nil {
		return models.Progress{}, err
	}
	return s.GetProgress(ctx, order.ID)
}

// ListStageLogs returns the order's stage logs, oldest first.
func (s *Service) ListStageLogs(ctx context.Context, orderID string) ([]models.StageLog, error) {
	return s.steps.FindByOrder(ctx, orderID)
}

func (s *Service) notifyStageCompletion(ctx context.Context, order models.Order, log models.StageLog) {
	if s.notifier == nil || s.supervisorRef == "" {
		return
	}

	message := fmt.Sprintf("Lot %s: stage %s closed with output %.2f.", order.LotCode, log.Stage, log.OutputQuantity)
	if next, ok := log.Stage.Next(); ok {
		message += fmt.Sprintf(" Next stage: %s.", next)
	} else {
		message += " Production run finished."
	}

	err := s.notifier.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.supervisorRef,
		Message: message,
	})
	if err != nil {
		s.logger.Warn("stage completion notification failed", zap.Error(err), zap.String("lot_code", order.LotCode))
	}
}
