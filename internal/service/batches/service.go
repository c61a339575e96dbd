// Package batches keeps a dough-mixing stage log's output quantity equal
// to the sum of its recorded mixing passes. Aggregates are recomputed by
// re-scanning every batch of the owning log on each mutation rather than
// adjusting a running total.
package batches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
)

var (
	// ErrNotMixingLog indicates the referenced stage log is not a
	// dough-mixing log and cannot own batches.
	ErrNotMixingLog = errors.New("stage log is not a dough-mixing log")
	// ErrInvalidBatch indicates the batch payload is missing required fields.
	ErrInvalidBatch = errors.New("invalid batch input")
)

// StageLogStore is the slice of the stage-log service the batch manager
// needs: lookup, aggregate write-back and per-order iteration.
type StageLogStore interface {
	FindByID(ctx context.Context, id string) (models.StageLog, error)
	Update(ctx context.Context, id string, update models.StageLogUpdate) (models.StageLog, error)
	FindByOrder(ctx context.Context, orderID string) ([]models.StageLog, error)
}

// RecordInput carries the fields of one mixing pass.
type RecordInput struct {
	RecipeRef      string
	MixerRef       string
	BatchCount     float64
	Temperature    float64
	Texture        models.TextureOutcome
	SlowMixMinutes float64
	FastMixMinutes float64
	Ingredients    []models.IngredientUsage
}

// Service implements the batch manager.
type Service struct {
	repo   repository.BatchRepository
	logs   StageLogStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a batch manager.
func NewService(repo repository.BatchRepository, logs StageLogStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logs: logs, logger: logger, now: time.Now}
}

// Record persists a mixing pass against the given stage log and rewrites
// the log's aggregate output quantity. The caller names the target log
// explicitly; the engine never infers "the latest mixing log".
func (s *Service) Record(ctx context.Context, stageLogID string, input RecordInput) (models.Batch, error) {
	log, err := s.mixingLog(ctx, stageLogID)
	if err != nil {
		return models.Batch{}, err
	}
	if err := validateInput(input); err != nil {
		return models.Batch{}, err
	}

	batch := models.Batch{
		StageLogID:     log.ID,
		RecipeRef:      input.RecipeRef,
		MixerRef:       input.MixerRef,
		BatchCount:     input.BatchCount,
		Temperature:    input.Temperature,
		Texture:        input.Texture,
		SlowMixMinutes: input.SlowMixMinutes,
		FastMixMinutes: input.FastMixMinutes,
		Ingredients:    input.Ingredients,
		CreatedAt:      s.now().UTC(),
	}

	created, err := s.repo.InsertBatch(ctx, batch)
	if err != nil {
		return models.Batch{}, fmt.Errorf("persist batch: %w", err)
	}

	if err := s.recomputeAggregate(ctx, log); err != nil {
		return models.Batch{}, err
	}

	s.logger.Info("batch recorded",
		zap.String("batch_id", created.ID),
		zap.String("stage_log_id", log.ID),
		zap.Float64("batch_count", created.BatchCount))
	return created, nil
}

// Update applies a partial update to a batch and recomputes the owning
// log's aggregate.
func (s *Service) Update(ctx context.Context, batchID string, update models.BatchUpdate) (models.Batch, error) {
	if update.BatchCount != nil && *update.BatchCount <= 0 {
		return models.Batch{}, fmt.Errorf("%w: batch count must be positive", ErrInvalidBatch)
	}

	updated, err := s.repo.UpdateBatch(ctx, batchID, update)
	if err != nil {
		return models.Batch{}, err
	}

	log, err := s.mixingLog(ctx, updated.StageLogID)
	if err != nil {
		return models.Batch{}, err
	}
	if err := s.recomputeAggregate(ctx, log); err != nil {
		return models.Batch{}, err
	}
	return updated, nil
}

// Delete removes a batch's contribution. When it was the only batch the
// owning log's mixing fields are nulled and the log remains as a shell.
func (s *Service) Delete(ctx context.Context, batchID string) error {
	batch, err := s.repo.FindBatchByID(ctx, batchID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteBatch(ctx, batchID); err != nil {
		return err
	}

	log, err := s.mixingLog(ctx, batch.StageLogID)
	if err != nil {
		return err
	}

	remaining, err := s.repo.FindBatchesByStageLog(ctx, log.ID)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}

	if len(remaining) == 0 {
		zero := 0.0
		_, err = s.logs.Update(ctx, log.ID, models.StageLogUpdate{OutputQuantity: &zero, ClearMixing: true})
		if err != nil {
			return fmt.Errorf("clear mixing shell: %w", err)
		}
		s.logger.Info("last batch deleted, mixing fields cleared", zap.String("stage_log_id", log.ID))
		return nil
	}

	return s.writeAggregate(ctx, log, remaining)
}

// List returns every batch belonging to the stage log.
func (s *Service) List(ctx context.Context, stageLogID string) ([]models.Batch, error) {
	if _, err := s.mixingLog(ctx, stageLogID); err != nil {
		return nil, err
	}
	return s.repo.FindBatchesByStageLog(ctx, stageLogID)
}

// ListForOrder walks every dough-mixing log of the order, not just the
// latest, so repeated mixing passes all stay visible.
func (s *Service) ListForOrder(ctx context.Context, orderID string) ([]models.Batch, error) {
	logs, err := s.logs.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var out []models.Batch
	for _, log := range logs {
		if log.Stage != models.StageDoughMixing {
			continue
		}
		batches, err := s.repo.FindBatchesByStageLog(ctx, log.ID)
		if err != nil {
			return nil, fmt.Errorf("load batches for log %s: %w", log.ID, err)
		}
		out = append(out, batches...)
	}
	return out, nil
}

func (s *Service) mixingLog(ctx context.Context, stageLogID string) (models.StageLog, error) {
	log, err := s.logs.FindByID(ctx, stageLogID)
	if err != nil {
		return models.StageLog{}, err
	}
	if log.Stage != models.StageDoughMixing {
		return models.StageLog{}, ErrNotMixingLog
	}
	return log, nil
}

func (s *Service) recomputeAggregate(ctx context.Context, log models.StageLog) error {
	all, err := s.repo.FindBatchesByStageLog(ctx, log.ID)
	if err != nil {
		return fmt.Errorf("load batches: %w", err)
	}
	return s.writeAggregate(ctx, log, all)
}

func (s *Service) writeAggregate(ctx context.Context, log models.StageLog, all []models.Batch) error {
	var sum float64
	for _, b := range all {
		sum += b.BatchCount
	}

	update := models.StageLogUpdate{OutputQuantity: &sum}
	if log.Mixing != nil {
		mixing := *log.Mixing
		mixing.BatchCount = sum
		update.Mixing = &mixing
	}

	if _, err := s.logs.Update(ctx, log.ID, update); err != nil {
		return fmt.Errorf("write aggregate: %w", err)
	}
	return nil
}

func validateInput(input RecordInput) error {
	switch {
	case input.RecipeRef == "":
		return fmt.Errorf("%w: recipe reference required", ErrInvalidBatch)
	case input.MixerRef == "":
		return fmt.Errorf("%w: mixer reference required", ErrInvalidBatch)
	case input.BatchCount <= 0:
		return fmt.Errorf("%w: batch count must be positive", ErrInvalidBatch)
	case !input.Texture.Valid():
		return fmt.Errorf("%w: texture outcome required", ErrInvalidBatch)
	}
	return nil
}
