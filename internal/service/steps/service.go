// Package steps implements the stage-log store: one execution record per
// stage run, with the dough-mixing stage carrying its mandatory extended
// fields. Closing a log is an update setting the close timestamp; whether a
// closed stage counts as "done" is the caller's business rule.
package steps

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
	// ErrUnknownStage indicates the stage name is not one of the four steps.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrMissingMixingFields indicates a dough-mixing log was created
	// without its mandatory extended fields.
	ErrMissingMixingFields = errors.New("missing dough-mixing fields")
	// ErrUnexpectedMixingFields indicates mixing fields were supplied for a
	// stage other than dough-mixing.
	ErrUnexpectedMixingFields = errors.New("mixing fields only apply to dough-mixing")
	// ErrAlreadyClosed indicates the stage log has a close timestamp already.
	ErrAlreadyClosed = errors.New("stage log already closed")
)

// CreateInput carries the fields needed to open a stage log.
type CreateInput struct {
	OrderID        string
	Stage          models.Stage
	OutputQuantity float64
	LossQuantity   float64
	OperatorRef    string
	Quality        *models.QualityData
	Photos         []string
	Mixing         *models.MixingFields
}

// CloseInput carries the fields finalized when a stage completes.
type CloseInput struct {
	OutputQuantity float64
	LossQuantity   *float64
	Quality        *models.QualityData
	Photos         []string
}

// Service implements the stage-log store on top of the repository boundary.
type Service struct {
	repo   repository.StageLogRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs a stage-log service.
func NewService(repo repository.StageLogRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create opens a new stage log. Dough-mixing logs must carry the full set
// of mixing fields; other stages must not carry any.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.StageLog, error) {
	if !input.Stage.Valid() {
		return models.StageLog{}, fmt.Errorf("%w: %q", ErrUnknownStage, input.Stage)
	}

	if input.Stage == models.StageDoughMixing {
		if err := validateMixing(input.Mixing); err != nil {
			return models.StageLog{}, err
		}
	} else if input.Mixing != nil {
		return models.StageLog{}, ErrUnexpectedMixingFields
	}

	log := models.StageLog{
		OrderID:        input.OrderID,
		Stage:          input.Stage,
		OperatorRef:    input.OperatorRef,
		OutputQuantity: input.OutputQuantity,
		LossQuantity:   input.LossQuantity,
		Quality:        input.Quality,
		Photos:         input.Photos,
		Mixing:         input.Mixing,
		OpenedAt:       s.now().UTC(),
	}

	created, err := s.repo.InsertStageLog(ctx, log)
	if err != nil {
		return models.StageLog{}, fmt.Errorf("persist stage log: %w", err)
	}

	s.logger.Info("stage log opened",
		zap.String("stage_log_id", created.ID),
		zap.String("order_id", created.OrderID),
		zap.String("stage", string(created.Stage)))
	return created, nil
}

// Update applies a partial update to a stage log.
func (s *Service) Update(ctx context.Context, id string, update models.StageLogUpdate) (models.StageLog, error) {
	return s.repo.UpdateStageLog(ctx, id, update)
}

// Close finalizes an open stage log with its output quantity and close
// timestamp. Closing an already-closed log is rejected.
func (s *Service) Close(ctx context.Context, id string, input CloseInput) (models.StageLog, error) {
	log, err := s.repo.FindStageLogByID(ctx, id)
	if err != nil {
		return models.StageLog{}, err
	}
	if !log.Open() {
		return models.StageLog{}, ErrAlreadyClosed
	}

	closedAt := s.now().UTC()
	update := models.StageLogUpdate{
		OutputQuantity: &input.OutputQuantity,
		LossQuantity:   input.LossQuantity,
		Quality:        input.Quality,
		Photos:         input.Photos,
		ClosedAt:       &closedAt,
	}

	closed, err := s.repo.UpdateStageLog(ctx, id, update)
	if err != nil {
		return models.StageLog{}, err
	}

	s.logger.Info("stage log closed",
		zap.String("stage_log_id", closed.ID),
		zap.String("order_id", closed.OrderID),
		zap.String("stage", string(closed.Stage)),
		zap.Float64("output_quantity", closed.OutputQuantity))
	return closed, nil
}

// FindByID returns the log or repository.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (models.StageLog, error) {
	return s.repo.FindStageLogByID(ctx, id)
}

// FindByOrder returns the order's logs sorted by open time ascending.
func (s *Service) FindByOrder(ctx context.Context, orderID string) ([]models.StageLog, error) {
	return s.repo.FindStageLogsByOrder(ctx, orderID)
}

// FindOpenByOrder returns the order's open logs. An empty slice is a valid
// result, not an error.
func (s *Service) FindOpenByOrder(ctx context.Context, orderID string) ([]models.StageLog, error) {
	logs, err := s.repo.FindStageLogsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var open []models.StageLog
	for _, log := range logs {
		if log.Open() {
			open = append(open, log)
		}
	}
	return open, nil
}

// FindLastByOrderAndStage returns the most recently opened log for the
// given stage, or false when the stage was never started.
func (s *Service) FindLastByOrderAndStage(ctx context.Context, orderID string, stage models.Stage) (models.StageLog, bool, error) {
	logs, err := s.repo.FindStageLogsByOrder(ctx, orderID)
	if err != nil {
		return models.StageLog{}, false, err
	}

	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].Stage == stage {
			return logs[i], true, nil
		}
	}
	return models.StageLog{}, false, nil
}

// FindLastClosedByOrder returns the log with the most recent close
// timestamp, or false when no log was ever closed.
func (s *Service) FindLastClosedByOrder(ctx context.Context, orderID string) (models.StageLog, bool, error) {
	logs, err := s.repo.FindStageLogsByOrder(ctx, orderID)
	if err != nil {
		return models.StageLog{}, false, err
	}

	var last models.StageLog
	found := false
	for _, log := range logs {
		if log.ClosedAt == nil {
			continue
		}
		if !found || log.ClosedAt.After(*last.ClosedAt) {
			last = log
			found = true
		}
	}
	return last, found, nil
}

func validateMixing(mixing *models.MixingFields) error {
	if mixing == nil {
		return ErrMissingMixingFields
	}

	switch {
	case mixing.RecipeRef == "":
		return fmt.Errorf("%w: recipe reference", ErrMissingMixingFields)
	case mixing.MixerRef == "":
		return fmt.Errorf("%w: mixer reference", ErrMissingMixingFields)
	case mixing.BatchCount <= 0:
		return fmt.Errorf("%w: batch count", ErrMissingMixingFields)
	case mixing.FinalTemperature <= 0:
		return fmt.Errorf("%w: final temperature", ErrMissingMixingFields)
	case mixing.SlowMixMinutes <= 0:
		return fmt.Errorf("%w: slow-mix duration", ErrMissingMixingFields)
	case mixing.FastMixMinutes <= 0:
		return fmt.Errorf("%w: fast-mix duration", ErrMissingMixingFields)
	case !mixing.Texture.Valid():
		return fmt.Errorf("%w: texture outcome", ErrMissingMixingFields)
	}
	return nil
}
