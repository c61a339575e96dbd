// Package orders implements the production-order store: creation with
// daily-sequential lot codes, partial updates and the operator queue view.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
)

// ErrInvalidOrder indicates the creation payload is missing required fields.
var ErrInvalidOrder = errors.New("invalid order input")

const lotCodePrefix = "OP"

// CreateInput carries the fields needed to open a production order.
type CreateInput struct {
	ProductRef      string
	PlannedQuantity float64
	Priority        models.Priority
	TargetDate      *time.Time
	OriginRef       string
}

// Service implements the order store on top of the repository boundary.
type Service struct {
	repo   repository.OrderRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs an order service.
func NewService(repo repository.OrderRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create validates the input, assigns the next lot code for the current
// date and persists the order in planned status. Lot-code generation
// happens inside Create so a single writer can never observe a gap.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Order, error) {
	if strings.TrimSpace(input.ProductRef) == "" {
		return models.Order{}, fmt.Errorf("%w: product reference required", ErrInvalidOrder)
	}
	if input.PlannedQuantity <= 0 {
		return models.Order{}, fmt.Errorf("%w: planned quantity must be positive", ErrInvalidOrder)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	now := s.now().UTC()
	lotCode, err := s.nextLotCode(ctx, now)
	if err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		LotCode:         lotCode,
		ProductRef:      input.ProductRef,
		PlannedQuantity: input.PlannedQuantity,
		Priority:        priority,
		Status:          models.StatusPlanned,
		TargetDate:      input.TargetDate,
		OriginRef:       input.OriginRef,
		CreatedAt:       now,
	}

	created, err := s.repo.InsertOrder(ctx, order)
	if err != nil {
		return models.Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("lot_code", created.LotCode),
		zap.String("product_ref", created.ProductRef))
	return created, nil
}

// Update applies a partial update to an existing order.
func (s *Service) Update(ctx context.Context, id string, update models.OrderUpdate) (models.Order, error) {
	order, err := s.repo.UpdateOrder(ctx, id, update)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// FindByID returns the order or repository.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (models.Order, error) {
	return s.repo.FindOrderByID(ctx, id)
}

// FindByLotCode returns the order carrying the lot code.
func (s *Service) FindByLotCode(ctx context.Context, lotCode string) (models.Order, error) {
	return s.repo.FindOrderByLotCode(ctx, strings.ToUpper(strings.TrimSpace(lotCode)))
}

// FindByStatus returns every order in the given status.
func (s *Service) FindByStatus(ctx context.Context, status models.Status) ([]models.Order, error) {
	return s.repo.FindOrdersByStatus(ctx, status)
}

// FindActive returns the operator queue: non-terminal orders sorted by
// target date ascending with missing dates last, then priority descending,
// then creation time ascending.
func (s *Service) FindActive(ctx context.Context) ([]models.Order, error) {
	active, err := s.repo.FindActiveOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}

	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]

		switch {
		case a.TargetDate == nil && b.TargetDate != nil:
			return false
		case a.TargetDate != nil && b.TargetDate == nil:
			return true
		case a.TargetDate != nil && b.TargetDate != nil && !a.TargetDate.Equal(*b.TargetDate):
			return a.TargetDate.Before(*b.TargetDate)
		}

		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}

		return a.CreatedAt.Before(b.CreatedAt)
	})

	return active, nil
}

// nextLotCode scans the day's existing codes and returns the next
// zero-padded sequence, starting at 001.
func (s *Service) nextLotCode(ctx context.Context, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", lotCodePrefix, now.Format("20060102"))

	codes, err := s.repo.FindLotCodes(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan lot codes: %w", err)
	}

	maxSeq := 0
	for _, code := range codes {
		seq, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
		if err != nil {
			s.logger.Warn("skipping malformed lot code", zap.String("lot_code", code))
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s%03d", prefix, maxSeq+1), nil
}
