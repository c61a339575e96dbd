// Package memory provides an in-memory implementation of the repository
// boundary. It backs the test suites and local development without a
// MongoDB instance.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
)

// Store holds all records behind a single mutex. Values are copied on the
// way in and out so callers can never mutate shared state.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]models.Order
	logs      map[string]models.StageLog
	batches   map[string]models.Batch
	summaries []models.DailySummary
}

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	return &Store{
		orders:  make(map[string]models.Order),
		logs:    make(map[string]models.StageLog),
		batches: make(map[string]models.Batch),
	}
}

// InsertOrder stores the order, assigning an id when absent.
func (s *Store) InsertOrder(_ context.Context, order models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	s.orders[order.ID] = cloneOrder(order)
	return order, nil
}

// UpdateOrder applies the non-nil fields of the update.
func (s *Store) UpdateOrder(_ context.Context, id string, update models.OrderUpdate) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}

	if update.Status != nil {
		order.Status = *update.Status
	}
	if update.Priority != nil {
		order.Priority = *update.Priority
	}
	if update.PlannedQuantity != nil {
		order.PlannedQuantity = *update.PlannedQuantity
	}
	if update.TargetDate != nil {
		target := *update.TargetDate
		order.TargetDate = &target
	}

	s.orders[id] = cloneOrder(order)
	return cloneOrder(order), nil
}

// FindOrderByID returns the order or ErrNotFound.
func (s *Store) FindOrderByID(_ context.Context, id string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return cloneOrder(order), nil
}

// FindOrderByLotCode returns the order carrying the lot code or ErrNotFound.
func (s *Store) FindOrderByLotCode(_ context.Context, lotCode string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.LotCode == lotCode {
			return cloneOrder(order), nil
		}
	}
	return models.Order{}, repository.ErrNotFound
}

// FindOrdersByStatus returns every order in the given status.
func (s *Store) FindOrdersByStatus(_ context.Context, status models.Status) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, order := range s.orders {
		if order.Status == status {
			out = append(out, cloneOrder(order))
		}
	}
	return out, nil
}

// FindActiveOrders returns every non-terminal order.
func (s *Store) FindActiveOrders(_ context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, order := range s.orders {
		if !order.Status.Terminal() {
			out = append(out, cloneOrder(order))
		}
	}
	return out, nil
}

// FindLotCodes returns every stored lot code with the given prefix.
func (s *Store) FindLotCodes(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, order := range s.orders {
		if strings.HasPrefix(order.LotCode, prefix) {
			out = append(out, order.LotCode)
		}
	}
	return out, nil
}

// InsertStageLog stores the log, assigning an id when absent.
func (s *Store) InsertStageLog(_ context.Context, log models.StageLog) (models.StageLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	s.logs[log.ID] = cloneStageLog(log)
	return cloneStageLog(log), nil
}

// UpdateStageLog applies the non-nil fields of the update.
func (s *Store) UpdateStageLog(_ context.Context, id string, update models.StageLogUpdate) (models.StageLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[id]
	if !ok {
		return models.StageLog{}, repository.ErrNotFound
	}

	if update.OperatorRef != nil {
		log.OperatorRef = *update.OperatorRef
	}
	if update.InputQuantity != nil {
		v := *update.InputQuantity
		log.InputQuantity = &v
	}
	if update.OutputQuantity != nil {
		log.OutputQuantity = *update.OutputQuantity
	}
	if update.LossQuantity != nil {
		log.LossQuantity = *update.LossQuantity
	}
	if update.Quality != nil {
		q := *update.Quality
		log.Quality = &q
	}
	if update.Photos != nil {
		log.Photos = append([]string(nil), update.Photos...)
	}
	if update.Mixing != nil {
		m := *update.Mixing
		log.Mixing = &m
	}
	if update.ClearMixing {
		log.Mixing = nil
	}
	if update.ClosedAt != nil {
		closed := *update.ClosedAt
		log.ClosedAt = &closed
	}

	s.logs[id] = cloneStageLog(log)
	return cloneStageLog(log), nil
}

// FindStageLogByID returns the log or ErrNotFound.
func (s *Store) FindStageLogByID(_ context.Context, id string) (models.StageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[id]
	if !ok {
		return models.StageLog{}, repository.ErrNotFound
	}
	return cloneStageLog(log), nil
}

// FindStageLogsByOrder returns the order's logs sorted by open time ascending.
func (s *Store) FindStageLogsByOrder(_ context.Context, orderID string) ([]models.StageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StageLog
	for _, log := range s.logs {
		if log.OrderID == orderID {
			out = append(out, cloneStageLog(log))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out, nil
}

// InsertBatch stores the batch, assigning an id when absent.
func (s *Store) InsertBatch(_ context.Context, batch models.Batch) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	s.batches[batch.ID] = cloneBatch(batch)
	return cloneBatch(batch), nil
}

// UpdateBatch applies the non-nil fields of the update.
func (s *Store) UpdateBatch(_ context.Context, id string, update models.BatchUpdate) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, repository.ErrNotFound
	}

	if update.RecipeRef != nil {
		batch.RecipeRef = *update.RecipeRef
	}
	if update.MixerRef != nil {
		batch.MixerRef = *update.MixerRef
	}
	if update.BatchCount != nil {
		batch.BatchCount = *update.BatchCount
	}
	if update.Temperature != nil {
		batch.Temperature = *update.Temperature
	}
	if update.Texture != nil {
		batch.Texture = *update.Texture
	}
	if update.SlowMixMinutes != nil {
		batch.SlowMixMinutes = *update.SlowMixMinutes
	}
	if update.FastMixMinutes != nil {
		batch.FastMixMinutes = *update.FastMixMinutes
	}
	if update.Ingredients != nil {
		batch.Ingredients = append([]models.IngredientUsage(nil), update.Ingredients...)
	}

	s.batches[id] = cloneBatch(batch)
	return cloneBatch(batch), nil
}

// DeleteBatch removes the batch or returns ErrNotFound.
func (s *Store) DeleteBatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.batches, id)
	return nil
}

// FindBatchByID returns the batch or ErrNotFound.
func (s *Store) FindBatchByID(_ context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, repository.ErrNotFound
	}
	return cloneBatch(batch), nil
}

// FindBatchesByStageLog returns the log's batches sorted by creation time ascending.
func (s *Store) FindBatchesByStageLog(_ context.Context, stageLogID string) ([]models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Batch
	for _, batch := range s.batches {
		if batch.StageLogID == stageLogID {
			out = append(out, cloneBatch(batch))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveDailySummary appends the summary.
func (s *Store) SaveDailySummary(_ context.Context, summary models.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = append(s.summaries, summary)
	return nil
}

// DailySummaries returns a copy of the stored summaries, for tests.
func (s *Store) DailySummaries() []models.DailySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.DailySummary(nil), s.summaries...)
}

func cloneOrder(order models.Order) models.Order {
	if order.TargetDate != nil {
		target := *order.TargetDate
		order.TargetDate = &target
	}
	return order
}

func cloneStageLog(log models.StageLog) models.StageLog {
	if log.InputQuantity != nil {
		v := *log.InputQuantity
		log.InputQuantity = &v
	}
	if log.Quality != nil {
		q := *log.Quality
		log.Quality = &q
	}
	if log.Photos != nil {
		log.Photos = append([]string(nil), log.Photos...)
	}
	if log.Mixing != nil {
		m := *log.Mixing
		log.Mixing = &m
	}
	if log.ClosedAt != nil {
		closed := *log.ClosedAt
		log.ClosedAt = &closed
	}
	return log
}

func cloneBatch(batch models.Batch) models.Batch {
	if batch.Ingredients != nil {
		batch.Ingredients = append([]models.IngredientUsage(nil), batch.Ingredients...)
	}
	return batch
}
