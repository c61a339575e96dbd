package batches

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository/memory"
	"github.com/mamadbah2/fournil/internal/service/steps"
)

type fixture struct {
	svc   *Service
	steps *steps.Service
	store *memory.Store
	log   models.StageLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	stepSvc := steps.NewService(store, nil)
	svc := NewService(store, stepSvc, nil)

	base := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	log, err := stepSvc.Create(context.Background(), steps.CreateInput{
		OrderID: "o1",
		Stage:   models.StageDoughMixing,
		Mixing: &models.MixingFields{
			RecipeRef:        "recipe-baguette",
			MixerRef:         "mixer-1",
			BatchCount:       1,
			FinalTemperature: 24,
			SlowMixMinutes:   4,
			FastMixMinutes:   8,
			Texture:          models.TextureOK,
		},
	})
	require.NoError(t, err)

	return &fixture{svc: svc, steps: stepSvc, store: store, log: log}
}

func (f *fixture) record(t *testing.T, count float64) models.Batch {
	t.Helper()

	batch, err := f.svc.Record(context.Background(), f.log.ID, RecordInput{
		RecipeRef:  "recipe-baguette",
		MixerRef:   "mixer-1",
		BatchCount: count,
		Texture:    models.TextureOK,
	})
	require.NoError(t, err)
	return batch
}

func (f *fixture) logOutput(t *testing.T) float64 {
	t.Helper()

	log, err := f.steps.FindByID(context.Background(), f.log.ID)
	require.NoError(t, err)
	return log.OutputQuantity
}

func TestRecordAggregatesAcrossPasses(t *testing.T) {
	f := newFixture(t)

	f.record(t, 1)
	f.record(t, 2)
	f.record(t, 1)

	assert.Equal(t, 4.0, f.logOutput(t))

	log, err := f.steps.FindByID(context.Background(), f.log.ID)
	require.NoError(t, err)
	require.NotNil(t, log.Mixing)
	assert.Equal(t, 4.0, log.Mixing.BatchCount)
}

func TestRecordRejectsNonMixingLog(t *testing.T) {
	f := newFixture(t)

	baking, err := f.steps.Create(context.Background(), steps.CreateInput{OrderID: "o1", Stage: models.StageBaking})
	require.NoError(t, err)

	_, err = f.svc.Record(context.Background(), baking.ID, RecordInput{
		RecipeRef:  "recipe-baguette",
		MixerRef:   "mixer-1",
		BatchCount: 1,
		Texture:    models.TextureOK,
	})
	assert.ErrorIs(t, err, ErrNotMixingLog)
}

func TestRecordValidatesInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input RecordInput
	}{
		{"no recipe", RecordInput{MixerRef: "m", BatchCount: 1, Texture: models.TextureOK}},
		{"no mixer", RecordInput{RecipeRef: "r", BatchCount: 1, Texture: models.TextureOK}},
		{"zero count", RecordInput{RecipeRef: "r", MixerRef: "m", Texture: models.TextureOK}},
		{"bad texture", RecordInput{RecipeRef: "r", MixerRef: "m", BatchCount: 1, Texture: "smooth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Record(context.Background(), f.log.ID, tt.input)
			assert.ErrorIs(t, err, ErrInvalidBatch)
		})
	}
}

func TestUpdateRecomputesAggregate(t *testing.T) {
	f := newFixture(t)

	f.record(t, 1)
	target := f.record(t, 2)

	count := 5.0
	updated, err := f.svc.Update(context.Background(), target.ID, models.BatchUpdate{BatchCount: &count})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.BatchCount)
	assert.Equal(t, 6.0, f.logOutput(t))

	bad := -1.0
	_, err = f.svc.Update(context.Background(), target.ID, models.BatchUpdate{BatchCount: &bad})
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestDeleteRecomputesAggregate(t *testing.T) {
	f := newFixture(t)

	f.record(t, 1)
	second := f.record(t, 2)
	f.record(t, 1)

	require.NoError(t, f.svc.Delete(context.Background(), second.ID))
	assert.Equal(t, 2.0, f.logOutput(t))
}

func TestDeleteLastBatchLeavesShell(t *testing.T) {
	f := newFixture(t)

	only := f.record(t, 3)
	require.NoError(t, f.svc.Delete(context.Background(), only.ID))

	log, err := f.steps.FindByID(context.Background(), f.log.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, log.OutputQuantity)
	assert.Nil(t, log.Mixing)
	assert.True(t, log.Open())
}

func TestListForOrderWalksEveryMixingLog(t *testing.T) {
	f := newFixture(t)

	f.record(t, 1)

	// A second mixing run for the same order.
	second, err := f.steps.Create(context.Background(), steps.CreateInput{
		OrderID: "o1",
		Stage:   models.StageDoughMixing,
		Mixing: &models.MixingFields{
			RecipeRef:        "recipe-baguette",
			MixerRef:         "mixer-2",
			BatchCount:       1,
			FinalTemperature: 25,
			SlowMixMinutes:   4,
			FastMixMinutes:   8,
			Texture:          models.TextureTears,
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Record(context.Background(), second.ID, RecordInput{
		RecipeRef:  "recipe-baguette",
		MixerRef:   "mixer-2",
		BatchCount: 2,
		Texture:    models.TextureTears,
	})
	require.NoError(t, err)

	all, err := f.svc.ListForOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
