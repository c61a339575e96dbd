package steps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository/memory"
)

func validMixing() *models.MixingFields {
	return &models.MixingFields{
		RecipeRef:        "recipe-baguette",
		MixerRef:         "mixer-1",
		BatchCount:       2,
		FinalTemperature: 24.5,
		SlowMixMinutes:   4,
		FastMixMinutes:   8,
		Texture:          models.TextureOK,
	}
}

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()

	svc := NewService(memory.NewStore(), nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateRejectsUnknownStage(t *testing.T) {
	svc := newTestService(t, time.Now())

	_, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: "proofing"})
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestCreateMixingStageRequiresAllFields(t *testing.T) {
	svc := newTestService(t, time.Now())

	mutations := []struct {
		name   string
		mutate func(*models.MixingFields)
	}{
		{"no recipe", func(m *models.MixingFields) { m.RecipeRef = "" }},
		{"no mixer", func(m *models.MixingFields) { m.MixerRef = "" }},
		{"zero batches", func(m *models.MixingFields) { m.BatchCount = 0 }},
		{"zero temperature", func(m *models.MixingFields) { m.FinalTemperature = 0 }},
		{"zero slow mix", func(m *models.MixingFields) { m.SlowMixMinutes = 0 }},
		{"zero fast mix", func(m *models.MixingFields) { m.FastMixMinutes = 0 }},
		{"bad texture", func(m *models.MixingFields) { m.Texture = "lumpy" }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			mixing := validMixing()
			tt.mutate(mixing)

			_, err := svc.Create(context.Background(), CreateInput{
				OrderID: "o1",
				Stage:   models.StageDoughMixing,
				Mixing:  mixing,
			})
			assert.ErrorIs(t, err, ErrMissingMixingFields)
		})
	}

	_, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageDoughMixing})
	assert.ErrorIs(t, err, ErrMissingMixingFields)
}

func TestCreateRejectsMixingFieldsOnOtherStages(t *testing.T) {
	svc := newTestService(t, time.Now())

	_, err := svc.Create(context.Background(), CreateInput{
		OrderID: "o1",
		Stage:   models.StageBaking,
		Mixing:  validMixing(),
	})
	assert.ErrorIs(t, err, ErrUnexpectedMixingFields)
}

func TestCreateOpensLog(t *testing.T) {
	now := time.Date(2026, 8, 30, 7, 30, 0, 0, time.UTC)
	svc := newTestService(t, now)

	log, err := svc.Create(context.Background(), CreateInput{
		OrderID:     "o1",
		Stage:       models.StageDoughMixing,
		OperatorRef: "amadou",
		Mixing:      validMixing(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, log.ID)
	assert.True(t, log.Open())
	assert.Equal(t, now, log.OpenedAt)
	assert.Equal(t, models.StageDoughMixing, log.Stage)
	require.NotNil(t, log.Mixing)
	assert.Equal(t, "recipe-baguette", log.Mixing.RecipeRef)
}

func TestCloseSetsTimestampAndOutput(t *testing.T) {
	opened := time.Date(2026, 8, 30, 7, 30, 0, 0, time.UTC)
	svc := newTestService(t, opened)

	log, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageFermentation})
	require.NoError(t, err)

	closedAt := opened.Add(2 * time.Hour)
	svc.now = func() time.Time { return closedAt }

	loss := 3.0
	closed, err := svc.Close(context.Background(), log.ID, CloseInput{OutputQuantity: 120, LossQuantity: &loss})
	require.NoError(t, err)

	assert.False(t, closed.Open())
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, closedAt, *closed.ClosedAt)
	assert.Equal(t, 120.0, closed.OutputQuantity)
	assert.Equal(t, 3.0, closed.LossQuantity)
}

func TestCloseRejectsClosedLog(t *testing.T) {
	svc := newTestService(t, time.Now())

	log, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageBaking})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), log.ID, CloseInput{OutputQuantity: 50})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), log.ID, CloseInput{OutputQuantity: 60})
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestFindOpenByOrder(t *testing.T) {
	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	first, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageDoughMixing, Mixing: validMixing()})
	require.NoError(t, err)

	open, err := svc.FindOpenByOrder(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	_, err = svc.Close(context.Background(), first.ID, CloseInput{OutputQuantity: 30})
	require.NoError(t, err)

	open, err = svc.FindOpenByOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestFindLastByOrderAndStage(t *testing.T) {
	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	first, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageDoughMixing, Mixing: validMixing()})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), first.ID, CloseInput{OutputQuantity: 2})
	require.NoError(t, err)

	// Second run of the same stage opened later wins.
	svc.now = func() time.Time { return now.Add(time.Hour) }
	second, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageDoughMixing, Mixing: validMixing()})
	require.NoError(t, err)

	last, found, err := svc.FindLastByOrderAndStage(context.Background(), "o1", models.StageDoughMixing)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, last.ID)

	_, found, err = svc.FindLastByOrderAndStage(context.Background(), "o1", models.StagePackaging)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindLastClosedByOrder(t *testing.T) {
	now := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)

	first, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageDoughMixing, Mixing: validMixing()})
	require.NoError(t, err)

	_, found, err := svc.FindLastClosedByOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.False(t, found)

	svc.now = func() time.Time { return now.Add(time.Hour) }
	_, err = svc.Close(context.Background(), first.ID, CloseInput{OutputQuantity: 10})
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(2 * time.Hour) }
	second, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", Stage: models.StageFermentation})
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(3 * time.Hour) }
	_, err = svc.Close(context.Background(), second.ID, CloseInput{OutputQuantity: 9})
	require.NoError(t, err)

	last, found, err := svc.FindLastClosedByOrder(context.Background(), "o1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, last.ID)
}
