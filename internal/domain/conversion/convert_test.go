package conversion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/fournil/internal/domain/models"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		ctx      models.ConversionContext
		want     float64
	}{
		{
			name:     "box label multiplies by units per box",
			quantity: 250,
			ctx:      models.ConversionContext{UnitLabel: "cx", UnitsPerBox: 12},
			want:     3000,
		},
		{
			name:     "pluralized box label still matches",
			quantity: 10,
			ctx:      models.ConversionContext{UnitLabel: "Caixas", UnitsPerBox: 6},
			want:     60,
		},
		{
			name:     "pack label multiplies by units per pack",
			quantity: 5,
			ctx:      models.ConversionContext{UnitLabel: "pacote", UnitsPerPack: 10},
			want:     50,
		},
		{
			name:     "box label without ratio passes through",
			quantity: 7,
			ctx:      models.ConversionContext{UnitLabel: "box"},
			want:     7,
		},
		{
			name:     "unknown label passes through",
			quantity: 42,
			ctx:      models.ConversionContext{UnitLabel: "kg", UnitsPerBox: 12, UnitsPerPack: 10},
			want:     42,
		},
		{
			name:     "empty label passes through",
			quantity: 3,
			ctx:      models.ConversionContext{UnitsPerBox: 12},
			want:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToBaseUnits(tt.quantity, tt.ctx))
		})
	}
}

func TestToBaseUnitsRoundTrip(t *testing.T) {
	ctx := models.ConversionContext{UnitLabel: "caixa", UnitsPerBox: 17}
	for _, planned := range []float64{1, 2.5, 30, 123.456} {
		base := ToBaseUnits(planned, ctx)
		assert.InDelta(t, planned, base/ctx.UnitsPerBox, 1e-9)
	}
}

func TestToRecipeBatchesCeiling(t *testing.T) {
	ctx := models.ConversionContext{RecipeYield: 100}

	tests := []struct {
		base float64
		want int
	}{
		{base: 100, want: 1}, // exact multiple must not over-round
		{base: 100.01, want: 2},
		{base: 1, want: 1},
		{base: 0, want: 0},
		{base: 250, want: 3},
		{base: 3000, want: 30},
	}

	for _, tt := range tests {
		got, ok := ToRecipeBatches(tt.base, ctx)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "base=%v", tt.base)
	}
}

func TestToRecipeBatchesMatchesCeil(t *testing.T) {
	yields := []float64{7, 50, 100, 333}
	units := []float64{0, 1, 49.5, 100, 101, 999.25, 5000}

	for _, y := range yields {
		ctx := models.ConversionContext{RecipeYield: y}
		for _, u := range units {
			got, ok := ToRecipeBatches(u, ctx)
			assert.True(t, ok)
			assert.Equal(t, int(math.Ceil(u/y)), got, "u=%v y=%v", u, y)
		}
	}
}

func TestToRecipeBatchesMissingYield(t *testing.T) {
	for _, yield := range []float64{0, -5} {
		got, ok := ToRecipeBatches(500, models.ConversionContext{RecipeYield: yield})
		assert.False(t, ok)
		assert.Zero(t, got)
	}
}

func TestToTrays(t *testing.T) {
	trays, ok := ToTrays(90, models.ConversionContext{UnitsPerTray: 20})
	assert.True(t, ok)
	assert.Equal(t, 4.5, trays)

	_, ok = ToTrays(90, models.ConversionContext{})
	assert.False(t, ok)
}

func TestConvertDoughMixing(t *testing.T) {
	// 250 boxes of 12 with a yield of 100 units per batch needs 30 passes.
	ctx := models.ConversionContext{UnitLabel: "cx", UnitsPerBox: 12, UnitsPerTray: 60, RecipeYield: 100}

	res := Convert(models.StageDoughMixing, 250, ctx)
	assert.Equal(t, 3000.0, res.BaseUnits)
	assert.Equal(t, 30, res.Batches)
	assert.Equal(t, 30.0, res.Value)
	assert.Equal(t, "recipe-batches", res.Unit)
	assert.True(t, res.HasTrays)
	assert.Equal(t, 50.0, res.Trays)
	assert.False(t, res.MissingRecipeYield)
}

func TestConvertTrayStages(t *testing.T) {
	ctx := models.ConversionContext{UnitLabel: "un", UnitsPerTray: 40, RecipeYield: 100}

	for _, stage := range []models.Stage{models.StageFermentation, models.StageBaking} {
		res := Convert(stage, 90, ctx)
		assert.Equal(t, 2.25, res.Value, "fractional trays stay fractional")
		assert.Equal(t, "trays", res.Unit)
	}

	// Without a tray capacity the stage falls back to base units.
	res := Convert(models.StageBaking, 90, models.ConversionContext{UnitLabel: "un", RecipeYield: 100})
	assert.False(t, res.HasTrays)
	assert.Equal(t, 90.0, res.Value)
	assert.Equal(t, "units", res.Unit)
}

func TestConvertPackaging(t *testing.T) {
	ctx := models.ConversionContext{UnitLabel: "cx", UnitsPerBox: 12, UnitsPerTray: 60, RecipeYield: 100}

	res := Convert(models.StagePackaging, 250, ctx)
	assert.Equal(t, 250.0, res.Value)
	assert.Equal(t, "cx", res.Unit)
	assert.Equal(t, 30, res.Batches)
	assert.Equal(t, 50.0, res.Trays)
}

func TestConvertMissingYieldIsWarningNotError(t *testing.T) {
	res := Convert(models.StageDoughMixing, 120, models.ConversionContext{UnitLabel: "un"})
	assert.True(t, res.MissingRecipeYield)
	assert.Zero(t, res.Batches)
	assert.Zero(t, res.Value)
}
