// Package conversion implements the quantity-conversion algebra between a
// product's native unit, base units, recipe-batches and trays. Everything
// here is pure; callers supply the per-product ratios on each call.
package conversion

import (
	"math"
	"strings"

	"github.com/mamadbah2/fournil/internal/domain/models"
)

// Label vocabularies are matched by case-insensitive substring so catalog
// spelling variance ("cx", "Caixas", "box of 12") still converts.
var (
	boxTokens  = []string{"caixa", "cx", "box", "caja"}
	packTokens = []string{"pacote", "pct", "pack", "fardo"}
)

// Result is the structured outcome of converting a planned quantity for a
// given stage. Value carries the stage's primary reading; the secondary
// views are always populated when computable.
type Result struct {
	Stage     models.Stage `json:"stage"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	BaseUnits float64      `json:"base_units"`
	Batches   int          `json:"batches"`
	Trays     float64      `json:"trays,omitempty"`
	HasTrays  bool         `json:"has_trays"`
	// MissingRecipeYield flags that no recipe is linked to the product, so
	// the batch figure is 0 and must be surfaced as a warning, not an error.
	MissingRecipeYield bool `json:"missing_recipe_yield,omitempty"`
}

// ToBaseUnits converts a quantity expressed in the product's native unit
// into individual base units. Unknown labels pass through unchanged.
func ToBaseUnits(quantity float64, ctx models.ConversionContext) float64 {
	label := strings.ToLower(strings.TrimSpace(ctx.UnitLabel))

	switch {
	case matchesAny(label, boxTokens) && ctx.UnitsPerBox > 0:
		return quantity * ctx.UnitsPerBox
	case matchesAny(label, packTokens) && ctx.UnitsPerPack > 0:
		return quantity * ctx.UnitsPerPack
	default:
		return quantity
	}
}

// ToRecipeBatches converts base units into whole recipe-batches, always
// rounding up: a partial batch still consumes a full mixing pass. Exact
// multiples do not over-round. The second return value is false when the
// product has no usable recipe yield; the caller must surface that as a
// warning rather than a silent zero.
func ToRecipeBatches(baseUnits float64, ctx models.ConversionContext) (int, bool) {
	if ctx.RecipeYield <= 0 {
		return 0, false
	}
	return int(math.Ceil(baseUnits / ctx.RecipeYield)), true
}

// ToTrays converts base units into trays. Trays are optional for some
// products: a missing capacity omits the figure without warning.
func ToTrays(baseUnits float64, ctx models.ConversionContext) (float64, bool) {
	if ctx.UnitsPerTray <= 0 {
		return 0, false
	}
	return baseUnits / ctx.UnitsPerTray, true
}

// Convert derives the quantity views a stage needs from the planned
// quantity. Dough-mixing reads in recipe-batches, fermentation and baking
// in trays (fractional trays are a physical load, not a mixing action, so
// no ceiling applies), packaging and planning in the product's native unit.
func Convert(stage models.Stage, plannedQuantity float64, ctx models.ConversionContext) Result {
	base := ToBaseUnits(plannedQuantity, ctx)
	batches, hasYield := ToRecipeBatches(base, ctx)
	trays, hasTrays := ToTrays(base, ctx)

	res := Result{
		Stage:              stage,
		BaseUnits:          base,
		Batches:            batches,
		Trays:              trays,
		HasTrays:           hasTrays,
		MissingRecipeYield: !hasYield,
	}

	switch stage {
	case models.StageDoughMixing:
		res.Value = float64(batches)
		res.Unit = "recipe-batches"
	case models.StageFermentation, models.StageBaking:
		if hasTrays {
			res.Value = trays
			res.Unit = "trays"
		} else {
			res.Value = base
			res.Unit = "units"
		}
	default:
		// Packaging and planning read in the product's native unit.
		res.Value = plannedQuantity
		res.Unit = ctx.UnitLabel
	}

	return res
}

func matchesAny(label string, tokens []string) bool {
	if label == "" {
		return false
	}
	for _, token := range tokens {
		if strings.Contains(label, token) {
			return true
		}
	}
	return false
}
