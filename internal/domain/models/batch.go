package models

import "time"

// Batch is one dough-mixing pass recorded against a dough-mixing stage log.
// The sum of BatchCount over a log's batches is mirrored into that log's
// output quantity after every mutation.
type Batch struct {
	ID             string            `bson:"_id" json:"id"`
	StageLogID     string            `bson:"stage_log_id" json:"stage_log_id"`
	RecipeRef      string            `bson:"recipe_ref" json:"recipe_ref"`
	MixerRef       string            `bson:"mixer_ref" json:"mixer_ref"`
	BatchCount     float64           `bson:"batch_count" json:"batch_count"`
	Temperature    float64           `bson:"temperature" json:"temperature"`
	Texture        TextureOutcome    `bson:"texture" json:"texture"`
	SlowMixMinutes float64           `bson:"slow_mix_minutes" json:"slow_mix_minutes"`
	FastMixMinutes float64           `bson:"fast_mix_minutes" json:"fast_mix_minutes"`
	Ingredients    []IngredientUsage `bson:"ingredients,omitempty" json:"ingredients,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
}

// IngredientUsage records standard versus actually weighed quantities for
// one ingredient of a mixing pass.
type IngredientUsage struct {
	IngredientRef    string  `bson:"ingredient_ref" json:"ingredient_ref"`
	StandardQuantity float64 `bson:"standard_quantity" json:"standard_quantity"`
	ActualQuantity   float64 `bson:"actual_quantity" json:"actual_quantity"`
	Unit             string  `bson:"unit" json:"unit"`
}

// BatchUpdate carries mutable batch fields; nil pointers leave the stored
// value untouched. A non-nil Ingredients slice replaces the stored list.
type BatchUpdate struct {
	RecipeRef      *string
	MixerRef       *string
	BatchCount     *float64
	Temperature    *float64
	Texture        *TextureOutcome
	SlowMixMinutes *float64
	FastMixMinutes *float64
	Ingredients    []IngredientUsage
}
