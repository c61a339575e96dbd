package models

// Progress is the completion readout for a production order. Percentages
// are not clamped: later stages yielding more than planned legitimately
// push PercentComplete above 100.
type Progress struct {
	OrderID            string  `json:"order_id"`
	LotCode            string  `json:"lot_code"`
	PlannedQuantity    float64 `json:"planned_quantity"`
	ProducedQuantity   float64 `json:"produced_quantity"`
	PercentComplete    float64 `json:"percent_complete"`
	BatchesProduced    float64 `json:"batches_produced"`
	BatchesRequired    int     `json:"batches_required"`
	BatchesRemaining   float64 `json:"batches_remaining"`
	MissingRecipeYield bool    `json:"missing_recipe_yield,omitempty"`
	CurrentStage       Stage   `json:"current_stage,omitempty"`
	NextStage          Stage   `json:"next_stage,omitempty"`
}
