package models

// ConversionContext carries the per-product ratios needed to convert a
// planned quantity between units. It is supplied by the product catalog on
// every call and never cached by the engine.
type ConversionContext struct {
	UnitLabel    string  `json:"unit_label"`
	UnitsPerBox  float64 `json:"units_per_box"`
	UnitsPerPack float64 `json:"units_per_pack"`
	UnitsPerTray float64 `json:"units_per_tray"`
	RecipeYield  float64 `json:"recipe_yield"`
}
