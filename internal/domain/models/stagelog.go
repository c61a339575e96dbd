package models

import "time"

// TextureOutcome is the dough texture verdict after mixing.
type TextureOutcome string

const (
	TextureOK    TextureOutcome = "ok"
	TextureTears TextureOutcome = "tears"
)

// Valid reports whether the outcome is one of the known verdicts.
func (t TextureOutcome) Valid() bool {
	return t == TextureOK || t == TextureTears
}

// StageLog is one execution record of a stage against a production order.
// A log is open while ClosedAt is nil.
type StageLog struct {
	ID             string        `bson:"_id" json:"id"`
	OrderID        string        `bson:"order_id" json:"order_id"`
	Stage          Stage         `bson:"stage" json:"stage"`
	OperatorRef    string        `bson:"operator_ref,omitempty" json:"operator_ref,omitempty"`
	InputQuantity  *float64      `bson:"input_quantity,omitempty" json:"input_quantity,omitempty"`
	OutputQuantity float64       `bson:"output_quantity" json:"output_quantity"`
	LossQuantity   float64       `bson:"loss_quantity" json:"loss_quantity"`
	Quality        *QualityData  `bson:"quality,omitempty" json:"quality,omitempty"`
	Photos         []string      `bson:"photos,omitempty" json:"photos,omitempty"`
	Mixing         *MixingFields `bson:"mixing,omitempty" json:"mixing,omitempty"`
	OpenedAt       time.Time     `bson:"opened_at" json:"opened_at"`
	ClosedAt       *time.Time    `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// Open reports whether the stage execution is still running.
func (l StageLog) Open() bool {
	return l.ClosedAt == nil
}

// MixingFields are the dough-mixing specific attributes of a stage log.
// They are mandatory when the stage is dough-mixing and absent otherwise.
type MixingFields struct {
	RecipeRef        string         `bson:"recipe_ref" json:"recipe_ref"`
	MixerRef         string         `bson:"mixer_ref" json:"mixer_ref"`
	BatchCount       float64        `bson:"batch_count" json:"batch_count"`
	FinalTemperature float64        `bson:"final_temperature" json:"final_temperature"`
	SlowMixMinutes   float64        `bson:"slow_mix_minutes" json:"slow_mix_minutes"`
	FastMixMinutes   float64        `bson:"fast_mix_minutes" json:"fast_mix_minutes"`
	Texture          TextureOutcome `bson:"texture" json:"texture"`
}

// StageLogUpdate carries mutable stage-log fields; nil pointers leave the
// stored value untouched. ClearMixing nulls the mixing fields, leaving the
// log as an empty shell rather than deleting it.
type StageLogUpdate struct {
	OperatorRef    *string
	InputQuantity  *float64
	OutputQuantity *float64
	LossQuantity   *float64
	Quality        *QualityData
	Photos         []string
	Mixing         *MixingFields
	ClearMixing    bool
	ClosedAt       *time.Time
}
