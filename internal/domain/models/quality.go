package models

// QualityData is the per-stage quality payload attached to a stage log.
// The Stage field discriminates which variant is populated, so each stage's
// shape stays statically known where it is built and consumed.
type QualityData struct {
	Stage        Stage                `bson:"stage" json:"stage"`
	Mixing       *MixingQuality       `bson:"mixing,omitempty" json:"mixing,omitempty"`
	Fermentation *FermentationQuality `bson:"fermentation,omitempty" json:"fermentation,omitempty"`
	Baking       *BakingQuality       `bson:"baking,omitempty" json:"baking,omitempty"`
	Packaging    *PackagingQuality    `bson:"packaging,omitempty" json:"packaging,omitempty"`
}

// MixingQuality captures dough condition after the mixing pass.
type MixingQuality struct {
	FinalTemperature float64        `bson:"final_temperature" json:"final_temperature"`
	Texture          TextureOutcome `bson:"texture" json:"texture"`
}

// FermentationQuality captures chamber conditions and rise outcome.
type FermentationQuality struct {
	RoomTemperature float64 `bson:"room_temperature" json:"room_temperature"`
	Humidity        float64 `bson:"humidity" json:"humidity"`
	VolumeDoubled   bool    `bson:"volume_doubled" json:"volume_doubled"`
}

// BakingQuality captures oven settings and crust verdict.
type BakingQuality struct {
	OvenTemperature float64 `bson:"oven_temperature" json:"oven_temperature"`
	BakeMinutes     float64 `bson:"bake_minutes" json:"bake_minutes"`
	CrustColor      string  `bson:"crust_color" json:"crust_color"`
}

// PackagingQuality captures the final inspection counts.
type PackagingQuality struct {
	SealOK        bool    `bson:"seal_ok" json:"seal_ok"`
	LabelOK       bool    `bson:"label_ok" json:"label_ok"`
	UnitsRejected float64 `bson:"units_rejected" json:"units_rejected"`
}
