package models

import "time"

// Order is a production order moving through the manufacturing stages.
type Order struct {
	ID              string     `bson:"_id" json:"id"`
	LotCode         string     `bson:"lot_code" json:"lot_code"`
	ProductRef      string     `bson:"product_ref" json:"product_ref"`
	PlannedQuantity float64    `bson:"planned_quantity" json:"planned_quantity"`
	Priority        Priority   `bson:"priority" json:"priority"`
	Status          Status     `bson:"status" json:"status"`
	TargetDate      *time.Time `bson:"target_date,omitempty" json:"target_date,omitempty"`
	OriginRef       string     `bson:"origin_ref,omitempty" json:"origin_ref,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
}

// OrderUpdate carries the mutable order fields; nil pointers leave the
// stored value untouched.
type OrderUpdate struct {
	Status          *Status
	Priority        *Priority
	PlannedQuantity *float64
	TargetDate      *time.Time
}
