package models

import "time"

// DailySummary is the aggregated production snapshot stored at the end of
// each reporting run.
type DailySummary struct {
	Date              time.Time `bson:"date" json:"date"`
	ActiveOrders      int       `bson:"active_orders" json:"active_orders"`
	OpenStages        int       `bson:"open_stages" json:"open_stages"`
	BatchesProduced   float64   `bson:"batches_produced" json:"batches_produced"`
	AverageCompletion float64   `bson:"average_completion" json:"average_completion"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
