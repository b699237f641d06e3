package models

import "time"

// DailyReport represents the aggregated daily farm data to be stored in MongoDB.
// Decimal figures are carried as canonical strings so the stored document is
// exact and queryable.
type DailyReport struct {
	Date             time.Time `bson:"date" json:"date"`
	TotalStockKg     string    `bson:"total_stock_kg" json:"total_stock_kg"`
	FeedConsumedKg   string    `bson:"feed_consumed_kg" json:"feed_consumed_kg"`
	TransferredKg    string    `bson:"transferred_kg" json:"transferred_kg"`
	TotalBiomassKg   string    `bson:"total_biomass_kg" json:"total_biomass_kg"`
	Mortality        int64     `bson:"mortality" json:"mortality"`
	LowStockWarnings int       `bson:"low_stock_warnings" json:"low_stock_warnings"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
