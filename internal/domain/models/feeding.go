package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedingEvent records a completed feeding for downstream reporting. The
// stock deduction itself lives in the matching CONSUMPTION movement.
type FeedingEvent struct {
	ID          string          `json:"id"`
	PondID      string          `json:"pond_id"`
	WarehouseID string          `json:"warehouse_id"`
	AmountKg    decimal.Decimal `json:"amount_kg"`
	ActorID     string          `json:"actor_id"`
	Notes       string          `json:"notes,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// Ration is the dosing engine's recommendation for a pond, exposed to
// operators as a pre-fill they may override.
type Ration struct {
	BiomassKg      decimal.Decimal `json:"biomass_kg"`
	AvgWeightGrams decimal.Decimal `json:"avg_weight_grams"`
	DailyKg        decimal.Decimal `json:"daily_kg"`
	PerMealKg      decimal.Decimal `json:"per_meal_kg"`
	MealsPerDay    int             `json:"meals_per_day"`
}
