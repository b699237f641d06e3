package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pond is a production unit holding one active fish batch at a time.
// Population is the authoritative livestock count; it only moves through
// stocking (set) and mortality events (decrement).
type Pond struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WarehouseID string    `json:"warehouse_id"` // feedings deduct from this warehouse
	Population  int64     `json:"population"`
	CreatedAt   time.Time `json:"created_at"`
}

// BatchStatus is the lifecycle state of a fish batch.
type BatchStatus string

const (
	BatchActive BatchStatus = "ACTIVE"
	BatchClosed BatchStatus = "CLOSED"
)

// FishBatch is a stocked cohort bound to a pond. At most one ACTIVE batch
// exists per pond; its current population mirrors pond mortality decrements.
type FishBatch struct {
	ID                string          `json:"id"`
	PondID            string          `json:"pond_id"`
	Species           string          `json:"species"`
	InitialPopulation int64           `json:"initial_population"`
	Population        int64           `json:"population"`
	AvgWeightGrams    decimal.Decimal `json:"avg_weight_grams"`
	Status            BatchStatus     `json:"status"`
	StockedAt         time.Time       `json:"stocked_at"`
}

// BiomassKg is the estimated live mass of the batch.
func (b FishBatch) BiomassKg() decimal.Decimal {
	return b.AvgWeightGrams.Mul(decimal.NewFromInt(b.Population)).Div(decimal.NewFromInt(1000))
}

// BiometrySample captures a periodic growth measurement. Append-only; the
// most recent sample's weight becomes the batch's current average weight.
type BiometrySample struct {
	ID             string          `json:"id"`
	PondID         string          `json:"pond_id"`
	BatchID        string          `json:"batch_id"`
	AvgWeightGrams decimal.Decimal `json:"avg_weight_grams"`
	SampleSize     int             `json:"sample_size"`
	Notes          string          `json:"notes,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// MortalityEvent records a loss incident against a pond's population.
type MortalityEvent struct {
	ID         string    `json:"id"`
	PondID     string    `json:"pond_id"`
	BatchID    string    `json:"batch_id"`
	DeadCount  int64     `json:"dead_count"`
	Cause      string    `json:"cause,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
