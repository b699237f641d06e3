package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind enumerates the ways stock quantity changes.
type MovementKind string

const (
	MovementTransfer    MovementKind = "TRANSFER"
	MovementConsumption MovementKind = "CONSUMPTION"
	MovementAdjustment  MovementKind = "ADJUSTMENT"
)

// StockMovement is the append-only audit record of a quantity change.
// Movements are never mutated or deleted once appended; Seq is assigned by
// the store and increases monotonically, so it doubles as a history cursor.
type StockMovement struct {
	ID     string       `json:"id"`
	Kind   MovementKind `json:"kind"`
	// SourceID is empty for pure additive adjustments, DestID for
	// consumptions and negative adjustments.
	SourceID   string          `json:"source_id,omitempty"`
	DestID     string          `json:"dest_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	ActorID    string          `json:"actor_id"`
	Note       string          `json:"note,omitempty"`
	Seq        int64           `json:"seq"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Touches reports whether the movement involves the given warehouse on
// either side.
func (m StockMovement) Touches(warehouseID string) bool {
	return m.SourceID == warehouseID || m.DestID == warehouseID
}
