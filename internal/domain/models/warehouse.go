package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseKind distinguishes central stores from field distribution points.
type WarehouseKind string

const (
	// WarehouseGlobal is a central store replenished by suppliers.
	WarehouseGlobal WarehouseKind = "GLOBAL"
	// WarehouseSatellite is a field distribution point replenished from a GLOBAL warehouse.
	WarehouseSatellite WarehouseKind = "SATELLITE"
)

// Warehouse is a tracked feed stock location. Quantity is only ever mutated
// through the ledger's compare-and-set cycle, never written directly.
type Warehouse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit"` // mass unit, e.g. "kg"
	Quantity decimal.Decimal `json:"quantity"`
	Kind     WarehouseKind   `json:"kind"`
	// ParentID references the GLOBAL warehouse a SATELLITE is replenished
	// from. Empty for GLOBAL warehouses.
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSatellite reports whether the warehouse is a field distribution point.
func (w Warehouse) IsSatellite() bool {
	return w.Kind == WarehouseSatellite
}
