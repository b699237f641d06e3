package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
)

// Store-level errors. Services wrap these into their own taxonomy; callers
// match with errors.Is.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a compare-and-set write lost a race: the stored
	// value no longer matched the expected one at write time.
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrInvalidQuantity indicates a write would have produced a negative
	// quantity; rejected before anything is stored.
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	// ErrDuplicate indicates a create collided with an existing entity.
	ErrDuplicate = errors.New("entity already exists")
	// ErrActiveBatchExists indicates a stocking attempt on a pond that
	// already holds an ACTIVE batch.
	ErrActiveBatchExists = errors.New("pond already has an active batch")
)

// WarehouseStore holds warehouse records and their quantities. The
// compare-and-set call is the sole quantity mutation primitive and the
// concurrency-control point for every higher-level stock operation.
type WarehouseStore interface {
	CreateWarehouse(ctx context.Context, w models.Warehouse) error
	GetWarehouse(ctx context.Context, id string) (models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)

	// CompareAndSetQuantity writes newQty only if the stored quantity still
	// equals expected at the moment of the write. Returns ErrConflict when a
	// concurrent mutation raced ahead, ErrInvalidQuantity when newQty is
	// negative (checked before any write) and ErrNotFound for unknown ids.
	CompareAndSetQuantity(ctx context.Context, id string, expected, newQty decimal.Decimal) error
}

// MovementLog is the append-only audit trail of stock changes. Appended
// movements are assigned a monotonically increasing sequence number which
// doubles as the history cursor.
type MovementLog interface {
	AppendMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error)

	// MovementHistory returns up to limit movements touching the warehouse,
	// newest first. A beforeSeq of 0 starts from the latest; otherwise only
	// movements with Seq < beforeSeq are returned, so repeated calls with
	// the same arguments against unchanged state yield identical pages.
	MovementHistory(ctx context.Context, warehouseID string, limit int, beforeSeq int64) ([]models.StockMovement, error)

	// MovementsBetween returns all movements recorded in [from, to), oldest
	// first. Used by reporting.
	MovementsBetween(ctx context.Context, from, to time.Time) ([]models.StockMovement, error)
}

// LivestockStore holds ponds, fish batches and their append-only event logs.
type LivestockStore interface {
	CreatePond(ctx context.Context, p models.Pond) error
	GetPond(ctx context.Context, id string) (models.Pond, error)
	ListPonds(ctx context.Context) ([]models.Pond, error)

	// CompareAndSetPopulation writes newPop to the pond only if the stored
	// population still equals expected, mirroring the value onto the ACTIVE
	// batch when one exists. Same contract as warehouse compare-and-set.
	CompareAndSetPopulation(ctx context.Context, pondID string, expected, newPop int64) error

	// CreateBatch stores a new ACTIVE batch and sets the pond population to
	// the batch's initial population. Fails with ErrActiveBatchExists when
	// the pond already has an ACTIVE batch.
	CreateBatch(ctx context.Context, b models.FishBatch) error
	ActiveBatch(ctx context.Context, pondID string) (models.FishBatch, error)
	SetBatchAvgWeight(ctx context.Context, batchID string, grams decimal.Decimal) error

	AppendBiometry(ctx context.Context, s models.BiometrySample) error
	AppendMortality(ctx context.Context, e models.MortalityEvent) error
	MortalityBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// FeedingLog records completed feedings for downstream reporting.
type FeedingLog interface {
	AppendFeeding(ctx context.Context, e models.FeedingEvent) error
}

// ReportStore persists aggregated daily reports.
type ReportStore interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Store is the full persistence surface the service layer is wired against.
type Store interface {
	WarehouseStore
	MovementLog
	LivestockStore
	FeedingLog
	ReportStore
}
