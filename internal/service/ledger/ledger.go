package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
)

// ErrInvalidAmount indicates the requested amount was not positive, or source
// and destination were the same warehouse.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientStock indicates the source warehouse does not hold enough
// stock for the requested operation. Nothing is changed when it is returned.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrContention indicates concurrent stock updates kept winning the
// compare-and-set race for the whole retry budget. The operation was not
// applied; retrying the user action is safe and expected.
var ErrContention = errors.New("stock busy, please try again")

// DefaultMaxRetries bounds the internal compare-and-set retry loop.
const DefaultMaxRetries = 5

const defaultHistoryLimit = 50

// Store is the persistence surface the ledger needs.
type Store interface {
	repository.WarehouseStore
	repository.MovementLog
}

// Service moves and consumes warehouse stock while preserving mass
// conservation and non-negativity, and leaves an append-only movement trail.
// Every quantity change goes through the store's compare-and-set primitive
// with a bounded retry loop; nothing here assumes exclusive ownership of a
// warehouse across more than one compare-and-set cycle.
type Service struct {
	store      Store
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a ledger instance. maxRetries <= 0 falls back to
// DefaultMaxRetries.
func NewService(store Store, maxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{
		store:      store,
		maxRetries: maxRetries,
		logger:     logger,
		now:        time.Now,
	}
}

// Transfer moves amount from the source warehouse to the destination
// warehouse. The two sides are updated with two separate compare-and-set
// writes; when the destination credit cannot be applied after the source
// debit already succeeded, the debit is compensated before returning so no
// mass is ever lost. A TRANSFER movement is appended only on full success.
func (s *Service) Transfer(ctx context.Context, sourceID, destID string, amount decimal.Decimal, actorID string) (models.StockMovement, error) {
	if !amount.IsPositive() {
		return models.StockMovement{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}
	if sourceID == destID {
		return models.StockMovement{}, fmt.Errorf("%w: source and destination must differ", ErrInvalidAmount)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		source, err := s.store.GetWarehouse(ctx, sourceID)
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("load source warehouse %s: %w", sourceID, err)
		}
		if _, err := s.store.GetWarehouse(ctx, destID); err != nil {
			return models.StockMovement{}, fmt.Errorf("load destination warehouse %s: %w", destID, err)
		}

		if source.Quantity.LessThan(amount) {
			return models.StockMovement{}, fmt.Errorf("%w: warehouse %s holds %s, need %s",
				ErrInsufficientStock, sourceID, source.Quantity, amount)
		}

		err = s.store.CompareAndSetQuantity(ctx, sourceID, source.Quantity, source.Quantity.Sub(amount))
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Debug("transfer debit lost compare-and-set race, retrying",
				zap.String("source", sourceID), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("debit source warehouse %s: %w", sourceID, err)
		}

		// The debit is applied. From here the transfer is partially applied
		// until the credit lands; it must be completed or compensated before
		// returning, never surfaced to the caller in this state.
		if err := s.casAdd(ctx, destID, amount); err != nil {
			s.logger.Warn("transfer credit failed after debit, compensating source",
				zap.String("source", sourceID), zap.String("dest", destID),
				zap.String("amount", amount.String()), zap.Error(err))
			if compErr := s.casAdd(ctx, sourceID, amount); compErr != nil {
				// The debit could not be restored either; surface both so
				// the operator can reconcile from the warehouse totals.
				return models.StockMovement{}, fmt.Errorf("credit destination %s failed (%w) and compensation failed: %v", destID, err, compErr)
			}
			return models.StockMovement{}, fmt.Errorf("credit destination warehouse %s: %w", destID, err)
		}

		return s.append(ctx, models.StockMovement{
			Kind:     models.MovementTransfer,
			SourceID: sourceID,
			DestID:   destID,
			Amount:   amount,
			ActorID:  actorID,
		})
	}

	return models.StockMovement{}, fmt.Errorf("transfer %s -> %s: %w", sourceID, destID, ErrContention)
}

// Consume deducts amount from the warehouse with no destination, appending a
// CONSUMPTION movement on success. Used by the feeding orchestrator.
func (s *Service) Consume(ctx context.Context, warehouseID string, amount decimal.Decimal, actorID, note string) (models.StockMovement, error) {
	if !amount.IsPositive() {
		return models.StockMovement{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		w, err := s.store.GetWarehouse(ctx, warehouseID)
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("load warehouse %s: %w", warehouseID, err)
		}

		if w.Quantity.LessThan(amount) {
			return models.StockMovement{}, fmt.Errorf("%w: warehouse %s holds %s, need %s",
				ErrInsufficientStock, warehouseID, w.Quantity, amount)
		}

		err = s.store.CompareAndSetQuantity(ctx, warehouseID, w.Quantity, w.Quantity.Sub(amount))
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Debug("consumption lost compare-and-set race, retrying",
				zap.String("warehouse", warehouseID), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("deduct warehouse %s: %w", warehouseID, err)
		}

		return s.append(ctx, models.StockMovement{
			Kind:     models.MovementConsumption,
			SourceID: warehouseID,
			Amount:   amount,
			ActorID:  actorID,
			Note:     note,
		})
	}

	return models.StockMovement{}, fmt.Errorf("consume from %s: %w", warehouseID, ErrContention)
}

// Adjust applies a manual correction. Delta may be negative, but the
// post-adjustment quantity must stay non-negative. Appends an ADJUSTMENT
// movement carrying the absolute delta, with the warehouse on the source
// side for removals and the destination side for additions.
func (s *Service) Adjust(ctx context.Context, warehouseID string, delta decimal.Decimal, actorID, note string) (models.StockMovement, error) {
	if delta.IsZero() {
		return models.StockMovement{}, fmt.Errorf("%w: delta must be non-zero", ErrInvalidAmount)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		w, err := s.store.GetWarehouse(ctx, warehouseID)
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("load warehouse %s: %w", warehouseID, err)
		}

		newQty := w.Quantity.Add(delta)
		if newQty.IsNegative() {
			return models.StockMovement{}, fmt.Errorf("%w: adjusting %s by %s would leave %s",
				repository.ErrInvalidQuantity, w.Quantity, delta, newQty)
		}

		err = s.store.CompareAndSetQuantity(ctx, warehouseID, w.Quantity, newQty)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return models.StockMovement{}, fmt.Errorf("adjust warehouse %s: %w", warehouseID, err)
		}

		movement := models.StockMovement{
			Kind:    models.MovementAdjustment,
			Amount:  delta.Abs(),
			ActorID: actorID,
			Note:    note,
		}
		if delta.IsNegative() {
			movement.SourceID = warehouseID
		} else {
			movement.DestID = warehouseID
		}
		return s.append(ctx, movement)
	}

	return models.StockMovement{}, fmt.Errorf("adjust %s: %w", warehouseID, ErrContention)
}

// History returns movements touching the warehouse, newest first. beforeSeq
// restarts the page below a previously returned sequence number; 0 starts
// from the latest. Read-only.
func (s *Service) History(ctx context.Context, warehouseID string, limit int, beforeSeq int64) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if _, err := s.store.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, fmt.Errorf("load warehouse %s: %w", warehouseID, err)
	}
	movements, err := s.store.MovementHistory(ctx, warehouseID, limit, beforeSeq)
	if err != nil {
		return nil, fmt.Errorf("load movement history for %s: %w", warehouseID, err)
	}
	return movements, nil
}

// casAdd credits amount onto a warehouse through its own compare-and-set
// retry loop. Credits cannot fail on insufficient stock, so conflicts are
// the only retryable outcome.
func (s *Service) casAdd(ctx context.Context, warehouseID string, amount decimal.Decimal) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		w, err := s.store.GetWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		err = s.store.CompareAndSetQuantity(ctx, warehouseID, w.Quantity, w.Quantity.Add(amount))
		if errors.Is(err, repository.ErrConflict) {
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %v", ErrContention, lastErr)
}

func (s *Service) append(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	m.ID = uuid.NewString()
	m.RecordedAt = s.now().UTC()

	appended, err := s.store.AppendMovement(ctx, m)
	if err != nil {
		return models.StockMovement{}, fmt.Errorf("append %s movement: %w", m.Kind, err)
	}

	s.logger.Info("stock movement recorded",
		zap.String("kind", string(appended.Kind)),
		zap.String("source", appended.SourceID),
		zap.String("dest", appended.DestID),
		zap.String("amount", appended.Amount.String()),
		zap.String("actor", appended.ActorID))
	return appended, nil
}
