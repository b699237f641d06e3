package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
)

// Store is a mutex-guarded in-memory implementation of repository.Store.
// It backs tests and the MONGODB_URI-less dev mode. The mutex only covers
// individual store calls; callers still go through the compare-and-set cycle
// for every quantity or population change, exactly as against MongoDB.
type Store struct {
	mu         sync.RWMutex
	warehouses map[string]models.Warehouse
	ponds      map[string]models.Pond
	batches    map[string]models.FishBatch
	movements  []models.StockMovement
	biometry   []models.BiometrySample
	mortality  []models.MortalityEvent
	feedings   []models.FeedingEvent
	reports    []models.DailyReport
	nextSeq    int64
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		warehouses: make(map[string]models.Warehouse),
		ponds:      make(map[string]models.Pond),
		batches:    make(map[string]models.FishBatch),
	}
}

func (s *Store) CreateWarehouse(_ context.Context, w models.Warehouse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.warehouses[w.ID]; ok {
		return repository.ErrDuplicate
	}
	if w.Quantity.IsNegative() {
		return repository.ErrInvalidQuantity
	}
	s.warehouses[w.ID] = w
	return nil
}

func (s *Store) GetWarehouse(_ context.Context, id string) (models.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.warehouses[id]
	if !ok {
		return models.Warehouse{}, repository.ErrNotFound
	}
	return w, nil
}

func (s *Store) ListWarehouses(_ context.Context) ([]models.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Warehouse, 0, len(s.warehouses))
	for _, w := range s.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CompareAndSetQuantity(_ context.Context, id string, expected, newQty decimal.Decimal) error {
	if newQty.IsNegative() {
		return repository.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.warehouses[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !w.Quantity.Equal(expected) {
		return repository.ErrConflict
	}
	w.Quantity = newQty
	s.warehouses[id] = w
	return nil
}

func (s *Store) AppendMovement(_ context.Context, m models.StockMovement) (models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	m.Seq = s.nextSeq
	s.movements = append(s.movements, m)
	return m, nil
}

func (s *Store) MovementHistory(_ context.Context, warehouseID string, limit int, beforeSeq int64) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StockMovement
	for i := len(s.movements) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := s.movements[i]
		if !m.Touches(warehouseID) {
			continue
		}
		if beforeSeq > 0 && m.Seq >= beforeSeq {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) MovementsBetween(_ context.Context, from, to time.Time) ([]models.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.StockMovement
	for _, m := range s.movements {
		if m.RecordedAt.Before(from) || !m.RecordedAt.Before(to) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) CreatePond(_ context.Context, p models.Pond) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ponds[p.ID]; ok {
		return repository.ErrDuplicate
	}
	s.ponds[p.ID] = p
	return nil
}

func (s *Store) GetPond(_ context.Context, id string) (models.Pond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.ponds[id]
	if !ok {
		return models.Pond{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPonds(_ context.Context) ([]models.Pond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Pond, 0, len(s.ponds))
	for _, p := range s.ponds {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CompareAndSetPopulation(_ context.Context, pondID string, expected, newPop int64) error {
	if newPop < 0 {
		return repository.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ponds[pondID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Population != expected {
		return repository.ErrConflict
	}
	p.Population = newPop
	s.ponds[pondID] = p

	for id, b := range s.batches {
		if b.PondID == pondID && b.Status == models.BatchActive {
			b.Population = newPop
			s.batches[id] = b
		}
	}
	return nil
}

func (s *Store) CreateBatch(_ context.Context, b models.FishBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ponds[b.PondID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.batches {
		if existing.PondID == b.PondID && existing.Status == models.BatchActive {
			return repository.ErrActiveBatchExists
		}
	}

	s.batches[b.ID] = b
	p.Population = b.InitialPopulation
	s.ponds[b.PondID] = p
	return nil
}

func (s *Store) ActiveBatch(_ context.Context, pondID string) (models.FishBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.batches {
		if b.PondID == pondID && b.Status == models.BatchActive {
			return b, nil
		}
	}
	return models.FishBatch{}, repository.ErrNotFound
}

func (s *Store) SetBatchAvgWeight(_ context.Context, batchID string, grams decimal.Decimal) error {
	if grams.IsNegative() {
		return repository.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return repository.ErrNotFound
	}
	b.AvgWeightGrams = grams
	s.batches[batchID] = b
	return nil
}

func (s *Store) AppendBiometry(_ context.Context, sample models.BiometrySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.biometry = append(s.biometry, sample)
	return nil
}

func (s *Store) AppendMortality(_ context.Context, e models.MortalityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mortality = append(s.mortality, e)
	return nil
}

func (s *Store) MortalityBetween(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, e := range s.mortality {
		if e.RecordedAt.Before(from) || !e.RecordedAt.Before(to) {
			continue
		}
		total += e.DeadCount
	}
	return total, nil
}

func (s *Store) AppendFeeding(_ context.Context, e models.FeedingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedings = append(s.feedings, e)
	return nil
}

func (s *Store) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)
	return nil
}
