package livestock

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

// ErrInvalidInput indicates a non-positive weight, sample size or count.
var ErrInvalidInput = errors.New("invalid livestock input")

// ErrInsufficientPopulation indicates a mortality report exceeding the
// pond's current population. Nothing is changed when it is returned.
var ErrInsufficientPopulation = errors.New("mortality exceeds current population")

// ErrNoActiveBatch indicates the pond has no ACTIVE fish batch.
var ErrNoActiveBatch = errors.New("pond has no active batch")

// ErrContention indicates concurrent population updates kept winning the
// compare-and-set race for the whole retry budget.
var ErrContention = errors.New("pond busy, please try again")

// Service owns pond population, fish batches and their append-only sample
// and mortality logs. Population is a concurrently-mutated counter and moves
// through the same compare-and-set retry discipline as warehouse stock.
type Service struct {
	store      repository.LivestockStore
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a livestock service instance.
func NewService(store repository.LivestockStore, maxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Service{
		store:      store,
		maxRetries: maxRetries,
		logger:     logger,
		now:        time.Now,
	}
}

// CreatePond registers a new production unit pointing at the warehouse its
// feedings deduct from.
func (s *Service) CreatePond(ctx context.Context, name, warehouseID string) (models.Pond, error) {
	if name == "" || warehouseID == "" {
		return models.Pond{}, fmt.Errorf("%w: name and warehouse id are required", ErrInvalidInput)
	}
	pond := models.Pond{
		ID:          uuid.NewString(),
		Name:        name,
		WarehouseID: warehouseID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreatePond(ctx, pond); err != nil {
		return models.Pond{}, fmt.Errorf("create pond: %w", err)
	}
	return pond, nil
}

// GetPond returns a pond by id.
func (s *Service) GetPond(ctx context.Context, pondID string) (models.Pond, error) {
	pond, err := s.store.GetPond(ctx, pondID)
	if err != nil {
		return models.Pond{}, fmt.Errorf("load pond %s: %w", pondID, err)
	}
	return pond, nil
}

// StockPond creates the pond's ACTIVE batch and sets its population. A pond
// holds at most one ACTIVE batch; a second stocking is rejected until the
// current batch is closed.
func (s *Service) StockPond(ctx context.Context, pondID, species string, count int64, avgWeightGrams decimal.Decimal) (models.FishBatch, error) {
	if count <= 0 {
		return models.FishBatch{}, fmt.Errorf("%w: stocking count must be positive, got %d", ErrInvalidInput, count)
	}
	if avgWeightGrams.IsNegative() {
		return models.FishBatch{}, fmt.Errorf("%w: average weight must not be negative, got %s", ErrInvalidInput, avgWeightGrams)
	}

	batch := models.FishBatch{
		ID:                uuid.NewString(),
		PondID:            pondID,
		Species:           species,
		InitialPopulation: count,
		Population:        count,
		AvgWeightGrams:    avgWeightGrams,
		Status:            models.BatchActive,
		StockedAt:         s.now().UTC(),
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return models.FishBatch{}, fmt.Errorf("stock pond %s: %w", pondID, err)
	}

	s.logger.Info("pond stocked",
		zap.String("pond", pondID),
		zap.String("species", species),
		zap.Int64("count", count))
	return batch, nil
}

// RecordBiometry appends a growth sample and moves the ACTIVE batch's
// average weight to the sampled value. This is the only writer of that field.
func (s *Service) RecordBiometry(ctx context.Context, pondID string, avgWeightGrams decimal.Decimal, sampleSize int, notes string) (models.BiometrySample, error) {
	if !avgWeightGrams.IsPositive() {
		return models.BiometrySample{}, fmt.Errorf("%w: average weight must be positive, got %s", ErrInvalidInput, avgWeightGrams)
	}
	if sampleSize <= 0 {
		return models.BiometrySample{}, fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidInput, sampleSize)
	}

	if _, err := s.store.GetPond(ctx, pondID); err != nil {
		return models.BiometrySample{}, fmt.Errorf("load pond %s: %w", pondID, err)
	}
	batch, err := s.store.ActiveBatch(ctx, pondID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.BiometrySample{}, fmt.Errorf("pond %s: %w", pondID, ErrNoActiveBatch)
	}
	if err != nil {
		return models.BiometrySample{}, fmt.Errorf("load active batch for pond %s: %w", pondID, err)
	}

	sample := models.BiometrySample{
		ID:             uuid.NewString(),
		PondID:         pondID,
		BatchID:        batch.ID,
		AvgWeightGrams: avgWeightGrams,
		SampleSize:     sampleSize,
		Notes:          notes,
		RecordedAt:     s.now().UTC(),
	}
	if err := s.store.AppendBiometry(ctx, sample); err != nil {
		return models.BiometrySample{}, fmt.Errorf("append biometry sample: %w", err)
	}
	if err := s.store.SetBatchAvgWeight(ctx, batch.ID, avgWeightGrams); err != nil {
		return models.BiometrySample{}, fmt.Errorf("update batch average weight: %w", err)
	}

	s.logger.Info("biometry recorded",
		zap.String("pond", pondID),
		zap.String("avg_weight_g", avgWeightGrams.String()),
		zap.Int("sample_size", sampleSize))
	return sample, nil
}

// RecordMortality decrements the pond population (and the mirrored ACTIVE
// batch count) by deadCount and appends a mortality record. The population
// write goes through compare-and-set with bounded retry since operators may
// report losses concurrently.
func (s *Service) RecordMortality(ctx context.Context, pondID string, deadCount int64, cause string) (models.MortalityEvent, error) {
	if deadCount <= 0 {
		return models.MortalityEvent{}, fmt.Errorf("%w: dead count must be positive, got %d", ErrInvalidInput, deadCount)
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		pond, err := s.store.GetPond(ctx, pondID)
		if err != nil {
			return models.MortalityEvent{}, fmt.Errorf("load pond %s: %w", pondID, err)
		}
		batch, err := s.store.ActiveBatch(ctx, pondID)
		if errors.Is(err, repository.ErrNotFound) {
			return models.MortalityEvent{}, fmt.Errorf("pond %s: %w", pondID, ErrNoActiveBatch)
		}
		if err != nil {
			return models.MortalityEvent{}, fmt.Errorf("load active batch for pond %s: %w", pondID, err)
		}

		if deadCount > pond.Population {
			return models.MortalityEvent{}, fmt.Errorf("%w: pond %s holds %d, reported %d dead",
				ErrInsufficientPopulation, pondID, pond.Population, deadCount)
		}

		err = s.store.CompareAndSetPopulation(ctx, pondID, pond.Population, pond.Population-deadCount)
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Debug("mortality update lost compare-and-set race, retrying",
				zap.String("pond", pondID), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.MortalityEvent{}, fmt.Errorf("decrement population of pond %s: %w", pondID, err)
		}

		event := models.MortalityEvent{
			ID:         uuid.NewString(),
			PondID:     pondID,
			BatchID:    batch.ID,
			DeadCount:  deadCount,
			Cause:      cause,
			RecordedAt: s.now().UTC(),
		}
		if err := s.store.AppendMortality(ctx, event); err != nil {
			return models.MortalityEvent{}, fmt.Errorf("append mortality event: %w", err)
		}

		s.logger.Info("mortality recorded",
			zap.String("pond", pondID),
			zap.Int64("dead", deadCount),
			zap.String("cause", cause))
		return event, nil
	}

	return models.MortalityEvent{}, fmt.Errorf("record mortality for pond %s: %w", pondID, ErrContention)
}

// EstimateBiomassKg returns population × average weight / 1000 for the
// pond's ACTIVE batch, or zero when the pond is empty.
func (s *Service) EstimateBiomassKg(ctx context.Context, pondID string) (decimal.Decimal, error) {
	if _, err := s.store.GetPond(ctx, pondID); err != nil {
		return decimal.Zero, fmt.Errorf("load pond %s: %w", pondID, err)
	}
	batch, err := s.store.ActiveBatch(ctx, pondID)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load active batch for pond %s: %w", pondID, err)
	}
	return batch.BiomassKg(), nil
}

// ActiveBatch exposes the pond's ACTIVE batch for read-only collaborators.
func (s *Service) ActiveBatch(ctx context.Context, pondID string) (models.FishBatch, error) {
	batch, err := s.store.ActiveBatch(ctx, pondID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.FishBatch{}, fmt.Errorf("pond %s: %w", pondID, ErrNoActiveBatch)
	}
	if err != nil {
		return models.FishBatch{}, fmt.Errorf("load active batch for pond %s: %w", pondID, err)
	}
	return batch, nil
}
