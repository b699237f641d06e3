package feeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/internal/service/dosing"
	"github.com/mamadbah2/aquafarm/internal/service/ledger"
)

// Ledger is the slice of the stock ledger the orchestrator needs.
type Ledger interface {
	Consume(ctx context.Context, warehouseID string, amount decimal.Decimal, actorID, note string) (models.StockMovement, error)
}

// Livestock is the slice of livestock state the orchestrator reads.
type Livestock interface {
	GetPond(ctx context.Context, pondID string) (models.Pond, error)
	EstimateBiomassKg(ctx context.Context, pondID string) (decimal.Decimal, error)
	ActiveBatch(ctx context.Context, pondID string) (models.FishBatch, error)
}

// Service orchestrates operator-recorded feedings: it validates the amount,
// deducts stock through the ledger, and writes the feeding event used by
// reporting. It owns no state of its own; ledger failures propagate
// unchanged and feeding never touches biomass or population.
type Service struct {
	ledger    Ledger
	livestock Livestock
	engine    dosing.Engine
	log       repository.FeedingLog
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the feeding orchestrator.
func NewService(ledgerSvc Ledger, livestockSvc Livestock, engine dosing.Engine, log repository.FeedingLog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:    ledgerSvc,
		livestock: livestockSvc,
		engine:    engine,
		log:       log,
		logger:    logger,
		now:       time.Now,
	}
}

// RecommendedRation computes the dosing engine's daily and per-meal
// recommendation for the pond. Informational only: operators may feed a
// different amount. An empty pond yields a zero ration.
func (s *Service) RecommendedRation(ctx context.Context, pondID string) (models.Ration, error) {
	if _, err := s.livestock.GetPond(ctx, pondID); err != nil {
		return models.Ration{}, err
	}

	biomass, err := s.livestock.EstimateBiomassKg(ctx, pondID)
	if err != nil {
		return models.Ration{}, err
	}
	if biomass.IsZero() {
		return models.Ration{MealsPerDay: s.engine.MealsPerDay}, nil
	}

	batch, err := s.livestock.ActiveBatch(ctx, pondID)
	if err != nil {
		return models.Ration{}, err
	}
	return s.engine.Recommend(biomass, batch.AvgWeightGrams)
}

// RecordFeeding deducts amountKg from the warehouse and appends a feeding
// event on success. The warehouse defaults to the pond's assigned one when
// warehouseID is empty.
func (s *Service) RecordFeeding(ctx context.Context, pondID, warehouseID string, amountKg decimal.Decimal, actorID, notes string) (models.FeedingEvent, error) {
	if !amountKg.IsPositive() {
		return models.FeedingEvent{}, fmt.Errorf("%w: feeding amount must be positive, got %s", ledger.ErrInvalidAmount, amountKg)
	}

	pond, err := s.livestock.GetPond(ctx, pondID)
	if err != nil {
		return models.FeedingEvent{}, err
	}
	if warehouseID == "" {
		warehouseID = pond.WarehouseID
	}

	movement, err := s.ledger.Consume(ctx, warehouseID, amountKg, actorID, fmt.Sprintf("feeding pond %s: %s", pond.Name, notes))
	if err != nil {
		return models.FeedingEvent{}, err
	}

	event := models.FeedingEvent{
		ID:          uuid.NewString(),
		PondID:      pondID,
		WarehouseID: warehouseID,
		AmountKg:    amountKg,
		ActorID:     actorID,
		Notes:       notes,
		RecordedAt:  s.now().UTC(),
	}
	if err := s.log.AppendFeeding(ctx, event); err != nil {
		// The stock deduction already happened and stays truthful through
		// its CONSUMPTION movement; only the reporting fact is missing.
		s.logger.Error("feeding event not recorded after consumption",
			zap.String("pond", pondID),
			zap.String("movement", movement.ID),
			zap.Error(err))
		return models.FeedingEvent{}, fmt.Errorf("append feeding event: %w", err)
	}

	s.logger.Info("feeding recorded",
		zap.String("pond", pondID),
		zap.String("warehouse", warehouseID),
		zap.String("amount_kg", amountKg.String()),
		zap.String("actor", actorID))
	return event, nil
}
