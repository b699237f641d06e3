package livestock

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/internal/repository/memory"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, 5, nil), store
}

func stockTestPond(t *testing.T, svc *Service, population int64, weight string) models.Pond {
	t.Helper()
	pond, err := svc.CreatePond(context.Background(), "P1", "shed")
	require.NoError(t, err)
	_, err = svc.StockPond(context.Background(), pond.ID, "tilapia", population, d(weight))
	require.NoError(t, err)
	return pond
}

func TestStockPondCreatesActiveBatch(t *testing.T) {
	svc, store := newTestService(t)
	pond := stockTestPond(t, svc, 500, "12")

	batch, err := svc.ActiveBatch(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchActive, batch.Status)
	assert.Equal(t, int64(500), batch.Population)
	assert.Equal(t, int64(500), batch.InitialPopulation)
	assert.True(t, batch.AvgWeightGrams.Equal(d("12")))

	stored, err := store.GetPond(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stored.Population)
}

func TestStockPondRejectsSecondActiveBatch(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 500, "12")

	_, err := svc.StockPond(context.Background(), pond.ID, "tilapia", 200, d("10"))
	assert.ErrorIs(t, err, repository.ErrActiveBatchExists)
}

func TestStockPondValidation(t *testing.T) {
	svc, _ := newTestService(t)
	pond, err := svc.CreatePond(context.Background(), "P1", "shed")
	require.NoError(t, err)

	_, err = svc.StockPond(context.Background(), pond.ID, "tilapia", 0, d("10"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.StockPond(context.Background(), pond.ID, "tilapia", 100, d("-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.StockPond(context.Background(), "missing", "tilapia", 100, d("10"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordBiometryUpdatesAverageWeight(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 500, "12")

	sample, err := svc.RecordBiometry(context.Background(), pond.ID, d("18.5"), 30, "weekly sample")
	require.NoError(t, err)
	assert.True(t, sample.AvgWeightGrams.Equal(d("18.5")))
	assert.Equal(t, 30, sample.SampleSize)

	batch, err := svc.ActiveBatch(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.True(t, batch.AvgWeightGrams.Equal(d("18.5")))
}

func TestRecordBiometryValidation(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 500, "12")

	_, err := svc.RecordBiometry(context.Background(), pond.ID, d("0"), 30, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordBiometry(context.Background(), pond.ID, d("-5"), 30, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordBiometry(context.Background(), pond.ID, d("15"), 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordBiometry(context.Background(), "missing", d("15"), 30, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordBiometryRequiresActiveBatch(t *testing.T) {
	svc, _ := newTestService(t)
	pond, err := svc.CreatePond(context.Background(), "P1", "shed")
	require.NoError(t, err)

	_, err = svc.RecordBiometry(context.Background(), pond.ID, d("15"), 30, "")
	assert.ErrorIs(t, err, ErrNoActiveBatch)
}

func TestRecordMortalityDecrementsPopulation(t *testing.T) {
	svc, store := newTestService(t)
	pond := stockTestPond(t, svc, 500, "100")

	event, err := svc.RecordMortality(context.Background(), pond.ID, 40, "oxygen drop")
	require.NoError(t, err)
	assert.Equal(t, int64(40), event.DeadCount)
	assert.Equal(t, "oxygen drop", event.Cause)

	stored, err := store.GetPond(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(460), stored.Population)

	batch, err := svc.ActiveBatch(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(460), batch.Population, "batch must mirror pond population")
}

func TestRecordMortalityExceedingPopulation(t *testing.T) {
	svc, store := newTestService(t)
	pond := stockTestPond(t, svc, 500, "100")

	_, err := svc.RecordMortality(context.Background(), pond.ID, 600, "oxygen")
	assert.ErrorIs(t, err, ErrInsufficientPopulation)

	stored, err := store.GetPond(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stored.Population, "population must be unchanged")
}

func TestRecordMortalityValidation(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 500, "100")

	_, err := svc.RecordMortality(context.Background(), pond.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordMortality(context.Background(), "missing", 5, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentMortalityReports(t *testing.T) {
	store := memory.NewStore()
	// A generous retry budget keeps this deterministic with five contenders.
	svc := NewService(store, 50, nil)
	pond := stockTestPond(t, svc, 1000, "100")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordMortality(context.Background(), pond.ID, 10, "handling")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.GetPond(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(950), stored.Population, "no mortality report may be lost")
}

func TestEstimateBiomassKg(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 500, "100")

	biomass, err := svc.EstimateBiomassKg(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.True(t, biomass.Equal(d("50")), "500 fish at 100 g are 50 kg, got %s", biomass)
}

func TestEstimateBiomassKgEmptyPond(t *testing.T) {
	svc, _ := newTestService(t)
	pond, err := svc.CreatePond(context.Background(), "P1", "shed")
	require.NoError(t, err)

	biomass, err := svc.EstimateBiomassKg(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.True(t, biomass.IsZero())
}

func TestEstimateBiomassKgTracksMortalityAndGrowth(t *testing.T) {
	svc, _ := newTestService(t)
	pond := stockTestPond(t, svc, 1000, "50")

	_, err := svc.RecordMortality(context.Background(), pond.ID, 200, "transport")
	require.NoError(t, err)
	_, err = svc.RecordBiometry(context.Background(), pond.ID, d("80"), 25, "")
	require.NoError(t, err)

	biomass, err := svc.EstimateBiomassKg(context.Background(), pond.ID)
	require.NoError(t, err)
	assert.True(t, biomass.Equal(d("64")), "800 fish at 80 g are 64 kg, got %s", biomass)
}
