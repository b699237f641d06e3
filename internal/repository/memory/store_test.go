package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func seedWarehouse(t *testing.T, s *Store, id, qty string) {
	t.Helper()
	require.NoError(t, s.CreateWarehouse(context.Background(), models.Warehouse{
		ID:        id,
		Name:      id,
		Unit:      "kg",
		Quantity:  d(qty),
		Kind:      models.WarehouseGlobal,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestCreateWarehouseRejectsDuplicateAndNegative(t *testing.T) {
	s := NewStore()
	seedWarehouse(t, s, "main", "100")

	err := s.CreateWarehouse(context.Background(), models.Warehouse{ID: "main", Quantity: d("1")})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = s.CreateWarehouse(context.Background(), models.Warehouse{ID: "neg", Quantity: d("-1")})
	assert.ErrorIs(t, err, repository.ErrInvalidQuantity)
}

func TestCompareAndSetQuantity(t *testing.T) {
	s := NewStore()
	seedWarehouse(t, s, "main", "100")

	require.NoError(t, s.CompareAndSetQuantity(context.Background(), "main", d("100"), d("70")))

	w, err := s.GetWarehouse(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, w.Quantity.Equal(d("70")))

	// A stale expected value must not win.
	err = s.CompareAndSetQuantity(context.Background(), "main", d("100"), d("40"))
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.CompareAndSetQuantity(context.Background(), "missing", d("1"), d("2"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = s.CompareAndSetQuantity(context.Background(), "main", d("70"), d("-5"))
	assert.ErrorIs(t, err, repository.ErrInvalidQuantity)

	w, err = s.GetWarehouse(context.Background(), "main")
	require.NoError(t, err)
	assert.True(t, w.Quantity.Equal(d("70")), "failed CAS calls must leave the quantity untouched")
}

func TestCompareAndSetQuantityEquivalentRepresentations(t *testing.T) {
	s := NewStore()
	seedWarehouse(t, s, "main", "10.50")

	// 10.5 and 10.50 are the same value; the CAS compares numerically.
	require.NoError(t, s.CompareAndSetQuantity(context.Background(), "main", d("10.5"), d("8")))
}

func TestAppendMovementAssignsMonotonicSeq(t *testing.T) {
	s := NewStore()

	var prev int64
	for i := 0; i < 4; i++ {
		m, err := s.AppendMovement(context.Background(), models.StockMovement{
			ID:         "m",
			Kind:       models.MovementTransfer,
			SourceID:   "a",
			DestID:     "b",
			Amount:     d("1"),
			RecordedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Greater(t, m.Seq, prev, "seq must strictly increase")
		prev = m.Seq
	}
}

func TestMovementHistoryCursorPaging(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		_, err := s.AppendMovement(context.Background(), models.StockMovement{
			Kind:     models.MovementTransfer,
			SourceID: "main",
			DestID:   "shed",
			Amount:   d("1"),
		})
		require.NoError(t, err)
	}
	// A movement that does not touch "main" must never show up in its history.
	_, err := s.AppendMovement(context.Background(), models.StockMovement{
		Kind:     models.MovementTransfer,
		SourceID: "other",
		DestID:   "shed2",
		Amount:   d("1"),
	})
	require.NoError(t, err)

	page1, err := s.MovementHistory(context.Background(), "main", 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, int64(5), page1[0].Seq)
	assert.Equal(t, int64(4), page1[1].Seq)

	page2, err := s.MovementHistory(context.Background(), "main", 2, page1[1].Seq)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, int64(3), page2[0].Seq)
	assert.Equal(t, int64(2), page2[1].Seq)

	page3, err := s.MovementHistory(context.Background(), "main", 2, page2[1].Seq)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, int64(1), page3[0].Seq)

	// Re-reading the same page returns the same movements.
	again, err := s.MovementHistory(context.Background(), "main", 2, page1[1].Seq)
	require.NoError(t, err)
	assert.Equal(t, page2, again)
}

func TestMovementsBetween(t *testing.T) {
	s := NewStore()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	// One movement the day before, two inside the window, one exactly on the
	// end boundary (excluded).
	for _, at := range []time.Time{
		day.Add(-time.Hour),
		day.Add(2 * time.Hour),
		day.Add(23 * time.Hour),
		day.Add(24 * time.Hour),
	} {
		_, err := s.AppendMovement(context.Background(), models.StockMovement{
			Kind:       models.MovementConsumption,
			SourceID:   "shed",
			Amount:     d("1"),
			RecordedAt: at,
		})
		require.NoError(t, err)
	}

	got, err := s.MovementsBetween(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCreateBatchEnforcesSingleActive(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.CreatePond(context.Background(), models.Pond{ID: "p1", Name: "P1"}))

	require.NoError(t, s.CreateBatch(context.Background(), models.FishBatch{
		ID:                "b1",
		PondID:            "p1",
		InitialPopulation: 500,
		Population:        500,
		AvgWeightGrams:    d("12"),
		Status:            models.BatchActive,
	}))

	err := s.CreateBatch(context.Background(), models.FishBatch{
		ID:     "b2",
		PondID: "p1",
		Status: models.BatchActive,
	})
	assert.ErrorIs(t, err, repository.ErrActiveBatchExists)

	err = s.CreateBatch(context.Background(), models.FishBatch{ID: "b3", PondID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	pond, err := s.GetPond(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), pond.Population, "stocking sets the pond population")
}

func TestCompareAndSetPopulationMirrorsActiveBatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.CreatePond(context.Background(), models.Pond{ID: "p1"}))
	require.NoError(t, s.CreateBatch(context.Background(), models.FishBatch{
		ID:                "b1",
		PondID:            "p1",
		InitialPopulation: 500,
		Population:        500,
		Status:            models.BatchActive,
	}))

	require.NoError(t, s.CompareAndSetPopulation(context.Background(), "p1", 500, 460))

	batch, err := s.ActiveBatch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(460), batch.Population)

	err = s.CompareAndSetPopulation(context.Background(), "p1", 500, 400)
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.CompareAndSetPopulation(context.Background(), "p1", 460, -1)
	assert.ErrorIs(t, err, repository.ErrInvalidQuantity)
}

func TestMortalityBetween(t *testing.T) {
	s := NewStore()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	for _, e := range []models.MortalityEvent{
		{ID: "e1", PondID: "p1", DeadCount: 10, RecordedAt: day.Add(time.Hour)},
		{ID: "e2", PondID: "p1", DeadCount: 5, RecordedAt: day.Add(5 * time.Hour)},
		{ID: "e3", PondID: "p1", DeadCount: 99, RecordedAt: day.Add(-time.Hour)},
	} {
		require.NoError(t, s.AppendMortality(context.Background(), e))
	}

	total, err := s.MortalityBetween(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
}
