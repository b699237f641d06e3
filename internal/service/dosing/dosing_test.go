package dosing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestFeedingRateBrackets(t *testing.T) {
	cases := []struct {
		name   string
		weight string
		rate   string
	}{
		{"fry lower bound", "1", "0.08"},
		{"fry upper bound", "20", "0.08"},
		{"juvenile lower bound", "21", "0.05"},
		{"juvenile upper bound", "150", "0.05"},
		{"grower lower bound", "151", "0.03"},
		{"grower upper bound", "500", "0.03"},
		{"finisher", "501", "0.015"},
		{"large finisher", "1200", "0.015"},
		{"fractional weight", "20.5", "0.05"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := FeedingRate(d(tc.weight))
			require.NoError(t, err)
			assert.True(t, rate.Equal(d(tc.rate)), "weight %s: expected rate %s, got %s", tc.weight, tc.rate, rate)
		})
	}
}

func TestFeedingRateRejectsNonPositiveWeight(t *testing.T) {
	for _, weight := range []string{"0", "-10"} {
		_, err := FeedingRate(d(weight))
		assert.ErrorIs(t, err, ErrInvalidInput, "weight %s", weight)
	}
}

func TestDailyRationKg(t *testing.T) {
	// 50 kg of 100 g fish eat 5% of their mass per day.
	ration, err := DailyRationKg(d("50"), d("100"))
	require.NoError(t, err)
	assert.True(t, ration.Equal(d("2.5")), "expected 2.5, got %s", ration)
}

func TestDailyRationKgZeroBiomass(t *testing.T) {
	// An empty pond is a zero ration, not an error, even without a weight.
	ration, err := DailyRationKg(decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, ration.IsZero())
}

func TestDailyRationKgInvalidInputs(t *testing.T) {
	_, err := DailyRationKg(d("-1"), d("100"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DailyRationKg(d("50"), d("-100"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DailyRationKg(d("50"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDailyRationMonotonicInBiomass(t *testing.T) {
	weight := d("100")
	previous := decimal.Zero
	for _, biomass := range []string{"0", "1", "10", "50", "200", "1000"} {
		ration, err := DailyRationKg(d(biomass), weight)
		require.NoError(t, err)
		assert.True(t, ration.GreaterThanOrEqual(previous),
			"ration dropped from %s to %s at biomass %s", previous, ration, biomass)
		previous = ration
	}
}

func TestFeedingRateNonIncreasingAcrossBrackets(t *testing.T) {
	previous := decimal.NewFromInt(1)
	for _, weight := range []string{"5", "20", "21", "150", "151", "500", "501"} {
		rate, err := FeedingRate(d(weight))
		require.NoError(t, err)
		assert.True(t, rate.LessThanOrEqual(previous),
			"rate rose from %s to %s at weight %s", previous, rate, weight)
		previous = rate
	}
}

func TestPerMealRationKg(t *testing.T) {
	perMeal := PerMealRationKg(d("3"), 3)
	assert.True(t, perMeal.Equal(d("1")), "expected 1, got %s", perMeal)

	// Non-positive meal counts fall back to the default cadence.
	fallback := PerMealRationKg(d("3"), 0)
	assert.True(t, fallback.Equal(d("1")), "expected 1, got %s", fallback)
}

func TestEngineRecommend(t *testing.T) {
	engine := NewEngine(3)

	ration, err := engine.Recommend(d("50"), d("100"))
	require.NoError(t, err)

	assert.True(t, ration.DailyKg.Equal(d("2.5")), "daily: %s", ration.DailyKg)
	assert.Equal(t, 3, ration.MealsPerDay)
	assert.Equal(t, "0.8333", ration.PerMealKg.StringFixed(4))
	assert.True(t, ration.BiomassKg.Equal(d("50")))
}
