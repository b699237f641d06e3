// Package dosing computes recommended feed rations from pond biomass and the
// weight-indexed feeding-rate table. Everything here is pure: no stores, no
// side effects, so the reporting and feeding layers can call it freely.
package dosing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
)

// ErrInvalidInput indicates a negative biomass or a missing/non-positive
// average weight. Weights are never silently coerced into a bracket.
var ErrInvalidInput = errors.New("invalid dosing input")

// DefaultMealsPerDay is the observed feeding cadence on the farm.
const DefaultMealsPerDay = 3

// Smaller fish eat proportionally more relative to body mass, so the rate
// is non-increasing as the weight bracket rises.
var rateBrackets = []struct {
	maxWeightGrams decimal.Decimal
	rate           decimal.Decimal
}{
	{decimal.NewFromInt(20), decimal.NewFromFloat(0.08)},
	{decimal.NewFromInt(150), decimal.NewFromFloat(0.05)},
	{decimal.NewFromInt(500), decimal.NewFromFloat(0.03)},
}

// beyond the last bracket boundary
var topRate = decimal.NewFromFloat(0.015)

// FeedingRate returns the daily feed rate (fraction of biomass) for the given
// average individual weight.
func FeedingRate(avgWeightGrams decimal.Decimal) (decimal.Decimal, error) {
	if !avgWeightGrams.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: average weight must be positive, got %s", ErrInvalidInput, avgWeightGrams)
	}
	for _, bracket := range rateBrackets {
		if avgWeightGrams.LessThanOrEqual(bracket.maxWeightGrams) {
			return bracket.rate, nil
		}
	}
	return topRate, nil
}

// DailyRationKg computes the recommended daily feed mass. A zero biomass
// yields a zero ration rather than an error, so freshly emptied ponds report
// cleanly.
func DailyRationKg(biomassKg, avgWeightGrams decimal.Decimal) (decimal.Decimal, error) {
	if biomassKg.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: biomass must not be negative, got %s", ErrInvalidInput, biomassKg)
	}
	if biomassKg.IsZero() {
		return decimal.Zero, nil
	}
	rate, err := FeedingRate(avgWeightGrams)
	if err != nil {
		return decimal.Zero, err
	}
	return biomassKg.Mul(rate), nil
}

// PerMealRationKg splits a daily ration across the configured number of
// feedings. mealsPerDay <= 0 falls back to DefaultMealsPerDay.
func PerMealRationKg(dailyKg decimal.Decimal, mealsPerDay int) decimal.Decimal {
	if mealsPerDay <= 0 {
		mealsPerDay = DefaultMealsPerDay
	}
	return dailyKg.Div(decimal.NewFromInt(int64(mealsPerDay)))
}

// Engine bundles the meal cadence so callers get a full recommendation in
// one call.
type Engine struct {
	MealsPerDay int
}

// NewEngine builds an engine; mealsPerDay <= 0 falls back to the default.
func NewEngine(mealsPerDay int) Engine {
	if mealsPerDay <= 0 {
		mealsPerDay = DefaultMealsPerDay
	}
	return Engine{MealsPerDay: mealsPerDay}
}

// Recommend computes the daily and per-meal ration for the given biomass and
// average weight.
func (e Engine) Recommend(biomassKg, avgWeightGrams decimal.Decimal) (models.Ration, error) {
	daily, err := DailyRationKg(biomassKg, avgWeightGrams)
	if err != nil {
		return models.Ration{}, err
	}
	return models.Ration{
		BiomassKg:      biomassKg,
		AvgWeightGrams: avgWeightGrams,
		DailyKg:        daily,
		PerMealKg:      PerMealRationKg(daily, e.MealsPerDay),
		MealsPerDay:    e.MealsPerDay,
	}, nil
}
