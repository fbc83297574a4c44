// Package growth holds the pure crop simulation arithmetic: moisture decay,
// health adjustment, growth-stage advancement and harvest yield. No I/O; all
// functions are deterministic in their inputs.
package growth

import (
	"math"
	"time"

	"berryfarm/internal/apperrors"
)

const (
	// MaxStage is the terminal, harvest-ready growth stage.
	MaxStage = 4

	// MoistureNeutral is the moisture level that contributes nothing to
	// health; each point above adds one health point, each point below
	// removes one.
	MoistureNeutral = 75.0

	// WeatherFitMax is the health bonus when the day's averages match the
	// berry's ideal temperature and cloud cover exactly.
	WeatherFitMax = 3.5

	// WeatherFitSpan is the summed absolute deviation (temperature plus
	// cloud, both in their native units) at which the weather-fit bonus
	// reaches zero. Larger combined deviations push the term negative.
	// Tunable: only the zero-deviation and full-deviation points are fixed
	// by observed behavior; the linear shape between them is a choice.
	WeatherFitSpan = 200.0
)

// Moisture applies linear dehydration: dryRate percent per hour over the
// elapsed duration. Never returns a negative value.
func Moisture(current, dryRate float64, elapsed time.Duration) float64 {
	m := current - dryRate*elapsed.Hours()
	if m < 0 {
		return 0
	}
	return m
}

// Health combines the moisture contribution with the weather-fit bonus and
// clamps the result to [0, 100]. Out-of-range inputs are clamped, not
// rejected.
func Health(health, moisture, idealTemp, idealCloud, avgTemp, avgCloud float64) float64 {
	moistureTerm := moisture - MoistureNeutral

	deviation := math.Abs(avgTemp-idealTemp) + math.Abs(avgCloud-idealCloud)
	weatherFit := WeatherFitMax * (1 - deviation/WeatherFitSpan)

	return clamp(health+moistureTerm+weatherFit, 0, 100)
}

// Stage returns the growth stage after now: floor(elapsedHours/growthTimeHours)
// clamped to [0, MaxStage]. The stage never regresses below current; MaxStage
// is terminal.
func Stage(current int, plantedAt time.Time, growthTimeHours float64, now time.Time) int {
	if growthTimeHours <= 0 {
		return clampStage(current)
	}
	elapsed := now.Sub(plantedAt).Hours()
	stage := int(math.Floor(elapsed / growthTimeHours))
	if stage < current {
		stage = current
	}
	return clampStage(stage)
}

// HarvestYield converts health into harvested units: floor(health/100 · max).
func HarvestYield(health float64, maxHarvest int) int {
	h := clamp(health, 0, 100)
	return int(math.Floor(h / 100 * float64(maxHarvest)))
}

// Water adds amount to the current moisture. Watering is additive for
// ordinary callers; absolute overrides go through SetMoisture.
func Water(current, amount float64) float64 {
	m := current + amount
	if m < 0 {
		return 0
	}
	return m
}

// SetMoisture replaces the moisture level outright (administrative override).
func SetMoisture(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return amount
}

// MoistureArgs names the inputs to a moisture computation. Either both raw
// overrides are supplied, or neither is and the caller resolves them from a
// crop and its berry profile.
type MoistureArgs struct {
	Moisture *float64
	DryRate  *float64
}

// Resolve validates the override pair. Supplying exactly one of the two
// values is inconsistent and fails with InvalidArgument.
func (a MoistureArgs) Resolve(fallbackMoisture, fallbackDryRate float64) (moisture, dryRate float64, err error) {
	switch {
	case a.Moisture != nil && a.DryRate != nil:
		return *a.Moisture, *a.DryRate, nil
	case a.Moisture == nil && a.DryRate == nil:
		return fallbackMoisture, fallbackDryRate, nil
	default:
		return 0, 0, apperrors.InvalidArgument("moisture and dry rate overrides must be supplied together")
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampStage(s int) int {
	if s < 0 {
		return 0
	}
	if s > MaxStage {
		return MaxStage
	}
	return s
}
