// Package weather serves day-indexed weather summaries for farm locations,
// reading the persisted cache and backfilling only the missing calendar days
// from the external provider.
package weather

import (
	"time"

	"berryfarm/internal/common"
)

// DailySummary is one location-day of weather, reduced to what the growth
// engine consumes.
type DailySummary struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	AvgTemp       float64 `json:"avgTemp"`
	AvgCloud      float64 `json:"avgCloud"`
	TotalRainfall float64 `json:"totalRainfall"`
	Name          string  `json:"name,omitempty"`
	Region        string  `json:"region,omitempty"`
	Country       string  `json:"country,omitempty"`
}

// HistoryResponse mirrors the provider's per-day history payload: location
// identity plus one forecast day carrying daily aggregates and 24 hourly
// records.
type HistoryResponse struct {
	Location HistoryLocation `json:"location"`
	Forecast Forecast        `json:"forecast"`
}

type HistoryLocation struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Localtime string `json:"localtime"`
}

type Forecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

type ForecastDay struct {
	Date string       `json:"date"`
	Day  DayAggregate `json:"day"`
	Hour []HourRecord `json:"hour"`
}

type DayAggregate struct {
	AvgTempC      float64 `json:"avgtemp_c"`
	TotalPrecipMM float64 `json:"totalprecip_mm"`
}

type HourRecord struct {
	TimeEpoch int64   `json:"time_epoch"`
	Cloud     float64 `json:"cloud"`
}

// ParseDate parses the provider's YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(common.DateLayout, s)
}
