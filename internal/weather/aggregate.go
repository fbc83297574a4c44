package weather

import (
	"berryfarm/internal/apperrors"
)

// Summarize reduces one provider history payload to a DailySummary. Average
// cloud cover is the arithmetic mean of the hourly readings; temperature and
// rainfall come straight from the provider's own daily aggregates.
func Summarize(resp *HistoryResponse) (DailySummary, error) {
	if resp == nil || len(resp.Forecast.ForecastDay) == 0 {
		return DailySummary{}, apperrors.InvalidArgument("provider payload has no forecast day")
	}
	day := resp.Forecast.ForecastDay[0]

	var cloudSum float64
	for _, h := range day.Hour {
		cloudSum += h.Cloud
	}
	avgCloud := 0.0
	if len(day.Hour) > 0 {
		avgCloud = cloudSum / float64(len(day.Hour))
	}

	return DailySummary{
		Date:          day.Date,
		AvgTemp:       day.Day.AvgTempC,
		AvgCloud:      avgCloud,
		TotalRainfall: day.Day.TotalPrecipMM,
		Name:          resp.Location.Name,
		Region:        resp.Location.Region,
		Country:       resp.Location.Country,
	}, nil
}
