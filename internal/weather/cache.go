package weather

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"berryfarm/internal/apperrors"
	"berryfarm/internal/common"
	"berryfarm/internal/store"
)

// RecordStore is the slice of the persistence layer the cache reads and
// backfills.
type RecordStore interface {
	WeatherBetween(ctx context.Context, locationID uint, start, end time.Time) ([]store.WeatherRecord, error)
	InsertWeatherRecords(ctx context.Context, records []store.WeatherRecord) error
}

// LocationLookup resolves a location id to its provider search string.
type LocationLookup interface {
	GetLocation(ctx context.Context, id uint) (*store.Location, error)
}

// Cache serves inclusive date ranges of weather summaries from storage,
// calling the provider only for the calendar days that are missing.
type Cache struct {
	records   RecordStore
	locations LocationLookup
	client    Client
	log       zerolog.Logger

	// backfill tracks detached insert goroutines so shutdown and tests can
	// wait for them.
	backfill sync.WaitGroup
}

func NewCache(records RecordStore, locations LocationLookup, client Client, log zerolog.Logger) *Cache {
	return &Cache{
		records:   records,
		locations: locations,
		client:    client,
		log:       log.With().Str("component", "weather-cache").Logger(),
	}
}

// FetchRange returns one DailySummary per calendar day in [start, end],
// keyed YYYY-MM-DD. Dates are truncated to server-local days before
// comparison. A range fully covered by persisted records issues zero
// provider calls; otherwise exactly one call per missing date, concurrently.
// Any terminal per-day failure fails the whole range; successfully fetched
// peers are still persisted best-effort but not returned.
func (c *Cache) FetchRange(ctx context.Context, locationID uint, start, end time.Time) (map[string]DailySummary, error) {
	start = common.TruncateDay(start)
	end = common.TruncateDay(end)
	if end.Before(start) {
		return nil, apperrors.InvalidArgument("end date %s precedes start date %s",
			common.DateKey(end), common.DateKey(start))
	}

	rows, err := c.records.WeatherBetween(ctx, locationID, start, end)
	if err != nil {
		return nil, err
	}

	result := make(map[string]DailySummary, common.DaysBetween(start, end)+1)
	for _, r := range rows {
		result[common.DateKey(r.Date)] = DailySummary{
			Date:          common.DateKey(r.Date),
			AvgTemp:       r.AvgTemp,
			AvgCloud:      r.AvgCloud,
			TotalRainfall: r.TotalRainfall,
		}
	}

	expected := common.DaysBetween(start, end) + 1
	if len(rows) >= expected {
		return result, nil
	}

	// Per-date membership, not a count heuristic: disjoint gaps are each
	// detected independently.
	var missing []time.Time
	for _, d := range common.DaysInRange(start, end) {
		if _, ok := result[common.DateKey(d)]; !ok {
			missing = append(missing, d)
		}
	}

	loc, err := c.locations.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	query := loc.SearchQuery()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetched  []store.WeatherRecord
		firstErr error
	)

	for _, d := range missing {
		wg.Add(1)
		go func(day time.Time) {
			defer wg.Done()

			resp, err := c.client.FetchDay(ctx, query, day)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			summary, err := Summarize(resp)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			result[common.DateKey(day)] = summary
			fetched = append(fetched, store.WeatherRecord{
				LocationID:    locationID,
				Date:          day,
				AvgTemp:       summary.AvgTemp,
				AvgCloud:      summary.AvgCloud,
				TotalRainfall: summary.TotalRainfall,
			})
			mu.Unlock()
		}(d)
	}
	wg.Wait()

	// Best-effort cache population: the insert runs detached so the caller
	// never waits on it, and duplicate keys are no-ops at the store layer.
	if len(fetched) > 0 {
		c.backfill.Add(1)
		go func(records []store.WeatherRecord) {
			defer c.backfill.Done()
			bctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.records.InsertWeatherRecords(bctx, records); err != nil {
				c.log.Error().Err(err).Uint("location", locationID).
					Int("records", len(records)).Msg("weather backfill insert failed")
			}
		}(fetched)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// WaitForBackfill blocks until pending detached inserts finish. Tests and
// graceful shutdown use it; request paths never do.
func (c *Cache) WaitForBackfill() {
	c.backfill.Wait()
}
