package farm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"berryfarm/internal/common"
	"berryfarm/internal/store"
	"berryfarm/internal/weather"
)

// LocationStorage is the slice of the store the location service needs.
type LocationStorage interface {
	CreateLocation(ctx context.Context, loc *store.Location) error
	GetLocation(ctx context.Context, id uint) (*store.Location, error)
	InsertWeatherRecords(ctx context.Context, records []store.WeatherRecord) error
}

// LocationService creates locations and primes their weather history with a
// contiguous pull. This is the one call site for the range-naive client
// FetchRange: a new location always wants its full recent window.
type LocationService struct {
	store       LocationStorage
	client      weather.Client
	historyDays int
	now         func() time.Time
	log         zerolog.Logger
}

func NewLocationService(st LocationStorage, client weather.Client, historyDays int, log zerolog.Logger) *LocationService {
	if historyDays <= 0 {
		historyDays = 7
	}
	return &LocationService{
		store:       st,
		client:      client,
		historyDays: historyDays,
		now:         time.Now,
		log:         log.With().Str("component", "locations").Logger(),
	}
}

// SetClock overrides the time source. Tests only.
func (s *LocationService) SetClock(now func() time.Time) { s.now = now }

// Create persists the location, then pulls and caches its recent weather
// history. A failed history pull does not fail creation; the cache backfills
// lazily on the first sync instead.
func (s *LocationService) Create(ctx context.Context, name, region, country string) (*store.Location, error) {
	loc := &store.Location{Name: name, Region: region, Country: country}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}

	end := common.TruncateDay(s.now())
	start := end.AddDate(0, 0, -(s.historyDays - 1))

	responses, err := s.client.FetchRange(ctx, loc.SearchQuery(), start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("location", loc.SearchQuery()).
			Msg("history prime failed; cache will backfill lazily")
		return loc, nil
	}

	records := make([]store.WeatherRecord, 0, len(responses))
	for _, resp := range responses {
		summary, err := weather.Summarize(resp)
		if err != nil {
			continue
		}
		date, err := weather.ParseDate(summary.Date)
		if err != nil {
			continue
		}
		records = append(records, store.WeatherRecord{
			LocationID:    loc.ID,
			Date:          date,
			AvgTemp:       summary.AvgTemp,
			AvgCloud:      summary.AvgCloud,
			TotalRainfall: summary.TotalRainfall,
		})
	}
	if err := s.store.InsertWeatherRecords(ctx, records); err != nil {
		s.log.Error().Err(err).Uint("location", loc.ID).Msg("history insert failed")
	}
	return loc, nil
}
