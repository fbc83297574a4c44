package farm

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berryfarm/internal/common"
	"berryfarm/internal/store"
	"berryfarm/internal/weather"
)

type rangeClient struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *rangeClient) FetchDay(_ context.Context, _ string, date time.Time) (*weather.HistoryResponse, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.fail {
		return nil, errors.New("provider down")
	}
	return &weather.HistoryResponse{
		Location: weather.HistoryLocation{Name: "Pallet Town", Region: "Kanto", Country: "JP"},
		Forecast: weather.Forecast{ForecastDay: []weather.ForecastDay{{
			Date: common.DateKey(date),
			Day:  weather.DayAggregate{AvgTempC: 22, TotalPrecipMM: 0.4},
			Hour: []weather.HourRecord{{Cloud: 10}, {Cloud: 30}},
		}}},
	}, nil
}

func (c *rangeClient) FetchRange(ctx context.Context, query string, start, end time.Time) ([]*weather.HistoryResponse, error) {
	var out []*weather.HistoryResponse
	for _, d := range common.DaysInRange(start, end) {
		resp, err := c.FetchDay(ctx, query, d)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func newLocationEnv(t *testing.T, client weather.Client) (*store.Store, *LocationService) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	st := store.New(db, zerolog.Nop())

	svc := NewLocationService(st, client, 3, zerolog.Nop())
	svc.SetClock(func() time.Time {
		return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	})
	return st, svc
}

func TestCreateLocationPrimesHistory(t *testing.T) {
	client := &rangeClient{}
	st, svc := newLocationEnv(t, client)

	loc, err := svc.Create(context.Background(), "Pallet Town", "Kanto", "JP")
	require.NoError(t, err)
	assert.Equal(t, "Pallet Town, Kanto, JP", loc.SearchQuery())
	assert.Equal(t, 3, client.calls)

	rows, err := st.WeatherBetween(context.Background(), loc.ID,
		time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.InDelta(t, 22, rows[0].AvgTemp, 1e-9)
	assert.InDelta(t, 20, rows[0].AvgCloud, 1e-9, "mean of the hourly cloud readings")
}

func TestCreateLocationSurvivesProviderOutage(t *testing.T) {
	client := &rangeClient{fail: true}
	st, svc := newLocationEnv(t, client)

	// Creation must not fail when the history prime does; the cache
	// backfills lazily on the first sync instead.
	loc, err := svc.Create(context.Background(), "Pallet Town", "Kanto", "JP")
	require.NoError(t, err)
	require.NotZero(t, loc.ID)

	rows, err := st.WeatherBetween(context.Background(), loc.ID,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
