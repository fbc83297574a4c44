package growth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berryfarm/internal/apperrors"
)

func TestMoisture(t *testing.T) {
	assert.InDelta(t, 70, Moisture(100, 15, 7200*time.Second), 1e-9)
	assert.InDelta(t, 63.75, Moisture(100, 15, 8700*time.Second), 1e-9)
	assert.InDelta(t, 0, Moisture(0, 20, 500*time.Second), 1e-9)

	// Decay past zero clamps instead of going negative.
	assert.InDelta(t, 0, Moisture(5, 100, 2*time.Hour), 1e-9)
	// Zero elapsed time is a no-op.
	assert.InDelta(t, 42.5, Moisture(42.5, 15, 0), 1e-9)
}

func TestHealthMoistureContribution(t *testing.T) {
	// Maximal weather deviation (100 temp + 100 cloud) zeroes the fit term,
	// isolating the moisture contribution.
	assert.InDelta(t, 25, Health(0, 100, 100, 100, 0, 0), 1e-9)
	assert.InDelta(t, 5, Health(0, 80, 100, 100, 0, 0), 1e-9)
	assert.InDelta(t, 0, Health(0, 75, 100, 100, 0, 0), 1e-9)
}

func TestHealthWeatherFit(t *testing.T) {
	// Perfect weather match at neutral moisture yields the full +3.5 bonus.
	assert.InDelta(t, 13.5, Health(10, 75, 1, 1, 1, 1), 1e-9)

	// The fit term decreases monotonically with deviation.
	base := Health(50, 75, 20, 40, 20, 40)
	closer := Health(50, 75, 20, 40, 25, 40)
	farther := Health(50, 75, 20, 40, 45, 40)
	assert.Greater(t, base, closer)
	assert.Greater(t, closer, farther)

	// Combined deviation beyond the span drags health down.
	assert.Less(t, Health(50, 75, 100, 100, -150, 0), 50.0)
}

func TestHealthClamping(t *testing.T) {
	assert.Equal(t, 100.0, Health(95, 100, 20, 40, 20, 40))
	assert.Equal(t, 0.0, Health(2, 0, 20, 40, 20, 40))
}

func TestStage(t *testing.T) {
	planted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		current int
		hours   float64
		want    int
	}{
		{"just planted", 0, 0.5, 0},
		{"one period elapsed", 0, 1, 1},
		{"mid second period", 0, 2.5, 1},
		{"terminal clamp", 0, 240, 4},
	}
	growthTime := 24.0
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := planted.Add(time.Duration(tc.hours*growthTime) * time.Hour)
			assert.Equal(t, tc.want, Stage(tc.current, planted, growthTime, now))
		})
	}

	// Stages never regress even if the clock reads earlier than expected.
	assert.Equal(t, 3, Stage(3, planted, growthTime, planted.Add(24*time.Hour)))
	// Stage 4 is terminal.
	assert.Equal(t, 4, Stage(4, planted, growthTime, planted.Add(10000*time.Hour)))
}

func TestHarvestYield(t *testing.T) {
	assert.Equal(t, 5, HarvestYield(100, 5))
	assert.Equal(t, 2, HarvestYield(50, 5))
	assert.Equal(t, 0, HarvestYield(0, 5))
	assert.Equal(t, 4, HarvestYield(99.9, 5))
}

func TestWaterPrimitives(t *testing.T) {
	// Additive for ordinary watering, absolute for admin overrides.
	assert.InDelta(t, 130, Water(100, 30), 1e-9)
	assert.InDelta(t, 12, SetMoisture(12), 1e-9)
	assert.InDelta(t, 0, SetMoisture(-3), 1e-9)
}

func TestMoistureArgsResolve(t *testing.T) {
	m, d := 40.0, 12.0

	gotM, gotD, err := MoistureArgs{Moisture: &m, DryRate: &d}.Resolve(100, 15)
	require.NoError(t, err)
	assert.Equal(t, 40.0, gotM)
	assert.Equal(t, 12.0, gotD)

	gotM, gotD, err = MoistureArgs{}.Resolve(100, 15)
	require.NoError(t, err)
	assert.Equal(t, 100.0, gotM)
	assert.Equal(t, 15.0, gotD)

	_, _, err = MoistureArgs{Moisture: &m}.Resolve(100, 15)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))

	_, _, err = MoistureArgs{DryRate: &d}.Resolve(100, 15)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidArgument))
}
