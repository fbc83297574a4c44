package farm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berryfarm/internal/common"
	"berryfarm/internal/store"
	"berryfarm/internal/weather"
)

func TestSyncAppliesTick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	crop := env.plant(t, "cheri", 0, 0)

	// cheri: dry rate 15/h, ideal 24C / 25% cloud, growth time 24h.
	// Perfect weather for two hours: moisture 100 -> 70, health
	// 100 + (70-75) + 3.5 = 98.5, stage still 0.
	env.weather.summaries = map[string]weather.DailySummary{
		common.DateKey(env.now.Add(2 * time.Hour)): {AvgTemp: 24, AvgCloud: 25},
	}
	env.advanceClock(2 * time.Hour)

	farm, err := env.farms.Sync(ctx, env.farm.ID)
	require.NoError(t, err)
	assert.True(t, farm.LastCheckedAt.Equal(env.now))
	assert.Equal(t, 1, env.weather.calls)

	got, err := env.store.GetCrop(ctx, crop.ID)
	require.NoError(t, err)
	assert.InDelta(t, 70, got.Moisture, 1e-9)
	assert.InDelta(t, 98.5, got.Health, 1e-9)
	assert.Equal(t, 0, got.GrowthStage)
}

func TestSyncAdvancesStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	crop := env.plant(t, "chesto", 1, 1) // growth time 72h

	env.advanceClock(80 * time.Hour)

	_, err := env.farms.Sync(ctx, env.farm.ID)
	require.NoError(t, err)

	got, err := env.store.GetCrop(ctx, crop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GrowthStage)
	// 80h at dry rate 10/h exhausts moisture; it clamps at zero.
	assert.InDelta(t, 0, got.Moisture, 1e-9)
}

func TestSyncIrrigationDampensDrying(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	crop := env.plant(t, "cheri", 0, 0)

	require.NoError(t, env.store.DB().Model(&store.Farm{}).Where("id = ?", env.farm.ID).
		Update("irrigation_level", 5).Error)

	env.advanceClock(2 * time.Hour)
	_, err := env.farms.Sync(ctx, env.farm.ID)
	require.NoError(t, err)

	// Level 5 halves the effective dry rate: 100 - 7.5*2 = 85.
	got, err := env.store.GetCrop(ctx, crop.ID)
	require.NoError(t, err)
	assert.InDelta(t, 85, got.Moisture, 1e-9)
}

func TestSyncFreshFarmIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.plant(t, "cheri", 0, 0)

	// Clock has not moved: nothing to apply, no weather pull.
	farm, err := env.farms.Sync(ctx, env.farm.ID)
	require.NoError(t, err)
	assert.True(t, farm.LastCheckedAt.Equal(env.now))
	assert.Equal(t, 0, env.weather.calls)
}

func TestSyncEmptyFarmAdvancesCheckpointOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.advanceClock(time.Hour)
	farm, err := env.farms.Sync(ctx, env.farm.ID)
	require.NoError(t, err)
	assert.True(t, farm.LastCheckedAt.Equal(env.now))
	assert.Equal(t, 0, env.weather.calls, "no crops means no weather needed")
}

func TestSyncSerializesPerFarm(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.plant(t, "cheri", 0, 0)
	env.advanceClock(time.Hour)

	// Racing syncs must not double-apply the tick: after both finish, the
	// crop reflects exactly one hour of decay.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.farms.Sync(ctx, env.farm.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f, _, err := env.farms.Get(ctx, env.farm.ID)
	require.NoError(t, err)
	require.Len(t, f.Crops, 1)
	assert.InDelta(t, 85, f.Crops[0].Moisture, 1e-9, "one hour at 15/h from 100")
}
