package farm

import (
	"context"

	"berryfarm/internal/common"
	"berryfarm/internal/growth"
	"berryfarm/internal/store"
)

// irrigationFactor dampens the species dry rate by 10% per irrigation level.
// Levels clamp to [0, 5], so a fully upgraded farm dehydrates at half speed.
func irrigationFactor(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}
	return 1 - 0.1*float64(level)
}

// Sync applies the accrued simulation tick to every crop on the farm: pull
// the weather window from the checkpoint through now, decay moisture, adjust
// health against the window's most recent day, advance growth stages, then
// persist all crops and the new checkpoint in one transaction. Concurrent
// syncs of the same farm are serialized on a per-farm lock.
func (s *Service) Sync(ctx context.Context, farmID uint) (*store.Farm, error) {
	lock := s.farmLock(farmID)
	lock.Lock()
	defer lock.Unlock()

	farm, err := s.store.GetFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	elapsed := now.Sub(farm.LastCheckedAt)
	if elapsed <= 0 {
		return farm, nil
	}

	if len(farm.Crops) == 0 {
		if err := s.store.SaveSyncResult(ctx, farmID, now, nil); err != nil {
			return nil, err
		}
		farm.LastCheckedAt = now
		return farm, nil
	}

	summaries, err := s.weather.FetchRange(ctx, farm.LocationID, farm.LastCheckedAt, now)
	if err != nil {
		return nil, err
	}

	// The elapsed window is usually short, so the most recent day in range
	// stands in for the whole window's weather.
	today, ok := summaries[common.DateKey(now)]
	if !ok {
		for _, d := range common.DaysInRange(farm.LastCheckedAt, now) {
			if sum, present := summaries[common.DateKey(d)]; present {
				today = sum
			}
		}
	}

	for i := range farm.Crops {
		crop := &farm.Crops[i]
		profile := crop.Berry

		dryRate := profile.DryRate * irrigationFactor(farm.IrrigationLevel)
		crop.Moisture = growth.Moisture(crop.Moisture, dryRate, elapsed)
		crop.Health = growth.Health(crop.Health, crop.Moisture,
			profile.IdealTemp, profile.IdealCloud, today.AvgTemp, today.AvgCloud)
		crop.GrowthStage = growth.Stage(crop.GrowthStage, crop.PlantedAt, profile.GrowthTimeHours, now)
	}

	if err := s.store.SaveSyncResult(ctx, farmID, now, farm.Crops); err != nil {
		return nil, err
	}
	farm.LastCheckedAt = now

	s.log.Debug().Uint("farm", farmID).Int("crops", len(farm.Crops)).
		Dur("elapsed", elapsed).Msg("sync applied")
	return farm, nil
}
