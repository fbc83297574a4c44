// Package farm orchestrates the simulation over persisted farms: the
// staleness-gated sync tick plus the player-facing plant/water/harvest
// operations that call into the growth engine.
package farm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"berryfarm/internal/apperrors"
	"berryfarm/internal/growth"
	"berryfarm/internal/store"
	"berryfarm/internal/weather"
)

// ErrFarmStale rejects a mutation attempted against a farm whose checkpoint
// is older than the sync interval. Staleness is an expected outcome, not a
// domain error: the caller must sync first so accrued decay is applied
// before any favorable mutation like watering.
var ErrFarmStale = errors.New("farm state is stale; sync required before mutating")

// Storage is the slice of the store the service needs.
type Storage interface {
	GetFarm(ctx context.Context, id uint) (*store.Farm, error)
	SaveSyncResult(ctx context.Context, farmID uint, checkedAt time.Time, crops []store.Crop) error
	GetCrop(ctx context.Context, id uint) (*store.Crop, error)
	CreateCrop(ctx context.Context, crop *store.Crop) error
	UpdateCropMoisture(ctx context.Context, id uint, moisture float64) error
	DeleteCrop(ctx context.Context, id uint) error
	GetBerryProfile(ctx context.Context, name string) (*store.BerryProfile, error)
}

// WeatherSource is satisfied by the weather cache.
type WeatherSource interface {
	FetchRange(ctx context.Context, locationID uint, start, end time.Time) (map[string]weather.DailySummary, error)
}

// Service owns the farm lifecycle. Sync is serialized per farm id: the tick
// is a read-modify-write over the whole farm, and concurrent ticks would lose
// updates without the keyed lock.
type Service struct {
	store        Storage
	weather      WeatherSource
	syncInterval time.Duration
	now          func() time.Time
	log          zerolog.Logger

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewService(st Storage, ws WeatherSource, syncInterval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		store:        st,
		weather:      ws,
		syncInterval: syncInterval,
		now:          time.Now,
		log:          log.With().Str("component", "farm").Logger(),
		locks:        make(map[uint]*sync.Mutex),
	}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) farmLock(id uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// IsStale reports whether the farm's last applied tick is older than the
// sync interval.
func (s *Service) IsStale(farm *store.Farm) bool {
	return s.now().Sub(farm.LastCheckedAt) > s.syncInterval
}

// Get returns the farm as persisted. Fresh reads are served directly; the
// second return value tells the caller whether a sync is required before
// mutating.
func (s *Service) Get(ctx context.Context, farmID uint) (*store.Farm, bool, error) {
	farm, err := s.store.GetFarm(ctx, farmID)
	if err != nil {
		return nil, false, err
	}
	return farm, s.IsStale(farm), nil
}

// guardFresh rejects mutations against a stale farm.
func (s *Service) guardFresh(farm *store.Farm) error {
	if s.IsStale(farm) {
		return ErrFarmStale
	}
	return nil
}

// Plant creates a crop at (x, y) on the farm. Coordinates must fall inside
// the farm's dimensions and be unoccupied; the species must exist.
func (s *Service) Plant(ctx context.Context, farmID uint, berryName string, x, y int) (*store.Crop, error) {
	farm, err := s.store.GetFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if err := s.guardFresh(farm); err != nil {
		return nil, err
	}
	if x < 0 || y < 0 || x >= farm.Length || y >= farm.Width {
		return nil, apperrors.InvalidArgument("plot (%d,%d) is outside the %dx%d farm", x, y, farm.Length, farm.Width)
	}
	if _, err := s.store.GetBerryProfile(ctx, berryName); err != nil {
		return nil, err
	}

	crop := &store.Crop{
		Moisture:    100,
		Health:      100,
		GrowthStage: 0,
		PlantedAt:   s.now(),
		BerryName:   berryName,
		FarmID:      farmID,
		X:           x,
		Y:           y,
	}
	if err := s.store.CreateCrop(ctx, crop); err != nil {
		return nil, err
	}
	return crop, nil
}

// Water adjusts a crop's moisture. Ordinary watering is additive; absolute
// overrides are reserved for administrative callers (the HTTP layer decides
// which one it is asking for).
func (s *Service) Water(ctx context.Context, cropID uint, amount float64, absolute bool) (*store.Crop, error) {
	crop, err := s.store.GetCrop(ctx, cropID)
	if err != nil {
		return nil, err
	}
	farm, err := s.store.GetFarm(ctx, crop.FarmID)
	if err != nil {
		return nil, err
	}
	if err := s.guardFresh(farm); err != nil {
		return nil, err
	}

	if absolute {
		crop.Moisture = growth.SetMoisture(amount)
	} else {
		crop.Moisture = growth.Water(crop.Moisture, amount)
	}
	if err := s.store.UpdateCropMoisture(ctx, cropID, crop.Moisture); err != nil {
		return nil, err
	}
	return crop, nil
}

// ProjectMoisture computes where a moisture level lands after elapsed time.
// Inputs come either from a crop reference or from an explicit
// moisture/dry-rate pair; a partial pair without a crop to fall back on is
// InvalidArgument.
func (s *Service) ProjectMoisture(ctx context.Context, cropID *uint, args growth.MoistureArgs, elapsed time.Duration) (float64, error) {
	var fallbackMoisture, fallbackDryRate float64
	if cropID != nil {
		crop, err := s.store.GetCrop(ctx, *cropID)
		if err != nil {
			return 0, err
		}
		profile, err := s.store.GetBerryProfile(ctx, crop.BerryName)
		if err != nil {
			return 0, err
		}
		fallbackMoisture, fallbackDryRate = crop.Moisture, profile.DryRate
	} else if args.Moisture == nil || args.DryRate == nil {
		return 0, apperrors.InvalidArgument("either a crop id or both moisture and dry rate are required")
	}

	moisture, dryRate, err := args.Resolve(fallbackMoisture, fallbackDryRate)
	if err != nil {
		return 0, err
	}
	return growth.Moisture(moisture, dryRate, elapsed), nil
}

// HarvestResult is what a harvest produced: the species and the unit count.
type HarvestResult struct {
	Berry string `json:"berry"`
	Yield int    `json:"yield"`
}

// Harvest collects a terminal-stage crop, returning the yield and deleting
// the crop. Harvesting before stage 4 is a user error.
func (s *Service) Harvest(ctx context.Context, cropID uint) (*HarvestResult, error) {
	crop, err := s.store.GetCrop(ctx, cropID)
	if err != nil {
		return nil, err
	}
	farm, err := s.store.GetFarm(ctx, crop.FarmID)
	if err != nil {
		return nil, err
	}
	if err := s.guardFresh(farm); err != nil {
		return nil, err
	}
	if crop.GrowthStage != growth.MaxStage {
		return nil, apperrors.InvalidArgument("crop %d is at growth stage %d; only stage %d crops can be harvested",
			cropID, crop.GrowthStage, growth.MaxStage)
	}

	profile, err := s.store.GetBerryProfile(ctx, crop.BerryName)
	if err != nil {
		return nil, err
	}
	yield := growth.HarvestYield(crop.Health, profile.MaxHarvest)
	if err := s.store.DeleteCrop(ctx, cropID); err != nil {
		return nil, err
	}
	return &HarvestResult{Berry: crop.BerryName, Yield: yield}, nil
}
