// Package scheduler runs the background sweep that syncs farms whose
// checkpoint has gone stale, so long-idle farms do not accumulate unbounded
// weather windows before their owner's next visit.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"berryfarm/internal/farm"
)

// FarmLister yields the farms due for a sweep.
type FarmLister interface {
	ListFarmIDsCheckedBefore(ctx context.Context, cutoff time.Time) ([]uint, error)
}

// Sweeper periodically syncs stale farms.
type Sweeper struct {
	scheduler    *gocron.Scheduler
	farms        *farm.Service
	lister       FarmLister
	interval     time.Duration
	syncInterval time.Duration
	log          zerolog.Logger
}

func New(farms *farm.Service, lister FarmLister, interval, syncInterval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		scheduler:    gocron.NewScheduler(time.UTC),
		farms:        farms,
		lister:       lister,
		interval:     interval,
		syncInterval: syncInterval,
		log:          log.With().Str("component", "sweeper").Logger(),
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.syncInterval)
	ids, err := s.lister.ListFarmIDsCheckedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("listing stale farms failed")
		return
	}
	if len(ids) == 0 {
		return
	}

	s.log.Info().Int("farms", len(ids)).Msg("sweeping stale farms")
	for _, id := range ids {
		if _, err := s.farms.Sync(ctx, id); err != nil {
			s.log.Error().Err(err).Uint("farm", id).Msg("background sync failed")
		}
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
