// Package store persists the simulation schema (berry profiles, locations,
// farms, crops, cached weather records) behind a gorm/sqlite database.
package store

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" for tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&BerryProfile{},
		&Location{},
		&Farm{},
		&Crop{},
		&WeatherRecord{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return db, nil
}

// Store wraps the database handle with the queries the core needs.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

func New(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}
}

// DB exposes the underlying handle for wiring (migrations, tests).
func (s *Store) DB() *gorm.DB { return s.db }

// SeedBerryProfiles inserts the reference species, skipping names that
// already exist. Profiles are never updated after seeding.
func (s *Store) SeedBerryProfiles(profiles []BerryProfile) error {
	for _, p := range profiles {
		var existing BerryProfile
		err := s.db.Where(&BerryProfile{Name: p.Name}).Attrs(p).FirstOrCreate(&existing).Error
		if err != nil {
			return fmt.Errorf("seed berry profile %s: %w", p.Name, err)
		}
	}
	return nil
}

// DefaultBerryProfiles is the seed set used when the table is empty.
var DefaultBerryProfiles = []BerryProfile{
	{Name: "cheri", GrowthTimeHours: 24, MaxHarvest: 5, DryRate: 15, IdealTemp: 24, IdealCloud: 25},
	{Name: "chesto", GrowthTimeHours: 72, MaxHarvest: 5, DryRate: 10, IdealTemp: 18, IdealCloud: 70},
	{Name: "pecha", GrowthTimeHours: 72, MaxHarvest: 5, DryRate: 12, IdealTemp: 26, IdealCloud: 15},
	{Name: "rawst", GrowthTimeHours: 72, MaxHarvest: 5, DryRate: 9, IdealTemp: 14, IdealCloud: 60},
	{Name: "aspear", GrowthTimeHours: 72, MaxHarvest: 5, DryRate: 11, IdealTemp: 10, IdealCloud: 40},
}
