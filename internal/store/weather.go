package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"berryfarm/internal/common"
)

// WeatherBetween returns the cached records for a location whose date falls
// in [start, end], both truncated to calendar days, ordered by date.
func (s *Store) WeatherBetween(ctx context.Context, locationID uint, start, end time.Time) ([]WeatherRecord, error) {
	var records []WeatherRecord
	err := s.db.WithContext(ctx).
		Where("location_id = ? AND date >= ? AND date <= ?",
			locationID, common.TruncateDay(start), common.TruncateDay(end)).
		Order("date").
		Find(&records).Error
	return records, err
}

// InsertWeatherRecords bulk-inserts newly fetched days. Records are
// idempotent reference data: a (location, date) that already exists is
// skipped, not treated as a failure, so concurrent backfills of the same
// range are benign.
func (s *Store) InsertWeatherRecords(ctx context.Context, records []WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		records[i].Date = common.TruncateDay(records[i].Date)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
