package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"berryfarm/internal/apperrors"
)

// GetFarm loads a farm with its crops and location.
func (s *Store) GetFarm(ctx context.Context, id uint) (*Farm, error) {
	var farm Farm
	err := s.db.WithContext(ctx).
		Preload("Crops.Berry").
		Preload("Location").
		First(&farm, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("farm %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &farm, nil
}

// CreateFarm inserts a farm with its checkpoint initialized to now.
func (s *Store) CreateFarm(ctx context.Context, farm *Farm) error {
	if farm.LastCheckedAt.IsZero() {
		farm.LastCheckedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(farm).Error
}

// ListFarmIDsCheckedBefore returns ids of farms whose checkpoint is older
// than cutoff. Used by the background sweep.
func (s *Store) ListFarmIDsCheckedBefore(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&Farm{}).
		Where("last_checked_at < ?", cutoff).
		Pluck("id", &ids).Error
	return ids, err
}

// SaveSyncResult persists the recomputed crops and advances the farm
// checkpoint in one transaction, so a tick is applied whole or not at all.
func (s *Store) SaveSyncResult(ctx context.Context, farmID uint, checkedAt time.Time, crops []Crop) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range crops {
			err := tx.Model(&Crop{}).
				Where("id = ?", crops[i].ID).
				Updates(map[string]any{
					"moisture":     crops[i].Moisture,
					"health":       crops[i].Health,
					"growth_stage": crops[i].GrowthStage,
				}).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&Farm{}).
			Where("id = ?", farmID).
			Update("last_checked_at", checkedAt).Error
	})
}

// GetCrop loads a crop with its berry profile and owning farm.
func (s *Store) GetCrop(ctx context.Context, id uint) (*Crop, error) {
	var crop Crop
	err := s.db.WithContext(ctx).
		Preload("Berry").
		First(&crop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("crop %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &crop, nil
}

// CreateCrop plants a crop. A (farm, x, y) collision maps to Conflict.
func (s *Store) CreateCrop(ctx context.Context, crop *Crop) error {
	err := s.db.WithContext(ctx).Create(crop).Error
	if err != nil && isUniqueViolation(err) {
		return apperrors.New(apperrors.KindConflict,
			"plot (%d,%d) on farm %d is already planted", crop.X, crop.Y, crop.FarmID)
	}
	return err
}

// UpdateCropMoisture persists a watering result.
func (s *Store) UpdateCropMoisture(ctx context.Context, id uint, moisture float64) error {
	return s.db.WithContext(ctx).
		Model(&Crop{}).
		Where("id = ?", id).
		Update("moisture", moisture).Error
}

// DeleteCrop removes a crop (harvest or manual removal).
func (s *Store) DeleteCrop(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&Crop{}, id).Error
}

// GetBerryProfile looks up the reference data for one species.
func (s *Store) GetBerryProfile(ctx context.Context, name string) (*BerryProfile, error) {
	var p BerryProfile
	err := s.db.WithContext(ctx).First(&p, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("berry profile %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetLocation looks up a location by id.
func (s *Store) GetLocation(ctx context.Context, id uint) (*Location, error) {
	var loc Location
	err := s.db.WithContext(ctx).First(&loc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("location %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// CreateLocation inserts a new location.
func (s *Store) CreateLocation(ctx context.Context, loc *Location) error {
	return s.db.WithContext(ctx).Create(loc).Error
}
