package store

import (
	"strings"
	"time"
)

// BerryProfile is immutable reference data for one berry species. Seeded at
// startup; the simulation never writes to it.
type BerryProfile struct {
	Name            string  `gorm:"primaryKey;size:50" json:"name"`
	GrowthTimeHours float64 `json:"growthTimeHours"`
	MaxHarvest      int     `json:"maxHarvest"`
	DryRate         float64 `json:"dryRate"` // percent moisture lost per hour
	IdealTemp       float64 `json:"idealTemp"`
	IdealCloud      float64 `json:"idealCloud"`
}

// Location is a named place, used both as the weather cache key and as the
// search term sent to the external provider.
type Location struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100" json:"name"`
	Region  string `gorm:"size:100" json:"region"`
	Country string `gorm:"size:100" json:"country"`
}

// SearchQuery builds the free-text string the weather provider expects.
func (l Location) SearchQuery() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Name, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Farm owns its crops; LastCheckedAt is the checkpoint of the last applied
// simulation tick.
type Farm struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Length          int       `json:"length"`
	Width           int       `json:"width"`
	IrrigationLevel int       `json:"irrigationLevel"` // 0-5, dampens dehydration
	LastCheckedAt   time.Time `json:"lastCheckedAt"`
	Owner           string    `gorm:"index;size:100" json:"owner"`
	LocationID      uint      `gorm:"index" json:"locationId"`
	Location        Location  `json:"-"`
	Crops           []Crop    `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE" json:"crops,omitempty"`
}

// Crop is the mutable simulation state for one planted berry. Grid
// coordinates are unique within the owning farm.
type Crop struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Moisture    float64      `json:"moisture"`
	Health      float64      `json:"health"`
	GrowthStage int          `json:"growthStage"` // 0-4, non-decreasing
	PlantedAt   time.Time    `json:"plantedAt"`
	BerryName   string       `gorm:"index;size:50" json:"berryName"`
	Berry       BerryProfile `gorm:"foreignKey:BerryName;references:Name" json:"-"`
	FarmID      uint         `gorm:"uniqueIndex:idx_crops_farm_plot" json:"farmId"`
	X           int          `gorm:"uniqueIndex:idx_crops_farm_plot" json:"x"`
	Y           int          `gorm:"uniqueIndex:idx_crops_farm_plot" json:"y"`
}

// WeatherRecord is one cached day of weather for a location. Written once by
// the backfill, never updated.
type WeatherRecord struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	LocationID    uint      `gorm:"uniqueIndex:idx_weather_location_date" json:"locationId"`
	Date          time.Time `gorm:"uniqueIndex:idx_weather_location_date" json:"date"`
	AvgTemp       float64   `json:"avgTemp"`
	AvgCloud      float64   `json:"avgCloud"`
	TotalRainfall float64   `json:"totalRainfall"`
}
