package store

import (
	"context"
	"strings"
	"time"
)

// PlantType classifies a plant's water appetite. Each type carries the share
// of pot volume poured per watering.
type PlantType string

const (
	PlantTypeSucculent PlantType = "SUCCULENT"
	PlantTypeTropical  PlantType = "TROPICAL"
	PlantTypeFern      PlantType = "FERN"
	PlantTypeConifer   PlantType = "CONIFER"
	PlantTypeDefault   PlantType = "DEFAULT"
)

// MinWaterPercent returns the lower bound of the watering share of pot volume.
func (t PlantType) MinWaterPercent() float64 {
	switch t {
	case PlantTypeSucculent:
		return 0.10
	case PlantTypeTropical:
		return 0.18
	case PlantTypeFern:
		return 0.15
	case PlantTypeConifer:
		return 0.10
	default:
		return 0.12
	}
}

// MaxWaterPercent returns the upper bound of the watering share of pot volume.
func (t PlantType) MaxWaterPercent() float64 {
	switch t {
	case PlantTypeSucculent:
		return 0.12
	case PlantTypeTropical:
		return 0.20
	case PlantTypeFern:
		return 0.18
	case PlantTypeConifer:
		return 0.14
	default:
		return 0.16
	}
}

// LitersPerM2 returns the outdoor baseline liters per square meter.
func (t PlantType) LitersPerM2() float64 {
	switch t {
	case PlantTypeSucculent:
		return 2.0
	case PlantTypeTropical:
		return 6.0
	case PlantTypeFern:
		return 5.0
	case PlantTypeConifer:
		return 3.5
	default:
		return 4.0
	}
}

// Title returns the Russian display name of the type.
func (t PlantType) Title() string {
	switch t {
	case PlantTypeSucculent:
		return "Суккулент"
	case PlantTypeTropical:
		return "Тропическое"
	case PlantTypeFern:
		return "Папоротник"
	case PlantTypeConifer:
		return "Хвойное"
	default:
		return "Обычное"
	}
}

// ParsePlantType maps free text to a PlantType, defaulting to DEFAULT.
func ParsePlantType(value string) PlantType {
	switch PlantType(strings.ToUpper(strings.TrimSpace(value))) {
	case PlantTypeSucculent:
		return PlantTypeSucculent
	case PlantTypeTropical:
		return PlantTypeTropical
	case PlantTypeFern:
		return PlantTypeFern
	case PlantTypeConifer:
		return PlantTypeConifer
	default:
		return PlantTypeDefault
	}
}

// Placement says where the plant lives.
type Placement string

const (
	PlacementIndoor  Placement = "INDOOR"
	PlacementOutdoor Placement = "OUTDOOR"
)

// SoilType describes outdoor bed soil.
type SoilType string

const (
	SoilSandy SoilType = "SANDY"
	SoilLoamy SoilType = "LOAMY"
	SoilClay  SoilType = "CLAY"
)

// Title returns the Russian display name of the soil type.
func (t SoilType) Title() string {
	switch t {
	case SoilSandy:
		return "Песчаный"
	case SoilLoamy:
		return "Суглинистый"
	case SoilClay:
		return "Глинистый"
	default:
		return string(t)
	}
}

// SunExposure describes outdoor light conditions.
type SunExposure string

const (
	SunFull         SunExposure = "FULL_SUN"
	SunPartialShade SunExposure = "PARTIAL_SHADE"
	SunShade        SunExposure = "SHADE"
)

// Title returns the Russian display name of the exposure.
func (e SunExposure) Title() string {
	switch e {
	case SunFull:
		return "Полное солнце"
	case SunPartialShade:
		return "Полутень"
	case SunShade:
		return "Тень"
	default:
		return string(e)
	}
}

// Plant represents a tracked plant.
type Plant struct {
	ID               int64
	UserID           int64
	Name             string
	Type             PlantType
	Placement        Placement
	PotVolumeLiters  float64
	OutdoorAreaM2    *float64
	SoilType         *SoilType
	SunExposure      *SunExposure
	Mulched          bool
	Perennial        bool
	WinterDormancy   bool
	BaseIntervalDays int
	LastWateredDate  time.Time
	LastReminderDate *time.Time
	LookupSource     string
	CreatedAt        time.Time
}

// IsOutdoor reports whether the plant lives outdoors.
func (p *Plant) IsOutdoor() bool {
	return p.Placement == PlacementOutdoor
}

// FindPlant is the filter for listing plants.
type FindPlant struct {
	ID     *int64
	UserID *int64
}

// UpdatePlant carries the mutable fields of a plant; nil fields are left
// untouched.
type UpdatePlant struct {
	ID               int64
	Name             *string
	Type             *PlantType
	SoilType         *SoilType
	SunExposure      *SunExposure
	Mulched          *bool
	BaseIntervalDays *int
	LastWateredDate  *time.Time
	LastReminderDate *time.Time
	LookupSource     *string

	// ClearLastReminderDate resets last_reminder_date to NULL; it wins over
	// LastReminderDate when both are set.
	ClearLastReminderDate bool
}

func (s *Store) CreatePlant(ctx context.Context, create *Plant) (*Plant, error) {
	return s.driver.CreatePlant(ctx, create)
}

func (s *Store) GetPlant(ctx context.Context, id int64) (*Plant, error) {
	return s.driver.GetPlant(ctx, id)
}

func (s *Store) ListPlants(ctx context.Context, find *FindPlant) ([]*Plant, error) {
	return s.driver.ListPlants(ctx, find)
}

func (s *Store) UpdatePlant(ctx context.Context, update *UpdatePlant) (*Plant, error) {
	return s.driver.UpdatePlant(ctx, update)
}

func (s *Store) DeletePlant(ctx context.Context, id int64) error {
	return s.driver.DeletePlant(ctx, id)
}
