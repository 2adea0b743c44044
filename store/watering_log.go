package store

import (
	"context"
	"time"
)

// learningWindow caps how much history the learning queries read.
const learningWindow = 20

// WateringLog represents one confirmed watering. Append-only.
type WateringLog struct {
	ID                      int64
	PlantID                 int64
	WateredAt               time.Time
	RecommendedIntervalDays *float64
	RecommendedWaterLiters  *float64
	TemperatureC            *float64
	HumidityPercent         *float64
	CreatedAt               time.Time
}

func (s *Store) CreateWateringLog(ctx context.Context, create *WateringLog) (*WateringLog, error) {
	return s.driver.CreateWateringLog(ctx, create)
}

// ListRecentWateringLogs returns up to 20 entries for the plant, newest first.
func (s *Store) ListRecentWateringLogs(ctx context.Context, plantID int64) ([]*WateringLog, error) {
	return s.driver.ListRecentWateringLogs(ctx, plantID, learningWindow)
}

func (s *Store) CountWateringLogs(ctx context.Context, plantID int64) (int64, error) {
	return s.driver.CountWateringLogs(ctx, plantID)
}
