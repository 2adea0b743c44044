// Package engine computes watering recommendations: how many days until
// the next watering and how much water to pour. The estimate starts from
// the plant's base interval, prefers the learned interval once enough
// history exists, and folds in season, weather, plant geometry, rain
// suppression, and optional AI corrections.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/floralog/floralog/advisor"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/learning"
	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

// Recommendation is the engine's answer for one plant.
type Recommendation struct {
	IntervalDays float64
	WaterLiters  float64
}

// LearningInfo explains how the current interval came to be.
type LearningInfo struct {
	BaseIntervalDays     float64
	AverageIntervalDays  *float64
	SmoothedIntervalDays *float64
	SeasonFactor         float64
	WeatherFactor        float64
	PlantFactor          float64
	FinalIntervalDays    float64
}

// WeatherProvider is the weather dependency. Satisfied by *weather.Service.
type WeatherProvider interface {
	Current(ctx context.Context, city string, lat, lon *float64) *weather.Data
	AccumulatedRainMm(city string, lat, lon *float64, hours int) float64
}

// ProfileAdvisor is the optional AI correction layer. Satisfied by
// *advisor.Service, including a nil one.
type ProfileAdvisor interface {
	SuggestWateringProfile(ctx context.Context, plant *store.Plant, temperatureC, humidityPercent *float64) *advisor.WateringProfile
}

// LogStore supplies watering history for the learning queries. Satisfied
// by *store.Store.
type LogStore interface {
	ListRecentWateringLogs(ctx context.Context, plantID int64) ([]*store.WateringLog, error)
}

// Service computes recommendations.
type Service struct {
	profile *profile.Profile
	logs    LogStore
	weather WeatherProvider
	advisor ProfileAdvisor
	now     func() time.Time
}

// NewService creates the engine. The advisor may be nil.
func NewService(p *profile.Profile, logs LogStore, weatherProvider WeatherProvider, profileAdvisor ProfileAdvisor) *Service {
	return &Service{
		profile: p,
		logs:    logs,
		weather: weatherProvider,
		advisor: profileAdvisor,
		now:     time.Now,
	}
}

// Recommend computes the watering recommendation for a plant owned by the
// given user.
func (s *Service) Recommend(ctx context.Context, plant *store.Plant, user *store.User) (*Recommendation, error) {
	w := s.weather.Current(ctx, user.City, user.CityLat, user.CityLon)

	interval, _, _, err := s.computeInterval(ctx, plant, w)
	if err != nil {
		return nil, err
	}

	if DormancyActive(plant, s.now()) {
		// A dormant outdoor perennial gets neither water nor reminders.
		return &Recommendation{IntervalDays: 90, WaterLiters: 0}, nil
	}

	if plant.IsOutdoor() {
		rain24 := s.weather.AccumulatedRainMm(user.City, user.CityLat, user.CityLon, 24)
		rain72 := s.weather.AccumulatedRainMm(user.City, user.CityLat, user.CityLon, 72)
		if rain24 >= s.profile.RainHeavy24 || rain72 >= s.profile.RainHeavy72 {
			slog.Info("heavy rain, skipping watering", "plant_id", plant.ID, "rain24", rain24, "rain72", rain72)
			return &Recommendation{
				IntervalDays: clamp(interval, 2, 60),
				WaterLiters:  safeNonZeroLiters(plant, 0),
			}, nil
		}
		if rain24 >= s.profile.RainLight24 || rain72 >= s.profile.RainLight72 {
			interval = clamp(interval*1.2, 1, 60)
		}
	}

	waterLiters := recommendWaterLiters(plant, w)
	if s.advisor != nil {
		var temp, humidity *float64
		if w != nil {
			temp, humidity = &w.TemperatureC, &w.HumidityPercent
		}
		if wp := s.advisor.SuggestWateringProfile(ctx, plant, temp, humidity); wp != nil {
			interval = clamp(interval*wp.IntervalFactor, 1, 60)
			waterLiters = roundTwoDecimals(waterLiters * wp.WaterFactor)
		}
	}
	waterLiters = enforceMinimumReasonableWater(plant, waterLiters)
	waterLiters = safeNonZeroLiters(plant, waterLiters)

	return &Recommendation{IntervalDays: interval, WaterLiters: waterLiters}, nil
}

// LearningInfo reports the interval breakdown for a plant: the base value,
// the learned statistics, and every applied factor.
func (s *Service) LearningInfo(ctx context.Context, plant *store.Plant, user *store.User) (*LearningInfo, error) {
	w := s.weather.Current(ctx, user.City, user.CityLat, user.CityLon)

	logs, err := s.logs.ListRecentWateringLogs(ctx, plant.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load watering history")
	}

	info := &LearningInfo{
		BaseIntervalDays: float64(plant.BaseIntervalDays),
		SeasonFactor:     seasonFactor(s.now().Month()),
		WeatherFactor:    weatherFactor(w),
		PlantFactor:      plantFactor(plant),
	}
	if avg, ok := learning.AverageInterval(logs); ok {
		info.AverageIntervalDays = &avg
	}
	learned := info.BaseIntervalDays
	if smoothed, ok := learning.SmoothedInterval(logs, s.profile.LearningLastN, s.profile.LearningAlpha); ok {
		info.SmoothedIntervalDays = &smoothed
		learned = smoothed
	}
	info.FinalIntervalDays = clamp(learned*info.SeasonFactor*info.WeatherFactor*info.PlantFactor, 1, 60)
	return info, nil
}

// computeInterval derives the pre-rain interval and returns the learned
// value and the factors for callers that want the breakdown.
func (s *Service) computeInterval(ctx context.Context, plant *store.Plant, w *weather.Data) (interval, learned, factors float64, err error) {
	logs, err := s.logs.ListRecentWateringLogs(ctx, plant.ID)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to load watering history")
	}

	learned = float64(plant.BaseIntervalDays)
	if smoothed, ok := learning.SmoothedInterval(logs, s.profile.LearningLastN, s.profile.LearningAlpha); ok {
		learned = smoothed
	}

	factors = seasonFactor(s.now().Month()) * weatherFactor(w) * plantFactor(plant)
	interval = clamp(learned*factors, 1, 60)
	return interval, learned, factors, nil
}
