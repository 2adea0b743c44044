package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralog/floralog/advisor"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

type fakeLogs struct {
	logs []*store.WateringLog
}

func (f *fakeLogs) ListRecentWateringLogs(context.Context, int64) ([]*store.WateringLog, error) {
	return f.logs, nil
}

type fakeWeather struct {
	data   *weather.Data
	rain24 float64
	rain72 float64
}

func (f *fakeWeather) Current(context.Context, string, *float64, *float64) *weather.Data {
	return f.data
}

func (f *fakeWeather) AccumulatedRainMm(_ string, _, _ *float64, hours int) float64 {
	if hours == 24 {
		return f.rain24
	}
	return f.rain72
}

type fakeProfileAdvisor struct {
	wp *advisor.WateringProfile
}

func (f *fakeProfileAdvisor) SuggestWateringProfile(context.Context, *store.Plant, *float64, *float64) *advisor.WateringProfile {
	return f.wp
}

func engineProfile() *profile.Profile {
	return &profile.Profile{
		LearningLastN: 5,
		LearningAlpha: 0.5,
		RainHeavy24:   8,
		RainHeavy72:   16,
		RainLight24:   4,
		RainLight72:   10,
	}
}

func newTestService(logs *fakeLogs, w *fakeWeather, adv ProfileAdvisor, now time.Time) *Service {
	svc := NewService(engineProfile(), logs, w, adv)
	svc.now = func() time.Time { return now }
	return svc
}

func indoorPlant() *store.Plant {
	return &store.Plant{
		ID:               1,
		Name:             "Monstera",
		Type:             store.PlantTypeTropical,
		Placement:        store.PlacementIndoor,
		PotVolumeLiters:  2.0,
		BaseIntervalDays: 7,
	}
}

func outdoorPlant() *store.Plant {
	area := 4.0
	return &store.Plant{
		ID:               2,
		Name:             "Juniper bed",
		Type:             store.PlantTypeSucculent,
		Placement:        store.PlacementOutdoor,
		OutdoorAreaM2:    &area,
		BaseIntervalDays: 10,
	}
}

func logsWithGaps(dates ...string) []*store.WateringLog {
	logs := make([]*store.WateringLog, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		t, err := time.Parse("2006-01-02", dates[i])
		if err != nil {
			panic(err)
		}
		logs = append(logs, &store.WateringLog{WateredAt: t})
	}
	return logs
}

var april = time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)

func TestRecommendIndoorBaseline(t *testing.T) {
	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, april)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{City: "Moscow"})
	require.NoError(t, err)
	// Neutral season, no weather, 2.0l pot: interval stays at base.
	assert.InDelta(t, 7.0, rec.IntervalDays, 1e-9)
	// 2.0l * midpoint(0.18, 0.20).
	assert.InDelta(t, 0.38, rec.WaterLiters, 1e-9)
}

func TestRecommendSeasonFactor(t *testing.T) {
	july := time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, july)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 7*0.8, rec.IntervalDays, 1e-9)

	january := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	svc = newTestService(&fakeLogs{}, &fakeWeather{}, nil, january)
	rec, err = svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 7*1.2, rec.IntervalDays, 1e-9)
}

func TestRecommendHotDryWeather(t *testing.T) {
	w := &fakeWeather{data: &weather.Data{TemperatureC: 30, HumidityPercent: 35}}
	svc := newTestService(&fakeLogs{}, w, nil, april)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	// 0.85 for heat, 0.9 for dryness.
	assert.InDelta(t, 7*0.85*0.9, rec.IntervalDays, 1e-9)
}

func TestRecommendUsesSmoothedInterval(t *testing.T) {
	logs := &fakeLogs{logs: logsWithGaps("2024-01-01", "2024-01-08", "2024-01-20")}
	svc := newTestService(logs, &fakeWeather{}, nil, april)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	// Smoothed over gaps [7, 12] with alpha 0.5 is 9.5.
	assert.InDelta(t, 9.5, rec.IntervalDays, 1e-9)
}

func TestRecommendIntervalClamped(t *testing.T) {
	plant := indoorPlant()
	plant.BaseIntervalDays = 300
	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, april)

	rec, err := svc.Recommend(context.Background(), plant, &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, rec.IntervalDays, 1e-9)
}

func TestRecommendWinterDormancy(t *testing.T) {
	december := time.Date(2024, time.December, 5, 12, 0, 0, 0, time.UTC)
	plant := outdoorPlant()
	plant.Perennial = true
	plant.WinterDormancy = true

	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, december)
	rec, err := svc.Recommend(context.Background(), plant, &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 90.0, rec.IntervalDays, 1e-9)
	assert.Zero(t, rec.WaterLiters)
}

func TestRecommendDormancyRequiresWinterMonth(t *testing.T) {
	plant := outdoorPlant()
	plant.Perennial = true
	plant.WinterDormancy = true

	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, april)
	rec, err := svc.Recommend(context.Background(), plant, &store.User{})
	require.NoError(t, err)
	assert.Less(t, rec.IntervalDays, 90.0)
	assert.Greater(t, rec.WaterLiters, 0.0)
}

func TestRecommendHeavyRainSuppressesWatering(t *testing.T) {
	w := &fakeWeather{rain24: 9}
	svc := newTestService(&fakeLogs{}, w, nil, april)

	rec, err := svc.Recommend(context.Background(), outdoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rec.IntervalDays, 2.0)
	// Fallback volume, never zero: max(0.5, 4m2 * 2.0l/m2 * 0.35).
	assert.InDelta(t, 2.8, rec.WaterLiters, 1e-9)
}

func TestRecommendLightRainStretchesInterval(t *testing.T) {
	dry := newTestService(&fakeLogs{}, &fakeWeather{}, nil, april)
	wet := newTestService(&fakeLogs{}, &fakeWeather{rain72: 11}, nil, april)
	plant := outdoorPlant()

	base, err := dry.Recommend(context.Background(), plant, &store.User{})
	require.NoError(t, err)
	stretched, err := wet.Recommend(context.Background(), plant, &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, base.IntervalDays*1.2, stretched.IntervalDays, 1e-9)
	assert.InDelta(t, base.WaterLiters, stretched.WaterLiters, 1e-9)
}

func TestRecommendIndoorRainIgnored(t *testing.T) {
	w := &fakeWeather{rain24: 50, rain72: 100}
	svc := newTestService(&fakeLogs{}, w, nil, april)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, rec.IntervalDays, 1e-9)
	assert.InDelta(t, 0.38, rec.WaterLiters, 1e-9)
}

func TestRecommendAppliesAIProfile(t *testing.T) {
	adv := &fakeProfileAdvisor{wp: &advisor.WateringProfile{IntervalFactor: 1.5, WaterFactor: 0.5}}
	svc := newTestService(&fakeLogs{}, &fakeWeather{}, adv, april)

	rec, err := svc.Recommend(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 7*1.5, rec.IntervalDays, 1e-9)
	// 0.38 * 0.5 = 0.19 is below the plausible floor 2.0*0.18*0.85 and is
	// raised back to it.
	assert.InDelta(t, 0.31, rec.WaterLiters, 1e-2)
}

func TestRecommendOutdoorWaterVolume(t *testing.T) {
	w := &fakeWeather{data: &weather.Data{TemperatureC: 30, HumidityPercent: 35}}
	svc := newTestService(&fakeLogs{}, w, nil, april)

	rec, err := svc.Recommend(context.Background(), outdoorPlant(), &store.User{})
	require.NoError(t, err)
	// 4m2 * 2.0l/m2 * 1.15 (heat) * 1.1 (dry).
	assert.InDelta(t, 10.12, rec.WaterLiters, 1e-9)
}

func TestLearningInfoBreakdown(t *testing.T) {
	logs := &fakeLogs{logs: logsWithGaps("2024-01-01", "2024-01-08", "2024-01-20")}
	svc := newTestService(logs, &fakeWeather{}, nil, april)

	info, err := svc.LearningInfo(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, info.BaseIntervalDays, 1e-9)
	require.NotNil(t, info.AverageIntervalDays)
	assert.InDelta(t, 9.5, *info.AverageIntervalDays, 1e-9)
	require.NotNil(t, info.SmoothedIntervalDays)
	assert.InDelta(t, 9.5, *info.SmoothedIntervalDays, 1e-9)
	assert.InDelta(t, 1.0, info.SeasonFactor, 1e-9)
	assert.InDelta(t, 1.0, info.WeatherFactor, 1e-9)
	assert.InDelta(t, 1.0, info.PlantFactor, 1e-9)
	assert.InDelta(t, 9.5, info.FinalIntervalDays, 1e-9)
}

func TestLearningInfoWithoutHistory(t *testing.T) {
	svc := newTestService(&fakeLogs{}, &fakeWeather{}, nil, april)

	info, err := svc.LearningInfo(context.Background(), indoorPlant(), &store.User{})
	require.NoError(t, err)
	assert.Nil(t, info.AverageIntervalDays)
	assert.Nil(t, info.SmoothedIntervalDays)
	assert.InDelta(t, 7.0, info.FinalIntervalDays, 1e-9)
}

func TestRoundTwoDecimals(t *testing.T) {
	assert.InDelta(t, 0.38, roundTwoDecimals(0.38000000001), 1e-12)
	assert.InDelta(t, 2.35, roundTwoDecimals(2.346), 1e-12)
	// Rounding is idempotent.
	assert.Equal(t, roundTwoDecimals(10.12), roundTwoDecimals(roundTwoDecimals(10.12)))
}

func TestSafeNonZeroLitersIndoor(t *testing.T) {
	plant := indoorPlant()
	plant.PotVolumeLiters = 0
	// Falls back to the 1.5l default pot: 1.5 * 0.19, rounded.
	assert.InDelta(t, 0.28, safeNonZeroLiters(plant, 0), 1e-9)
}
