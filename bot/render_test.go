package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floralog/floralog/advisor"
	"github.com/floralog/floralog/engine"
	"github.com/floralog/floralog/store"
)

func outdoorPlant() *store.Plant {
	area := 4.0
	soil := store.SoilClay
	sun := store.SunFull
	return &store.Plant{
		Name:            "Можжевельник",
		Type:            store.PlantTypeSucculent,
		Placement:       store.PlacementOutdoor,
		PotVolumeLiters: 1.0,
		OutdoorAreaM2:   &area,
		SoilType:        &soil,
		SunExposure:     &sun,
		Mulched:         true,
		Perennial:       true,
		WinterDormancy:  true,
		LastWateredDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "380 мл", formatVolume(0.38))
	assert.Equal(t, "2.50 л", formatVolume(2.5))
	assert.Equal(t, "1.00 л", formatVolume(1.0))
	assert.Equal(t, "120 мл", formatVolume(0.1204))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "7.0 дн.", formatDays(7))
	assert.Equal(t, "9.5 дн.", formatDays(9.5))
}

func TestFormatWaterAmountDormancy(t *testing.T) {
	plant := outdoorPlant()
	rec := &engine.Recommendation{IntervalDays: 90, WaterLiters: 0}
	december := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "пауза полива (зимний режим)", formatWaterAmount(plant, rec, december))
}

func TestFormatWaterAmountOutdoorMinimumWarning(t *testing.T) {
	plant := outdoorPlant()
	rec := &engine.Recommendation{IntervalDays: 10, WaterLiters: 0.5}
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	got := formatWaterAmount(plant, rec, april)
	assert.Contains(t, got, "минимум 0.5 л на 4 м²")
}

func TestFormatWaterAmountOutdoorNormal(t *testing.T) {
	plant := outdoorPlant()
	rec := &engine.Recommendation{IntervalDays: 10, WaterLiters: 8.12}
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "8.12 л на 4 м²", formatWaterAmount(plant, rec, april))
}

func TestFormatWaterAmountIndoorMinimumWarning(t *testing.T) {
	plant := &store.Plant{Name: "Фикус", Type: store.PlantTypeDefault, Placement: store.PlacementIndoor, PotVolumeLiters: 5.0}
	rec := &engine.Recommendation{IntervalDays: 7, WaterLiters: 0.15}
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	got := formatWaterAmount(plant, rec, april)
	assert.Contains(t, got, "минимум 150 мл")
}

func TestFormatOutdoorMeta(t *testing.T) {
	got := formatOutdoorMeta(outdoorPlant())
	assert.Equal(t, "почва: Глинистый; свет: Полное солнце; мульча: да; многолетник, зимняя пауза: да", got)

	indoor := &store.Plant{Placement: store.PlacementIndoor}
	assert.Equal(t, "не применяется", formatOutdoorMeta(indoor))
}

func TestFormatCycle(t *testing.T) {
	advice := &advisor.CareAdvice{WateringCycleDays: 6, Note: "летом чаще"}
	assert.Equal(t, "6 дн. (летом чаще)", formatCycle(advice, 7.2))
	assert.Equal(t, "6 дн.", formatCycle(&advisor.CareAdvice{WateringCycleDays: 6}, 7.2))
	assert.Equal(t, "7.2 дн.", formatCycle(nil, 7.2))
}

func TestFormatAdditivesFallbackByType(t *testing.T) {
	fern := &store.Plant{Type: store.PlantTypeFern}
	assert.Contains(t, formatAdditives(fern, nil), "янтарная кислота")

	advice := &advisor.CareAdvice{Additives: []string{"гуматы", "экстракт водорослей"}}
	assert.Equal(t, "гуматы, экстракт водорослей", formatAdditives(fern, advice))
}

func TestFormatSoilFallbacksByType(t *testing.T) {
	succulent := &store.Plant{Type: store.PlantTypeSucculent}
	assert.Equal(t, "очень дренированный, минеральный", formatSoilType(succulent, nil))
	assert.Contains(t, formatSoilComposition(succulent, nil), "перлит")

	advice := &advisor.CareAdvice{SoilType: "кактусный грунт", SoilComposition: []string{"пемза", "песок"}}
	assert.Equal(t, "кактусный грунт", formatSoilType(succulent, advice))
	assert.Equal(t, "пемза, песок", formatSoilComposition(succulent, advice))
}

func TestWateringDatesInMonth(t *testing.T) {
	plant := &store.Plant{LastWateredDate: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)}
	dates := wateringDatesInMonth(plant, 7.6, 2024, time.April)

	require.Len(t, dates, 4)
	assert.Equal(t, 4, dates[0].Day())
	assert.Equal(t, 11, dates[1].Day())
	assert.Equal(t, 18, dates[2].Day())
	assert.Equal(t, 25, dates[3].Day())
}

func TestWateringDatesInMonthEmpty(t *testing.T) {
	plant := &store.Plant{LastWateredDate: time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC)}
	dates := wateringDatesInMonth(plant, 60, 2024, time.May)
	assert.Empty(t, dates)
}

func TestMonthTitle(t *testing.T) {
	assert.Equal(t, "Апрель 2024", monthTitle(2024, time.April))
	assert.Equal(t, "Январь 2025", monthTitle(2025, time.January))
}

func TestRenderPlantCard(t *testing.T) {
	plant := outdoorPlant()
	rec := &engine.Recommendation{IntervalDays: 9.5, WaterLiters: 8.0}
	april := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	var sb strings.Builder
	renderPlantCard(&sb, plant, rec, nil, april)
	card := sb.String()

	assert.Contains(t, card, "🪴 Можжевельник")
	assert.Contains(t, card, "• Размещение: Уличное")
	assert.Contains(t, card, "• Последний полив: 2024-04-01")
	assert.Contains(t, card, "• Следующий полив: 2024-04-10")
	assert.Contains(t, card, "• Рекомендуемый объём: 8.00 л на 4 м²")
	assert.Contains(t, card, "• Уличные условия: ")
}

func TestNextWateringDate(t *testing.T) {
	plant := &store.Plant{LastWateredDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), nextWateringDate(plant, 7.9))
}
