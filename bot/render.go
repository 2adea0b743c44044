package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/floralog/floralog/advisor"
	"github.com/floralog/floralog/engine"
	"github.com/floralog/floralog/store"
)

var ruMonthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

func formatDays(days float64) string {
	return fmt.Sprintf("%.1f дн.", days)
}

// formatVolume prints liters, switching to milliliters below one liter.
func formatVolume(liters float64) string {
	rounded := math.Round(liters*100) / 100
	if rounded < 1.0 {
		ml := int(math.Round(rounded * 1000))
		return strconv.Itoa(ml) + " мл"
	}
	return fmt.Sprintf("%.2f л", rounded)
}

// formatWaterAmount renders the recommended volume with warnings when the
// engine bottomed out at its safety floor.
func formatWaterAmount(plant *store.Plant, rec *engine.Recommendation, now time.Time) string {
	if engine.DormancyActive(plant, now) {
		return "пауза полива (зимний режим)"
	}
	if plant.IsOutdoor() && plant.OutdoorAreaM2 != nil && *plant.OutdoorAreaM2 > 0 {
		area := *plant.OutdoorAreaM2
		if rec.WaterLiters <= 0.5 && area >= 2.0 {
			return fmt.Sprintf("минимум 0.5 л на %g м² (уточни город/условия участка)", area)
		}
		return fmt.Sprintf("%s на %g м²", formatVolume(rec.WaterLiters), area)
	}
	if rec.WaterLiters <= 0.2 && plant.PotVolumeLiters >= 3.0 {
		return "минимум " + formatVolume(rec.WaterLiters) + " (уточни тип растения и условия)"
	}
	return formatVolume(rec.WaterLiters)
}

func formatPlacement(plant *store.Plant) string {
	if plant.IsOutdoor() {
		return "Уличное"
	}
	return "Домашнее"
}

// formatOutdoorMeta summarizes the outdoor bed attributes in one line.
func formatOutdoorMeta(plant *store.Plant) string {
	if !plant.IsOutdoor() {
		return "не применяется"
	}
	var parts []string
	if plant.SoilType != nil {
		parts = append(parts, "почва: "+plant.SoilType.Title())
	}
	if plant.SunExposure != nil {
		parts = append(parts, "свет: "+plant.SunExposure.Title())
	}
	parts = append(parts, "мульча: "+yesNo(plant.Mulched))
	perennialText := "однолетник"
	if plant.Perennial {
		perennialText = "многолетник"
		if plant.WinterDormancy {
			perennialText += ", зимняя пауза: да"
		}
	}
	parts = append(parts, perennialText)
	return strings.Join(parts, "; ")
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// formatCycle renders the watering cycle from the AI care card when
// present, otherwise the engine interval.
func formatCycle(advice *advisor.CareAdvice, fallbackIntervalDays float64) string {
	if advice != nil && advice.WateringCycleDays > 0 {
		note := ""
		if strings.TrimSpace(advice.Note) != "" {
			note = " (" + advice.Note + ")"
		}
		return strconv.Itoa(advice.WateringCycleDays) + " дн." + note
	}
	return formatDays(fallbackIntervalDays)
}

func formatAdditives(plant *store.Plant, advice *advisor.CareAdvice) string {
	if advice != nil && len(advice.Additives) > 0 {
		return strings.Join(advice.Additives, ", ")
	}
	switch plant.Type {
	case store.PlantTypeTropical:
		return "гуматы или экстракт водорослей (слабо, 1 раз в 2-4 полива)"
	case store.PlantTypeFern:
		return "янтарная кислота (редко), без концентрированных удобрений"
	case store.PlantTypeSucculent:
		return "обычно без добавок, максимум слабое удобрение раз в 4-6 поливов"
	default:
		return "мягкое комплексное удобрение в слабой концентрации"
	}
}

func formatSoilType(plant *store.Plant, advice *advisor.CareAdvice) string {
	if advice != nil && strings.TrimSpace(advice.SoilType) != "" {
		return advice.SoilType
	}
	switch plant.Type {
	case store.PlantTypeTropical:
		return "рыхлый влагоемкий, слабокислый"
	case store.PlantTypeFern:
		return "легкий влагоемкий, воздухопроницаемый"
	case store.PlantTypeSucculent:
		return "очень дренированный, минеральный"
	default:
		return "универсальный рыхлый с дренажом"
	}
}

func formatSoilComposition(plant *store.Plant, advice *advisor.CareAdvice) string {
	if advice != nil && len(advice.SoilComposition) > 0 {
		return strings.Join(advice.SoilComposition, ", ")
	}
	switch plant.Type {
	case store.PlantTypeTropical:
		return "торф, кокос, перлит, кора"
	case store.PlantTypeFern:
		return "листовая земля, торф, перлит, немного сфагнума"
	case store.PlantTypeSucculent:
		return "грунт для кактусов, перлит, пемза/цеолит, крупный песок"
	default:
		return "универсальный грунт, перлит, немного коры"
	}
}

// renderPlantCard appends one /list entry for a plant.
func renderPlantCard(sb *strings.Builder, plant *store.Plant, rec *engine.Recommendation, advice *advisor.CareAdvice, now time.Time) {
	due := nextWateringDate(plant, rec.IntervalDays)
	sb.WriteString("\n🪴 " + plant.Name + "\n")
	sb.WriteString("• Размещение: " + formatPlacement(plant) + "\n")
	sb.WriteString("• Последний полив: " + plant.LastWateredDate.Format("2006-01-02") + "\n")
	sb.WriteString("• Следующий полив: " + due.Format("2006-01-02") + "\n")
	sb.WriteString("• Рекомендуемый объём: " + formatWaterAmount(plant, rec, now) + "\n")
	sb.WriteString("• Цикл полива: " + formatCycle(advice, rec.IntervalDays) + "\n")
	sb.WriteString("• Грунт: " + formatSoilType(plant, advice) + "\n")
	sb.WriteString("• Состав грунта: " + formatSoilComposition(plant, advice) + "\n")
	sb.WriteString("• Добавки: " + formatAdditives(plant, advice) + "\n")
	if plant.IsOutdoor() {
		sb.WriteString("• Уличные условия: " + formatOutdoorMeta(plant) + "\n")
	}
	sb.WriteString("────────\n")
}

// nextWateringDate is the last watering plus the floored interval.
func nextWateringDate(plant *store.Plant, intervalDays float64) time.Time {
	return plant.LastWateredDate.AddDate(0, 0, int(math.Floor(intervalDays)))
}

// wateringDatesInMonth projects the watering schedule of a plant onto one
// calendar month, stepping by the floored interval from the last watering.
func wateringDatesInMonth(plant *store.Plant, intervalDays float64, year int, month time.Month) []time.Time {
	step := int(math.Floor(intervalDays))
	if step < 1 {
		step = 1
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	var dates []time.Time
	next := plant.LastWateredDate.AddDate(0, 0, step)
	for !next.After(end) {
		if !next.Before(start) {
			dates = append(dates, next)
		}
		next = next.AddDate(0, 0, step)
	}
	return dates
}

func monthTitle(year int, month time.Month) string {
	return ruMonthNames[int(month)-1] + " " + strconv.Itoa(year)
}

func renderMonthCalendar(sb *strings.Builder, plants []*store.Plant, intervals map[int64]float64, year int, month time.Month) {
	sb.WriteString("\n\n" + monthTitle(year, month) + ":\n")
	for _, plant := range plants {
		dates := wateringDatesInMonth(plant, intervals[plant.ID], year, month)
		sb.WriteString("\n" + plant.Name + ": ")
		if len(dates) == 0 {
			sb.WriteString("нет поливов")
			continue
		}
		for i, d := range dates {
			sb.WriteString(strconv.Itoa(d.Day()))
			if i < len(dates)-1 {
				sb.WriteString(", ")
			}
		}
	}
}
