package advisor

import (
	"fmt"

	"github.com/floralog/floralog/store"
)

const intervalSystemPrompt = `You are a plant-care assistant.
Task: estimate watering interval in days for ONE houseplant name.
Return ONLY valid JSON (no markdown, no prose) with this exact schema:
{
  "normalized_name": "string",
  "interval_days": 1,
  "type_hint": "SUCCULENT|TROPICAL|FERN|CONIFER|DEFAULT",
  "confidence": 0.0
}
Rules:
- interval_days must be integer in [1..30]
- confidence must be number in [0..1]
- if uncertain, choose DEFAULT and a conservative interval_days`

const careAdviceSystemPrompt = `You are a careful houseplant assistant.
Return ONLY valid JSON (no markdown, no prose) with this schema:
{
  "watering_cycle_days": 1,
  "additives": ["string"],
  "soil_type": "string",
  "soil_composition": ["string"],
  "note": "string"
}
Rules:
- watering_cycle_days must be integer in [1..30]
- additives: 0..3 short items suitable for the next watering (e.g., seaweed extract, calcium-magnesium)
- soil_type: short string with recommended soil type in Russian
- soil_composition: 2..5 short components in Russian (e.g., торф, перлит, кора)
- if additives are unsafe or not needed, return empty array
- note should be short and practical (max 120 chars)
- IMPORTANT: additives, soil_type, soil_composition and note must be in Russian`

const wateringProfileSystemPrompt = `You are a plant-care assistant.
Task: fine-tune a computed watering plan for ONE plant given current conditions.
Return ONLY valid JSON (no markdown, no prose) with this exact schema:
{
  "interval_factor": 1.0,
  "water_factor": 1.0
}
Rules:
- both factors are multiplicative corrections, numbers in [0.5..1.5]
- 1.0 means "keep the computed value"
- if uncertain, return 1.0 for both`

func careAdviceUserPrompt(plant *store.Plant, recommendedIntervalDays float64) string {
	return fmt.Sprintf(`Название растения: %s
Тип растения: %s
Объем горшка (л): %.2f
Текущий рекомендуемый интервал (дни): %.1f
Цель: предложи практичный цикл следующего полива и необязательные безопасные добавки.
Ответ должен быть на русском языке.`,
		plant.Name, plant.Type, plant.PotVolumeLiters, recommendedIntervalDays)
}

func wateringProfileUserPrompt(plant *store.Plant, temperatureC, humidityPercent *float64) string {
	temp, humidity := "unknown", "unknown"
	if temperatureC != nil {
		temp = fmt.Sprintf("%.1f C", *temperatureC)
	}
	if humidityPercent != nil {
		humidity = fmt.Sprintf("%.0f%%", *humidityPercent)
	}
	return fmt.Sprintf(`Plant name: %s
Plant type: %s
Placement: %s
Pot volume (liters): %.2f
Current temperature: %s
Current humidity: %s`,
		plant.Name, plant.Type, plant.Placement, plant.PotVolumeLiters, temp, humidity)
}
