package engine

import (
	"math"
	"time"

	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

// seasonFactor shortens intervals in summer and stretches them in winter.
func seasonFactor(month time.Month) float64 {
	switch month {
	case time.June, time.July, time.August:
		return 0.8
	case time.December, time.January, time.February:
		return 1.2
	default:
		return 1.0
	}
}

// weatherFactor adjusts the interval for heat and dryness. Missing weather
// is neutral.
func weatherFactor(w *weather.Data) float64 {
	if w == nil {
		return 1.0
	}
	factor := 1.0
	if w.TemperatureC >= 28 {
		factor *= 0.85
	} else if w.TemperatureC <= 10 {
		factor *= 1.15
	}
	if w.HumidityPercent <= 40 {
		factor *= 0.9
	} else if w.HumidityPercent >= 70 {
		factor *= 1.1
	}
	return factor
}

func plantFactor(plant *store.Plant) float64 {
	if plant.IsOutdoor() {
		return outdoorFactor(plant)
	}
	return potFactor(plant.PotVolumeLiters)
}

func potFactor(liters float64) float64 {
	if liters < 1.5 {
		return 0.9
	}
	if liters > 3.0 {
		return 1.1
	}
	return 1.0
}

func outdoorFactor(plant *store.Plant) float64 {
	factor := 1.0

	if area := plant.OutdoorAreaM2; area != nil {
		if *area < 2.0 {
			factor *= 0.9
		} else if *area > 10.0 {
			factor *= 1.1
		}
	}

	if soil := plant.SoilType; soil != nil {
		switch *soil {
		case store.SoilSandy:
			factor *= 0.85
		case store.SoilClay:
			factor *= 1.15
		}
	}

	if sun := plant.SunExposure; sun != nil {
		switch *sun {
		case store.SunFull:
			factor *= 0.85
		case store.SunShade:
			factor *= 1.12
		}
	}

	if plant.Mulched {
		factor *= 1.1
	}

	return factor
}

// DormancyActive reports whether an outdoor perennial with dormancy
// enabled is in its December-February rest.
func DormancyActive(plant *store.Plant, now time.Time) bool {
	if !plant.IsOutdoor() || !plant.Perennial || !plant.WinterDormancy {
		return false
	}
	month := now.Month()
	return month == time.December || month == time.January || month == time.February
}

// recommendWaterLiters computes the base water volume. Outdoor beds scale
// by area and a weather boost; indoor pots pour a type-specific share of
// the pot volume.
func recommendWaterLiters(plant *store.Plant, w *weather.Data) float64 {
	if plant.IsOutdoor() && plant.OutdoorAreaM2 != nil && *plant.OutdoorAreaM2 > 0 {
		boost := 1.0
		if w != nil {
			if w.TemperatureC >= 28 {
				boost *= 1.15
			} else if w.TemperatureC <= 10 {
				boost *= 0.9
			}
			if w.HumidityPercent <= 40 {
				boost *= 1.1
			} else if w.HumidityPercent >= 70 {
				boost *= 0.9
			}
		}
		return roundTwoDecimals(math.Max(0.5, *plant.OutdoorAreaM2*plant.Type.LitersPerM2()*boost))
	}

	percent := (plant.Type.MinWaterPercent() + plant.Type.MaxWaterPercent()) / 2.0
	return roundTwoDecimals(plant.PotVolumeLiters * percent)
}

// enforceMinimumReasonableWater raises a positive but implausibly small
// volume to a floor derived from the plant's own baseline. Zero volumes
// pass through untouched; safeNonZeroLiters handles those.
func enforceMinimumReasonableWater(plant *store.Plant, liters float64) float64 {
	if liters <= 0 {
		return liters
	}
	var minReasonable float64
	if plant.IsOutdoor() {
		area := 1.0
		if plant.OutdoorAreaM2 != nil && *plant.OutdoorAreaM2 > 0 {
			area = *plant.OutdoorAreaM2
		}
		minReasonable = math.Max(0.5, area*plant.Type.LitersPerM2()*0.35)
	} else {
		pot := plant.PotVolumeLiters
		if pot <= 0 {
			pot = 1.5
		}
		minReasonable = math.Max(0.12, pot*plant.Type.MinWaterPercent()*0.85)
	}
	return roundTwoDecimals(math.Max(liters, minReasonable))
}

// safeNonZeroLiters replaces a non-positive volume with a conservative
// fallback so the user never sees "water 0 liters".
func safeNonZeroLiters(plant *store.Plant, liters float64) float64 {
	if liters > 0 {
		return roundTwoDecimals(liters)
	}
	if plant.IsOutdoor() {
		area := 1.0
		if plant.OutdoorAreaM2 != nil && *plant.OutdoorAreaM2 > 0 {
			area = *plant.OutdoorAreaM2
		}
		derived := math.Max(0.5, area*plant.Type.LitersPerM2()*0.35)
		return roundTwoDecimals(clamp(derived, 0.5, 25.0))
	}

	pot := plant.PotVolumeLiters
	if pot <= 0 {
		pot = 1.5
	}
	percent := (plant.Type.MinWaterPercent() + plant.Type.MaxWaterPercent()) / 2.0
	return roundTwoDecimals(clamp(math.Max(0.12, pot*percent), 0.12, 3.0))
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}
