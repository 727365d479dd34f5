package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// DateLayout is the ISO calendar date format used for report and calendar dates.
const DateLayout = "2006-01-02"

// ForecastDays is the length of the synthesized outlook and farming calendar.
const ForecastDays = 5

// Baselines used as the forecast base when the snapshot lacks the reading.
const (
	baselineTemperatureC     = 28
	baselineHumidityPct      = 65
	baselineWindSpeedKmh     = 12
	baselinePrecipitationPct = 0
)

// Generator derives forecasts, calendars and recommendations from a snapshot.
// Forecast days are jittered around the snapshot using the generator's random
// source, so a Generator must not be shared between goroutines.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator whose jitter sequence is fixed by seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomGenerator returns a Generator seeded from the runtime's random source.
func NewRandomGenerator() *Generator {
	return NewGenerator(rand.Uint64())
}

// Derive builds the forecast, calendar and recommendations for a snapshot,
// counting days from today.
func (g *Generator) Derive(s WeatherSnapshot, today time.Time) Insights {
	return Insights{
		Forecast:        g.Forecast(s, today),
		Calendar:        Calendar(s, today),
		Recommendations: Recommendations(s),
	}
}

// Forecast synthesizes ForecastDays days by jittering the snapshot readings
// within fixed bounds:
//
//	temperature   ±2 °C, clamped to [0, 50]
//	humidity      ±5 %,  clamped to [0, 100]
//	wind speed    ±3 km/h, floored at 0
//	precipitation -5..+15 %, clamped to [0, 100]
func (g *Generator) Forecast(s WeatherSnapshot, today time.Time) []ForecastDay {
	baseTemp := valueOr(s.TemperatureC, baselineTemperatureC)
	baseHumidity := valueOr(s.HumidityPct, baselineHumidityPct)
	baseWind := valueOr(s.WindSpeedKmh, baselineWindSpeedKmh)
	basePrecip := valueOr(s.PrecipitationPct, baselinePrecipitationPct)

	days := make([]ForecastDay, 0, ForecastDays)
	for i := range ForecastDays {
		temp := clamp(baseTemp+g.jitter(-2, 2), 0, 50)
		humidity := clamp(baseHumidity+g.jitter(-5, 5), 0, 100)
		wind := max(baseWind+g.jitter(-3, 3), 0)
		precip := clamp(basePrecip+g.jitter(-5, 15), 0, 100)

		days = append(days, ForecastDay{
			Label:            today.AddDate(0, 0, i).Format("Mon"),
			TemperatureC:     temp,
			Condition:        conditionFor(precip),
			HumidityPct:      humidity,
			WindSpeedKmh:     wind,
			PrecipitationPct: precip,
		})
	}
	return days
}

// jitter returns a uniform integer in [lo, hi].
func (g *Generator) jitter(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func conditionFor(precip int) Condition {
	switch {
	case precip > 50:
		return ConditionRain
	case precip > 20:
		return ConditionCloudy
	case precip > 10:
		return ConditionPartlyCloudy
	default:
		return ConditionSunny
	}
}

// Calendar plans farming activities for ForecastDays days. The rules read the
// snapshot, not the jittered forecast; only harvesting (day 0) and
// fertilization (day 1) depend on the day offset. A day with no matching
// rule gets a field-monitoring task so no entry is ever empty.
func Calendar(s WeatherSnapshot, today time.Time) []CalendarEntry {
	entries := make([]CalendarEntry, 0, ForecastDays)
	for i := range ForecastDays {
		entries = append(entries, CalendarEntry{
			Date:       today.AddDate(0, 0, i).Format(DateLayout),
			Activities: activitiesFor(s, i),
		})
	}
	return entries
}

func activitiesFor(s WeatherSnapshot, day int) []Activity {
	var acts []Activity
	irrigating := false

	if above(s.TemperatureC, 25) {
		acts = append(acts, Activity{Type: "Irrigation", Time: "Early Morning", Priority: PriorityHigh})
		irrigating = true
	}
	if below(s.PrecipitationPct, 30) {
		priority := PriorityMedium
		if *s.PrecipitationPct < 10 {
			priority = PriorityHigh
		}
		acts = append(acts, Activity{Type: "Watering", Time: "Evening", Priority: priority})
	}
	if s.SoilMoisturePct < 40 && !irrigating {
		acts = append(acts, Activity{Type: "Irrigation", Time: "Morning", Priority: PriorityHigh})
	}
	if above(s.HumidityPct, 70) {
		acts = append(acts, Activity{Type: "Pest Control", Time: "Morning", Priority: PriorityHigh})
	}
	if day == 0 && below(s.PrecipitationPct, 20) && below(s.WindSpeedKmh, 15) {
		acts = append(acts, Activity{Type: "Harvesting", Time: "Late Afternoon", Priority: PriorityMedium})
	}
	if day == 1 && below(s.PrecipitationPct, 40) {
		acts = append(acts, Activity{Type: "Fertilization", Time: "Afternoon", Priority: PriorityMedium})
	}

	if len(acts) == 0 {
		acts = append(acts, Activity{Type: "Field Monitoring", Time: "Morning", Priority: PriorityMedium})
	}
	return acts
}

// Recommendations returns advisory categories in display order: Irrigation,
// Crop Protection (only when a protection rule fires), Resource Management.
func Recommendations(s WeatherSnapshot) []RecommendationCategory {
	var irrigation []string
	if above(s.TemperatureC, 25) {
		irrigation = append(irrigation, "Consider early morning irrigation to minimize water loss")
	}
	switch {
	case s.SoilMoisturePct < 50:
		irrigation = append(irrigation, "Increase irrigation frequency, soil moisture is below the optimal range")
	case s.SoilMoisturePct > 70:
		irrigation = append(irrigation, "Reduce irrigation to prevent waterlogging")
	}
	irrigation = append(irrigation, fmt.Sprintf("Current soil moisture: %d%%", s.SoilMoisturePct))

	var protection []string
	if above(s.HumidityPct, 70) {
		protection = append(protection, "Apply preventive fungicide, high humidity favours fungal disease")
	}
	if above(s.PrecipitationPct, 50) {
		protection = append(protection, "Ensure proper drainage to prevent waterlogging")
	}
	if above(s.TemperatureC, 30) {
		protection = append(protection, "Install temporary shade structures for sensitive crops")
	}

	resources := []string{
		"Optimize water usage during peak temperature hours",
		"Plan harvesting activities around weather conditions",
	}
	if above(s.PrecipitationPct, 50) || above(s.WindSpeedKmh, 20) {
		resources = append(resources, "Prepare contingency measures for extreme weather")
	}

	categories := []RecommendationCategory{{Category: "Irrigation", Items: irrigation}}
	if len(protection) > 0 {
		categories = append(categories, RecommendationCategory{Category: "Crop Protection", Items: protection})
	}
	return append(categories, RecommendationCategory{Category: "Resource Management", Items: resources})
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
