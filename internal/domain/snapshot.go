package domain

// Alert severities.
const (
	SeverityWarning = "warning"
	SeverityAlert   = "alert"
)

// Defaults applied when a provider response omits (or garbles) the value.
const (
	DefaultUVIndex         = 6
	DefaultSoilMoisturePct = 45
)

// WeatherSnapshot is the canonical weather record produced by normalization.
// Optional readings are nil when the provider response did not carry a usable
// value; a non-nil pointer to zero is a real zero reading.
type WeatherSnapshot struct {
	TemperatureC     *int    `json:"temperature_c"`
	HumidityPct      *int    `json:"humidity_pct"`
	WindSpeedKmh     *int    `json:"wind_speed_kmh"`
	UVIndex          int     `json:"uv_index"`
	SoilMoisturePct  int     `json:"soil_moisture_pct"`
	PrecipitationPct *int    `json:"precipitation_pct"`
	Alerts           []Alert `json:"alerts"`
}

// Alert is a threshold warning raised against a snapshot.
type Alert struct {
	Kind     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "warning" or "alert"
}

// Condition is the sky condition shown for a forecast day.
type Condition string

const (
	ConditionSunny        Condition = "Sunny"
	ConditionPartlyCloudy Condition = "Partly Cloudy"
	ConditionCloudy       Condition = "Cloudy"
	ConditionRain         Condition = "Rain"
)

// ForecastDay is one synthesized day of the 5-day outlook.
type ForecastDay struct {
	Label            string    `json:"label"`
	TemperatureC     int       `json:"temperature_c"`
	Condition        Condition `json:"condition"`
	HumidityPct      int       `json:"humidity_pct"`
	WindSpeedKmh     int       `json:"wind_speed_kmh"`
	PrecipitationPct int       `json:"precipitation_pct"`
}

// Activity priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
)

// Activity is a farming task suggested for a calendar day.
type Activity struct {
	Type     string `json:"type"`
	Time     string `json:"time"`
	Priority string `json:"priority"`
}

// CalendarEntry lists the activities planned for one date (YYYY-MM-DD).
type CalendarEntry struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
}

// RecommendationCategory groups advisory sentences under a heading.
type RecommendationCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Insights is everything derived from a single snapshot.
type Insights struct {
	Forecast        []ForecastDay            `json:"forecast"`
	Calendar        []CalendarEntry          `json:"calendar"`
	Recommendations []RecommendationCategory `json:"recommendations"`
}

func intPtr(v int) *int { return &v }
