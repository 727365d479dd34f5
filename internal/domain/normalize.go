package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// field identifies one numeric reading of a WeatherSnapshot.
type field int

const (
	fieldTemperature field = iota
	fieldHumidity
	fieldWindSpeed
	fieldPrecipitation
	fieldUVIndex
	fieldSoilMoisture
)

// Plausibility bounds. Readings outside them are dropped.
const (
	maxReadingMagnitude = 1000
	minTemperatureC     = -90
	maxTemperatureC     = 70
)

// Alert thresholds.
const (
	heatAlertTemperatureC      = 30
	rainfallAlertPrecipitation = 10
)

// textPattern anchors one reading to its label in free-form model prose, e.g.
// "Temperature: 25-30°C" or "Wind Speed: 12 km/h". The value must appear
// before the next comma, semicolon, colon or line break, so an unreadable
// reading never borrows the number of the field after it.
type textPattern struct {
	field field
	label string
	unit  string
	re    *regexp.Regexp
}

func newTextPattern(f field, label, unit string) textPattern {
	expr := `(?i)\b(?:` + label + `)\s*:[^,;:\n]*?(-?\d+)(?:\s*-\s*(-?\d+))?\s*(?:` + unit + `)`
	return textPattern{field: f, label: label, unit: unit, re: regexp.MustCompile(expr)}
}

var (
	// textPatterns are evaluated independently; a miss leaves only that field unset.
	textPatterns = []textPattern{
		newTextPattern(fieldTemperature, `Temperature`, `°\s*C|℃`),
		newTextPattern(fieldHumidity, `Humidity`, `%`),
		newTextPattern(fieldWindSpeed, `Wind(?:\s+Speed)?`, `km/h|kmph|kph`),
		newTextPattern(fieldPrecipitation, `Rainfall|Precipitation|Rain`, `mm|%`),
		newTextPattern(fieldUVIndex, `UV(?:\s+Index)?`, ``),
		newTextPattern(fieldSoilMoisture, `Soil\s+Moisture`, `%`),
	}

	// codeFenceRe unwraps a Markdown code block around a model answer,
	// e.g. "```json\n{...}\n```".
	codeFenceRe = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*(.*?)\\s*```$")

	// leadingValueRe reads an integer or "X-Y" range at the start of a string,
	// ignoring whatever follows ("28°C", "10-15 km/h").
	leadingValueRe = regexp.MustCompile(`^\s*(-?\d+)(?:\s*-\s*(-?\d+))?`)
)

// jsonField maps one reading to the keys a provider may use for it in a JSON
// answer and the unit suffixes its string values may carry.
type jsonField struct {
	field    field
	keys     []string
	suffixes []string
}

var jsonFields = []jsonField{
	{fieldTemperature, []string{"temperature", "temperature_c", "temp"}, []string{"°C", "℃"}},
	{fieldHumidity, []string{"humidity", "humidity_pct"}, []string{"%"}},
	{fieldWindSpeed, []string{"windSpeed", "wind_speed", "wind_speed_kmh", "wind"}, []string{" km/h", "km/h", " kmph"}},
	{fieldPrecipitation, []string{"precipitation", "precipitation_pct", "rainfall"}, []string{"%", " mm", "mm"}},
	{fieldUVIndex, []string{"uvIndex", "uv_index", "uv"}, nil},
	{fieldSoilMoisture, []string{"soilMoisture", "soil_moisture", "soil_moisture_pct"}, []string{"%"}},
}

// containerKeys are nested objects searched when a key is missing at the top level.
var containerKeys = []string{"current", "weather", "conditions", "forecast"}

// Normalize converts a raw provider response into a WeatherSnapshot. The
// payload may be prose, a JSON object, a {location, date, forecast} envelope,
// or any of those wrapped in a Markdown code fence. It never fails: readings
// that cannot be extracted are left unset or defaulted.
func Normalize(payload []byte) WeatherSnapshot {
	body := unwrapCodeFence(bytes.TrimSpace(payload))

	var obj map[string]any
	if len(body) > 0 && body[0] == '{' && json.Unmarshal(body, &obj) == nil {
		if values := extractFields(obj); len(values) > 0 {
			return buildSnapshot(values)
		}
		if text, ok := obj["forecast"].(string); ok {
			return Normalize([]byte(text))
		}
	}
	return NormalizeText(string(body))
}

// NormalizeText extracts readings from label-anchored prose such as
// "Temperature: 28-32°C, Humidity: 55%, Wind: 10 km/h, Rainfall: 15mm".
// Ranges collapse to their rounded mean.
func NormalizeText(text string) WeatherSnapshot {
	return buildSnapshot(extractText(text))
}

// NormalizeFields extracts readings from a decoded JSON object whose values are
// numbers or strings with unit suffixes ("28°C", "65%", "12 km/h"). An object
// with no recognised keys but a string "forecast" field is normalized from
// that string instead.
func NormalizeFields(obj map[string]any) WeatherSnapshot {
	values := extractFields(obj)
	if len(values) == 0 {
		if text, ok := obj["forecast"].(string); ok {
			return Normalize([]byte(text))
		}
	}
	return buildSnapshot(values)
}

// DeriveAlerts applies the fixed alert thresholds to a snapshot's readings.
func DeriveAlerts(s WeatherSnapshot) []Alert {
	alerts := make([]Alert, 0, 2)
	if above(s.TemperatureC, heatAlertTemperatureC) {
		alerts = append(alerts, Alert{
			Kind:     "High Temperature",
			Message:  "Protect your crops from heat stress",
			Severity: SeverityWarning,
		})
	}
	if above(s.PrecipitationPct, rainfallAlertPrecipitation) {
		alerts = append(alerts, Alert{
			Kind:     "Heavy Rainfall",
			Message:  "Heavy rainfall expected, ensure proper drainage",
			Severity: SeverityAlert,
		})
	}
	return alerts
}

// MissingFields names the optional readings the provider response did not supply.
func (s WeatherSnapshot) MissingFields() []string {
	var missing []string
	if s.TemperatureC == nil {
		missing = append(missing, "temperature")
	}
	if s.HumidityPct == nil {
		missing = append(missing, "humidity")
	}
	if s.WindSpeedKmh == nil {
		missing = append(missing, "wind_speed")
	}
	if s.PrecipitationPct == nil {
		missing = append(missing, "precipitation")
	}
	return missing
}

func unwrapCodeFence(body []byte) []byte {
	if m := codeFenceRe.FindSubmatch(body); m != nil {
		return m[1]
	}
	return body
}

func extractText(text string) map[field]int {
	values := make(map[field]int, len(textPatterns))
	for _, p := range textPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := rangeMean(m[1], m[2]); ok {
			values[p.field] = v
		}
	}
	return values
}

func extractFields(obj map[string]any) map[field]int {
	values := make(map[field]int, len(jsonFields))
	for _, jf := range jsonFields {
		raw, ok := lookupField(obj, jf.keys)
		if !ok {
			continue
		}
		if v, ok := parseFieldValue(raw, jf.suffixes); ok {
			values[jf.field] = v
		}
	}
	return values
}

// lookupField finds the first of keys in obj (exact match, then
// case-insensitive), falling back to the nested container objects.
func lookupField(obj map[string]any, keys []string) (any, bool) {
	if v, ok := lookupKeys(obj, keys); ok {
		return v, true
	}
	for _, c := range containerKeys {
		nested, ok := obj[c].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := lookupKeys(nested, keys); ok {
			return v, true
		}
	}
	return nil, false
}

func lookupKeys(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	for _, name := range slices.Sorted(maps.Keys(obj)) {
		for _, k := range keys {
			if strings.EqualFold(name, k) && obj[name] != nil {
				return obj[name], true
			}
		}
	}
	return nil, false
}

// parseFieldValue reads a JSON value as an integer reading. Strings have one
// known unit suffix removed and are parsed like "28", "28°C" or "25-30".
func parseFieldValue(raw any, suffixes []string) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxReadingMagnitude {
			return 0, false
		}
		return roundHalfUp(v), true
	case string:
		s := strings.TrimSpace(v)
		if isFahrenheit(s) {
			return 0, false
		}
		for _, suffix := range suffixes {
			if trimmed, ok := strings.CutSuffix(s, suffix); ok {
				s = trimmed
				break
			}
		}
		m := leadingValueRe.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		return rangeMean(m[1], m[2])
	default:
		return 0, false
	}
}

// isFahrenheit reports a reading in °F, which is not converted.
func isFahrenheit(s string) bool {
	return strings.Contains(s, "℉") || strings.Contains(strings.ToUpper(s), "°F")
}

// rangeMean parses lo and an optional hi bound and returns the rounded mean.
func rangeMean(lo, hi string) (int, bool) {
	x, ok := parseReading(lo)
	if !ok {
		return 0, false
	}
	if hi == "" {
		return x, true
	}
	y, ok := parseReading(hi)
	if !ok {
		return 0, false
	}
	return roundHalfUp(float64(x+y) / 2), true
}

// parseReading parses one integer operand, rejecting magnitudes no weather
// reading can have.
func parseReading(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil || v < -maxReadingMagnitude || v > maxReadingMagnitude {
		return 0, false
	}
	return v, true
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// buildSnapshot validates extracted readings and applies defaults. Readings
// outside their valid range are dropped as if they had not been reported.
func buildSnapshot(values map[field]int) WeatherSnapshot {
	s := WeatherSnapshot{
		UVIndex:         DefaultUVIndex,
		SoilMoisturePct: DefaultSoilMoisturePct,
	}
	if v, ok := values[fieldTemperature]; ok && v >= minTemperatureC && v <= maxTemperatureC {
		s.TemperatureC = intPtr(v)
	}
	if v, ok := values[fieldHumidity]; ok && isPercent(v) {
		s.HumidityPct = intPtr(v)
	}
	if v, ok := values[fieldWindSpeed]; ok && v >= 0 {
		s.WindSpeedKmh = intPtr(v)
	}
	if v, ok := values[fieldPrecipitation]; ok && isPercent(v) {
		s.PrecipitationPct = intPtr(v)
	}
	if v, ok := values[fieldUVIndex]; ok && v >= 0 {
		s.UVIndex = v
	}
	if v, ok := values[fieldSoilMoisture]; ok && isPercent(v) {
		s.SoilMoisturePct = v
	}
	s.Alerts = DeriveAlerts(s)
	return s
}

func isPercent(v int) bool { return v >= 0 && v <= 100 }

// above reports whether an optional reading is present and greater than n.
func above(v *int, n int) bool { return v != nil && *v > n }

// below reports whether an optional reading is present and less than n.
func below(v *int, n int) bool { return v != nil && *v < n }
