// Package domain turns generative-AI weather answers into farm weather insights.
//
// # Data Source
//
// Forecasts come from a generative model (Gemini) prompted with a location and
// a date. The answer is untrusted: sometimes prose, sometimes JSON, sometimes
// JSON inside a Markdown code fence, and occasionally wrapped in the
// {location, date, forecast} envelope that the weather endpoint returns.
//
// # Normalization
//
// Prose is read with one label-anchored pattern per reading:
//
//	Temperature: 25-30°C     → 28  (range mean, halves round up)
//	Humidity: 65%            → 65
//	Wind: 10 km/h            → 10  ("Wind Speed:" also accepted)
//	Rainfall: 15mm           → 15  ("Precipitation: 40%" also accepted)
//	UV Index: 7              → 7
//	Soil Moisture: 38%       → 38
//
// JSON answers are read key by key ("temperature": "28°C", "humidity": 65,
// "windSpeed": "12 km/h", ...). Known unit suffixes are stripped and the
// leading integer parsed. Keys missing at the top level are looked up inside
// "current", "weather", "conditions" and "forecast" objects.
//
// Validation:
//
//	Percentages (humidity, precipitation, soil moisture) must lie in [0, 100].
//	Wind speed and UV index must not be negative.
//	Temperature must lie in [-90, 70] °C; no operand may exceed 1000 in magnitude.
//	Invalid readings are dropped as if absent; a zero reading is kept.
//	UV index defaults to 6 and soil moisture to 45 when absent.
//
// Alerts:
//
//	Temperature > 30 °C   → "High Temperature" (warning)
//	Precipitation > 10    → "Heavy Rainfall"   (alert)
//
// # Derivation
//
// A [Generator] expands a snapshot into a 5-day forecast (bounded random
// jitter around the snapshot, seedable for reproducibility), a 5-day farming
// calendar and categorized recommendations. Calendar and recommendation rules
// are fixed thresholds over the snapshot; a rule whose reading is absent does
// not fire. Every calendar day carries at least one activity.
//
// # Report IDs
//
// Report IDs are SHA-256 digests of location|date|payload so that reprocessing
// the same provider answer yields the same sink key. See [generateID].
package domain
