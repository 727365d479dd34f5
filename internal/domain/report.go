package domain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ForecastEnvelope is the {location, date, forecast} wrapper the weather
// endpoint returns and upstream producers publish.
type ForecastEnvelope struct {
	Location string `json:"location"`
	Date     string `json:"date"`
	Forecast string `json:"forecast"`
}

// WeatherReport is a normalized snapshot together with everything derived
// from it. Insights fields are inlined in the JSON form.
type WeatherReport struct {
	ID          string          `json:"id"`
	Location    string          `json:"location,omitempty"`
	Date        string          `json:"date"`
	Current     WeatherSnapshot `json:"current"`
	RawForecast string          `json:"raw_forecast,omitempty"`
	Insights
	ProcessedAt time.Time `json:"processed_at"`
}

// ReportSource is one provider answer plus the context it was requested in.
type ReportSource struct {
	Payload  []byte
	Location string
	Date     time.Time
}

// ParseRawEvent turns a source message into a ReportSource. Location and date
// come from the envelope when the value is one, else from the "location" and
// "date" headers; the message timestamp is the last resort for the date.
func ParseRawEvent(raw RawEvent) (ReportSource, error) {
	if len(bytes.TrimSpace(raw.Value)) == 0 {
		return ReportSource{}, fmt.Errorf("parse raw event: %w", ErrEmptyPayload)
	}

	src := ReportSource{
		Payload:  raw.Value,
		Location: strings.TrimSpace(raw.Headers["location"]),
	}
	date := raw.Headers["date"]

	var env ForecastEnvelope
	if json.Unmarshal(raw.Value, &env) == nil {
		if env.Location != "" {
			src.Location = env.Location
		}
		if env.Date != "" {
			date = env.Date
		}
	}

	if d, err := time.Parse(DateLayout, strings.TrimSpace(date)); err == nil {
		src.Date = d
	} else if !raw.Timestamp.IsZero() {
		src.Date = startOfDay(raw.Timestamp)
	} else {
		src.Date = Today()
	}
	return src, nil
}

// BuildReport runs the normalizer and generator over one provider answer.
func BuildReport(src ReportSource, gen *Generator) WeatherReport {
	day := startOfDay(src.Date)
	date := day.Format(DateLayout)
	snapshot := Normalize(src.Payload)

	return WeatherReport{
		ID:          generateID(src.Location, date, src.Payload),
		Location:    src.Location,
		Date:        date,
		Current:     snapshot,
		Insights:    gen.Derive(snapshot, day),
		ProcessedAt: clock.Now(),
	}
}

// SerializeReport marshals a report into a sink message keyed by report ID.
func SerializeReport(r WeatherReport) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize weather report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"location":     r.Location,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID hashes the report's inputs so that replaying the same provider
// answer for the same place and day yields the same key.
func generateID(location, date string, payload []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", strings.ToLower(location), date)
	h.Write(payload)
	return "wx-" + hex.EncodeToString(h.Sum(nil)[:8])
}
