// Package insights orchestrates a weather report: location resolution, the
// forecast provider call, normalization and derivation.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/farm-weather-insights/internal/domain"
	"github.com/couchcryptid/farm-weather-insights/internal/observability"
)

// Report sources, used as the metrics label.
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// Request asks for a forecast by place name or by coordinates.
type Request struct {
	Location string   `json:"location"`
	Date     string   `json:"date"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

// Service builds weather reports. Provider and geocoder are optional; without
// a provider every forecast is the unavailable placeholder.
type Service struct {
	provider domain.ForecastProvider
	geocoder domain.Geocoder
	seed     uint64
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService wires a Service. A zero seed gives every report fresh forecast
// jitter; any other seed makes reports reproducible.
func NewService(provider domain.ForecastProvider, geocoder domain.Geocoder, seed uint64, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		provider: provider,
		geocoder: geocoder,
		seed:     seed,
		logger:   logger,
		metrics:  metrics,
	}
}

// Forecast resolves the requested place, asks the provider for its forecast
// and returns the derived report. Provider failures degrade to the
// unavailable placeholder rather than an error.
func (s *Service) Forecast(ctx context.Context, req Request) (domain.WeatherReport, error) {
	day, err := parseRequestDate(req.Date)
	if err != nil {
		return domain.WeatherReport{}, err
	}
	if strings.TrimSpace(req.Location) == "" && (req.Lat == nil || req.Lon == nil) {
		return domain.WeatherReport{}, fmt.Errorf("location is required: %w", domain.ErrInvalidRequest)
	}

	loc, err := domain.ResolveLocation(ctx, req.Location, req.Lat, req.Lon, s.geocoder, s.logger)
	if err != nil {
		return domain.WeatherReport{}, err
	}

	location := loc.Label()
	date := day.Format(domain.DateLayout)
	answer := s.fetch(ctx, location, date)

	report := s.Build(domain.ReportSource{
		Payload:  []byte(answer),
		Location: location,
		Date:     day,
	}, SourceHTTP)
	report.RawForecast = answer
	return report, nil
}

// Build normalizes and derives one provider answer and records report metrics.
func (s *Service) Build(src domain.ReportSource, source string) domain.WeatherReport {
	report := domain.BuildReport(src, s.generator())

	s.metrics.ReportsGenerated.WithLabelValues(source).Inc()
	for _, f := range report.Current.MissingFields() {
		s.metrics.SnapshotFieldsMissing.WithLabelValues(f).Inc()
	}
	for _, a := range report.Current.Alerts {
		s.metrics.AlertsRaised.WithLabelValues(a.Kind).Inc()
	}
	return report
}

// Normalize builds a report from a raw provider answer supplied by the caller.
func (s *Service) Normalize(payload []byte) (domain.WeatherReport, error) {
	src, err := domain.ParseRawEvent(domain.RawEvent{Value: payload})
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return s.Build(src, SourceHTTP), nil
}

func (s *Service) fetch(ctx context.Context, location, date string) string {
	if s.provider == nil {
		s.metrics.ProviderRequests.WithLabelValues("disabled").Inc()
		return domain.UnavailableForecast
	}

	start := time.Now()
	answer, err := s.provider.FetchForecast(ctx, location, date)
	s.metrics.ProviderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ProviderRequests.WithLabelValues("error").Inc()
		s.logger.Warn("forecast provider failed, using placeholder", "location", location, "date", date, "error", err)
		return domain.UnavailableForecast
	}
	s.metrics.ProviderRequests.WithLabelValues("success").Inc()
	return answer
}

func (s *Service) generator() *domain.Generator {
	if s.seed == 0 {
		return domain.NewRandomGenerator()
	}
	return domain.NewGenerator(s.seed)
}

func parseRequestDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Today(), nil
	}
	day, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD: %w", raw, domain.ErrInvalidRequest)
	}
	return day, nil
}
