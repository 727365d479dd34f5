package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/farm-weather-insights/internal/domain"
	"github.com/couchcryptid/farm-weather-insights/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const sampleForecast = "Temperature: 28-32°C, Humidity: 55%, Wind: 10 km/h, Rainfall: 15mm"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- fakes ---

type fakeProvider struct {
	answer   string
	err      error
	location string
	date     string
	calls    int
}

func (f *fakeProvider) FetchForecast(_ context.Context, location, date string) (string, error) {
	f.calls++
	f.location = location
	f.date = date
	return f.answer, f.err
}

type fakeGeocoder struct {
	reverse domain.GeocodingResult
	err     error
}

func (f *fakeGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, f.err
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return f.reverse, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

func useFakeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestService(provider domain.ForecastProvider, geocoder domain.Geocoder, seed uint64) *Service {
	return NewService(provider, geocoder, seed, discardLogger(), observability.NewMetricsForTesting())
}

// --- Forecast ---

func TestForecast_ByLocation(t *testing.T) {
	useFakeClock(t)
	provider := &fakeProvider{answer: sampleForecast}
	svc := newTestService(provider, nil, 1)

	report, err := svc.Forecast(context.Background(), Request{Location: " Pune "})

	require.NoError(t, err)
	assert.Equal(t, "Pune", provider.location)
	assert.Equal(t, "2026-10-18", provider.date)
	assert.Equal(t, "Pune", report.Location)
	assert.Equal(t, "2026-10-18", report.Date)
	assert.Equal(t, sampleForecast, report.RawForecast)
	require.NotNil(t, report.Current.TemperatureC)
	assert.Equal(t, 30, *report.Current.TemperatureC)
	require.Len(t, report.Current.Alerts, 1)
	assert.Equal(t, "Heavy Rainfall", report.Current.Alerts[0].Kind)
	assert.Len(t, report.Forecast, domain.ForecastDays)
	assert.Len(t, report.Calendar, domain.ForecastDays)
}

func TestForecast_ExplicitDate(t *testing.T) {
	useFakeClock(t)
	provider := &fakeProvider{answer: sampleForecast}
	svc := newTestService(provider, nil, 1)

	report, err := svc.Forecast(context.Background(), Request{Location: "Pune", Date: "2026-11-02"})

	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", provider.date)
	assert.Equal(t, "2026-11-02", report.Calendar[0].Date)
}

func TestForecast_ReverseGeocodedCoordinates(t *testing.T) {
	useFakeClock(t)
	provider := &fakeProvider{answer: sampleForecast}
	geo := &fakeGeocoder{reverse: domain.GeocodingResult{PlaceName: "Pune", FormattedAddress: "Pune, Maharashtra, India"}}
	svc := newTestService(provider, geo, 1)

	report, err := svc.Forecast(context.Background(), Request{Lat: floatPtr(18.52), Lon: floatPtr(73.86)})

	require.NoError(t, err)
	assert.Equal(t, "Pune, Maharashtra, India", provider.location)
	assert.Equal(t, "Pune, Maharashtra, India", report.Location)
}

func TestForecast_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		geo     domain.Geocoder
		wantErr error
	}{
		{name: "no location", req: Request{}, wantErr: domain.ErrInvalidRequest},
		{name: "blank location", req: Request{Location: "   "}, wantErr: domain.ErrInvalidRequest},
		{name: "only one coordinate", req: Request{Lat: floatPtr(18.5)}, wantErr: domain.ErrInvalidRequest},
		{name: "bad date", req: Request{Location: "Pune", Date: "18/10/2026"}, wantErr: domain.ErrInvalidRequest},
		{name: "coordinates without geocoding", req: Request{Lat: floatPtr(18.5), Lon: floatPtr(73.8)}, wantErr: domain.ErrLocationUnresolved},
		{
			name:    "reverse geocoding fails",
			req:     Request{Lat: floatPtr(18.5), Lon: floatPtr(73.8)},
			geo:     &fakeGeocoder{err: errors.New("rate limited")},
			wantErr: domain.ErrLocationUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{answer: sampleForecast}
			svc := newTestService(provider, tt.geo, 1)

			_, err := svc.Forecast(context.Background(), tt.req)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, provider.calls, "provider must not be called")
		})
	}
}

func TestForecast_ProviderFailureUsesPlaceholder(t *testing.T) {
	useFakeClock(t)
	svc := newTestService(&fakeProvider{err: errors.New("quota exceeded")}, nil, 1)

	report, err := svc.Forecast(context.Background(), Request{Location: "Pune"})

	require.NoError(t, err)
	assert.Equal(t, domain.UnavailableForecast, report.RawForecast)
	assert.Nil(t, report.Current.TemperatureC)
	assert.Equal(t, domain.DefaultUVIndex, report.Current.UVIndex)
	assert.Equal(t, domain.DefaultSoilMoisturePct, report.Current.SoilMoisturePct)
	assert.Empty(t, report.Current.Alerts)
	assert.Len(t, report.Forecast, domain.ForecastDays)
}

func TestForecast_NoProvider(t *testing.T) {
	useFakeClock(t)
	svc := newTestService(nil, nil, 1)

	report, err := svc.Forecast(context.Background(), Request{Location: "Pune"})

	require.NoError(t, err)
	assert.Equal(t, domain.UnavailableForecast, report.RawForecast)
}

func TestForecast_SeededServiceIsReproducible(t *testing.T) {
	useFakeClock(t)
	svc := newTestService(&fakeProvider{answer: sampleForecast}, nil, 99)

	a, err := svc.Forecast(context.Background(), Request{Location: "Pune"})
	require.NoError(t, err)
	b, err := svc.Forecast(context.Background(), Request{Location: "Pune"})
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("seeded reports differ (-first +second):\n%s", diff)
	}
}

// --- Normalize ---

func TestNormalize_Envelope(t *testing.T) {
	useFakeClock(t)
	svc := newTestService(nil, nil, 1)

	report, err := svc.Normalize([]byte(`{"location":"Nashik","date":"2026-10-20","forecast":"` + sampleForecast + `"}`))

	require.NoError(t, err)
	assert.Equal(t, "Nashik", report.Location)
	assert.Equal(t, "2026-10-20", report.Date)
	require.NotNil(t, report.Current.HumidityPct)
	assert.Equal(t, 55, *report.Current.HumidityPct)
}

func TestNormalize_PlainTextDefaultsToToday(t *testing.T) {
	useFakeClock(t)
	svc := newTestService(nil, nil, 1)

	report, err := svc.Normalize([]byte(sampleForecast))

	require.NoError(t, err)
	assert.Empty(t, report.Location)
	assert.Equal(t, "2026-10-18", report.Date)
}

func TestNormalize_EmptyPayload(t *testing.T) {
	svc := newTestService(nil, nil, 1)

	_, err := svc.Normalize([]byte(" \n"))

	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.ErrorIs(t, err, domain.ErrEmptyPayload)
}

// --- metrics ---

func TestBuild_RecordsMetrics(t *testing.T) {
	useFakeClock(t)
	metrics := observability.NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(metrics.ReportsGenerated))
	require.NoError(t, reg.Register(metrics.SnapshotFieldsMissing))
	require.NoError(t, reg.Register(metrics.AlertsRaised))
	svc := NewService(nil, nil, 1, discardLogger(), metrics)

	svc.Build(domain.ReportSource{Payload: []byte("Temperature: 34°C, Rainfall: 20mm"), Date: domain.Today()}, SourceKafka)

	families, err := reg.Gather()
	require.NoError(t, err)
	totals := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			totals[f.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 1, totals["weather_insights_reports_generated_total"], 0)
	assert.InDelta(t, 2, totals["weather_insights_snapshot_fields_missing_total"], 0, "humidity and wind speed")
	assert.InDelta(t, 2, totals["weather_insights_alerts_raised_total"], 0)
}
