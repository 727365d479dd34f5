package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/farm-weather-insights/internal/domain"
	"github.com/couchcryptid/farm-weather-insights/internal/insights"
)

// ReportBuilder turns a parsed provider answer into a weather report.
type ReportBuilder interface {
	Build(src domain.ReportSource, source string) domain.WeatherReport
}

// InsightsTransformer implements Transformer by parsing the source message,
// building its weather report and serializing the report for the sink.
type InsightsTransformer struct {
	builder ReportBuilder
	logger  *slog.Logger
}

// NewTransformer creates an InsightsTransformer backed by builder.
func NewTransformer(builder ReportBuilder, logger *slog.Logger) *InsightsTransformer {
	return &InsightsTransformer{
		builder: builder,
		logger:  logger,
	}
}

func (t *InsightsTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	src, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	report := t.builder.Build(src, insights.SourceKafka)
	if missing := report.Current.MissingFields(); len(missing) > 0 {
		t.logger.Debug("forecast missing readings",
			"report_id", report.ID,
			"location", report.Location,
			"missing", missing,
		)
	}

	return domain.SerializeReport(report)
}
