package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterTotal gathers reg and sums every sample of the named counter family.
func counterTotal(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a, b := NewMetricsForTesting(), NewMetricsForTesting()
	regA, regB := prometheus.NewRegistry(), prometheus.NewRegistry()
	require.NoError(t, regA.Register(a.AlertsRaised))
	require.NoError(t, regB.Register(b.AlertsRaised))

	a.AlertsRaised.WithLabelValues("Heavy Rainfall").Inc()
	a.AlertsRaised.WithLabelValues("High Temperature").Inc()

	assert.InDelta(t, 2, counterTotal(t, regA, "weather_insights_alerts_raised_total"), 0)
	assert.InDelta(t, 0, counterTotal(t, regB, "weather_insights_alerts_raised_total"), 0)
}

func TestNewMetricsForTesting_Registrable(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	require.NoError(t, reg.Register(m.SnapshotFieldsMissing))
	require.NoError(t, reg.Register(m.ProviderRequests))

	m.SnapshotFieldsMissing.WithLabelValues("humidity").Inc()
	m.ProviderRequests.WithLabelValues("error").Add(3)

	assert.InDelta(t, 1, counterTotal(t, reg, "weather_insights_snapshot_fields_missing_total"), 0)
	assert.InDelta(t, 3, counterTotal(t, reg, "weather_insights_provider_requests_total"), 0)
}
