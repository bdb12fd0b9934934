package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	require.NoError(t, (<-ch).Write(m))
	return m.GetCounter().GetValue()
}

func TestNewRegistry_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.PacketsIngested.Inc()
	r.TicketsRaised.WithLabelValues("well_control", "critical").Inc()

	assert := require.New(t)
	assert.Equal(1.0, counterValue(t, r.PacketsIngested))
	assert.Equal(1.0, counterValue(t, r.TicketsRaised.WithLabelValues("well_control", "critical")))
}

func TestIngestTimer_RecordsObservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	timer := r.StartIngestTimer()
	timer.Stop()

	mf, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, m := range mf {
		if m.GetName() == "sairen_ingest_latency_seconds" {
			found = true
			require.Equal(t, uint64(1), m.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	require.True(t, found, "expected sairen_ingest_latency_seconds to be registered and observed")
}
