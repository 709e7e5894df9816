package metrics_test

import (
	"bucketscan/pkg/metrics"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_ExportsInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	shutdown, err := metrics.Setup(reg)
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	ctx := context.Background()
	meter := otel.Meter("bucketscan/pkg/metrics_test")

	counter, err := meter.Int64Counter("test.probes")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	hist, err := meter.Float64Histogram("test.duration")
	require.NoError(t, err)
	hist.Record(ctx, 0.02)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
		if f.GetName() == "test_duration" {
			for _, m := range f.GetMetric() {
				require.Len(t, m.GetHistogram().GetBucket(), len(metrics.DefaultBuckets))
			}
		}
	}
	require.True(t, names["test_probes_total"], "counter should be exported, got %v", names)
	require.True(t, names["test_duration"], "histogram should be exported, got %v", names)
}
