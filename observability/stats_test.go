package observability

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectInt64(t *testing.T, reader metric.Reader) map[string]int64 {
	t.Helper()
	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	res := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					res[m.Name] = dp.Value
				}
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					res[m.Name] = dp.Value
				}
			}
		}
	}
	return res
}

func TestTreeProbe(t *testing.T) {
	probe := &TreeProbe{}
	_, ok := probe.Load()
	require.False(t, ok)

	probe.Publish(TreeSnapshot{Kind: "rbtree", Len: 3})
	s, ok := probe.Load()
	require.True(t, ok)
	require.Equal(t, int64(3), s.Len)
}

func TestInitTreeStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	probe := &TreeProbe{}
	require.NoError(t, InitTreeStats(ctx, "test", probe, WithMeterProvider(mp), nil))

	values := collectInt64(t, reader)
	require.NotContains(t, values, "xtree.tree.size")
	require.Contains(t, values, "xtree.app.processes")

	probe.Publish(TreeSnapshot{
		Kind:      "avltree",
		Len:       8,
		Height:    4,
		Rotations: 3,
		Recolors:  0,
	})
	values = collectInt64(t, reader)
	require.Equal(t, int64(8), values["xtree.tree.size"])
	require.Equal(t, int64(4), values["xtree.tree.height"])
	require.Equal(t, int64(3), values["xtree.tree.rotations"])
	require.Equal(t, int64(0), values["xtree.tree.recolors"])

	require.Error(t, InitTreeStats(ctx, "test", nil))
}

func TestMeterName(t *testing.T) {
	require.Equal(t, "xtree/tree/repl", meterName("repl"))
	require.Equal(t, "xtree/tree/default", meterName("  "))
	require.Equal(t, []string{"xtree/tree/a", "xtree/tree/b"}, lo.Map([]string{"a", "b"}, func(name string, _ int) string {
		return meterName(name)
	}))
}
