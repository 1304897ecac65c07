package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xtree/lib/infra"
)

var runtimeOnce sync.Once

// TreeSnapshot is what the gauges report.
type TreeSnapshot struct {
	Kind      string
	Len       int64
	Height    uint64
	Rotations uint64
	Recolors  uint64
}

// TreeProbe hands the latest snapshot from the session goroutine to the
// metric callbacks, the trees themselves are not goroutine-safe.
type TreeProbe struct {
	latest atomic.Pointer[TreeSnapshot]
}

func (p *TreeProbe) Publish(snapshot TreeSnapshot) {
	p.latest.Store(&snapshot)
}

// Load returns false until the first Publish.
func (p *TreeProbe) Load() (TreeSnapshot, bool) {
	s := p.latest.Load()
	if s == nil {
		return TreeSnapshot{}, false
	}
	return *s, true
}

type treeStats struct {
	size      metric.Int64ObservableGauge
	height    metric.Int64ObservableGauge
	rotations metric.Int64ObservableCounter
	recolors  metric.Int64ObservableCounter
	processes metric.Int64ObservableUpDownCounter
}

type statsCfg struct {
	mp      metric.MeterProvider
	runtime bool
}

type StatsOption func(*statsCfg)

// WithMeterProvider replaces the otel global provider.
func WithMeterProvider(mp metric.MeterProvider) StatsOption {
	return func(cfg *statsCfg) {
		cfg.mp = mp
	}
}

// WithRuntimeMetrics starts the go runtime instrumentation once per
// process.
func WithRuntimeMetrics() StatsOption {
	return func(cfg *statsCfg) {
		cfg.runtime = true
	}
}

func meterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xtree/tree")
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitTreeStats registers the observable instruments fed by the probe.
// The callback is unregistered once ctx is done.
func InitTreeStats(ctx context.Context, name string, probe *TreeProbe, opts ...StatsOption) error {
	if probe == nil {
		return infra.NewErrorStack("[xtree] tree stats without a probe")
	}
	cfg := &statsCfg{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	if cfg.mp == nil {
		cfg.mp = otel.GetMeterProvider()
	}

	meter := cfg.mp.Meter(
		meterName(name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	stats := &treeStats{
		size: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xtree.tree.size",
			metric.WithDescription(`The number of keys in the tree.`),
		)),
		height: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"xtree.tree.height",
			metric.WithDescription(`The height of the tree, 0 if empty.`),
		)),
		rotations: lo.Must[metric.Int64ObservableCounter](meter.Int64ObservableCounter(
			"xtree.tree.rotations",
			metric.WithDescription(`The rotations performed since the tree was created.`),
		)),
		recolors: lo.Must[metric.Int64ObservableCounter](meter.Int64ObservableCounter(
			"xtree.tree.recolors",
			metric.WithDescription(`The recolorings performed since the tree was created.`),
		)),
		processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"xtree.app.processes",
			metric.WithDescription(`The application processes' info.`),
		)),
	}
	reg, err := meter.RegisterCallback(func(_ context.Context, ob metric.Observer) error {
		ob.ObserveInt64(stats.processes, int64(runtime.GOMAXPROCS(0)))
		s, ok := probe.Load()
		if !ok {
			return nil
		}
		attrs := metric.WithAttributes(attribute.String("kind", s.Kind))
		ob.ObserveInt64(stats.size, s.Len, attrs)
		ob.ObserveInt64(stats.height, int64(s.Height), attrs)
		ob.ObserveInt64(stats.rotations, int64(s.Rotations), attrs)
		ob.ObserveInt64(stats.recolors, int64(s.Recolors), attrs)
		return nil
	}, stats.size, stats.height, stats.rotations, stats.recolors, stats.processes)
	if err != nil {
		return infra.WrapErrorStack(err, "[xtree] register tree stats callback")
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = reg.Unregister()
		}()
	}

	if cfg.runtime {
		runtimeOnce.Do(func() {
			err = otelruntime.Start(otelruntime.WithMeterProvider(cfg.mp))
		})
	}
	return err
}
