package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

type MetricsExporterKind string

const (
	NoneExporter       MetricsExporterKind = "none"
	StdoutExporter     MetricsExporterKind = "stdout"
	PrometheusExporter MetricsExporterKind = "prometheus"
)

func MetricsExporterKindOf(name string) (MetricsExporterKind, error) {
	switch kind := MetricsExporterKind(strings.ToLower(strings.TrimSpace(name))); kind {
	case "":
		return NoneExporter, nil
	case NoneExporter, StdoutExporter, PrometheusExporter:
		return kind, nil
	default:
	}
	return NoneExporter, infra.NewErrorStack("[xtree] unknown metrics exporter " + name)
}

type exporterCfg struct {
	writer   io.Writer
	interval time.Duration
	timeout  time.Duration
	addr     string
}

type ExporterOption func(*exporterCfg)

// WithStdoutWriter redirects the stdout exporter, e.g. to stderr.
func WithStdoutWriter(w io.Writer) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.writer = w
	}
}

func WithExportInterval(interval, timeout time.Duration) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.interval, cfg.timeout = interval, timeout
	}
}

// WithPrometheusAddr is the listen address of the scrape endpoint.
func WithPrometheusAddr(addr string) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.addr = addr
	}
}

// Exporter owns the meter provider it installed as the otel global.
type Exporter struct {
	kind     MetricsExporterKind
	mp       otelmetric.MeterProvider
	addr     string
	once     sync.Once
	shutdown func(ctx context.Context) error
}

func (e *Exporter) Kind() MetricsExporterKind {
	return e.kind
}

func (e *Exporter) MeterProvider() otelmetric.MeterProvider {
	return e.mp
}

// Addr is the bound scrape address, empty unless prometheus.
func (e *Exporter) Addr() string {
	return e.addr
}

// Shutdown flushes and stops the exporter, only the first call works.
func (e *Exporter) Shutdown(ctx context.Context) error {
	var err error
	e.once.Do(func() {
		if e.shutdown != nil {
			err = e.shutdown(ctx)
		}
	})
	return err
}

func (e *Exporter) waitForShutdown(ctx context.Context) {
	if ctx == nil || ctx.Done() == nil {
		return
	}
	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
}

// NewMetricsExporter installs the meter provider of the kind. The
// exporter is shut down once ctx is done.
func NewMetricsExporter(ctx context.Context, kind MetricsExporterKind, opts ...ExporterOption) (*Exporter, error) {
	cfg := &exporterCfg{
		writer:   os.Stderr,
		interval: 10 * time.Second,
		timeout:  5 * time.Second,
		addr:     "127.0.0.1:9464",
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}

	var (
		e   *Exporter
		err error
	)
	switch kind {
	case NoneExporter, "":
		e = &Exporter{kind: NoneExporter, mp: noop.NewMeterProvider()}
	case StdoutExporter:
		e, err = newConsoleMetricsExporter(cfg.interval, cfg.timeout, stdoutmetric.WithWriter(cfg.writer))
	case PrometheusExporter:
		e, err = newPrometheusMetricsExporter(cfg.addr)
	default:
		err = infra.NewErrorStack("[xtree] unknown metrics exporter " + string(kind))
	}
	if err != nil {
		return nil, err
	}
	e.waitForShutdown(ctx)
	return e, nil
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (*Exporter, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[xtree] stdout metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return &Exporter{
		kind:     StdoutExporter,
		mp:       mp,
		shutdown: mp.Shutdown,
	}, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
// Each exporter has its own registry to avoid collector conflicts.
func newPrometheusMetricsExporter(addr string) (*Exporter, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[xtree] prometheus metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, multierr.Append(
			infra.WrapErrorStack(err, "[xtree] prometheus listen on "+addr),
			mp.Shutdown(context.Background()),
		)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			otel.Handle(err)
		}
	}()

	otel.SetMeterProvider(mp)
	return &Exporter{
		kind: PrometheusExporter,
		mp:   mp,
		addr: ln.Addr().String(),
		shutdown: func(ctx context.Context) error {
			return multierr.Append(srv.Shutdown(ctx), mp.Shutdown(ctx))
		},
	}, nil
}
