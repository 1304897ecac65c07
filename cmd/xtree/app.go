package main

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/internal/config"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const shutdownTimeout = 3 * time.Second

type banner struct{}

func (banner) JSON() string {
	return `{"app":"xtree","version":"` + version + `"}`
}

func (banner) PlainText() string {
	return `
 __  __ _
 \ \/ /| |_ _ __ ___  ___
  \  / | __| '__/ _ \/ _ \
  /  \ | |_| | |  __/  __/
 /_/\_\ \__|_|  \___|\___|  ` + version + `
`
}

// app holds what every subcommand shares.
type app struct {
	cfg      *config.Config
	logger   xlog.XLogger
	exporter *observability.Exporter
	probe    *observability.TreeProbe
}

func newLogger(cfg *config.Config, w io.Writer) (xlog.XLogger, error) {
	lvl, err := xlog.LogLevelOf(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	enc, err := xlog.LogEncoderOf(cfg.Log.Encoder)
	if err != nil {
		return nil, err
	}
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(lvl),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerConsoleWriter(w),
	}
	if cfg.Log.File != "" {
		opts = append(opts, xlog.WithXLoggerFileWriter(&xlog.FileCoreConfig{
			FilePath: filepath.Dir(cfg.Log.File),
			Filename: filepath.Base(cfg.Log.File),

			FileMaxSize:      cfg.Log.MaxSize,
			FileMaxAge:       cfg.Log.MaxAge,
			FileMaxBackups:   cfg.Log.MaxBackups,
			FileCompressible: cfg.Log.Compress,
		}))
	}
	return xlog.NewXLogger(opts...), nil
}

// setup loads the config with the command flags and starts the logger
// and the metrics exporter. The exporter stops once ctx is done.
func setup(ctx context.Context, cmd *cobra.Command, meterName string) (*app, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, infra.WrapErrorStack(err, "config flag")
	}
	cfg, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger.Banner(banner{})
	if _, err = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Logf(zapcore.DebugLevel, format, args...)
	})); err != nil {
		logger.Warn("set GOMAXPROCS", zap.Error(err))
	}

	kind, err := observability.MetricsExporterKindOf(cfg.Metrics.Exporter)
	if err != nil {
		return nil, err
	}
	exporter, err := observability.NewMetricsExporter(ctx, kind,
		observability.WithPrometheusAddr(cfg.Metrics.Addr),
		observability.WithStdoutWriter(cmd.ErrOrStderr()),
	)
	if err != nil {
		return nil, err
	}
	// Sessions publish snapshots only when an exporter reads them.
	var probe *observability.TreeProbe
	if kind != observability.NoneExporter {
		probe = &observability.TreeProbe{}
		if err = observability.InitTreeStats(ctx, meterName, probe,
			observability.WithMeterProvider(exporter.MeterProvider()),
			observability.WithRuntimeMetrics(),
		); err != nil {
			return nil, multierr.Append(err, exporter.Shutdown(context.Background()))
		}
	}
	if addr := exporter.Addr(); addr != "" {
		logger.Info("metrics served", zap.String("addr", "http://"+addr+"/metrics"))
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		exporter: exporter,
		probe:    probe,
	}, nil
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.exporter.Shutdown(ctx)
	return multierr.Append(err, a.logger.Close())
}
