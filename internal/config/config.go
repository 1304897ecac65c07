package config

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogEncoder      = "text"
	DefaultMetricsExporter = "none"
	DefaultMetricsAddr     = "127.0.0.1:9464"
	DefaultBenchWorkers    = 1
)

// DefaultBenchSizes are the worst case input sizes of the benchmark.
var DefaultBenchSizes = []int{10_000, 40_000, 70_000, 100_000, 130_000}

type KeyType string

const (
	IntKey    KeyType = "int"
	StringKey KeyType = "str"
)

type Config struct {
	// Tree and Key skip the interactive prompts when set.
	Tree    string        `mapstructure:"tree" yaml:"tree"`
	Key     string        `mapstructure:"key" yaml:"key"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Bench   BenchConfig   `mapstructure:"bench" yaml:"bench"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Encoder string `mapstructure:"encoder" yaml:"encoder"`
	// File enables a file core next to the console one.
	File string `mapstructure:"file" yaml:"file"`
	// MaxSize rotates the file, e.g. "10MB". The backups older than
	// MaxAge or beyond MaxBackups are removed, or zipped with Compress.
	MaxSize    string `mapstructure:"maxsize" yaml:"maxSize"`
	MaxAge     string `mapstructure:"maxage" yaml:"maxAge"`
	MaxBackups int    `mapstructure:"maxbackups" yaml:"maxBackups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type MetricsConfig struct {
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
}

type BenchConfig struct {
	Sizes   []int `mapstructure:"sizes" yaml:"sizes"`
	Workers int   `mapstructure:"workers" yaml:"workers"`
}

// TreeKindOf accepts the prompt answers and the config names.
func TreeKindOf(s string) (tree.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "rbt", "rbtree", "red-black":
		return tree.RedBlack, true
	case "2", "avl", "avltree":
		return tree.AVL, true
	default:
	}
	return 0, false
}

func KeyTypeOf(s string) (KeyType, bool) {
	switch KeyType(strings.ToLower(strings.TrimSpace(s))) {
	case IntKey, "int64":
		return IntKey, true
	case StringKey, "string":
		return StringKey, true
	default:
	}
	return "", false
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	var err error
	if cfg.Tree != "" {
		if _, ok := TreeKindOf(cfg.Tree); !ok {
			err = multierr.Append(err, infra.NewErrorStack("invalid tree type "+cfg.Tree))
		}
	}
	if cfg.Key != "" {
		if _, ok := KeyTypeOf(cfg.Key); !ok {
			err = multierr.Append(err, infra.NewErrorStack("invalid key type "+cfg.Key))
		}
	}
	if _, lvlErr := xlog.LogLevelOf(cfg.Log.Level); lvlErr != nil {
		err = multierr.Append(err, lvlErr)
	}
	if _, encErr := xlog.LogEncoderOf(cfg.Log.Encoder); encErr != nil {
		err = multierr.Append(err, encErr)
	}
	if cfg.Log.MaxSize != "" {
		if _, sizeErr := xlog.ParseFileSize(cfg.Log.MaxSize); sizeErr != nil {
			err = multierr.Append(err, sizeErr)
		}
	}
	if cfg.Log.MaxAge != "" {
		if _, ageErr := xlog.ParseFileAge(cfg.Log.MaxAge); ageErr != nil {
			err = multierr.Append(err, ageErr)
		}
	}
	if cfg.Log.MaxBackups < 0 {
		err = multierr.Append(err, infra.NewErrorStack("negative log max backups"))
	}
	if _, expErr := observability.MetricsExporterKindOf(cfg.Metrics.Exporter); expErr != nil {
		err = multierr.Append(err, expErr)
	}
	if len(cfg.Bench.Sizes) == 0 {
		err = multierr.Append(err, infra.NewErrorStack("empty bench sizes"))
	}
	for _, size := range cfg.Bench.Sizes {
		if size <= 0 {
			err = multierr.Append(err, infra.NewErrorStack("bench size must be positive"))
			break
		}
	}
	if cfg.Bench.Workers <= 0 {
		err = multierr.Append(err, infra.NewErrorStack("bench workers must be positive"))
	}
	return err
}
