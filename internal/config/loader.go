package config

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	configName      = ".xtree"
	configType      = "yaml"
	envPrefix       = "XTREE"
	envKeySeparator = "_"
)

// flagKeys maps the command line flags to the config keys.
var flagKeys = map[string]string{
	"tree":            "tree",
	"key":             "key",
	"log-level":       "log.level",
	"log-encoder":     "log.encoder",
	"log-file":        "log.file",
	"log-max-size":    "log.maxsize",
	"log-max-age":     "log.maxage",
	"log-max-backups": "log.maxbackups",
	"log-compress":    "log.compress",
	"metrics":         "metrics.exporter",
	"metrics-addr":    "metrics.addr",
	"sizes":           "bench.sizes",
	"workers":         "bench.workers",
}

// LoadConfig merges, by priority, the changed flags, the XTREE_ env
// vars, the config file and the defaults. A missing default config file
// is not an error, a missing explicit one is.
func LoadConfig(configPath string, flagSets ...*pflag.FlagSet) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	for _, fs := range flagSets {
		if fs == nil {
			continue
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, infra.WrapErrorStack(err, "bind flag "+name)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, infra.WrapErrorStack(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, infra.WrapErrorStack(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, infra.WrapErrorStack(err, "validate config")
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("tree", "")
	v.SetDefault("key", "")

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.encoder", DefaultLogEncoder)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsize", "")
	v.SetDefault("log.maxage", "")
	v.SetDefault("log.maxbackups", 0)
	v.SetDefault("log.compress", false)

	v.SetDefault("metrics.exporter", DefaultMetricsExporter)
	v.SetDefault("metrics.addr", DefaultMetricsAddr)

	v.SetDefault("bench.sizes", DefaultBenchSizes)
	v.SetDefault("bench.workers", DefaultBenchWorkers)
}
