// Package config loads scenario settings from flags, SHAREDSTATE_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SHAREDSTATE_TIMEOUT=5s or SHAREDSTATE_METRICS_ADDR=localhost:6060.
const EnvPrefix = "SHAREDSTATE"

// Config holds every tunable of the scenarios and the CLI.
type Config struct {
	// Workers is the number of goroutines that share the counter.
	Workers int `mapstructure:"workers"`

	// Increments is the total number of Increment calls, split across Workers.
	Increments int `mapstructure:"increments"`

	// Trials is how many times the racy counter is run looking for a lost update.
	Trials int `mapstructure:"trials"`

	// Capacity is the number of permits in the bounded pool.
	Capacity int `mapstructure:"capacity"`

	// Items is how many values the pool, queue and pipe scenarios move.
	Items int `mapstructure:"items"`

	// Steps is the number of rounds of the cyclic barrier step counter.
	Steps int `mapstructure:"steps"`

	// Timeout bounds the scenarios expected to hang.
	Timeout time.Duration `mapstructure:"timeout"`

	// Detect builds the lock pair over deadlock-detecting mutexes.
	Detect bool `mapstructure:"detect"`

	// Symmetric adds the symmetric relay deadlock to the pipe scenario.
	Symmetric bool `mapstructure:"symmetric"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log-level"`

	// MetricsAddr, when set, serves /metrics and /debug/pprof/ on that address.
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// Default returns the settings used when nothing is configured. They match
// the worked examples: 1000 increments over 8 workers, 3 inserts into 2
// permits, 10 queue and pipe items.
func Default() Config {
	return Config{
		Workers:    8,
		Increments: 1000,
		Trials:     50,
		Capacity:   2,
		Items:      10,
		Steps:      10,
		Timeout:    2 * time.Second,
		LogLevel:   "info",
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	d := Default()
	if out.Workers <= 0 {
		out.Workers = d.Workers
	}
	if out.Increments <= 0 {
		out.Increments = d.Increments
	}
	if out.Trials <= 0 {
		out.Trials = d.Trials
	}
	if out.Capacity <= 0 {
		out.Capacity = d.Capacity
	}
	if out.Items <= 0 {
		out.Items = d.Items
	}
	if out.Steps < 0 {
		out.Steps = d.Steps
	}
	if out.Timeout <= 0 {
		out.Timeout = d.Timeout
	}
	if out.LogLevel == "" {
		out.LogLevel = d.LogLevel
	}
	return out
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

func (c Config) validate() error {
	if c.Increments%c.Workers != 0 {
		return fmt.Errorf("%w: increments (%d) must be a multiple of workers (%d)", ErrInvalid, c.Increments, c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log-level %q: %v", ErrInvalid, c.LogLevel, err)
	}
	return l, nil
}

// RegisterFlags installs the config flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.Int("workers", d.Workers, "goroutines sharing the counter")
	fs.Int("increments", d.Increments, "total increments, split across workers")
	fs.Int("trials", d.Trials, "racy counter runs to look for a lost update")
	fs.Int("capacity", d.Capacity, "permits in the bounded pool")
	fs.Int("items", d.Items, "items moved by the pool, queue and pipe scenarios")
	fs.Int("steps", d.Steps, "rounds of the cyclic barrier step counter")
	fs.Duration("timeout", d.Timeout, "time bound for scenarios expected to deadlock")
	fs.Bool("detect", false, "build the lock pair over deadlock-detecting mutexes")
	fs.Bool("symmetric", false, "also run the pipe's symmetric relay deadlock")
	fs.String("log-level", d.LogLevel, "minimum log level: debug, info, warn or error")
	fs.String("metrics-addr", "", "serve /metrics and /debug/pprof/ on this address")
}

// Load resolves the config from fs, the environment and the file named by
// --config.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
