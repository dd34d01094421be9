// Package config loads the application configuration, layering defaults,
// an optional YAML file, GRAMMR_ environment variables and command line
// flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/grammr/srs/internal/fsrs"
)

// Config is the full application configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Database  Database  `koanf:"database"`
	Scheduler Scheduler `koanf:"scheduler"`
	Study     Study     `koanf:"study"`
	Sources   Sources   `koanf:"sources"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `koanf:"addr" validate:"required"`
}

// Database configures the SQLite store.
type Database struct {
	Path string `koanf:"path" validate:"required"`
}

// Scheduler configures the memory model.
type Scheduler struct {
	RequestRetention float64 `koanf:"request_retention" validate:"gt=0,lt=1"`
	MaximumInterval  int     `koanf:"maximum_interval" validate:"gt=0"`
	EnableFuzz       bool    `koanf:"enable_fuzz"`
	EnableShortTerm  bool    `koanf:"enable_short_term"`
}

// Study configures the session queue.
type Study struct {
	BatchSize       int `koanf:"batch_size" validate:"min=1,max=100"`
	RefillThreshold int `koanf:"refill_threshold" validate:"min=1"`
}

// Sources configures where cloned card repositories live.
type Sources struct {
	ReposDirectory string `koanf:"repos_directory" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   Server{Addr: ":8080"},
		Database: Database{Path: "grammr.db"},
		Scheduler: Scheduler{
			RequestRetention: 0.9,
			MaximumInterval:  36500,
			EnableFuzz:       true,
			EnableShortTerm:  true,
		},
		Study:   Study{BatchSize: 10, RefillThreshold: 3},
		Sources: Sources{ReposDirectory: "repos"},
	}
}

// RegisterFlags declares the command line overrides on the given flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("server.addr", def.Server.Addr, "HTTP listen address")
	flags.String("database.path", def.Database.Path, "path to the SQLite database")
	flags.Float64("scheduler.request_retention", def.Scheduler.RequestRetention, "target recall probability")
	flags.Int("scheduler.maximum_interval", def.Scheduler.MaximumInterval, "maximum interval in days")
	flags.Bool("scheduler.enable_fuzz", def.Scheduler.EnableFuzz, "randomize review intervals slightly")
	flags.Bool("scheduler.enable_short_term", def.Scheduler.EnableShortTerm, "use learning steps for same-day reviews")
	flags.Int("study.batch_size", def.Study.BatchSize, "cards per study batch")
	flags.Int("study.refill_threshold", def.Study.RefillThreshold, "queue length that triggers a background refill")
	flags.String("sources.repos_directory", def.Sources.ReposDirectory, "directory for cloned card repositories")
}

// Load builds the configuration. path may be empty or point to a missing
// file, in which case the YAML layer is skipped. flags may be nil.
//
// Environment variables use GRAMMR_ as prefix and a double underscore as
// the section separator, so GRAMMR_SCHEDULER__REQUEST_RETENTION maps to
// scheduler.request_retention.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	envProvider := env.Provider("GRAMMR_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "GRAMMR_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SchedulerParams converts the scheduler section into memory model
// parameters.
func (c *Config) SchedulerParams() fsrs.Params {
	params := fsrs.DefaultParams()
	params.RequestRetention = c.Scheduler.RequestRetention
	params.MaximumInterval = c.Scheduler.MaximumInterval
	params.EnableFuzz = c.Scheduler.EnableFuzz
	params.EnableShortTerm = c.Scheduler.EnableShortTerm
	return params
}
