// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/logging"
)

// Config holds settings shared by the dreamsim binaries.
type Config struct {
	DBPath       string        `env:"DREAMSIM_DB_PATH" envDefault:"data/dreams.db"`
	APIPort      int           `env:"DREAMSIM_API_PORT" envDefault:"8080"`
	AdminKey     string        `env:"DREAMSIM_ADMIN_KEY"`
	LogLevel     string        `env:"DREAMSIM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"DREAMSIM_LOG_FORMAT" envDefault:"text"`
	Seed         int64         `env:"DREAMSIM_SEED" envDefault:"0"`
	TickInterval time.Duration `env:"DREAMSIM_TICK_INTERVAL" envDefault:"1s"`
	RandomOrgKey string        `env:"RANDOM_ORG_API_KEY"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:","`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return Config{}, fmt.Errorf("parse env: DREAMSIM_API_PORT %d out of range", cfg.APIPort)
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("parse env: DREAMSIM_TICK_INTERVAL must be positive")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// InitLogging installs the configured slog handler.
func (c Config) InitLogging() {
	level, _ := logging.ParseLevel(c.LogLevel)
	logging.Init(level, c.LogFormat)
}

// Source returns the random source selected by the configuration:
// a seeded generator when Seed is set, random.org when a key is present,
// crypto/rand otherwise. An override seed wins over the environment.
func (c Config) Source(override int64) entropy.Source {
	seed := c.Seed
	if override != 0 {
		seed = override
	}
	switch {
	case seed != 0:
		slog.Debug("using seeded random source", "seed", seed)
		return entropy.NewSeeded(seed)
	case c.RandomOrgKey != "":
		slog.Info("using random.org entropy")
		return entropy.NewClient(c.RandomOrgKey)
	default:
		return entropy.Crypto{}
	}
}
