package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the marketsim tool.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	Logging    Logging    `yaml:"logging"`
	Simulation Simulation `yaml:"simulation"`
	Generator  Generator  `yaml:"generator"`
	Optimizer  Optimizer  `yaml:"optimizer"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Simulation defines the account parameters shared by every backtest run.
type Simulation struct {
	InitialCash    float64 `yaml:"initial_cash"`
	CommissionRate float64 `yaml:"commission_rate"`
	SizeFraction   float64 `yaml:"size_fraction"`
}

// Generator holds defaults for synthetic bar generation.
type Generator struct {
	Model        string  `yaml:"model"`
	InitialPrice float64 `yaml:"initial_price"`
	Volatility   float64 `yaml:"volatility"`
	Drift        float64 `yaml:"drift"`
	Seed         int64   `yaml:"seed"`
	WeekdaysOnly bool    `yaml:"weekdays_only"`
}

// Optimizer tunes parameter sweeps.
type Optimizer struct {
	MaxWorkers   int    `yaml:"max_workers"`
	TargetMetric string `yaml:"target_metric"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/marketsim.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Simulation: Simulation{
			InitialCash:    100000,
			CommissionRate: 0.001,
			SizeFraction:   0.95,
		},
		Generator: Generator{
			Model:        "gbm",
			InitialPrice: 100,
			Volatility:   0.02,
		},
		Optimizer: Optimizer{
			TargetMetric: "total_return_pct",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, layers it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error; the defaults are used as the base instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("MARKETSIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Optimizer.MaxWorkers = n
		}
	}

	if v := os.Getenv("MARKETSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Generator.Seed = n
		}
	}
}
