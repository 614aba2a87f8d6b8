package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the simulator.
// Values come from defaults, then an optional YAML file, then the environment.
type Config struct {
	// Logging
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	MaxLogSizeMB  int    `yaml:"max_log_size_mb"`
	MaxLogBackups int    `yaml:"max_log_backups"`

	// Persistence
	StoreBackend string `yaml:"store_backend"` // "json" or "sqlite"
	StateFile    string `yaml:"state_file"`
	SQLitePath   string `yaml:"sqlite_path"`

	// Market & portfolio
	InitialBalance float64 `yaml:"initial_balance"`
	MinFactor      float64 `yaml:"min_factor"`
	MaxFactor      float64 `yaml:"max_factor"`
	Seed           uint64  `yaml:"seed"` // 0 means process entropy

	// Demo order generator
	TickIntervalSec  int     `yaml:"tick_interval_sec"`
	TradeProbability float64 `yaml:"trade_probability"`
	MinOrderSize     int     `yaml:"min_order_size"`
	MaxOrderSize     int     `yaml:"max_order_size"`
}

// Defaults returns the stock demo configuration.
func Defaults() *Config {
	return &Config{
		LogLevel:         "INFO",
		LogFile:          "cypherx.log",
		MaxLogSizeMB:     10,
		MaxLogBackups:    3,
		StoreBackend:     "json",
		StateFile:        "cypherx_state.json",
		SQLitePath:       "cypherx.db",
		InitialBalance:   10000,
		MinFactor:        0.85,
		MaxFactor:        1.25,
		TickIntervalSec:  10,
		TradeProbability: 0.3,
		MinOrderSize:     10,
		MaxOrderSize:     509,
	}
}

// Load initializes the configuration.
// It tries to read a .env file, then the YAML file named by CYPHERX_CONFIG,
// then applies environment overrides.
func Load() (*Config, error) {
	// Logging is not set up yet, so bootstrap warnings go to the standard logger.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := Defaults()

	if path := os.Getenv("CYPHERX_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = strings.ToUpper(getEnv("CYPHERX_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFile = getEnv("CYPHERX_LOG_FILE", cfg.LogFile)
	cfg.MaxLogSizeMB = getEnvAsInt("CYPHERX_MAX_LOG_SIZE_MB", cfg.MaxLogSizeMB)
	cfg.MaxLogBackups = getEnvAsInt("CYPHERX_MAX_LOG_BACKUPS", cfg.MaxLogBackups)

	cfg.StoreBackend = strings.ToLower(getEnv("CYPHERX_STORE", cfg.StoreBackend))
	cfg.StateFile = getEnv("CYPHERX_STATE_FILE", cfg.StateFile)
	cfg.SQLitePath = getEnv("CYPHERX_SQLITE_PATH", cfg.SQLitePath)

	cfg.InitialBalance = getEnvAsFloat64("CYPHERX_INITIAL_BALANCE", cfg.InitialBalance)
	cfg.MinFactor = getEnvAsFloat64("CYPHERX_MIN_FACTOR", cfg.MinFactor)
	cfg.MaxFactor = getEnvAsFloat64("CYPHERX_MAX_FACTOR", cfg.MaxFactor)
	cfg.Seed = getEnvAsUint64("CYPHERX_SEED", cfg.Seed)

	cfg.TickIntervalSec = getEnvAsInt("CYPHERX_TICK_INTERVAL_SEC", cfg.TickIntervalSec)
	cfg.TradeProbability = getEnvAsFloat64("CYPHERX_TRADE_PROBABILITY", cfg.TradeProbability)
	cfg.MinOrderSize = getEnvAsInt("CYPHERX_MIN_ORDER_SIZE", cfg.MinOrderSize)
	cfg.MaxOrderSize = getEnvAsInt("CYPHERX_MAX_ORDER_SIZE", cfg.MaxOrderSize)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.InitialBalance < 0 {
		problems = append(problems, "initial_balance must be >= 0")
	}
	if c.MinFactor <= 0 || c.MinFactor > c.MaxFactor {
		problems = append(problems, fmt.Sprintf("factor range [%g, %g] is invalid", c.MinFactor, c.MaxFactor))
	}
	if c.TickIntervalSec <= 0 {
		problems = append(problems, "tick_interval_sec must be > 0")
	}
	if c.TradeProbability < 0 || c.TradeProbability > 1 {
		problems = append(problems, "trade_probability must be within [0, 1]")
	}
	if c.MinOrderSize <= 0 || c.MinOrderSize > c.MaxOrderSize {
		problems = append(problems, fmt.Sprintf("order size range [%d, %d] is invalid", c.MinOrderSize, c.MaxOrderSize))
	}
	switch c.StoreBackend {
	case "json", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unknown store_backend %q", c.StoreBackend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
