// Package config loads service configuration from an optional TOML file, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/wyatt-harles-1/networth-tracker-sub002/internal/domain"
)

// Config holds application configuration
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Valuation ValuationConfig `toml:"valuation"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// DatabaseConfig holds Postgres connection settings.
// ConnString wins over the individual fields when set.
type DatabaseConfig struct {
	ConnString string `toml:"conn_string"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Name       string `toml:"name"`
	SSLMode    string `toml:"sslmode"`
}

// ServerConfig holds gRPC server settings
type ServerConfig struct {
	Addr     string `toml:"addr"`
	APIToken string `toml:"api_token"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Realized gain sources
const (
	RealizedGainsLedger = "ledger" // derived by the replay with the cost basis method
	RealizedGainsLots   = "lots"   // replayed with FIFO lot matching whatever the cost basis method
	RealizedGainsTable  = "table"  // summed from the realized_gains table
)

// ValuationConfig holds calculation settings
type ValuationConfig struct {
	CostBasisMethod string `toml:"cost_basis_method"` // "average" or "fifo"
	LookbackDays    int    `toml:"lookback_days"`
	RealizedGains   string `toml:"realized_gains"`
}

// SchedulerConfig holds the nightly recalculation settings
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // standard 5-field cron spec
	Days     int    `toml:"days"`
}

// NewDefaultConfig returns a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "networth",
			SSLMode:  "disable",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			APIToken: "dev-token",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Valuation: ValuationConfig{
			CostBasisMethod: "average",
			LookbackDays:    14,
			RealizedGains:   RealizedGainsLedger,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "30 2 * * *",
			Days:     7,
		},
	}
}

// Load reads .env if present, then the given TOML files in order, then environment overrides
func Load(paths ...string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Database.ConnString = getEnv("DB_CONN_STR", cfg.Database.ConnString)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Server.Addr = getEnv("GRPC_ADDR", cfg.Server.Addr)
	cfg.Server.APIToken = getEnv("API_TOKEN", cfg.Server.APIToken)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = getEnvAsBool("LOG_PRETTY", cfg.Logging.Pretty)

	cfg.Valuation.CostBasisMethod = getEnv("COST_BASIS_METHOD", cfg.Valuation.CostBasisMethod)
	cfg.Valuation.LookbackDays = getEnvAsInt("PRICE_LOOKBACK_DAYS", cfg.Valuation.LookbackDays)
	cfg.Valuation.RealizedGains = getEnv("REALIZED_GAINS", cfg.Valuation.RealizedGains)

	cfg.Scheduler.Enabled = getEnvAsBool("RECALC_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.Schedule = getEnv("RECALC_SCHEDULE", cfg.Scheduler.Schedule)
	cfg.Scheduler.Days = getEnvAsInt("RECALC_DAYS", cfg.Scheduler.Days)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Database.ConnString == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_CONN_STR or DB_HOST is required")
	}
	if _, err := domain.ParseCostBasisMethod(c.Valuation.CostBasisMethod); err != nil {
		return err
	}
	switch c.Valuation.RealizedGains {
	case RealizedGainsLedger, RealizedGainsLots, RealizedGainsTable:
	default:
		return fmt.Errorf("realized_gains must be %q, %q or %q, got %q",
			RealizedGainsLedger, RealizedGainsLots, RealizedGainsTable, c.Valuation.RealizedGains)
	}
	if c.Valuation.LookbackDays < 0 {
		return fmt.Errorf("lookback_days must not be negative, got %d", c.Valuation.LookbackDays)
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Days < 1 {
			return fmt.Errorf("scheduler days must be at least 1, got %d", c.Scheduler.Days)
		}
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid recalculation schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}
	return nil
}

// ConnectionString returns the lib/pq connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Method returns the parsed cost basis method; Validate has already accepted it
func (c *ValuationConfig) Method() domain.CostBasisMethod {
	method, _ := domain.ParseCostBasisMethod(c.CostBasisMethod)
	return method
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
