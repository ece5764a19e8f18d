package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	InMemoryStore   bool     `mapstructure:"IN_MEMORY_STORE"`
	AuthSecret      string   `mapstructure:"AUTH_SECRET"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	SlotHorizonDays int      `mapstructure:"SLOT_HORIZON_DAYS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("IN_MEMORY_STORE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SLOT_HORIZON_DAYS", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("IN_MEMORY_STORE")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SLOT_HORIZON_DAYS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" && !cfg.InMemoryStore {
		return nil, fmt.Errorf("DATABASE_URL is required unless IN_MEMORY_STORE=true")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the JWT auth secret must be set so real authentication is enforced, and the
// store must be PostgreSQL: the in-memory store serializes bookings with a
// process-local mutex and cannot protect against double-booking across
// replicas.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf(
			"AUTH_SECRET must be set when ENV=%q; refusing to start without authentication configuration", c.Env)
	}
	if c.IsProduction() && c.InMemoryStore {
		return fmt.Errorf("IN_MEMORY_STORE is not supported in production")
	}
	if c.SlotHorizonDays <= 0 {
		return fmt.Errorf("SLOT_HORIZON_DAYS must be positive, got %d", c.SlotHorizonDays)
	}
	return nil
}
