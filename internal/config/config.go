package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret              string        `mapstructure:"JWT_SECRET"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	DispenseLockTimeout    time.Duration `mapstructure:"DISPENSE_LOCK_TIMEOUT"`
	DispenseMaxRetries     int           `mapstructure:"DISPENSE_MAX_RETRIES"`
	OverrideRequiresReason bool          `mapstructure:"OVERRIDE_REQUIRES_REASON"`
	ExpiryWarningDays      int           `mapstructure:"EXPIRY_WARNING_DAYS"`
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
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DISPENSE_LOCK_TIMEOUT", "5s")
	v.SetDefault("DISPENSE_MAX_RETRIES", 3)
	v.SetDefault("OVERRIDE_REQUIRES_REASON", true)
	v.SetDefault("EXPIRY_WARNING_DAYS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DISPENSE_LOCK_TIMEOUT")
	v.BindEnv("DISPENSE_MAX_RETRIES")
	v.BindEnv("OVERRIDE_REQUIRES_REASON")
	v.BindEnv("EXPIRY_WARNING_DAYS")

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

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret must be configured so the auth middleware can verify tokens,
// and the dispense knobs must be sane.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.DispenseLockTimeout <= 0 {
		return fmt.Errorf("DISPENSE_LOCK_TIMEOUT must be positive, got %s", c.DispenseLockTimeout)
	}
	if c.DispenseMaxRetries < 1 {
		return fmt.Errorf("DISPENSE_MAX_RETRIES must be at least 1, got %d", c.DispenseMaxRetries)
	}
	if c.ExpiryWarningDays < 0 {
		return fmt.Errorf("EXPIRY_WARNING_DAYS must not be negative, got %d", c.ExpiryWarningDays)
	}
	return nil
}
