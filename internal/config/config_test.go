package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pharmacy_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.DispenseLockTimeout != 5*time.Second {
		t.Errorf("DispenseLockTimeout = %s, want 5s", cfg.DispenseLockTimeout)
	}
	if cfg.DispenseMaxRetries != 3 {
		t.Errorf("DispenseMaxRetries = %d, want 3", cfg.DispenseMaxRetries)
	}
	if !cfg.OverrideRequiresReason {
		t.Error("OverrideRequiresReason should default to true")
	}
	if cfg.ExpiryWarningDays != 30 {
		t.Errorf("ExpiryWarningDays = %d, want 30", cfg.ExpiryWarningDays)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without DATABASE_URL")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:                 "development",
		DatabaseURL:         "postgres://localhost/pharmacy",
		DispenseLockTimeout: 5 * time.Second,
		DispenseMaxRetries:  3,
		ExpiryWarningDays:   30,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid dev", func(c *Config) {}, false},
		{"production without secret", func(c *Config) { c.Env = "production" }, true},
		{"production with secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "s3cret" }, false},
		{"zero lock timeout", func(c *Config) { c.DispenseLockTimeout = 0 }, true},
		{"zero retries", func(c *Config) { c.DispenseMaxRetries = 0 }, true},
		{"negative expiry window", func(c *Config) { c.ExpiryWarningDays = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
