package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseDSN string

	// APIToken guards the lane/waitlist/inventory surface. Empty disables
	// auth, which is only sane on a trusted counter LAN.
	APIToken string

	RateLimitPerSec float64
	RateLimitBurst  int

	AvailabilityCacheTTL time.Duration
	VisitLength          time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads .env if present, then the environment, then applies defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		DatabaseDSN: getEnvStr(EnvDatabaseDSN, DefaultDatabaseDSN),

		APIToken: getEnvStr(EnvAPIToken, ""),

		RateLimitPerSec: getEnvFloat(EnvRateLimitPerSec, DefaultRateLimitPerSec),
		RateLimitBurst:  getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		AvailabilityCacheTTL: getEnvDuration(EnvAvailabilityCacheTTL, DefaultAvailabilityCacheTTL),
		VisitLength:          getEnvDuration(EnvVisitLength, DefaultVisitLength),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %q", cfg.Port)
	}
	if cfg.RateLimitPerSec <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", cfg.RateLimitPerSec)
	}
	if cfg.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got %d", cfg.RateLimitBurst)
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		return fmt.Errorf("availability cache TTL must be positive, got %s", cfg.AvailabilityCacheTTL)
	}
	if cfg.VisitLength <= 0 {
		return fmt.Errorf("visit length must be positive, got %s", cfg.VisitLength)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", cfg.ShutdownTimeout)
	}
	return nil
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
