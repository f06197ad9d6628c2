package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/rollcall/attendance-server-go/internal/model"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL"`
	RedisURL        string `env:"REDIS_URL,required"`
	StoreBackend    string `env:"STORE_BACKEND" envDefault:"postgres"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	JWTIssuer       string `env:"JWT_ISSUER" envDefault:"attendance-server"`
	AccessTTLMin    int    `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	RefreshTTLHours int    `env:"REFRESH_TOKEN_TTL_HOURS" envDefault:"168"`
	CodeTTLMinutes  int    `env:"CODE_TTL_MINUTES" envDefault:"15"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

// CodeTTL is the validity window of a freshly issued attendance code.
func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.CodeTTLMinutes) * time.Minute
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Backend() (model.StoreBackend, error) {
	switch model.StoreBackend(c.StoreBackend) {
	case model.StoreBackendPostgres, model.StoreBackendMemory:
		return model.StoreBackend(c.StoreBackend), nil
	}
	return "", fmt.Errorf("unknown STORE_BACKEND %q (want postgres or memory)", c.StoreBackend)
}

func (c *Config) Validate(isProduction bool) error {
	if _, err := c.Backend(); err != nil {
		return err
	}

	if model.StoreBackend(c.StoreBackend) == model.StoreBackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
	}

	if c.CodeTTLMinutes <= 0 {
		return fmt.Errorf("CODE_TTL_MINUTES must be positive")
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
