package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/attendance-server-go/internal/model"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("CodeTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{CodeTTLMinutes: 15}
		assert.Equal(t, 15*time.Minute, cfg.CodeTTL())
	})

	t.Run("AccessTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{AccessTTLMin: 60}
		assert.Equal(t, time.Hour, cfg.AccessTTL())
	})

	t.Run("Backend rejects unknown values", func(t *testing.T) {
		cfg := &Config{StoreBackend: "cassandra"}
		_, err := cfg.Backend()
		assert.Error(t, err)
	})

	t.Run("Backend accepts memory", func(t *testing.T) {
		cfg := &Config{StoreBackend: "memory"}
		backend, err := cfg.Backend()
		require.NoError(t, err)
		assert.Equal(t, model.StoreBackendMemory, backend)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreBackend:   "postgres",
			DatabaseURL:    "postgres://localhost/test",
			RedisURL:       "redis://localhost:6379",
			JWTSecret:      "0123456789abcdef0123456789abcdef",
			CodeTTLMinutes: 15,
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})

	t.Run("postgres backend requires DATABASE_URL", func(t *testing.T) {
		cfg := base()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("memory backend does not require DATABASE_URL", func(t *testing.T) {
		cfg := base()
		cfg.StoreBackend = "memory"
		cfg.DatabaseURL = ""
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("short JWT secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate(true))
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("weak JWT secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("non-positive code TTL rejected", func(t *testing.T) {
		cfg := base()
		cfg.CodeTTLMinutes = 0
		assert.Error(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":             os.Getenv("PORT"),
		"DATABASE_URL":     os.Getenv("DATABASE_URL"),
		"REDIS_URL":        os.Getenv("REDIS_URL"),
		"JWT_SECRET":       os.Getenv("JWT_SECRET"),
		"STORE_BACKEND":    os.Getenv("STORE_BACKEND"),
		"CODE_TTL_MINUTES": os.Getenv("CODE_TTL_MINUTES"),
		"LOG_LEVEL":        os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "test-secret")
		os.Unsetenv("PORT")
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("CODE_TTL_MINUTES")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres", cfg.StoreBackend)
		assert.Equal(t, 15, cfg.CodeTTLMinutes)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "test-secret")
		os.Setenv("PORT", "3000")
		os.Setenv("CODE_TTL_MINUTES", "5")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 5, cfg.CodeTTLMinutes)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("JWT_SECRET", "test-secret")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required JWT_SECRET", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("JWT_SECRET")

		_, err := Load()
		assert.Error(t, err)
	})
}
