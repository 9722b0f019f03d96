package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// DefaultSecretKey is the documented insecure signing secret. It is accepted
// only with ENV=local.
const DefaultSecretKey = "your-secret-key-change-in-production"

const minProductionSecretLen = 32

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8000" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Empty DatabaseURL selects the in-memory user store.
	DatabaseURL string `env:"DATABASE_URL" validate:"required_unless=Env local"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	MetricsPort         string `env:"METRICS_PORT" envDefault:"9090"`
	HealthProbeSchedule string `env:"HEALTH_PROBE_SCHEDULE" envDefault:"@every 30s" validate:"required"`

	SecretKey      string        `env:"SECRET_KEY" envDefault:"your-secret-key-change-in-production" validate:"required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m" validate:"gt=0"`

	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM" envDefault:"bcrypt" validate:"oneof=bcrypt argon2id"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"12" validate:"min=4,max=31"`
	HashConcurrency   int    `env:"HASH_CONCURRENCY" envDefault:"8" validate:"min=1,max=256"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct rules plus the signing secret policy: the default
// secret and short secrets are rejected anywhere but local.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Env != "local" {
		if c.SecretKey == DefaultSecretKey {
			return errors.New("invalid config: SECRET_KEY must be overridden outside local")
		}
		if len(c.SecretKey) < minProductionSecretLen {
			return fmt.Errorf("invalid config: SECRET_KEY must be at least %d bytes", minProductionSecretLen)
		}
	}

	return nil
}

// UsesDefaultSecret reports whether the insecure default secret is active.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
