// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only meant for local development.
const DefaultJWTSecret = "dev-insecure-jwt-secret"

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort   string `validate:"required"`
	JWTSecret string `validate:"required"`
	ModelPath string `validate:"required"`

	DatabaseDriver       string        `validate:"oneof=postgres sqlite"`
	DatabaseDSN          string        // empty selects fallback storage
	DatabaseProbeTimeout time.Duration `validate:"gt=0"`

	RabbitMQURL string // empty disables prediction events

	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	// Values already in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("MODEL_PATH", "model/student_model.json")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DATABASE_PROBE_TIMEOUT", 5*time.Second)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		ModelPath:            v.GetString("MODEL_PATH"),
		DatabaseDriver:       v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		DatabaseProbeTimeout: v.GetDuration("DATABASE_PROBE_TIMEOUT"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
