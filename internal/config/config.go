package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" envDefault:"development"`

	// HTTP server
	HTTPHost       string        `env:"HTTP_HOST" envDefault:"127.0.0.1"`
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Form tokens
	SecretKey    string        `env:"SECRET_KEY"`
	FormTokenTTL time.Duration `env:"FORM_TOKEN_TTL" envDefault:"1h"`

	// Storage
	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL       string        `env:"DATABASE_URL" envDefault:"movies-collection.db"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	RedisURL          string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Movie database (TMDB)
	MoviesAPIKey       string        `env:"MOVIES_API_KEY"`
	MoviesAPIURL       string        `env:"MOVIES_API_URL" envDefault:"https://api.themoviedb.org/3"`
	PosterBaseURL      string        `env:"POSTER_BASE_URL" envDefault:"https://image.tmdb.org/t/p/w500"`
	MoviesAPITimeout   time.Duration `env:"MOVIES_API_TIMEOUT" envDefault:"10s"`
	MoviesAPIRateLimit float64       `env:"MOVIES_API_RATE_LIMIT" envDefault:"20"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig reads a .env file when present, then the process environment.
func LoadConfig() (*Config, error) {
	// a missing .env is fine, the environment may carry everything
	_ = godotenv.Load(".env")
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var problems []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		problems = append(problems, "HTTP_PORT must be between 1 and 65535")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT must be positive")
	}

	validDrivers := []string{StoreSQLite, StorePostgres, StoreRedis, StoreMemory}
	if !slices.Contains(validDrivers, c.StoreDriver) {
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be one of: %s", strings.Join(validDrivers, ", ")))
	}
	if (c.StoreDriver == StoreSQLite || c.StoreDriver == StorePostgres) && c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required for the sql stores")
	}
	if c.StoreDriver == StoreRedis && c.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required for the redis store")
	}
	if c.DBMaxOpenConns < 1 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be at least 1")
	}

	if c.MoviesAPIRateLimit < 0 {
		problems = append(problems, "MOVIES_API_RATE_LIMIT must not be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"json", "console"}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if c.SecretKey != "" && len(c.SecretKey) < 16 {
		problems = append(problems, "SECRET_KEY should be at least 16 characters long")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireServerSecrets checks what only the web server needs.
func (c *Config) RequireServerSecrets() error {
	if c.SecretKey == "" {
		return errors.New("required environment variable SECRET_KEY is not set")
	}
	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// HTTPAddr is the listen address of the web server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
