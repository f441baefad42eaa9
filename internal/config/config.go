package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Sketches are read from CatalogPath unless DatabaseURL is set.
	CatalogPath string `env:"CATALOG_PATH" envDefault:"data/sketches.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	GCInterval          time.Duration `env:"GC_INTERVAL" envDefault:"60s"`
	InactivityThreshold time.Duration `env:"INACTIVITY_THRESHOLD" envDefault:"2m"`

	MaxPlayersPerRoom  int     `env:"MAX_PLAYERS_PER_ROOM" envDefault:"12"`
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load reads an optional .env file, then the environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("PORT out of range: %d", c.Port)
	case c.GCInterval <= 0:
		return fmt.Errorf("GC_INTERVAL must be positive, got %s", c.GCInterval)
	case c.InactivityThreshold <= 0:
		return fmt.Errorf("INACTIVITY_THRESHOLD must be positive, got %s", c.InactivityThreshold)
	case c.MaxPlayersPerRoom <= 0:
		return fmt.Errorf("MAX_PLAYERS_PER_ROOM must be positive, got %d", c.MaxPlayersPerRoom)
	case c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0:
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
}
