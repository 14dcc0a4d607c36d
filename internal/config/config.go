package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the codeshare server.
type Config struct {
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Durable store
	DBPath string `env:"CODESHARE_DB_PATH" envDefault:"./data/codeshare.db"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`

	// Persistence bridge
	SaveQueueSize int `env:"SAVE_QUEUE_SIZE" envDefault:"256"`
	SaveWorkers   int `env:"SAVE_WORKERS" envDefault:"2"`

	// Room eviction: empty rooms idle longer than RoomIdleTTL are dropped
	// from the in-memory registry. Zero disables eviction.
	RoomIdleTTL       time.Duration `env:"ROOM_IDLE_TTL" envDefault:"0"`
	RoomSweepInterval time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SaveQueueSize < 1 {
		return nil, fmt.Errorf("SAVE_QUEUE_SIZE must be positive")
	}
	if cfg.SaveWorkers < 1 {
		return nil, fmt.Errorf("SAVE_WORKERS must be positive")
	}
	if cfg.RoomIdleTTL > 0 && cfg.RoomSweepInterval <= 0 {
		return nil, fmt.Errorf("ROOM_SWEEP_INTERVAL must be positive when eviction is enabled")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
