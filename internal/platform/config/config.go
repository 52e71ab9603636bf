package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// AllowedOrigins is a comma-separated list of origins permitted to
	// open WebSocket connections. Required outside development.
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	VoteQueueCapacity int           `env:"VOTE_QUEUE_CAPACITY" default:"256"`
	VoteBatchSize     int           `env:"VOTE_BATCH_SIZE" default:"100"`
	VoteBatchWindow   time.Duration `env:"VOTE_BATCH_WINDOW" default:"300ms"`
	StreamBuffer      int           `env:"STREAM_BUFFER" default:"128"`

	MaxConnections      int     `env:"MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP int     `env:"MAX_CONNECTIONS_PER_IP" default:"32"`
	ConnectRatePerIP    float64 `env:"CONNECT_RATE_PER_IP" default:"20"`
	ConnectBurstPerIP   int     `env:"CONNECT_BURST_PER_IP" default:"40"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	positive := map[string]int{
		"VOTE_QUEUE_CAPACITY":    cfg.VoteQueueCapacity,
		"VOTE_BATCH_SIZE":        cfg.VoteBatchSize,
		"STREAM_BUFFER":          cfg.StreamBuffer,
		"MAX_CONNECTIONS":        cfg.MaxConnections,
		"MAX_CONNECTIONS_PER_IP": cfg.MaxConnectionsPerIP,
		"CONNECT_BURST_PER_IP":   cfg.ConnectBurstPerIP,
	}
	for name, value := range positive {
		if value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, value)
		}
	}

	if cfg.VoteBatchWindow <= 0 {
		return fmt.Errorf("VOTE_BATCH_WINDOW must be positive, got %s", cfg.VoteBatchWindow)
	}
	if cfg.VoteBatchSize > cfg.VoteQueueCapacity {
		return fmt.Errorf("VOTE_BATCH_SIZE (%d) must not exceed VOTE_QUEUE_CAPACITY (%d)",
			cfg.VoteBatchSize, cfg.VoteQueueCapacity)
	}
	if cfg.ConnectRatePerIP <= 0 {
		return fmt.Errorf("CONNECT_RATE_PER_IP must be positive, got %g", cfg.ConnectRatePerIP)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.AppEnv != "development" && cfg.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required when APP_ENV is %q", cfg.AppEnv)
	}

	return nil
}
