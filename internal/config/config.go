package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends for live sessions
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Server is the process configuration read from the environment
type Server struct {
	Host string `env:"CHESS_HOST"`
	Port int    `env:"CHESS_PORT" envDefault:"8080"`

	StorageType  string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL"`
	DatabasePath string `env:"DATABASE_PATH"` // empty keeps users and games in memory

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"chess-game-server"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	LeaseTTL            time.Duration `env:"LEASE_TTL" envDefault:"5s"`
	InitialClock        time.Duration `env:"INITIAL_CLOCK" envDefault:"5m"`
	MatchmakingInterval time.Duration `env:"MATCHMAKING_INTERVAL" envDefault:"1s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Server configuration and validates it
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks combinations the parser cannot express
func (c Server) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory' or 'redis'", c.StorageType)
	}
	if c.LeaseTTL <= 0 {
		return errors.New("LEASE_TTL must be positive")
	}
	if c.InitialClock <= 0 {
		return errors.New("INITIAL_CLOCK must be positive")
	}
	if c.MatchmakingInterval <= 0 {
		return errors.New("MATCHMAKING_INTERVAL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (c Server) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
