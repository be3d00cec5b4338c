package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/random"
	"github.com/IsbatBInHossain/chess-game-server/internal/protocol"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/connections"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/game"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/lease"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/matchmaking"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/rules"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage/memory"
	redisstorage "github.com/IsbatBInHossain/chess-game-server/internal/storage/redis"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage/sqlite"
	"github.com/IsbatBInHossain/chess-game-server/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

const defaultMatchmakingInterval = time.Second

// App contains all wired application components
type App struct {
	// Storage
	Sessions storage.SessionStore
	Games    storage.GameStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Rules             *rules.Engine
	Leases            *lease.Manager
	Connections       *connections.Registry
	AuthService       *auth.Service
	Matchmaking       *matchmaking.Service
	MatchmakingRunner *matchmaking.Runner
	GameController    *game.Controller

	// Transport
	Dispatcher *protocol.Dispatcher
	WebSocket  *ws.Handler

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service. Secret is required;
	// a zero Issuer or TokenTTL falls back to auth.DefaultConfig()
	AuthConfig auth.Config
	// LeaseConfig holds lease lifetimes (optional)
	// If zero value, defaults to lease.DefaultConfig()
	LeaseConfig lease.Config
	// MatchmakingConfig holds the starting clock (optional)
	// If zero value, defaults to matchmaking.DefaultConfig()
	MatchmakingConfig matchmaking.Config
	// MatchmakingInterval is how often the background runner retries pairing
	MatchmakingInterval time.Duration
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the live session backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabasePath is the SQLite file for users and games (optional)
	// If empty, they are kept in memory
	DatabasePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var (
		sessions storage.SessionStore
		games    storage.GameStore
		closers  []io.Closer
		memStore *memory.Storage
	)

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		memStore = memory.New(clk)
		sessions = memStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		sessions = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	switch {
	case cfg.DatabasePath != "":
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("open database: %w", err)
		}
		games = db
		closers = append(closers, db)
	case memStore != nil:
		games = memStore
	default:
		games = memory.New(clk)
	}

	app, err := newWithDependencies(sessions, games, clk, rnd, cfg, logger)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	sessions storage.SessionStore,
	games storage.GameStore,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) (*App, error) {
	authCfg := cfg.AuthConfig
	defaults := auth.DefaultConfig()
	if authCfg.Issuer == "" {
		authCfg.Issuer = defaults.Issuer
	}
	if authCfg.TokenTTL == 0 {
		authCfg.TokenTTL = defaults.TokenTTL
	}

	leaseCfg := cfg.LeaseConfig
	if leaseCfg == (lease.Config{}) {
		leaseCfg = lease.DefaultConfig()
	}

	mmCfg := cfg.MatchmakingConfig
	if mmCfg == (matchmaking.Config{}) {
		mmCfg = matchmaking.DefaultConfig()
	}

	interval := cfg.MatchmakingInterval
	if interval == 0 {
		interval = defaultMatchmakingInterval
	}

	authService, err := auth.New(games, clk, authCfg, logger)
	if err != nil {
		return nil, err
	}

	engine := rules.New()
	leases := lease.NewManager(sessions, rnd, leaseCfg, logger)
	conns := connections.NewRegistry(logger)
	mm := matchmaking.New(sessions, games, leases, conns, clk, rnd, mmCfg, logger)
	gameController := game.NewController(sessions, games, leases, conns, engine, clk, logger)
	dispatcher := protocol.NewDispatcher(authService, conns, mm, gameController, logger)

	return &App{
		Sessions:          sessions,
		Games:             games,
		Clock:             clk,
		Random:            rnd,
		Rules:             engine,
		Leases:            leases,
		Connections:       conns,
		AuthService:       authService,
		Matchmaking:       mm,
		MatchmakingRunner: matchmaking.NewRunner(mm, interval, logger),
		GameController:    gameController,
		Dispatcher:        dispatcher,
		WebSocket:         ws.NewHandler(dispatcher, logger),
	}, nil
}

// Close releases storage connections
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
