package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/IsbatBInHossain/chess-game-server/internal/api"
	"github.com/IsbatBInHossain/chess-game-server/internal/config"
	"github.com/IsbatBInHossain/chess-game-server/internal/factory"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/lease"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/matchmaking"
	redisstorage "github.com/IsbatBInHossain/chess-game-server/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		AuthConfig: auth.Config{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			TokenTTL: cfg.TokenTTL,
		},
		LeaseConfig: lease.Config{
			SessionTTL:     cfg.LeaseTTL,
			MatchmakingTTL: cfg.LeaseTTL,
		},
		MatchmakingConfig:   matchmaking.Config{InitialClock: cfg.InitialClock},
		MatchmakingInterval: cfg.MatchmakingInterval,
		Logger:              logger,
		StorageType:         cfg.StorageType,
		DatabasePath:        cfg.DatabasePath,
	}

	if cfg.StorageType == config.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		GameStore:      app.Games,
		WebSocket:      app.WebSocket,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.MatchmakingRunner.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		stop()
		_ = app.Close()
		os.Exit(exitCode)
	}
}
