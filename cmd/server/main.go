package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/animaparty/internal/config"
	"github.com/playperu/animaparty/internal/database"
	"github.com/playperu/animaparty/internal/dictator"
	"github.com/playperu/animaparty/internal/migrations"
	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/profile"
	"github.com/playperu/animaparty/internal/server"
	"github.com/playperu/animaparty/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	applied, err := migrations.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)

	// --- Redis ---
	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	// --- Minigames ---
	dcfg := dictator.DefaultConfig()
	dcfg.TotalRounds = cfg.DictatorRounds
	dcfg.PromptDelay = cfg.PromptDelay
	dcfg.ReactionWindow = cfg.ReactionWindow
	if err := dcfg.Validate(); err != nil {
		return fmt.Errorf("dictator config: %w", err)
	}
	catalog := minigame.Catalog{dictator.Definition(dcfg)}

	// --- Sessions ---
	broker := server.NewBroker()
	store := server.NewSQLiteStore(db)
	profiles := profile.NewStore(rdb)
	sessions := server.NewRegistry(server.Settings{
		Catalog: catalog,
		Session: session.Config{
			TotalRounds:  cfg.TotalRounds,
			ResultsDelay: cfg.ResultsDelay,
			RoundTimeout: cfg.RoundTimeout,
		},
		TickInterval: cfg.TickInterval(),
		Selection:    cfg.SelectionMode,
		MaxPlayers:   cfg.MaxPlayers,
	}, broker, store, profiles, logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Sessions: sessions,
		Broker:   broker,
		Store:    store,
		Profiles: profiles,
		Checks: map[string]server.Checker{
			"sqlite": server.CheckerFunc(db.PingContext),
			"redis":  server.CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "tick_rate", cfg.TickRate, "minigames", catalog.Names())
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
