package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/pokenav/internal/api"
	"github.com/udisondev/pokenav/internal/config"
	"github.com/udisondev/pokenav/internal/db"
	"github.com/udisondev/pokenav/internal/mapdata"
	"github.com/udisondev/pokenav/internal/nav"
	"github.com/udisondev/pokenav/internal/worldstate"
)

const ConfigPath = "config/navd.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("POKENAV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadNavd(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config %s: %w", cfgPath, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("pokenav starting", "log_level", cfg.LogLevel, "backend", cfg.MapData.Backend)

	pack, err := openPack(ctx, cfg.MapData)
	if err != nil {
		return err
	}

	atlases := nav.NewAtlasCache()
	atlas := atlases.Get(pack.Key(), pack)
	levels, err := atlas.LevelCount()
	if err != nil {
		return fmt.Errorf("building map graph: %w", err)
	}
	slog.Info("navigator ready", "game", pack.Game(), "key", pack.Key(), "levels", levels)

	opts := nav.DefaultPathOptions()
	opts.MaxExpansions = cfg.Pathing.MaxExpansions

	engine := nav.NewEngine(atlas, cfg.Pathing.Costs())
	server := api.NewServer(cfg.Server, engine, worldstate.NewFeed(), opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := atlas.Warm(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("warming tiles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("starting api server", "addr", cfg.Server.Addr())
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openPack loads static map data from the configured backend.
func openPack(ctx context.Context, cfg config.MapData) (*mapdata.Pack, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		pack, err := db.NewMapRepository(database.Pool()).LoadPack(ctx, cfg.Game)
		if err != nil {
			return nil, fmt.Errorf("loading map pack: %w", err)
		}
		return pack, nil
	default:
		pack, err := mapdata.LoadPack(cfg.PackPath)
		if err != nil {
			return nil, fmt.Errorf("loading map pack: %w", err)
		}
		return pack, nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
