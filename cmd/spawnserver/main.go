package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/regionspawn/internal/catalog"
	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/db"
	"github.com/udisondev/regionspawn/internal/service"
	"github.com/udisondev/regionspawn/internal/world"
)

const ConfigPath = "config/spawnserver.yaml"

func main() {
	demo := flag.Bool("demo", false, "place an observer at every region center")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, *demo); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, demo bool) error {
	cfgPath := ConfigPath
	if p := os.Getenv("REGIONSPAWN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSpawner(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("spawn server starting", "log_level", cfg.LogLevel, "config", cfgPath)

	settings := config.NewSettings(cfg)
	if err := settings.Restore(); err != nil {
		return fmt.Errorf("restoring runtime settings: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat := catalog.NewMemory()
	regions, templates, err := catalog.Load(ctx, store, cat)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded", "regions", regions, "templates", templates)

	host := world.NewServer()
	seedWorlds(host, cat, demo)

	svc := service.New(cfg, cat, host, settings,
		service.WithStore(store),
		service.WithGranter(logGranter{}),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := svc.Run(gctx); err != nil {
			return fmt.Errorf("spawn service: %w", err)
		}
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           newMux(svc),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("spawn server stopped")
	return nil
}

// openStore returns the PostgreSQL catalog when enabled, the YAML seed otherwise.
func openStore(ctx context.Context, cfg config.Spawner) (catalog.Store, func(), error) {
	if !cfg.Database.Enabled {
		store, err := catalog.OpenFileStore(cfg.CatalogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening catalog file: %w", err)
		}
		slog.Info("using file catalog", "path", cfg.CatalogFile)
		return store, func() {}, nil
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	return db.NewCatalogRepository(database.Pool()), database.Close, nil
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
