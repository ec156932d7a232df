package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/voyagen/m3uforge/internal/cache"
	"github.com/voyagen/m3uforge/internal/config"
	"github.com/voyagen/m3uforge/internal/logger"
	"github.com/voyagen/m3uforge/internal/server"
	"github.com/voyagen/m3uforge/internal/service"
	"github.com/voyagen/m3uforge/internal/store"
	"go.uber.org/zap"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the playlist editor HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var cfg *config.Config
		var err error
		if serveConfigPath != "" {
			cfg, err = config.LoadFromFile(serveConfigPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		log, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Optional config file path (YAML); else use environment")
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var appStore store.Store
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pg.Close()
		appStore = pg
		log.Info("postgres connected")
	} else {
		appStore = store.NewMemory()
		log.Warn("DATABASE_URL not set, playlists are kept in memory")
	}

	opts := service.Options{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout, Logger: log}

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		var err error
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		cached := store.NewCachedStore(appStore, rds, log)
		cached.Flush(ctx)
		appStore = cached
		opts.Locker = service.RedisLocker{Redis: rds}
		log.Info("redis connected (caching, locking and import queue enabled)")
	} else {
		log.Info("redis disabled (REDIS_URL not set)")
	}

	ed := service.NewEditor(appStore, opts)
	if rds != nil {
		go service.RunImportWorker(ctx, rds, ed, log)
	}

	srv := server.New(ed, cfg, rds, log)
	return srv.ListenAndServe(ctx)
}

// migrationsDir finds the migrations directory next to the working
// directory or the executable.
func migrationsDir() string {
	dir, err := filepath.Abs("migrations")
	if err != nil {
		dir = "migrations"
	}
	if _, err := os.Stat(dir); err != nil {
		if exe, e := os.Executable(); e == nil {
			dir = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return dir
}
