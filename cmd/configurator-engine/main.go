package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartconfig/configurator-engine/internal/api"
	"github.com/smartconfig/configurator-engine/internal/cache"
	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/cleanup"
	"github.com/smartconfig/configurator-engine/internal/config"
	"github.com/smartconfig/configurator-engine/internal/ranges"
	"github.com/smartconfig/configurator-engine/internal/session"
	"github.com/smartconfig/configurator-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting configurator-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Catalog cache is optional: no Redis address, no cache
	var catalogCache *cache.Cache
	if cfg.Redis.Address != "" {
		catalogCache, err = cache.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("redis cache connected", "address", cfg.Redis.Address, "ttl", cfg.Redis.TTL)
	} else {
		slog.Info("redis cache disabled")
	}

	// Select the catalog source: YAML fixtures for local runs, the CMS
	// otherwise
	var src catalog.Source
	if cfg.Catalog.FixtureDir != "" {
		fixtures := catalog.NewFixtureSource()
		if err := fixtures.LoadFromDir(cfg.Catalog.FixtureDir); err != nil {
			slog.Error("failed to load catalog fixtures", "dir", cfg.Catalog.FixtureDir, "error", err)
			os.Exit(1)
		}
		slog.Info("serving catalog from fixtures", "dir", cfg.Catalog.FixtureDir)
		src = fixtures
	} else {
		src = catalog.NewClient(cfg.CMS.BaseURL, cfg.CMS.Token,
			catalog.WithTimeout(cfg.CMS.Timeout))
		slog.Info("serving catalog from CMS", "base_url", cfg.CMS.BaseURL)
	}

	deriver := ranges.NewDeriver(src, catalogCache)
	hub := api.NewHub()
	sessions := session.NewManager(repo, src, deriver, hub, cfg.Session.TTL)

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, sessions, src, catalogCache, repo, hub, cfg.CMS.DefaultLocale)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if catalogCache != nil {
		if err := catalogCache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("configurator-engine stopped")
}
