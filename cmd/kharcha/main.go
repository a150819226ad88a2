package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"kharcha/internal/amqp"
	"kharcha/internal/auth"
	"kharcha/internal/config"
	"kharcha/internal/feed"
	apphttp "kharcha/internal/http"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/services"
	"kharcha/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.Setup(log.DefaultConfig())

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose data backend (default: sqlite)
	var store storage.Store
	switch cfg.DataBackend {
	case "memory":
		store = storage.NewMemoryRepository()
		logger.Info("Initialized memory backend", "backend", cfg.DataBackend)
	default:
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		store = sqliteRepo
		logger.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	}

	// AMQP is optional: without it, change events stay in-process only.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	hub := feed.NewHub()
	authService := auth.NewService(store, store, auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		AuthService: authService,
		Expenses:    services.NewExpenseService(store, hub, publisher),
		Profiles:    services.NewProfileService(store),
		Categories:  store,
		Hub:         hub,
		Recorder:    collector,
		Gatherer:    registry,
	})

	// Configure server timeouts and limits. WriteTimeout stays zero
	// because /events holds its response open indefinitely.
	srv.ReadTimeout = 10 * time.Second
	srv.ReadHeaderTimeout = 5 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting kharcha server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Expired sessions are filtered on read; this reclaims the rows.
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := authService.PurgeExpired(ctx); err != nil {
					logger.Error("Session purge failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
