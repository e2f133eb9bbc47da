// main is the entry point of the Records API.
//
// Startup sequence:
//  1. Load configuration (YAML + env, optional .env)
//  2. Initialise the logger
//  3. Open the record store selected by storage.driver
//  4. Wire the record service and, if enabled, seed sample data
//  5. Register HTTP routes and start the server in a goroutine
//  6. Block until SIGINT / SIGTERM, then shut down gracefully
//
// Running the server:
//
//	go run ./cmd/records-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/records-api
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/records-api/internal/config"
	"github.com/aanand-mishra/records-api/internal/http/handlers/record"
	"github.com/aanand-mishra/records-api/internal/metrics"
	"github.com/aanand-mishra/records-api/internal/seed"
	recordservice "github.com/aanand-mishra/records-api/internal/service/record"
	"github.com/aanand-mishra/records-api/internal/storage"
	"github.com/aanand-mishra/records-api/internal/storage/memory"
	"github.com/aanand-mishra/records-api/internal/storage/postgres"
	"github.com/aanand-mishra/records-api/internal/storage/sqlite"
	"github.com/aanand-mishra/records-api/internal/utils/response"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting records-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	store, closer, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	svc := recordservice.New(store, log, metrics.New(prometheus.DefaultRegisterer))

	if cfg.Seed {
		if _, err := seed.Run(ctx, store, svc, log); err != nil {
			log.Error("failed to seed records", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(svc, log),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

func newRouter(svc record.Service, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	record.Register(r, svc, log)
	return r
}

// openStore builds the store named by cfg.Driver. The returned closer
// releases its resources.
func openStore(ctx context.Context, cfg config.Storage) (storage.Storage, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), io.NopCloser(nil), nil
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage dir: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// setupLogger returns a *slog.Logger configured for the given environment:
// text at DEBUG in dev, JSON at DEBUG in staging, JSON at INFO in prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
