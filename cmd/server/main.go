package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ownshare/ownshare/internal/config"
	"github.com/ownshare/ownshare/internal/engine"
	"github.com/ownshare/ownshare/internal/holiday"
	"github.com/ownshare/ownshare/internal/jobs"
	"github.com/ownshare/ownshare/internal/notify"
	"github.com/ownshare/ownshare/internal/storage/sqlite"
	"github.com/ownshare/ownshare/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	dispatcher := notify.New(notify.LogSink{}, cfg.Notify.QueueSize)
	defer dispatcher.Close()

	holidays := holiday.NewClient(cfg.Holidays.BaseURL, cfg.Holidays.CountryCode)

	// The engine's operations are plain Go calls; the only HTTP surface
	// this process exposes is operational (health, metrics).
	eng := engine.New(store, holidays, dispatcher, cfg.Jobs.BatchSize)

	scheduler := jobs.NewScheduler(eng.Jobs, cfg.Jobs)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start maintenance scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "store unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server starting", "address", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
