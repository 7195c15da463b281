// Package main is the entry point for the waterman feed API server.
//
// It loads configuration, connects the database, wires the feed selection
// and serialization services onto the HTTP chassis, and serves until a
// shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waterman/internal/api/handlers"
	"waterman/internal/astro"
	"waterman/internal/config"
	"waterman/internal/core"
	"waterman/internal/daylight"
	"waterman/internal/db"
	"waterman/internal/feed"
	"waterman/internal/observability"
	"waterman/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("waterman API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	registry, err := db.NewRegistry(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	srv, err := core.NewServer(cfg, registry, logger)
	if err != nil {
		registry.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.MetricsHandler = promhttp.Handler()
	srv.HealthProbes = []core.HealthProbe{
		core.ProbeFunc{ProbeName: "database", Fn: registry.Ping},
	}

	clock := types.RealClock{}
	feedSvc := feed.NewService(feed.Params{
		Sites:      registry.Sites(),
		Slots:      registry.Slots(),
		Scores:     registry.Scores(),
		Subs:       registry.Subscriptions(),
		Users:      registry.Users(),
		Daylight:   daylight.NewFilter(astro.NewCalculator()),
		Clock:      clock,
		Logger:     logger,
		MinScore:   cfg.Feed.MinScore,
		WindowDays: cfg.Feed.WindowDays,
		MaxPerDay:  cfg.Feed.MaxPerDay,
	})
	serializer := feed.NewSerializer(cfg.Server.AppURL, clock)

	feedHandler := handlers.NewFeedHandler(feedSvc, serializer, logger)
	subHandler := handlers.NewSubscriptionHandler(registry.Subscriptions(), registry.Users(), clock, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		func(r chi.Router) { feedHandler.RegisterRoutes(r) },
		func(r chi.Router) { subHandler.RegisterRoutes(r) },
	)

	srv.MountRoutes()
	return runHTTPServer(srv, cfg, logger)
}

func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
