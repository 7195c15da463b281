// Package main is the entry point for the waterman ingestion daemon.
//
// On each scheduled tick it fetches the upstream forecast payload for every
// site, normalizes it, and writes slots, tide events, and batch records.
// Sites are processed concurrently with per-site isolation: one failing
// site never blocks the others.
//
// Run with -once for a single immediate pass (useful for cron-less
// environments and smoke tests).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"waterman/internal/config"
	"waterman/internal/db"
	"waterman/internal/ingest"
	"waterman/internal/observability"
	"waterman/internal/types"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion pass and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("waterman ingestor starting",
		"environment", cfg.Environment,
		"schedule", cfg.Ingest.Schedule,
		"once", once,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	registry, err := db.NewRegistry(ctx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer registry.Close()

	clock := types.RealClock{}
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	source := ingest.NewSourceClient(
		&http.Client{Timeout: cfg.Source.FetchTimeout},
		cfg.Source.BaseURL,
		cfg.Source.APIKey,
		cfg.Source.UserAgent,
	)
	runner := ingest.NewRunner(ingest.RunnerParams{
		Source:       source,
		Normalizer:   ingest.NewNormalizer(clock, logger),
		Slots:        registry.Slots(),
		Tides:        registry.Tides(),
		Batches:      registry.Batches(),
		Clock:        clock,
		Logger:       logger,
		Metrics:      metrics,
		Concurrency:  cfg.Ingest.Concurrency,
		FetchTimeout: cfg.Source.FetchTimeout,
	})

	pass := func(ctx context.Context) {
		sites, err := allSites(ctx, registry.Sites())
		if err != nil {
			logger.Error("failed to list sites", "error", err)
			return
		}
		if len(sites) == 0 {
			logger.Warn("no sites configured, skipping pass")
			return
		}

		started := time.Now()
		results := runner.Run(ctx, sites)

		succeeded, failed := 0, 0
		for _, res := range results {
			if res.Success {
				succeeded++
			} else {
				failed++
			}
		}
		logger.Info("ingestion pass complete",
			"sites", len(sites),
			"succeeded", succeeded,
			"failed", failed,
			"duration", time.Since(started),
		)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		pass(rootCtx)
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Ingest.Schedule, func() { pass(rootCtx) }); err != nil {
		return fmt.Errorf("invalid ingest schedule %q: %w", cfg.Ingest.Schedule, err)
	}
	scheduler.Start()

	<-rootCtx.Done()
	logger.Info("shutdown signal received, waiting for running pass")

	// Stop returns a context that completes when in-flight jobs finish.
	<-scheduler.Stop().Done()
	logger.Info("ingestor stopped")
	return nil
}

// allSites unions the per-sport directory listings into a deduplicated
// site set, since a site configured for several sports is still scraped
// once.
func allSites(ctx context.Context, sites types.SiteRepository) ([]*types.Site, error) {
	seen := make(map[string]struct{})
	var out []*types.Site
	for _, sport := range types.AllSports() {
		list, err := sites.ListBySport(ctx, sport)
		if err != nil {
			return nil, err
		}
		for _, site := range list {
			if _, ok := seen[site.ID]; ok {
				continue
			}
			seen[site.ID] = struct{}{}
			out = append(out, site)
		}
	}
	return out, nil
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
