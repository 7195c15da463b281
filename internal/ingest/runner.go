// runner.go coordinates one ingestion run across many sites. Each site is
// an independent fetch+normalize+store operation; a failure for one site is
// recorded in its result and never aborts the siblings.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"waterman/internal/types"
)

// Metrics is the subset of telemetry the runner reports.
type Metrics interface {
	ObserveSiteIngest(success bool, slots int, duration time.Duration)
}

// noopMetrics is used when no collector is wired.
type noopMetrics struct{}

func (noopMetrics) ObserveSiteIngest(bool, int, time.Duration) {}

// Runner executes multi-site ingestion batches.
type Runner struct {
	source       types.RawSourceClient
	normalizer   *Normalizer
	slots        types.SlotRepository
	tides        types.TideRepository
	batches      types.BatchRepository
	clock        types.Clock
	logger       *slog.Logger
	metrics      Metrics
	concurrency  int
	fetchTimeout time.Duration
}

// RunnerParams collects the Runner's dependencies.
type RunnerParams struct {
	Source       types.RawSourceClient
	Normalizer   *Normalizer
	Slots        types.SlotRepository
	Tides        types.TideRepository
	Batches      types.BatchRepository
	Clock        types.Clock
	Logger       *slog.Logger
	Metrics      Metrics
	Concurrency  int
	FetchTimeout time.Duration
}

// NewRunner creates a Runner. Concurrency below 1 defaults to 1; a nil
// metrics collector is replaced by a no-op.
func NewRunner(p RunnerParams) *Runner {
	if p.Clock == nil {
		p.Clock = types.RealClock{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Metrics == nil {
		p.Metrics = noopMetrics{}
	}
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = 30 * time.Second
	}
	return &Runner{
		source:       p.Source,
		normalizer:   p.Normalizer,
		slots:        p.Slots,
		tides:        p.Tides,
		batches:      p.Batches,
		clock:        p.Clock,
		logger:       p.Logger,
		metrics:      p.Metrics,
		concurrency:  p.Concurrency,
		fetchTimeout: p.FetchTimeout,
	}
}

// Run ingests all given sites with bounded concurrency and returns one
// result per site, in input order. The returned slice always has
// len(sites) entries; errors are carried per-result, never as a run-level
// failure.
func (r *Runner) Run(ctx context.Context, sites []*types.Site) []types.SiteResult {
	results := make([]types.SiteResult, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var mu sync.Mutex
	for i, site := range sites {
		g.Go(func() error {
			res := r.ingestSite(gctx, site)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil // per-site failures never cancel siblings
		})
	}
	// Goroutines never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	return results
}

// ingestSite runs the fetch+normalize+store pipeline for one site and
// records an IngestBatch either way.
func (r *Runner) ingestSite(ctx context.Context, site *types.Site) types.SiteResult {
	started := r.clock.Now()
	batchID := uuid.NewString()

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	raw, err := r.source.Fetch(fetchCtx, site)
	if err != nil {
		return r.fail(ctx, site, batchID, started, nil, err)
	}

	slots, tides, err := r.normalizer.Normalize(site, batchID, raw)
	if err != nil {
		return r.fail(ctx, site, batchID, started, raw, err)
	}

	if err := r.slots.InsertBatch(ctx, slots); err != nil {
		return r.fail(ctx, site, batchID, started, raw, err)
	}
	if err := r.tides.InsertBatch(ctx, tides); err != nil {
		return r.fail(ctx, site, batchID, started, raw, err)
	}

	r.recordBatch(ctx, site, batchID, started, raw, len(slots), nil)
	r.metrics.ObserveSiteIngest(true, len(slots), r.clock.Now().Sub(started))
	r.logger.Info("site ingested",
		slog.String("site_id", site.ID),
		slog.String("batch_id", batchID),
		slog.Int("slots", len(slots)),
		slog.Int("tides", len(tides)),
	)

	return types.SiteResult{SiteID: site.ID, Success: true, SlotCount: len(slots)}
}

// fail records the failed batch and builds the per-site result.
func (r *Runner) fail(ctx context.Context, site *types.Site, batchID string, started time.Time, raw []byte, err error) types.SiteResult {
	r.recordBatch(ctx, site, batchID, started, raw, 0, err)
	r.metrics.ObserveSiteIngest(false, 0, r.clock.Now().Sub(started))
	r.logger.Warn("site ingestion failed",
		slog.String("site_id", site.ID),
		slog.String("batch_id", batchID),
		slog.Any("error", err),
	)
	return types.SiteResult{SiteID: site.ID, Success: false, Err: err}
}

// recordBatch persists the IngestBatch audit record, including the
// zstd-compressed raw payload when one was fetched. Failure to archive is
// logged but never turns a successful ingest into a failure.
func (r *Runner) recordBatch(ctx context.Context, site *types.Site, batchID string, started time.Time, raw []byte, slotCount int, runErr error) {
	batch := &types.IngestBatch{
		ID:         batchID,
		SiteID:     site.ID,
		Status:     types.BatchSucceeded,
		SlotCount:  slotCount,
		StartedAt:  started,
		FinishedAt: r.clock.Now(),
	}
	if runErr != nil {
		batch.Status = types.BatchFailed
		batch.Error = runErr.Error()
	}
	if len(raw) > 0 {
		compressed, err := CompressPayload(raw)
		if err != nil {
			r.logger.Warn("failed to archive raw payload",
				slog.String("batch_id", batchID),
				slog.Any("error", err),
			)
		} else {
			batch.RawPayload = compressed
		}
	}

	if err := r.batches.Create(ctx, batch); err != nil {
		r.logger.Error("failed to record ingest batch",
			slog.String("batch_id", batchID),
			slog.String("site_id", site.ID),
			slog.Any("error", err),
		)
	}
}
