// Package db provides PostgreSQL-backed repository implementations. All
// repositories accept a DBTX interface that is satisfied by both
// *pgxpool.Pool (for normal queries) and pgx.Tx (for transactional
// execution), enabling clean transaction support.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"waterman/internal/config"
	"waterman/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Registry bundles the repository set behind one constructed-once value,
// threaded explicitly through the ingestion and feed paths. It implements
// types.RepositoryRegistry.
type Registry struct {
	pool *pgxpool.Pool

	sites   *SiteRepository
	slots   *SlotRepository
	tides   *TideRepository
	scores  *ScoreRepository
	subs    *SubscriptionRepository
	users   *UserRepository
	batches *BatchRepository
}

// NewRegistry connects a pgx pool using the given configuration and wires
// every repository onto it.
func NewRegistry(ctx context.Context, cfg config.DatabaseConfig) (*Registry, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newRegistryWithDB(pool, pool), nil
}

func newRegistryWithDB(pool *pgxpool.Pool, dbtx DBTX) *Registry {
	return &Registry{
		pool:    pool,
		sites:   NewSiteRepository(dbtx),
		slots:   NewSlotRepository(dbtx),
		tides:   NewTideRepository(dbtx),
		scores:  NewScoreRepository(dbtx),
		subs:    NewSubscriptionRepository(dbtx),
		users:   NewUserRepository(dbtx),
		batches: NewBatchRepository(dbtx),
	}
}

// Sites returns the site repository.
func (r *Registry) Sites() types.SiteRepository { return r.sites }

// Slots returns the forecast slot repository.
func (r *Registry) Slots() types.SlotRepository { return r.slots }

// Tides returns the tide event repository.
func (r *Registry) Tides() types.TideRepository { return r.tides }

// Scores returns the condition score repository.
func (r *Registry) Scores() types.ScoreRepository { return r.scores }

// Subscriptions returns the feed subscription repository.
func (r *Registry) Subscriptions() types.SubscriptionRepository { return r.subs }

// Users returns the user repository.
func (r *Registry) Users() types.UserRepository { return r.users }

// Batches returns the ingest batch repository.
func (r *Registry) Batches() types.BatchRepository { return r.batches }

// Ping verifies database connectivity, for health checks.
func (r *Registry) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (r *Registry) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
