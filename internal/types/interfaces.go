package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used throughout the
// service. *slog.Logger satisfies it via a thin adapter where needed; most
// code takes *slog.Logger directly and this interface exists for context
// propagation.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SiteRepository is the read-only directory of sites and their scoring
// configuration. Sites are written by the directory-management app, never
// by this service.
type SiteRepository interface {
	GetByID(ctx context.Context, id string) (*Site, error)
	ListBySport(ctx context.Context, sport Sport) ([]*Site, error)
	GetScoringConfig(ctx context.Context, siteID string, sport Sport) (*SiteScoringConfig, error)
}

// SlotRepository provides append-only access to normalized forecast slots.
type SlotRepository interface {
	InsertBatch(ctx context.Context, slots []*ForecastSlot) error
	GetBySiteAndTime(ctx context.Context, siteID string, t time.Time) (*ForecastSlot, error)
}

// TideRepository provides append-only access to raw tide extremes.
type TideRepository interface {
	InsertBatch(ctx context.Context, tides []*TideEvent) error
	ListBySiteInRange(ctx context.Context, siteID string, from, to time.Time) ([]*TideEvent, error)
}

// ScoreRepository reads condition scores produced by the external scoring
// process. ListSystemScores returns only shared scores (user IS NULL) so
// the public feed stays deterministic and anonymous-safe.
type ScoreRepository interface {
	ListSystemScores(ctx context.Context, sport Sport, from, to time.Time, minScore int) ([]*ConditionScore, error)
}

// SubscriptionRepository resolves and manages per-sport feed tokens.
type SubscriptionRepository interface {
	GetByTokenPrefix(ctx context.Context, prefix string) (*Subscription, error)
	GetByUserAndSport(ctx context.Context, userID string, sport Sport) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
	RecordFetch(ctx context.Context, id string, at time.Time) error
}

// UserRepository reads the account records backing personalization.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// BatchRepository records per-site ingestion runs, including the compressed
// raw payload for audit and replay.
type BatchRepository interface {
	Create(ctx context.Context, batch *IngestBatch) error
}

// RepositoryRegistry provides access to all repository instances. The
// concrete registry in internal/db also exposes Close() for shutdown.
type RepositoryRegistry interface {
	Sites() SiteRepository
	Slots() SlotRepository
	Tides() TideRepository
	Scores() ScoreRepository
	Subscriptions() SubscriptionRepository
	Users() UserRepository
	Batches() BatchRepository
}

// RawSourceClient fetches the opaque upstream forecast payload for a site.
// Implementations must honor the caller's context deadline; a timeout is
// reported as an ingestion failure for that site, never retried past the
// deadline.
type RawSourceClient interface {
	Fetch(ctx context.Context, site *Site) ([]byte, error)
}
