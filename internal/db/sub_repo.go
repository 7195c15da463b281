package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"waterman/internal/types"
)

// SubscriptionRepository manages per-sport feed tokens.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a SubscriptionRepository backed by the
// given database connection (pool or transaction).
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subColumns = `id, user_id, sport, token_prefix, token_hash,
	active, fetch_count, last_fetch_at, created_at`

func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var sub types.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Sport,
		&sub.TokenPrefix,
		&sub.TokenHash,
		&sub.Active,
		&sub.FetchCount,
		&sub.LastFetchAt,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByTokenPrefix retrieves a subscription by its plaintext token prefix.
// The caller still verifies the full token against the stored hash.
func (r *SubscriptionRepository) GetByTokenPrefix(ctx context.Context, prefix string) (*types.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions WHERE token_prefix = $1`, prefix)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve subscription", err)
	}
	return sub, nil
}

// GetByUserAndSport retrieves a user's subscription for one sport.
func (r *SubscriptionRepository) GetByUserAndSport(ctx context.Context, userID string, sport types.Sport) (*types.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions WHERE user_id = $1 AND sport = $2`,
		userID, string(sport))

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve subscription", err)
	}
	return sub, nil
}

// Upsert creates or replaces the (user, sport) subscription. Rotating a
// token reuses the row: the new prefix and hash overwrite the old ones and
// usage counters reset.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *types.Subscription) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO subscriptions (
			id, user_id, sport, token_prefix, token_hash,
			active, fetch_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, NOW())
		ON CONFLICT (user_id, sport) DO UPDATE SET
			token_prefix = EXCLUDED.token_prefix,
			token_hash = EXCLUDED.token_hash,
			active = EXCLUDED.active,
			fetch_count = 0,
			last_fetch_at = NULL`,
		sub.ID,
		sub.UserID,
		string(sub.Sport),
		sub.TokenPrefix,
		sub.TokenHash,
		sub.Active,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert subscription", err)
	}
	return nil
}

// RecordFetch bumps the usage counters after a personalized feed fetch.
func (r *SubscriptionRepository) RecordFetch(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions
		SET fetch_count = fetch_count + 1, last_fetch_at = $2
		WHERE id = $1`,
		id, at)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record subscription fetch", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
	}
	return nil
}
