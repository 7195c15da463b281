package db

import (
	"context"
	"time"

	"waterman/internal/types"
)

// TideRepository provides append-only access to the tide_events table.
type TideRepository struct {
	db DBTX
}

// NewTideRepository creates a TideRepository backed by the given database
// connection (pool or transaction).
func NewTideRepository(db DBTX) *TideRepository {
	return &TideRepository{db: db}
}

// InsertBatch writes raw tide extremes. Duplicate (site, tide_time) pairs
// from overlapping scrapes are replaced with the newer reading.
func (r *TideRepository) InsertBatch(ctx context.Context, tides []*types.TideEvent) error {
	for _, tide := range tides {
		_, err := r.db.Exec(ctx,
			`INSERT INTO tide_events (id, site_id, tide_time, tide_type, height_m)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (site_id, tide_time) DO UPDATE SET
				id = EXCLUDED.id,
				tide_type = EXCLUDED.tide_type,
				height_m = EXCLUDED.height_m`,
			tide.ID,
			tide.SiteID,
			tide.Time,
			string(tide.Type),
			tide.HeightM,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to insert tide event", err)
		}
	}
	return nil
}

// ListBySiteInRange retrieves tide extremes for a site within [from, to],
// ordered by time.
func (r *TideRepository) ListBySiteInRange(ctx context.Context, siteID string, from, to time.Time) ([]*types.TideEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, site_id, tide_time, tide_type, height_m
		FROM tide_events
		WHERE site_id = $1 AND tide_time BETWEEN $2 AND $3
		ORDER BY tide_time`,
		siteID, from, to)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query tide events", err)
	}
	defer rows.Close()

	var tides []*types.TideEvent
	for rows.Next() {
		var tide types.TideEvent
		if scanErr := rows.Scan(&tide.ID, &tide.SiteID, &tide.Time, &tide.Type, &tide.HeightM); scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan tide event row", scanErr)
		}
		tides = append(tides, &tide)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating tide event rows", err)
	}
	return tides, nil
}
