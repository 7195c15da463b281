package db

import (
	"context"

	"waterman/internal/types"
)

// BatchRepository records per-site ingestion runs.
type BatchRepository struct {
	db DBTX
}

// NewBatchRepository creates a BatchRepository backed by the given database
// connection (pool or transaction).
func NewBatchRepository(db DBTX) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a completed ingest batch record. RawPayload holds the
// zstd-compressed upstream response; it may be nil when the fetch itself
// failed.
func (r *BatchRepository) Create(ctx context.Context, batch *types.IngestBatch) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ingest_batches (
			id, site_id, status, slot_count, error, raw_payload,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		batch.ID,
		batch.SiteID,
		string(batch.Status),
		batch.SlotCount,
		batch.Error,
		batch.RawPayload,
		batch.StartedAt,
		batch.FinishedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create ingest batch", err)
	}
	return nil
}
