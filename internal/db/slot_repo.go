package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"waterman/internal/types"
)

// SlotRepository provides append-only access to the forecast_slots table.
type SlotRepository struct {
	db DBTX
}

// NewSlotRepository creates a SlotRepository backed by the given database
// connection (pool or transaction).
func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `f.id, f.site_id, f.batch_id, f.slot_time,
	f.wind_speed_kt, f.wind_gust_kt, f.wind_direction,
	f.wave_height_m, f.wave_period_s, f.wave_direction,
	f.tide_height_m, f.tide_type, f.tide_time,
	f.created_at`

// scanSlot scans a single forecast slot row. The column order must match
// slotColumns.
func scanSlot(row pgx.Row) (*types.ForecastSlot, error) {
	var slot types.ForecastSlot
	var (
		tideHeight *float64
		tideType   *string
		tideTime   *time.Time
	)

	err := row.Scan(
		&slot.ID,
		&slot.SiteID,
		&slot.BatchID,
		&slot.Time,
		&slot.WindSpeedKt,
		&slot.WindGustKt,
		&slot.WindDirection,
		&slot.WaveHeightM,
		&slot.WavePeriodS,
		&slot.WaveDirection,
		&tideHeight,
		&tideType,
		&tideTime,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// The correlated tide is denormalized onto the slot row; all three
	// columns are null together.
	if tideHeight != nil && tideType != nil && tideTime != nil {
		slot.Tide = &types.TideInfo{
			HeightM: *tideHeight,
			Type:    types.TideType(*tideType),
			Time:    *tideTime,
		}
	}
	return &slot, nil
}

// InsertBatch writes a normalized slot batch. Slots are immutable; a
// conflicting (site, slot_time) pair from a newer batch replaces the older
// reading so refreshed scrapes supersede stale ones.
func (r *SlotRepository) InsertBatch(ctx context.Context, slots []*types.ForecastSlot) error {
	for _, slot := range slots {
		var tideHeight *float64
		var tideType *string
		var tideTime *time.Time
		if slot.Tide != nil {
			tideHeight = &slot.Tide.HeightM
			t := string(slot.Tide.Type)
			tideType = &t
			tideTime = &slot.Tide.Time
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO forecast_slots (
				id, site_id, batch_id, slot_time,
				wind_speed_kt, wind_gust_kt, wind_direction,
				wave_height_m, wave_period_s, wave_direction,
				tide_height_m, tide_type, tide_time,
				created_at
			) VALUES (
				$1, $2, $3, $4,
				$5, $6, $7,
				$8, $9, $10,
				$11, $12, $13,
				NOW()
			)
			ON CONFLICT (site_id, slot_time) DO UPDATE SET
				id = EXCLUDED.id,
				batch_id = EXCLUDED.batch_id,
				wind_speed_kt = EXCLUDED.wind_speed_kt,
				wind_gust_kt = EXCLUDED.wind_gust_kt,
				wind_direction = EXCLUDED.wind_direction,
				wave_height_m = EXCLUDED.wave_height_m,
				wave_period_s = EXCLUDED.wave_period_s,
				wave_direction = EXCLUDED.wave_direction,
				tide_height_m = EXCLUDED.tide_height_m,
				tide_type = EXCLUDED.tide_type,
				tide_time = EXCLUDED.tide_time,
				created_at = NOW()`,
			slot.ID,
			slot.SiteID,
			slot.BatchID,
			slot.Time,
			slot.WindSpeedKt,
			slot.WindGustKt,
			slot.WindDirection,
			slot.WaveHeightM,
			slot.WavePeriodS,
			slot.WaveDirection,
			tideHeight,
			tideType,
			tideTime,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to insert forecast slot", err)
		}
	}
	return nil
}

// GetBySiteAndTime retrieves the slot for an exact (site, timestamp) pair.
func (r *SlotRepository) GetBySiteAndTime(ctx context.Context, siteID string, t time.Time) (*types.ForecastSlot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM forecast_slots f
		WHERE f.site_id = $1 AND f.slot_time = $2`,
		siteID, t)

	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSlot, "forecast slot not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve forecast slot", err)
	}
	return slot, nil
}
