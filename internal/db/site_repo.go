package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"waterman/internal/types"
)

// SiteRepository provides read access to the sites table. Sites are
// maintained by the directory-management app; this service never writes
// them.
type SiteRepository struct {
	db DBTX
}

// NewSiteRepository creates a SiteRepository backed by the given database
// connection (pool or transaction).
func NewSiteRepository(db DBTX) *SiteRepository {
	return &SiteRepository{db: db}
}

const siteColumns = `s.id, s.name, s.country,
	s.location_lat, s.location_lng,
	s.sports, s.station_id,
	s.created_at, s.updated_at`

// scanSite scans a single site row. The column order must match siteColumns.
func scanSite(row pgx.Row) (*types.Site, error) {
	var site types.Site
	var (
		lat       *float64
		lng       *float64
		sports    []string
		stationID *string
	)

	err := row.Scan(
		&site.ID,
		&site.Name,
		&site.Country,
		&lat,
		&lng,
		&sports,
		&stationID,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Coordinates are nullable as a pair; a site without them falls back
	// to fixed-band daylight filtering.
	if lat != nil && lng != nil {
		site.Location = &types.Location{Lat: *lat, Lng: *lng}
	}
	for _, s := range sports {
		site.Sports = append(site.Sports, types.Sport(s))
	}
	if stationID != nil {
		site.StationID = *stationID
	}
	return &site, nil
}

// GetByID retrieves a single site.
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*types.Site, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites s WHERE s.id = $1`, id)

	site, err := scanSite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSite, "site not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve site", err)
	}
	return site, nil
}

// ListBySport retrieves all sites configured for a sport, ordered by name
// for stable output.
func (r *SiteRepository) ListBySport(ctx context.Context, sport types.Sport) ([]*types.Site, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+siteColumns+` FROM sites s WHERE $1 = ANY(s.sports) ORDER BY s.name`,
		string(sport))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query sites", err)
	}
	defer rows.Close()

	var sites []*types.Site
	for rows.Next() {
		site, scanErr := scanSite(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan site row", scanErr)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating site rows", err)
	}
	return sites, nil
}

// GetScoringConfig retrieves the per site+sport scoring thresholds.
func (r *SiteRepository) GetScoringConfig(ctx context.Context, siteID string, sport types.Sport) (*types.SiteScoringConfig, error) {
	var cfg types.SiteScoringConfig
	err := r.db.QueryRow(ctx,
		`SELECT site_id, sport,
			min_wind_speed_kt, min_gust_kt,
			min_wave_height_m, max_wave_height_m, min_wave_period_s,
			direction_from, direction_to
		FROM site_scoring_configs
		WHERE site_id = $1 AND sport = $2`,
		siteID, string(sport),
	).Scan(
		&cfg.SiteID,
		&cfg.Sport,
		&cfg.MinWindSpeedKt,
		&cfg.MinGustKt,
		&cfg.MinWaveHeightM,
		&cfg.MaxWaveHeightM,
		&cfg.MinWavePeriodS,
		&cfg.Direction.From,
		&cfg.Direction.To,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSite, "scoring config not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve scoring config", err)
	}
	return &cfg, nil
}
