package types

import "time"

// Location represents a geographic coordinate.
type Location struct {
	Lat float64 `json:"lat" db:"location_lat"`
	Lng float64 `json:"lng" db:"location_lng"`
}

// Site is a named spot forecasts are ingested for. Sites are created and
// maintained by the directory-management app; this service reads them only.
type Site struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Country  string    `json:"country" db:"country"`
	Location *Location `json:"location,omitempty" db:"-"` // nil triggers fallback daylight logic
	Sports   []Sport   `json:"sports" db:"sports"`

	// Optional live wind station reference (external webcam/station app).
	StationID string `json:"station_id,omitempty" db:"station_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SupportsSport reports whether the site is configured for the given sport.
func (s *Site) SupportsSport(sport Sport) bool {
	for _, sp := range s.Sports {
		if sp == sport {
			return true
		}
	}
	return false
}

// DirectionWindow is a directional acceptance window in whole degrees.
// Both bounds are in [0,360). A window wraps through north when From > To:
// {From: 315, To: 135} accepts 315..359 and 0..135.
type DirectionWindow struct {
	From int `json:"from" db:"direction_from" validate:"gte=0,lt=360"`
	To   int `json:"to" db:"direction_to" validate:"gte=0,lt=360"`
}

// Wraps reports whether the window passes through 0 degrees.
func (w DirectionWindow) Wraps() bool {
	return w.From > w.To
}

// Contains reports whether deg (normalized into [0,360)) falls inside the
// window. Both bounds are inclusive.
func (w DirectionWindow) Contains(deg int) bool {
	d := ((deg % 360) + 360) % 360
	if w.Wraps() {
		return d >= w.From || d <= w.To
	}
	return d >= w.From && d <= w.To
}

// SiteScoringConfig holds the per site+sport thresholds the external scorer
// works from. Read-only to this service.
type SiteScoringConfig struct {
	SiteID string `json:"site_id" db:"site_id"`
	Sport  Sport  `json:"sport" db:"sport"`

	MinWindSpeedKt float64 `json:"min_wind_speed_kt" db:"min_wind_speed_kt"`
	MinGustKt      float64 `json:"min_gust_kt" db:"min_gust_kt"`

	MinWaveHeightM float64 `json:"min_wave_height_m" db:"min_wave_height_m"`
	MaxWaveHeightM float64 `json:"max_wave_height_m" db:"max_wave_height_m"`
	MinWavePeriodS float64 `json:"min_wave_period_s" db:"min_wave_period_s"`

	Direction DirectionWindow `json:"direction" db:"-"`
}

// TideInfo is the tide snapshot correlated onto a ForecastSlot. The Type
// field may be heuristically derived from the sign of the upstream tide
// height and must not be treated as ground truth by consumers.
type TideInfo struct {
	HeightM float64   `json:"height_m" db:"tide_height_m"`
	Type    TideType  `json:"type" db:"tide_type"`
	Time    time.Time `json:"time" db:"tide_time"`
}

// ForecastSlot is one normalized forecast timestep for a site. Slots are
// immutable once written; one slot exists per (site, timestamp, batch).
type ForecastSlot struct {
	ID      string    `json:"id" db:"id"`
	SiteID  string    `json:"site_id" db:"site_id"`
	BatchID string    `json:"batch_id" db:"batch_id"`
	Time    time.Time `json:"time" db:"slot_time"`

	// Wind, knots rounded to one decimal; direction is the meteorological
	// "from" bearing in degrees.
	WindSpeedKt   float64 `json:"wind_speed_kt" db:"wind_speed_kt"`
	WindGustKt    float64 `json:"wind_gust_kt" db:"wind_gust_kt"`
	WindDirection int     `json:"wind_direction" db:"wind_direction"`

	// Swell, optional.
	WaveHeightM   *float64 `json:"wave_height_m,omitempty" db:"wave_height_m"`
	WavePeriodS   *float64 `json:"wave_period_s,omitempty" db:"wave_period_s"`
	WaveDirection *int     `json:"wave_direction,omitempty" db:"wave_direction"`

	// Nearest tide within the correlation tolerance, or nil.
	Tide *TideInfo `json:"tide,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TideEvent is a raw tide extreme from the upstream tide series. Stored
// independently of forecast slots and never mutated by correlation.
type TideEvent struct {
	ID      string    `json:"id" db:"id"`
	SiteID  string    `json:"site_id" db:"site_id"`
	Time    time.Time `json:"time" db:"tide_time"`
	Type    TideType  `json:"type" db:"tide_type"`
	HeightM float64   `json:"height_m" db:"height_m"`
}

// ConditionScore is the external scorer's verdict for one (site, sport,
// timestamp). UserID nil means the shared system score; the calendar feed
// reads system scores only.
type ConditionScore struct {
	SiteID    string             `json:"site_id" db:"site_id"`
	Sport     Sport              `json:"sport" db:"sport"`
	Time      time.Time          `json:"time" db:"score_time"`
	UserID    *string            `json:"user_id,omitempty" db:"user_id"`
	Score     int                `json:"score" db:"score"`
	Reasoning string             `json:"reasoning" db:"reasoning"`
	Factors   map[string]float64 `json:"factors,omitempty" db:"factors"`
}

// Subscription links a user to a per-sport calendar token. The token value
// is never stored at rest: the first tokenPrefix characters are kept for
// lookup and the remainder is verified against a bcrypt hash, mirroring the
// usual API-key scheme. One subscription exists per (user, sport).
type Subscription struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Sport       Sport      `json:"sport" db:"sport"`
	TokenPrefix string     `json:"-" db:"token_prefix"`
	TokenHash   string     `json:"-" db:"token_hash"`
	Active      bool       `json:"active" db:"active"`
	FetchCount  int64      `json:"fetch_count" db:"fetch_count"`
	LastFetchAt *time.Time `json:"last_fetch_at,omitempty" db:"last_fetch_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// User carries the subset of the account record the feed needs: identity
// and the favorite-site list used for personalization.
type User struct {
	ID            string   `json:"id" db:"id"`
	Email         string   `json:"email" db:"email"`
	FavoriteSites []string `json:"favorite_sites" db:"favorite_sites"`
}

// CalendarEvent is the derived tuple a calendar client ultimately sees.
// It is assembled by the feed selector and never persisted.
type CalendarEvent struct {
	Site      *Site
	Sport     Sport
	Time      time.Time
	Score     int
	Reasoning string
	Slot      *ForecastSlot
}

// FeedMeta describes how a feed was resolved.
type FeedMeta struct {
	Sport          Sport `json:"sport"`
	SiteCount      int   `json:"site_count"`
	IsPersonalized bool  `json:"is_personalized"`
}

// IngestBatch records one per-site scrape run. RawPayload holds the
// zstd-compressed upstream response for audit and replay.
type IngestBatch struct {
	ID         string      `json:"id" db:"id"`
	SiteID     string      `json:"site_id" db:"site_id"`
	Status     BatchStatus `json:"status" db:"status"`
	SlotCount  int         `json:"slot_count" db:"slot_count"`
	Error      string      `json:"error,omitempty" db:"error"`
	RawPayload []byte      `json:"-" db:"raw_payload"`
	StartedAt  time.Time   `json:"started_at" db:"started_at"`
	FinishedAt time.Time   `json:"finished_at" db:"finished_at"`
}

// SiteResult is the per-site outcome reported by a multi-site ingestion run.
type SiteResult struct {
	SiteID    string `json:"site_id"`
	Success   bool   `json:"success"`
	SlotCount int    `json:"slot_count,omitempty"`
	Err       error  `json:"-"`
}
