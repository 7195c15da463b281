// Package ingest fetches raw third-party forecast payloads and normalizes
// them into canonical forecast slots and tide events.
package ingest

import (
	"encoding/json"
	"time"

	"waterman/internal/types"
)

// rawPayload mirrors the upstream provider's response shape. The format is
// dictated by the third party; every field is optional on the wire and
// parsing treats missing/null values as zero or absent, never as an error.
// Only a missing hourly series makes the payload structurally unusable.
type rawPayload struct {
	Hours []rawHour `json:"hours"`
	Tides []rawTide `json:"tides"`
}

// rawHour is one upstream timestep. Wind speeds are meters/second;
// directions are meteorological "from" bearings in degrees.
type rawHour struct {
	Time          int64    `json:"time"` // epoch milliseconds
	WindSpeedMs   *float64 `json:"windSpeed"`
	WindGustMs    *float64 `json:"gust"`
	WindDirection *float64 `json:"windDirection"`
	WaveHeightM   *float64 `json:"waveHeight"`
	WavePeriodS   *float64 `json:"wavePeriod"`
	WaveDirection *float64 `json:"waveDirection"`
}

// rawTide is one entry of the upstream tide series. Type is often absent;
// when it is, the normalizer derives it from the sign of the height.
type rawTide struct {
	Time    int64    `json:"time"` // epoch milliseconds
	HeightM *float64 `json:"height"`
	Type    string   `json:"type,omitempty"`
}

// ts converts the epoch-millisecond timestamp to a UTC time.Time.
func (h rawHour) ts() time.Time {
	return time.UnixMilli(h.Time).UTC()
}

func (t rawTide) ts() time.Time {
	return time.UnixMilli(t.Time).UTC()
}

// height returns the tide height, treating a missing value as zero.
func (t rawTide) height() float64 {
	if t.HeightM == nil {
		return 0
	}
	return *t.HeightM
}

// parsePayload decodes the upstream response. A malformed document or a
// missing hourly series fails the whole batch for the site with a
// SourceFormatError; nothing is partially ingested.
func parsePayload(siteID string, raw []byte) (*rawPayload, error) {
	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, types.NewSourceFormatError(siteID, raw, err)
	}
	if p.Hours == nil {
		return nil, types.NewSourceFormatError(siteID, raw, errMissingHourlySeries)
	}
	return &p, nil
}

// errMissingHourlySeries marks a structurally valid JSON document that
// lacks the required hourly series.
var errMissingHourlySeries = jsonShapeError("payload has no hourly series")

type jsonShapeError string

func (e jsonShapeError) Error() string { return string(e) }
