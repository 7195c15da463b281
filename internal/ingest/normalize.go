package ingest

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"waterman/internal/types"
)

// msToKnotsFactor converts meters/second to knots.
const msToKnotsFactor = 1.94384

// tideTolerance is the maximum |Δt| for attaching a tide entry to a slot.
// Beyond it the slot's tide fields stay nil rather than carrying a
// misleading guess.
const tideTolerance = 3 * time.Hour

// Coarse ingestion-time daylight band, local hours inclusive. This is an
// operational pre-filter; the precise per-site daylight filter runs later
// at presentation time against live site data.
const (
	ingestBandStartHour = 9
	ingestBandEndHour   = 18
)

// MsToKnots converts a meters/second speed to knots rounded half-up to one
// decimal place.
func MsToKnots(ms float64) float64 {
	return math.Floor(ms*msToKnotsFactor*10+0.5) / 10
}

// Normalizer converts raw upstream payloads into canonical forecast slots
// and tide events.
type Normalizer struct {
	clock  types.Clock
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil clock defaults to real UTC time.
func NewNormalizer(clock types.Clock, logger *slog.Logger) *Normalizer {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{clock: clock, logger: logger}
}

// Normalize parses the raw payload for a site and produces the ordered
// canonical slots plus the site's tide events. Timesteps in the past and
// outside the coarse daylight band are discarded. On a malformed payload it
// returns a SourceFormatError and ingests nothing for the site.
func (n *Normalizer) Normalize(site *types.Site, batchID string, raw []byte) ([]*types.ForecastSlot, []*types.TideEvent, error) {
	payload, err := parsePayload(site.ID, raw)
	if err != nil {
		return nil, nil, err
	}

	now := n.clock.Now()
	tides := n.tideEvents(site.ID, payload.Tides)

	slots := make([]*types.ForecastSlot, 0, len(payload.Hours))
	for _, hour := range payload.Hours {
		ts := hour.ts()

		// Never back-fill history.
		if ts.Before(now) {
			continue
		}
		if h := ts.Hour(); h < ingestBandStartHour || h > ingestBandEndHour {
			continue
		}

		slot := &types.ForecastSlot{
			ID:            uuid.NewString(),
			SiteID:        site.ID,
			BatchID:       batchID,
			Time:          ts,
			WindSpeedKt:   MsToKnots(deref(hour.WindSpeedMs)),
			WindGustKt:    MsToKnots(deref(hour.WindGustMs)),
			WindDirection: normalizeDegrees(deref(hour.WindDirection)),
			CreatedAt:     now,
		}

		if hour.WaveHeightM != nil {
			slot.WaveHeightM = hour.WaveHeightM
		}
		if hour.WavePeriodS != nil {
			slot.WavePeriodS = hour.WavePeriodS
		}
		if hour.WaveDirection != nil {
			d := normalizeDegrees(*hour.WaveDirection)
			slot.WaveDirection = &d
		}

		slot.Tide = correlateTide(ts, tides)
		slots = append(slots, slot)
	}

	n.logger.Debug("normalized payload",
		slog.String("site_id", site.ID),
		slog.Int("raw_hours", len(payload.Hours)),
		slog.Int("slots", len(slots)),
		slog.Int("tides", len(tides)),
	)

	return slots, tides, nil
}

// tideEvents converts the raw tide series into canonical records. The tide
// type, when not supplied upstream, is derived from the sign of the height:
// non-negative means high, negative means low. This is a documented
// heuristic carried over from the original data source and is not
// guaranteed to be correct for every tide datum.
func (n *Normalizer) tideEvents(siteID string, raw []rawTide) []*types.TideEvent {
	events := make([]*types.TideEvent, 0, len(raw))
	for _, rt := range raw {
		tideType := types.TideType(rt.Type)
		if tideType != types.TideHigh && tideType != types.TideLow {
			tideType = deriveTideType(rt.height())
		}
		events = append(events, &types.TideEvent{
			ID:      uuid.NewString(),
			SiteID:  siteID,
			Time:    rt.ts(),
			Type:    tideType,
			HeightM: rt.height(),
		})
	}
	return events
}

// deriveTideType maps the sign of a tide height to a tide type.
func deriveTideType(height float64) types.TideType {
	if height < 0 {
		return types.TideLow
	}
	return types.TideHigh
}

// correlateTide finds the tide event nearest to ts. Returns nil when the
// series is empty or the nearest entry is further than the tolerance away;
// the tide record itself is never mutated.
func correlateTide(ts time.Time, tides []*types.TideEvent) *types.TideInfo {
	var nearest *types.TideEvent
	var best time.Duration
	for _, tide := range tides {
		diff := ts.Sub(tide.Time)
		if diff < 0 {
			diff = -diff
		}
		if nearest == nil || diff < best {
			nearest = tide
			best = diff
		}
	}
	if nearest == nil || best > tideTolerance {
		return nil
	}
	return &types.TideInfo{
		HeightM: nearest.HeightM,
		Type:    nearest.Type,
		Time:    nearest.Time,
	}
}

// normalizeDegrees clamps a float bearing into an integer in [0,360).
func normalizeDegrees(deg float64) int {
	d := int(math.Round(deg)) % 360
	if d < 0 {
		d += 360
	}
	return d
}

// deref returns the value of a float pointer, or zero when absent.
func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
