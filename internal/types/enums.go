package types

// Sport identifies a supported water sport. Sports form a closed set of
// string tags; unrecognized tags at the API boundary fall back to
// DefaultSport rather than erroring.
type Sport string

const (
	SportWingfoil    Sport = "wingfoil"
	SportKitesurfing Sport = "kitesurfing"
	SportWindsurfing Sport = "windsurfing"
	SportSurfing     Sport = "surfing"
)

// DefaultSport is the fallback used when an unknown sport tag reaches the
// feed boundary.
const DefaultSport = SportWingfoil

// allSports is the closed set of recognized sport tags.
var allSports = map[Sport]struct{}{
	SportWingfoil:    {},
	SportKitesurfing: {},
	SportWindsurfing: {},
	SportSurfing:     {},
}

// ParseSport maps a raw tag to a Sport, falling back to DefaultSport for
// anything outside the closed set.
func ParseSport(raw string) Sport {
	s := Sport(raw)
	if _, ok := allSports[s]; ok {
		return s
	}
	return DefaultSport
}

// AllSports returns the recognized sports in stable order.
func AllSports() []Sport {
	return []Sport{SportWingfoil, SportKitesurfing, SportWindsurfing, SportSurfing}
}

// IsWaveSport reports whether the sport's condition summary is driven by
// swell rather than wind.
func (s Sport) IsWaveSport() bool {
	return s == SportSurfing
}

// TideType classifies a tide extreme.
type TideType string

const (
	TideHigh TideType = "high"
	TideLow  TideType = "low"
)

// BatchStatus represents the outcome of a per-site ingestion run.
type BatchStatus string

const (
	BatchSucceeded BatchStatus = "succeeded"
	BatchFailed    BatchStatus = "failed"
)
