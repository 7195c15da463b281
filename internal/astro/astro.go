// Package astro computes solar event times for a location and date.
//
// Calculations are delegated to github.com/sj14/astral (standard
// solar-position astronomy); a small per-(location, date) cache keeps
// repeated lookups for the same site/day deterministic and cheap, since the
// daylight filter asks for the same day's times once per forecast slot.
//
// High-latitude edge cases (polar day/night) are handled by falling back:
// if dusk cannot be computed, sunset is used; if golden hour cannot be
// computed, sunset is used for its start as well.
package astro

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// SunTimes holds the solar event instants for one location and date,
// always in UTC.
type SunTimes struct {
	Sunrise    time.Time
	Sunset     time.Time
	GoldenHour time.Time // start of the evening golden hour
	Dusk       time.Time // civil dusk
}

// cacheEntry holds computed times for one (location, date) key.
type cacheEntry struct {
	times SunTimes
}

// Calculator computes and caches sun event times. The zero value is not
// usable; construct with NewCalculator.
type Calculator struct {
	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewCalculator returns a ready Calculator with an empty cache.
func NewCalculator() *Calculator {
	return &Calculator{cache: make(map[string]cacheEntry)}
}

// SunTimes returns the solar event times for the given coordinates on the
// calendar date of `date` (evaluated in UTC). It is deterministic: repeated
// calls with the same inputs return identical instants.
func (c *Calculator) SunTimes(lat, lng float64, date time.Time) SunTimes {
	day := date.UTC().Truncate(24 * time.Hour)
	key := cacheKey(lat, lng, day)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return entry.times
	}

	times := compute(lat, lng, day)

	c.mu.Lock()
	c.cache[key] = cacheEntry{times: times}
	c.mu.Unlock()

	return times
}

// cacheKey builds the cache key for a location and UTC day.
func cacheKey(lat, lng float64, day time.Time) string {
	return fmt.Sprintf("%.4f:%.4f:%s", lat, lng, day.Format(time.DateOnly))
}

// compute performs the astral calculations for one location and UTC day.
func compute(lat, lng float64, day time.Time) SunTimes {
	observer := astral.Observer{Latitude: lat, Longitude: lng}

	sunrise, srErr := astral.Sunrise(observer, day)
	sunset, ssErr := astral.Sunset(observer, day)

	// Polar day/night: astral cannot produce a crossing. Anchor both ends
	// on solar noon so downstream interval arithmetic stays total. Noon
	// never fails.
	noon := astral.Noon(observer, day)
	if srErr != nil {
		sunrise = noon
	}
	if ssErr != nil {
		sunset = noon
	}

	// Evening golden hour start; fall back to sunset when the sun never
	// reaches the golden-hour elevation band.
	goldenStart, _, ghErr := astral.GoldenHour(observer, day, astral.SunDirectionSetting)
	if ghErr != nil {
		goldenStart = sunset
	}

	// Civil dusk; fall back to sunset under polar conditions.
	dusk, duskErr := astral.Dusk(observer, day, astral.DepressionCivil)
	if duskErr != nil {
		dusk = sunset
	}

	return SunTimes{
		Sunrise:    sunrise.UTC(),
		Sunset:     sunset.UTC(),
		GoldenHour: goldenStart.UTC(),
		Dusk:       dusk.UTC(),
	}
}
