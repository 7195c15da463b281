// Package daylight decides whether forecast slot timestamps are usable
// viewing moments for a site.
//
// Sites with coordinates get precise sunrise/sunset boundaries from the
// astro calculator. Sites without coordinates fall back to fixed UTC hour
// bands, deliberately narrower than the ingestion-time band so post-sunset
// slots are under-included rather than shown when the location is unknown.
//
// Boundary semantics are load-bearing for selection correctness and must
// not drift: a timestamp exactly at sunset is still daylight (non-strict
// lower bound when testing "after sunset"), while a sunset exactly at a
// slot's end or midpoint counts as not-yet-sunset for that interval.
package daylight

import (
	"time"

	"waterman/internal/astro"
	"waterman/internal/types"
)

// Fallback hour bands for sites without coordinates, in UTC.
const (
	fallbackDayStartHour = 8  // inclusive
	fallbackDayEndHour   = 17 // exclusive
	fallbackSunsetHour   = 18 // IsAfterSunset: hour >= 18
)

// Filter evaluates daylight predicates for slots against site locations.
type Filter struct {
	calc *astro.Calculator
}

// NewFilter returns a Filter backed by the given calculator.
func NewFilter(calc *astro.Calculator) *Filter {
	if calc == nil {
		calc = astro.NewCalculator()
	}
	return &Filter{calc: calc}
}

// IsDaylight reports whether ts lies in [sunrise, sunset] for the site's
// location, both bounds inclusive. Without coordinates it falls back to the
// [08:00, 17:00) UTC band.
func (f *Filter) IsDaylight(site *types.Site, ts time.Time) bool {
	if site == nil || site.Location == nil {
		h := ts.UTC().Hour()
		return h >= fallbackDayStartHour && h < fallbackDayEndHour
	}
	st := f.sunTimes(site, ts)
	return !ts.Before(st.Sunrise) && !ts.After(st.Sunset)
}

// IsAfterSunset reports whether ts is strictly after sunset. Without
// coordinates it falls back to hour >= 18 UTC.
func (f *Filter) IsAfterSunset(site *types.Site, ts time.Time) bool {
	if site == nil || site.Location == nil {
		return ts.UTC().Hour() >= fallbackSunsetHour
	}
	return ts.After(f.sunTimes(site, ts).Sunset)
}

// SunsetDuringSlot reports whether sunset falls strictly inside
// [slotStart, slotStart+duration). A sunset exactly at the slot start is
// still daylight; one exactly at the end is not yet inside the slot.
// Without coordinates there is no sunset instant and the answer is false.
func (f *Filter) SunsetDuringSlot(site *types.Site, slotStart time.Time, duration time.Duration) bool {
	if site == nil || site.Location == nil {
		return false
	}
	sunset := f.sunTimes(site, slotStart).Sunset
	return sunset.After(slotStart) && sunset.Before(slotStart.Add(duration))
}

// SunsetInFirstHalf refines SunsetDuringSlot by comparing sunset against the
// slot midpoint: slots whose usable portion before sunset covers at least
// half the duration are treated as fully valid. A sunset exactly at the
// midpoint counts as not-yet-sunset.
func (f *Filter) SunsetInFirstHalf(site *types.Site, slotStart time.Time, duration time.Duration) bool {
	if site == nil || site.Location == nil {
		return false
	}
	sunset := f.sunTimes(site, slotStart).Sunset
	midpoint := slotStart.Add(duration / 2)
	return sunset.After(slotStart) && sunset.Before(midpoint)
}

// sunTimes looks up the solar events for the site's location on ts's UTC day.
func (f *Filter) sunTimes(site *types.Site, ts time.Time) astro.SunTimes {
	return f.calc.SunTimes(site.Location.Lat, site.Location.Lng, ts)
}
