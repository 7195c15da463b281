package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tarifa, Spain -- a mid-latitude site where all solar events are defined
// year round.
const (
	tarifaLat = 36.0143
	tarifaLng = -5.6044
)

func TestSunTimes_Ordering(t *testing.T) {
	calc := NewCalculator()
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	st := calc.SunTimes(tarifaLat, tarifaLng, date)

	require.False(t, st.Sunrise.IsZero())
	require.False(t, st.Sunset.IsZero())
	assert.True(t, st.Sunrise.Before(st.Sunset), "sunrise %v should precede sunset %v", st.Sunrise, st.Sunset)
	assert.True(t, st.GoldenHour.Before(st.Sunset) || st.GoldenHour.Equal(st.Sunset))
	assert.True(t, st.Dusk.After(st.Sunset), "civil dusk should follow sunset")

	// Events land on the requested UTC day.
	assert.Equal(t, date.Year(), st.Sunrise.Year())
	assert.Equal(t, date.YearDay(), st.Sunrise.YearDay())
}

func TestSunTimes_Deterministic(t *testing.T) {
	calc := NewCalculator()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := calc.SunTimes(tarifaLat, tarifaLng, date)
	for i := 0; i < 5; i++ {
		again := calc.SunTimes(tarifaLat, tarifaLng, date)
		assert.Equal(t, first, again)
	}

	// A fresh calculator (cold cache) produces the same instants.
	cold := NewCalculator().SunTimes(tarifaLat, tarifaLng, date)
	assert.Equal(t, first, cold)
}

func TestSunTimes_TimeOfDayIgnored(t *testing.T) {
	calc := NewCalculator()
	morning := time.Date(2026, 6, 15, 4, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 6, 15, 22, 45, 0, 0, time.UTC)

	assert.Equal(t, calc.SunTimes(tarifaLat, tarifaLng, morning), calc.SunTimes(tarifaLat, tarifaLng, evening))
}

func TestSunTimes_PolarSummerFallback(t *testing.T) {
	calc := NewCalculator()
	// Longyearbyen in midsummer: the sun never sets.
	st := calc.SunTimes(78.2232, 15.6267, time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC))

	// Fallbacks keep the interval arithmetic total: no zero instants.
	assert.False(t, st.Sunrise.IsZero())
	assert.False(t, st.Sunset.IsZero())
	assert.False(t, st.GoldenHour.IsZero())
	assert.False(t, st.Dusk.IsZero())
}

func TestSunTimes_DistinctLocationsNotShared(t *testing.T) {
	calc := NewCalculator()
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tarifa := calc.SunTimes(tarifaLat, tarifaLng, date)
	hookipa := calc.SunTimes(20.9334, -156.3560, date)

	assert.NotEqual(t, tarifa.Sunset, hookipa.Sunset)
}
