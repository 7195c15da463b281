package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"waterman/internal/types"
)

const (
	icsProdID    = "-//waterman//forecast feed//EN"
	icsTimeFmt   = "20060102T150405Z"
	icsFoldLimit = 75

	eventDuration = 90 * time.Minute
	epicThreshold = 90
)

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Cardinal maps a bearing in degrees to one of the 16 compass points.
func Cardinal(deg int) string {
	d := ((deg % 360) + 360) % 360
	idx := ((d*4 + 45) / 90) % 16 // round to the nearest 22.5 degree step
	return cardinals[idx]
}

// Serializer renders calendar events as an RFC5545 document. Output is
// deterministic for a given event list and clock reading; only DTSTAMP
// varies between runs.
type Serializer struct {
	appURL string
	clock  types.Clock
}

// NewSerializer creates a Serializer. appURL is the base for per-event
// deep links back to the application.
func NewSerializer(appURL string, clock types.Clock) *Serializer {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Serializer{appURL: strings.TrimRight(appURL, "/"), clock: clock}
}

// Serialize renders the full VCALENDAR document with CRLF terminators.
func (s *Serializer) Serialize(events []types.CalendarEvent, meta types.FeedMeta) string {
	now := s.clock.Now().UTC()

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+icsProdID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "X-WR-CALNAME:"+Escape(calendarName(meta)))
	writeLine(&b, "X-WR-CALDESC:"+Escape(calendarDescription(meta)))
	writeLine(&b, "X-WR-TIMEZONE:UTC")
	writeLine(&b, "REFRESH-INTERVAL;VALUE=DURATION:PT1H")
	writeLine(&b, "X-PUBLISHED-TTL:PT1H")

	for i := range events {
		s.writeEvent(&b, &events[i], now)
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

func (s *Serializer) writeEvent(b *strings.Builder, ev *types.CalendarEvent, now time.Time) {
	start := ev.Time.UTC()
	end := start.Add(eventDuration)

	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, "UID:"+eventUID(ev))
	writeLine(b, "DTSTAMP:"+now.Format(icsTimeFmt))
	writeLine(b, "DTSTART:"+start.Format(icsTimeFmt))
	writeLine(b, "DTEND:"+end.Format(icsTimeFmt))
	writeLine(b, "SUMMARY:"+Escape(eventSummary(ev)))
	writeLine(b, "DESCRIPTION:"+Escape(eventDescription(ev)))
	writeLine(b, "LOCATION:"+Escape(eventLocation(ev.Site)))
	writeLine(b, "URL:"+s.eventURL(ev))
	writeLine(b, "STATUS:CONFIRMED")
	writeLine(b, "TRANSP:TRANSPARENT")
	writeLine(b, "CATEGORIES:"+Escape(string(ev.Sport)))
	writeLine(b, "END:VEVENT")
}

// eventUID is stable per (site, timestamp, sport) so calendar clients
// update rather than duplicate on refresh.
func eventUID(ev *types.CalendarEvent) string {
	return fmt.Sprintf("%s-%d-%s@waterman.surf", ev.Site.ID, ev.Time.UTC().UnixMilli(), ev.Sport)
}

func eventSummary(ev *types.CalendarEvent) string {
	quality := "ideal"
	if ev.Score >= epicThreshold {
		quality = "epic"
	}
	return fmt.Sprintf("%s - %s [%s]", ev.Site.Name, conditionSummary(ev), quality)
}

// conditionSummary renders the one-line condition snapshot. Wind sports
// show speed plus the direction rotated 180 degrees from the stored
// meteorological "from" bearing, so riders read where the wind blows to.
// Wave sports show swell height, period, and swell direction.
func conditionSummary(ev *types.CalendarEvent) string {
	slot := ev.Slot
	if ev.Sport.IsWaveSport() {
		height := 0.0
		period := 0.0
		dir := 0
		if slot.WaveHeightM != nil {
			height = *slot.WaveHeightM
		}
		if slot.WavePeriodS != nil {
			period = *slot.WavePeriodS
		}
		if slot.WaveDirection != nil {
			dir = *slot.WaveDirection
		}
		return fmt.Sprintf("%sm %ss %s", formatNum(height), formatNum(period), Cardinal(dir))
	}
	displayDir := (slot.WindDirection + 180) % 360
	return fmt.Sprintf("%skt %s", formatNum(slot.WindSpeedKt), Cardinal(displayDir))
}

func eventDescription(ev *types.CalendarEvent) string {
	slot := ev.Slot
	var lines []string
	lines = append(lines, fmt.Sprintf("Score: %d/100", ev.Score))
	if ev.Reasoning != "" {
		lines = append(lines, ev.Reasoning)
	}
	lines = append(lines, fmt.Sprintf("Wind: %skt gusting %skt from %s (%d°)",
		formatNum(slot.WindSpeedKt), formatNum(slot.WindGustKt),
		Cardinal(slot.WindDirection), slot.WindDirection))
	if slot.WaveHeightM != nil && slot.WavePeriodS != nil {
		dir := 0
		if slot.WaveDirection != nil {
			dir = *slot.WaveDirection
		}
		lines = append(lines, fmt.Sprintf("Swell: %sm @ %ss %s",
			formatNum(*slot.WaveHeightM), formatNum(*slot.WavePeriodS), Cardinal(dir)))
	}
	if slot.Tide != nil {
		lines = append(lines, fmt.Sprintf("Tide: %s %sm at %s",
			slot.Tide.Type, formatNum(slot.Tide.HeightM),
			slot.Tide.Time.UTC().Format("15:04")))
	}
	return strings.Join(lines, "\n")
}

func eventLocation(site *types.Site) string {
	if site.Country == "" {
		return site.Name
	}
	return site.Name + ", " + site.Country
}

func (s *Serializer) eventURL(ev *types.CalendarEvent) string {
	return fmt.Sprintf("%s/sites/%s?sport=%s&t=%d",
		s.appURL, ev.Site.ID, ev.Sport, ev.Time.UTC().Unix())
}

func calendarName(meta types.FeedMeta) string {
	if meta.IsPersonalized {
		return "Waterman: my " + string(meta.Sport) + " sessions"
	}
	return "Waterman: " + string(meta.Sport)
}

func calendarDescription(meta types.FeedMeta) string {
	scope := "all sites"
	if meta.IsPersonalized {
		scope = "favorite sites"
	}
	return fmt.Sprintf("Best %s conditions for the next week across %s.", meta.Sport, scope)
}

// formatNum prints a float without trailing zeros: 20 not 20.0, 38.9 as is.
func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// writeLine folds and appends one content line with a CRLF terminator.
func writeLine(b *strings.Builder, line string) {
	for _, physical := range Fold(line) {
		b.WriteString(physical)
		b.WriteString("\r\n")
	}
}

// Fold splits a content line into physical lines per RFC5545: the first
// carries at most 75 characters, each continuation starts with a single
// space followed by at most 74 further characters of the value.
func Fold(line string) []string {
	if len(line) <= icsFoldLimit {
		return []string{line}
	}
	physical := []string{line[:icsFoldLimit]}
	rest := line[icsFoldLimit:]
	for len(rest) > icsFoldLimit-1 {
		physical = append(physical, " "+rest[:icsFoldLimit-1])
		rest = rest[icsFoldLimit-1:]
	}
	physical = append(physical, " "+rest)
	return physical
}

// Unfold reverses Fold by joining continuation lines.
func Unfold(physical []string) string {
	var b strings.Builder
	for i, line := range physical {
		if i > 0 {
			line = strings.TrimPrefix(line, " ")
		}
		b.WriteString(line)
	}
	return b.String()
}

// Escape sanitizes text per RFC5545 TEXT rules. Backslash is replaced
// first so later substitutions cannot be double-escaped.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// Unescape reverses Escape.
func Unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
