// Package feed builds the "best sessions" calendar feed: it resolves which
// sites a request covers, selects a bounded set of top-scoring daylight
// slots over the coming week, and serializes them as an RFC5545 document.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"waterman/internal/daylight"
	"waterman/internal/types"
)

// Selection defaults; overridable through Params for operational tuning.
const (
	// DefaultMinScore is the "ideal or better" eligibility cutoff.
	DefaultMinScore = 75
	// DefaultWindowDays is the feed lookahead window.
	DefaultWindowDays = 7
	// DefaultMaxPerDay bounds events kept per calendar day across all sites.
	DefaultMaxPerDay = 2
)

// Service selects calendar events from scored forecast slots. It is a pure,
// synchronous transform over repository reads: no network calls of its own,
// no internal mutable state.
type Service struct {
	sites      types.SiteRepository
	slots      types.SlotRepository
	scores     types.ScoreRepository
	subs       types.SubscriptionRepository
	users      types.UserRepository
	daylight   *daylight.Filter
	clock      types.Clock
	logger     *slog.Logger
	minScore   int
	windowDays int
	maxPerDay  int
}

// Params collects the Service's dependencies and tuning knobs. Zero tuning
// values fall back to the package defaults.
type Params struct {
	Sites      types.SiteRepository
	Slots      types.SlotRepository
	Scores     types.ScoreRepository
	Subs       types.SubscriptionRepository
	Users      types.UserRepository
	Daylight   *daylight.Filter
	Clock      types.Clock
	Logger     *slog.Logger
	MinScore   int
	WindowDays int
	MaxPerDay  int
}

// NewService creates a feed Service.
func NewService(p Params) *Service {
	if p.Clock == nil {
		p.Clock = types.RealClock{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.MinScore <= 0 {
		p.MinScore = DefaultMinScore
	}
	if p.WindowDays <= 0 {
		p.WindowDays = DefaultWindowDays
	}
	if p.MaxPerDay <= 0 {
		p.MaxPerDay = DefaultMaxPerDay
	}
	return &Service{
		sites:      p.Sites,
		slots:      p.Slots,
		scores:     p.Scores,
		subs:       p.Subs,
		users:      p.Users,
		daylight:   p.Daylight,
		clock:      p.Clock,
		logger:     p.Logger,
		minScore:   p.MinScore,
		windowDays: p.WindowDays,
		maxPerDay:  p.MaxPerDay,
	}
}

// BuildFeed produces the ordered calendar events for a sport plus feed
// metadata. siteIDs and token are both optional; resolution order is
// explicit site list, then token personalization, then all sites for the
// sport. An empty resolved site set yields an empty event list with
// metadata still populated.
func (s *Service) BuildFeed(ctx context.Context, sport types.Sport, siteIDs []string, token string) ([]types.CalendarEvent, types.FeedMeta, error) {
	sites, personalized, err := s.resolveSites(ctx, sport, siteIDs, token)
	if err != nil {
		return nil, types.FeedMeta{}, err
	}

	meta := types.FeedMeta{
		Sport:          sport,
		SiteCount:      len(sites),
		IsPersonalized: personalized,
	}
	if len(sites) == 0 {
		return []types.CalendarEvent{}, meta, nil
	}

	now := s.clock.Now()
	until := now.Add(time.Duration(s.windowDays) * 24 * time.Hour)

	scores, err := s.scores.ListSystemScores(ctx, sport, now, until, s.minScore)
	if err != nil {
		return nil, types.FeedMeta{}, err
	}

	events := s.selectEvents(ctx, sport, sites, scores)
	return events, meta, nil
}

// resolveSites applies the personalization resolution order. An invalid,
// inactive, or unknown token falls through to the public path silently:
// a shared feed must degrade, never fail.
func (s *Service) resolveSites(ctx context.Context, sport types.Sport, siteIDs []string, token string) (map[string]*types.Site, bool, error) {
	if len(siteIDs) > 0 {
		sites := make(map[string]*types.Site, len(siteIDs))
		for _, id := range siteIDs {
			site, err := s.sites.GetByID(ctx, id)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return nil, false, err
			}
			sites[site.ID] = site
		}
		return sites, false, nil
	}

	if token != "" {
		sites, ok, err := s.resolveToken(ctx, sport, token)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return sites, true, nil
		}
	}

	all, err := s.sites.ListBySport(ctx, sport)
	if err != nil {
		return nil, false, err
	}
	sites := make(map[string]*types.Site, len(all))
	for _, site := range all {
		sites[site.ID] = site
	}
	return sites, false, nil
}

// resolveToken maps a feed token to the owning user's favorite sites,
// intersected with sites that support the sport. ok is false for any
// token that cannot personalize the feed, whatever the reason.
func (s *Service) resolveToken(ctx context.Context, sport types.Sport, token string) (map[string]*types.Site, bool, error) {
	prefix, ok := TokenPrefix(token)
	if !ok {
		return nil, false, nil
	}

	sub, err := s.subs.GetByTokenPrefix(ctx, prefix)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !sub.Active || sub.Sport != sport || !VerifyToken(token, sub.TokenHash) {
		return nil, false, nil
	}

	user, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	sites := make(map[string]*types.Site, len(user.FavoriteSites))
	for _, id := range user.FavoriteSites {
		site, err := s.sites.GetByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, false, err
		}
		if site.SupportsSport(sport) {
			sites[site.ID] = site
		}
	}

	if err := s.subs.RecordFetch(ctx, sub.ID, s.clock.Now()); err != nil {
		// Usage counters are best-effort; the feed still personalizes.
		s.logger.Warn("failed to record subscription fetch",
			slog.String("subscription_id", sub.ID),
			slog.Any("error", err),
		)
	}

	return sites, true, nil
}

// candidate pairs a score with its resolved slot for selection.
type candidate struct {
	score *types.ConditionScore
	site  *types.Site
	slot  *types.ForecastSlot
}

// selectEvents runs the bounded top-k selection: group eligible scores by
// UTC day, keep each site's single best slot per day, keep the top
// maxPerDay of those per-site bests, then sort the surviving events
// globally by timestamp. Scores whose slot or site is missing are dropped
// silently; a referential gap never aborts the feed.
func (s *Service) selectEvents(ctx context.Context, sport types.Sport, sites map[string]*types.Site, scores []*types.ConditionScore) []types.CalendarEvent {
	byDay := make(map[string]map[string]candidate)
	var days []string

	for _, score := range scores {
		site, ok := sites[score.SiteID]
		if !ok {
			continue
		}
		if !s.daylight.IsDaylight(site, score.Time) {
			continue
		}

		slot, err := s.slots.GetBySiteAndTime(ctx, score.SiteID, score.Time)
		if err != nil {
			if !isNotFound(err) {
				s.logger.Warn("slot lookup failed",
					slog.String("site_id", score.SiteID),
					slog.Time("slot_time", score.Time),
					slog.Any("error", err),
				)
			}
			continue
		}

		day := score.Time.UTC().Format(time.DateOnly)
		perSite, ok := byDay[day]
		if !ok {
			perSite = make(map[string]candidate)
			byDay[day] = perSite
			days = append(days, day)
		}

		// First-encountered wins ties: only a strictly higher score
		// replaces a site's candidate for the day.
		if existing, ok := perSite[score.SiteID]; !ok || score.Score > existing.score.Score {
			perSite[score.SiteID] = candidate{score: score, site: site, slot: slot}
		}
	}

	var events []types.CalendarEvent
	for _, day := range days {
		perSite := byDay[day]

		best := make([]candidate, 0, len(perSite))
		for _, c := range perSite {
			best = append(best, c)
		}
		// Deterministic order: score descending, then site ID ascending.
		sort.Slice(best, func(i, j int) bool {
			if best[i].score.Score != best[j].score.Score {
				return best[i].score.Score > best[j].score.Score
			}
			return best[i].site.ID < best[j].site.ID
		})
		if len(best) > s.maxPerDay {
			best = best[:s.maxPerDay]
		}

		for _, c := range best {
			events = append(events, types.CalendarEvent{
				Site:      c.site,
				Sport:     sport,
				Time:      c.score.Time,
				Score:     c.score.Score,
				Reasoning: c.score.Reasoning,
				Slot:      c.slot,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events
}

// isNotFound reports whether err is a not-found AppError.
func isNotFound(err error) bool {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case types.ErrCodeNotFoundSite, types.ErrCodeNotFoundSlot,
		types.ErrCodeNotFoundUser, types.ErrCodeNotFoundSubscription:
		return true
	}
	return false
}
