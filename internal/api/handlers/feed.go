// Package handlers contains the HTTP handler implementations for the
// waterman feed service.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"waterman/internal/core"
	"waterman/internal/types"
)

// feedCacheMaxAge is the client-side cache lifetime of a rendered feed.
// Calendar apps poll subscriptions on their own schedule; an hour matches
// the REFRESH-INTERVAL hint inside the document.
const feedCacheMaxAge = 3600

// FeedServiceInterface is the selection contract the handler depends on.
// Defined locally so the handler can be tested against a stub.
type FeedServiceInterface interface {
	BuildFeed(ctx context.Context, sport types.Sport, siteIDs []string, token string) ([]types.CalendarEvent, types.FeedMeta, error)
}

// FeedSerializerInterface renders the selected events as a calendar
// document.
type FeedSerializerInterface interface {
	Serialize(events []types.CalendarEvent, meta types.FeedMeta) string
}

// FeedHandler serves the public calendar feed.
type FeedHandler struct {
	service    FeedServiceInterface
	serializer FeedSerializerInterface
	logger     *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(svc FeedServiceInterface, ser FeedSerializerInterface, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandler{service: svc, serializer: ser, logger: logger}
}

// requestLogger returns the request-scoped logger attached by the request
// ID middleware, or the handler's own logger when none is present (tests,
// handlers exercised outside the chain).
func requestLogger(ctx context.Context, fallback *slog.Logger) types.Logger {
	if l := types.LoggerFromContext(ctx); l != nil {
		return l
	}
	return fallback
}

// RegisterRoutes mounts the feed endpoints onto the mux.
func (h *FeedHandler) RegisterRoutes(r chi.Router) {
	r.Get("/calendar/{sport}.ics", h.HandleGetCalendar)
}

// HandleGetCalendar handles GET /v1/calendar/{sport}.ics.
//
// Query parameters:
//   - token: optional feed token for favorite-site personalization.
//   - sites: optional comma-separated explicit site list.
//
// An unrecognized sport tag falls back to the default sport rather than
// erroring, so a stale subscription URL keeps working.
func (h *FeedHandler) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	sport := types.ParseSport(chi.URLParam(r, "sport"))

	q := r.URL.Query()
	token := q.Get("token")
	var siteIDs []string
	if raw := q.Get("sites"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				siteIDs = append(siteIDs, id)
			}
		}
	}

	events, meta, err := h.service.BuildFeed(r.Context(), sport, siteIDs, token)
	if err != nil {
		requestLogger(r.Context(), h.logger).Error("feed build failed",
			slog.String("sport", string(sport)),
			slog.Any("error", err),
		)
		core.Error(w, r, err)
		return
	}

	doc := h.serializer.Serialize(events, meta)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="waterman-%s.ics"`, sport))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", feedCacheMaxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
