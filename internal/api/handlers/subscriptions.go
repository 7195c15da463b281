package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"waterman/internal/core"
	"waterman/internal/feed"
	"waterman/internal/types"
)

// SubscriptionHandler mints and rotates per-sport feed tokens. This is the
// write path backing the read-only token resolution the feed does.
type SubscriptionHandler struct {
	subs   types.SubscriptionRepository
	users  types.UserRepository
	clock  types.Clock
	logger *slog.Logger
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(subs types.SubscriptionRepository, users types.UserRepository, clock types.Clock, logger *slog.Logger) *SubscriptionHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionHandler{subs: subs, users: users, clock: clock, logger: logger}
}

// RegisterRoutes mounts the subscription endpoints onto the mux.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/subscriptions", h.HandleCreate)
}

type createSubscriptionRequest struct {
	UserID string `json:"user_id"`
	Sport  string `json:"sport"`
}

type createSubscriptionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Sport          string `json:"sport"`
	// Token is the plaintext feed token, returned exactly once. Only its
	// prefix and a hash are stored.
	Token       string `json:"token"`
	CalendarURL string `json:"calendar_url"`
}

// HandleCreate handles POST /v1/subscriptions. Minting a token for a
// (user, sport) pair that already has one rotates it: the old token stops
// resolving and the new one is returned.
func (h *SubscriptionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.UserID == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "user_id is required", nil))
		return
	}
	sport := types.ParseSport(req.Sport)

	// The user must exist before a credential is minted for them.
	if _, err := h.users.GetByID(r.Context(), req.UserID); err != nil {
		core.Error(w, r, err)
		return
	}

	token, prefix, hash, err := feed.GenerateToken()
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate token", err))
		return
	}

	sub := &types.Subscription{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Sport:       sport,
		TokenPrefix: prefix,
		TokenHash:   hash,
		Active:      true,
	}
	if err := h.subs.Upsert(r.Context(), sub); err != nil {
		core.Error(w, r, err)
		return
	}

	requestLogger(r.Context(), h.logger).Info("feed token minted",
		slog.String("subscription_id", sub.ID),
		slog.String("user_id", req.UserID),
		slog.String("sport", string(sport)),
	)

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: createSubscriptionResponse{
		SubscriptionID: sub.ID,
		Sport:          string(sport),
		Token:          token,
		CalendarURL:    "/v1/calendar/" + string(sport) + ".ics?token=" + token,
	}})
}
