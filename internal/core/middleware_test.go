package core

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterman/internal/config"
	"waterman/internal/types"
)

type stubRegistry struct{}

func (stubRegistry) Sites() types.SiteRepository                 { return nil }
func (stubRegistry) Slots() types.SlotRepository                 { return nil }
func (stubRegistry) Tides() types.TideRepository                 { return nil }
func (stubRegistry) Scores() types.ScoreRepository               { return nil }
func (stubRegistry) Subscriptions() types.SubscriptionRepository { return nil }
func (stubRegistry) Users() types.UserRepository                 { return nil }
func (stubRegistry) Batches() types.BatchRepository              { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&config.Config{}, stubRegistry{}, slog.Default())
	require.NoError(t, err)
	return s
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	s := newTestServer(t)
	var seen string
	var ctxLogger types.Logger
	handler := s.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.GetRequestID(r.Context())
		ctxLogger = types.LoggerFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
	assert.NotNil(t, ctxLogger, "request-scoped logger must be attached")
}

func TestRequestIDMiddleware_PropagatesIncoming(t *testing.T) {
	s := newTestServer(t)
	handler := s.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-Id"))
}

func TestRecoverer(t *testing.T) {
	s := newTestServer(t)
	handler := s.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

type recordedRequest struct {
	method, endpoint, status string
}

type stubMetrics struct {
	requests []recordedRequest
}

func (m *stubMetrics) RecordRequest(method, endpoint, status string, _ time.Duration) {
	m.requests = append(m.requests, recordedRequest{method, endpoint, status})
}

func TestMetricsMiddleware(t *testing.T) {
	s := newTestServer(t)
	metrics := &stubMetrics{}
	s.Metrics = metrics

	handler := s.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/calendar/wingfoil.ics", nil))

	require.Len(t, metrics.requests, 1)
	assert.Equal(t, recordedRequest{"GET", "/v1/calendar/wingfoil.ics", "404"}, metrics.requests[0])
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"app error maps to its status",
			types.NewAppError(types.ErrCodeNotFoundSite, "site not found", nil),
			http.StatusNotFound, "not_found_site",
		},
		{
			"upstream timeout maps to 504",
			types.NewAppError(types.ErrCodeUpstreamTimeout, "source timed out", nil),
			http.StatusGatewayTimeout, "upstream_timeout",
		},
		{
			"generic error hides details",
			errors.New("pq: password authentication failed"),
			http.StatusInternalServerError, "internal_unexpected_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp APIErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "password")
		})
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("no probes", func(t *testing.T) {
		s := newTestServer(t)
		rec := httptest.NewRecorder()
		s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing probe", func(t *testing.T) {
		s := newTestServer(t)
		s.HealthProbes = []HealthProbe{
			ProbeFunc{ProbeName: "database", Fn: func(ctx context.Context) error {
				return errors.New("connection refused")
			}},
		}

		rec := httptest.NewRecorder()
		s.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["database"].Status)
	})
}
