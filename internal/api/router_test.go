package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/PredictChain/server/internal/audit"
	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/domain/events"
	"github.com/PredictChain/server/internal/storage/memory"
)

const routerAdmin = "RouterAdminWallet"

func newTestRouter(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = config.EnvTest
	cfg.Store.Backend = config.BackendMemory
	cfg.RateLimit = config.RateLimitConfig{}
	cfg.CORS.AllowAllOrigins = true
	if mutate != nil {
		mutate(&cfg)
	}

	admins := auth.NewAllowlist([]string{routerAdmin})
	repo := events.NewRepository(memory.New(), admins)
	handler, stop := NewRouter(cfg, zerolog.Nop(), Dependencies{
		Repo:         repo,
		Admins:       admins,
		Audit:        audit.Nop(),
		Build:        BuildInfo{Version: "test"},
		StoreBackend: config.BackendMemory,
	})
	t.Cleanup(stop)
	return handler
}

func serve(h http.Handler, method, target, caller, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(auth.CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterEndToEnd(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, http.MethodPost, "/api/v1/pending-events", "Submitter",
		`{"event":{"name":"Rain Tomorrow","category":"Weather","description":"d","resolutionDate":"1700000000000"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Event events.Response `json:"event"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = serve(h, http.MethodPost, "/api/v1/approve-event/"+created.Event.ID, routerAdmin, `{"eventPublicKey":"PK"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/v1/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Rain Tomorrow"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(h, http.MethodDelete, "/api/v1/events/"+created.Event.ID, routerAdmin, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		caller string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/version", "", http.StatusOK},
		{http.MethodGet, "/api/v1/openapi.json", "", http.StatusOK},
		{http.MethodGet, "/api/v1/events", "", http.StatusOK},
		{http.MethodGet, "/api/v1/events/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/pending-events", "", http.StatusForbidden},
		{http.MethodGet, "/api/v1/pending-events", routerAdmin, http.StatusOK},
		{http.MethodGet, "/api/v1/is-admin", routerAdmin, http.StatusOK},
		{http.MethodPost, "/api/v1/reset-fixtures", "", http.StatusOK},
		{http.MethodPut, "/api/v1/events", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.caller, "")
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouterOmitsFixtureResetInProduction(t *testing.T) {
	h := newTestRouter(t, func(cfg *config.Config) {
		cfg.Environment = config.EnvProduction
		cfg.CORS.AllowAllOrigins = false
	})

	rec := serve(h, http.MethodPost, "/api/v1/reset-fixtures", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRejectsOversizedSubmission(t *testing.T) {
	h := newTestRouter(t, nil)

	body := `{"event":{"name":"` + strings.Repeat("x", 2<<20) + `","category":"c","description":"d","resolutionDate":"r"}}`
	rec := serve(h, http.MethodPost, "/api/v1/pending-events", "Submitter", body)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouterRateLimitsPublicTier(t *testing.T) {
	h := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{PublicPerMinute: 2}
	})

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/events", "", "").Code)
	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/v1/events", "", "").Code)
	rec := serve(h, http.MethodGet, "/api/v1/events", "", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Probes stay reachable while the client is throttled.
	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "", "").Code)
}

func TestRouterMetricsUseRoutePattern(t *testing.T) {
	h := newTestRouter(t, nil)

	serve(h, http.MethodGet, "/api/v1/events/some-id", "", "")
	rec := serve(h, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `path="/api/v1/events/{param}"`)
}
