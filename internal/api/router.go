package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/PredictChain/server/internal/api/handlers"
	"github.com/PredictChain/server/internal/api/middleware"
	"github.com/PredictChain/server/internal/audit"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/domain/events"
	"github.com/PredictChain/server/internal/metrics"
)

// Dependencies are the composed services the HTTP layer serves.
type Dependencies struct {
	Repo         *events.Repository
	Admins       events.AdminChecker
	Health       *handlers.HealthChecker
	Audit        *audit.Logger
	Build        BuildInfo
	StoreBackend string
}

// NewRouter builds the full HTTP handler. The returned stop function
// releases background resources held by the middleware.
func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) (http.Handler, func()) {
	if deps.Audit == nil {
		deps.Audit = audit.NewLoggerWithZerolog(logger)
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthChecker(deps.Build.Version, deps.Build.GitCommit).
			Register("store", handlers.PingCheck(deps.Repo, deps.StoreBackend))
	}

	eventsHandler := handlers.NewEventsHandler(deps.Repo, deps.Audit, cfg.Environment)
	limitBody := middleware.RequestSize(middleware.DefaultMaxBodySize)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", deps.Health.Readyz())
	mux.Handle("GET /health", deps.Health.Health())
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /version", VersionHandler(deps.Build, deps.StoreBackend))
	mux.Handle("GET /api/v1/openapi.json", OpenAPIHandler())

	mux.HandleFunc("GET /api/v1/events", eventsHandler.List)
	mux.HandleFunc("GET /api/v1/events/{id}", eventsHandler.Get)
	mux.HandleFunc("DELETE /api/v1/events/{id}", eventsHandler.Delete)
	mux.HandleFunc("GET /api/v1/pending-events", eventsHandler.ListPending)
	mux.Handle("POST /api/v1/pending-events", limitBody(http.HandlerFunc(eventsHandler.CreatePending)))
	mux.Handle("POST /api/v1/approve-event/{id}", limitBody(http.HandlerFunc(eventsHandler.Approve)))
	mux.Handle("GET /api/v1/is-admin", handlers.IsAdmin(deps.Admins))
	if !cfg.IsProduction() {
		mux.HandleFunc("POST /api/v1/reset-fixtures", eventsHandler.ResetFixtures)
	}

	limiter := middleware.NewLimiter(cfg.RateLimit, deps.Admins)

	// Tracing and metrics must wrap the mux directly so they observe the
	// matched route pattern.
	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = limiter.Middleware(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return handler, limiter.Stop
}
