package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
	"github.com/angeloszaimis/api-health-checker/internal/metrics"
	"github.com/angeloszaimis/api-health-checker/internal/resolver"
	"github.com/angeloszaimis/api-health-checker/internal/settings"
)

// Runner starts one health-check run of endpoints on behalf of env.
type Runner func(ctx context.Context, env string, endpoints []endpoint.Endpoint) <-chan healthcheck.Event

// RateLimit bounds how often check-triggering routes may be called. A
// non-positive RPS disables limiting.
type RateLimit struct {
	RPS   float64
	Burst int
}

// API serves environments and health-check runs over HTTP and WebSocket.
type API struct {
	logger    *slog.Logger
	doc       *settings.Document
	run       Runner
	collector *metrics.Collector
	limiter   rateLimiter
}

type environmentsResponse struct {
	Environments []string `json:"environments"`
	Default      string   `json:"default"`
}

type checkResponse struct {
	Environment string              `json:"environment"`
	Summary     healthcheck.Summary `json:"summary"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewAPI(logger *slog.Logger, doc *settings.Document, run Runner, collector *metrics.Collector, limit RateLimit) *API {
	if doc == nil {
		panic("handler: nil settings document")
	}
	if run == nil {
		panic("handler: nil runner")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &API{
		logger:    logger,
		doc:       doc,
		run:       run,
		collector: collector,
		limiter:   newTokenBucketLimiter(limit.RPS, limit.Burst),
	}
}

// Routes returns the API's request multiplexer wrapped in access logging.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/environments", a.handleEnvironments)
	mux.Handle("GET /api/checks", rateLimitMiddleware(a.limiter, http.HandlerFunc(a.handleCheck)))
	mux.Handle("GET /ws/checks", rateLimitMiddleware(a.limiter, http.HandlerFunc(a.handleCheckStream)))
	if a.collector != nil {
		mux.HandleFunc("GET /metrics", a.collector.Handler())
	}

	return a.logRequests(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *API) handleEnvironments(w http.ResponseWriter, r *http.Request) {
	envs := resolver.Environments(a.doc)
	writeJSON(w, http.StatusOK, environmentsResponse{
		Environments: envs,
		Default:      resolver.DefaultEnvironment(a.doc, envs),
	})
}

func (a *API) handleCheck(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(r)
	summary := healthcheck.Collect(a.run(r.Context(), res.Environment, res.Endpoints))

	a.logger.Info("Health check completed",
		slog.String("environment", res.Environment),
		slog.Int("healthy", summary.Healthy),
		slog.Int("unhealthy", summary.Unhealthy))

	writeJSON(w, http.StatusOK, checkResponse{Environment: res.Environment, Summary: summary})
}

func (a *API) resolve(r *http.Request) resolver.Resolution {
	session := resolver.New(a.doc, a.logger)
	session.SetEnvironment(r.URL.Query().Get("env"))
	return session.Resolve()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err, message string) {
	writeJSON(w, status, errorResponse{Error: err, Message: message})
}
