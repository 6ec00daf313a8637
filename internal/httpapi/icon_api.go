// Package httpapi serves the icon classifier over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/crimson-sun/iconclass/internal/engine"
	"github.com/crimson-sun/iconclass/internal/metrics"
	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/output"
	"github.com/crimson-sun/iconclass/internal/ratelimit"
)

const (
	chooseRoute  = "/v1/icon/choose"
	healthRoute  = "/healthz"
	metricsRoute = "/metrics"

	missingNameMessage = "Missing `name` parameter."
)

// Engine is the part of *engine.Engine the API depends on.
type Engine interface {
	Classify(ctx context.Context, query string) model.Prediction
	Info() engine.Info
}

// Option configures an IconAPI.
type Option func(*IconAPI)

// WithOutput records every served prediction to out.
func WithOutput(out output.Output) Option {
	return func(api *IconAPI) { api.output = out }
}

// WithRateLimiter rejects requests the limiter denies with 429.
func WithRateLimiter(l ratelimit.RateLimiter) Option {
	return func(api *IconAPI) { api.limiter = l }
}

// IconAPI handles the icon selection endpoints.
type IconAPI struct {
	engine  Engine
	output  output.Output
	limiter ratelimit.RateLimiter
}

// NewIconAPI creates the API handler.
func NewIconAPI(eng Engine, opts ...Option) *IconAPI {
	api := &IconAPI{engine: eng}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// RegisterRoutes registers the classifier, health and metrics routes on mux.
func (api *IconAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(chooseRoute, api.wrap(chooseRoute, api.rateLimit(http.HandlerFunc(api.handleChoose))))
	mux.Handle(healthRoute, api.wrap(healthRoute, http.HandlerFunc(api.handleHealth)))
	mux.Handle(metricsRoute, api.wrap(metricsRoute, metrics.Handler()))
}

// Handler returns a mux with every route registered.
func (api *IconAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return mux
}

// handleChoose handles GET /v1/icon/choose?name=<query>
func (api *IconAPI) handleChoose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	values, ok := r.URL.Query()["name"]
	if !ok || len(values) == 0 {
		writeText(w, http.StatusBadRequest, missingNameMessage)
		return
	}

	pred := api.engine.Classify(r.Context(), values[0])
	pred.RequestID = requestIDFrom(r.Context())
	if pred.Labels == nil {
		pred.Labels = []string{}
	}

	if api.output != nil {
		if err := api.output.Write(r.Context(), pred); err != nil {
			slog.Warn("prediction output failed", "request_id", pred.RequestID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, pred.Labels)
}

type healthResponse struct {
	Status string `json:"status"`
	engine.Info
}

// handleHealth handles GET /healthz
func (api *IconAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: api.engine.Info()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}
