// Package web provides the provider administration REST API.
// All paths come from the routes table so the server and the client
// SDK can never drift apart.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/metrics"
	"github.com/archonlabs/provgate/app"
	"github.com/archonlabs/provgate/routes"
)

// Handler provides the REST API endpoints.
type Handler struct {
	providers  *app.ProviderService
	usage      *app.UsageService
	health     *app.HealthService
	metrics    *metrics.Collector
	logger     zerolog.Logger
	version    string
	enableDocs bool
	startTime  time.Time
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Providers *app.ProviderService
	Usage     *app.UsageService
	Health    *app.HealthService
	Metrics   *metrics.Collector
	Logger    zerolog.Logger
	Version   string

	// DisableDocs turns off the OpenAPI document and Swagger UI.
	DisableDocs bool
}

// NewHandler creates a new REST API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		providers:  deps.Providers,
		usage:      deps.Usage,
		health:     deps.Health,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With().Str("component", "web").Logger(),
		version:    deps.Version,
		enableDocs: !deps.DisableDocs,
		startTime:  time.Now(),
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	p := routes.Providers
	r.Get(p.List.Template(), h.ListProviders)
	r.Post(p.Create.Template(), h.CreateProvider)

	// Fixed paths under /api/providers; chi resolves these ahead of
	// the {provider_id} wildcard.
	r.Get(p.GetActive.Template(), h.GetActiveProvider)
	r.Post(p.SetActive.Template(), h.SetActiveProvider)
	r.Get(p.AllModels.Template(), h.AllModels)
	r.Get(p.UsageSummary.Template(), h.UsageSummary)

	r.Get(p.Detail.Template(), h.GetProvider)
	r.Put(p.Update.Template(), h.UpdateProvider)
	r.Delete(p.Delete.Template(), h.DeleteProvider)

	r.Post(p.AddCredential.Template(), h.AddCredential)
	r.Post(p.ValidateCredential.Template(), h.ValidateCredential)
	r.Post(p.RotateCredential.Template(), h.RotateCredential)
	r.Delete(p.DeactivateCredential.Template(), h.DeactivateCredential)

	r.Post(p.AddModel.Template(), h.AddModel)
	r.Get(p.ListModels.Template(), h.ListModels)

	r.Post(p.HealthCheck.Template(), h.CheckProviderHealth)
	r.Get(p.HealthHistory.Template(), h.ProviderHealthHistory)
	r.Get(p.Usage.Template(), h.ProviderUsage)
	r.Post(p.Usage.Template(), h.RecordUsage)

	r.Get(routes.Health.Liveness.Template(), h.Healthz)
	r.Get(routes.Health.Version.Template(), h.Version)
	r.Handle(routes.Health.Metrics.Template(), promhttp.Handler())

	if h.enableDocs {
		h.mountDocs(r)
	}

	return r
}

// instrument records request metrics when a collector is wired.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		h.metrics.RequestsInFlight.Inc()
		defer h.metrics.RequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		status := strconv.Itoa(ww.Status())
		h.metrics.RequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		h.metrics.RequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}

// Healthz reports service liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Version reports the build version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError emits the `{"detail": ...}` error shape clients flatten.
// The detail is a plain string for simple failures; handlers that have
// structured context use writeErrorDetail instead.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"detail": message})
}

// writeErrorDetail emits a structured detail object. Field names follow
// the flattening order clients apply: message first, then code and the
// rest.
func writeErrorDetail(w http.ResponseWriter, status int, detail map[string]any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
