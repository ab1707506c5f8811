// Package httptransport is the backend's HTTP surface: the router, its
// middleware chain, and the handlers behind each route.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatehouse/internal/admission"
	"gatehouse/internal/platform/metrics"
	"gatehouse/pkg/platform/httputil"
	authmw "gatehouse/pkg/platform/middleware/auth"
	"gatehouse/pkg/platform/middleware/metadata"
	"gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/platform/middleware/requesttime"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Verifier    authmw.TokenVerifier
	Admission   admission.Checker
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *slog.Logger
	Service     string
	Version     string
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.AccessLog(logger, d.Metrics))
	r.Use(request.Recoverer(logger))
	r.Use(corsHandler(d.CORSOrigins))

	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	h := NewHandler(d.Service, d.Version, logger)
	h.Register(r)

	if d.Admission != nil {
		NewRecaptchaHandler(d.Admission, d.Metrics, logger).Register(r)
	}

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Verifier, d.Metrics, logger))
		h.RegisterAuthenticated(r)
	})
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}
