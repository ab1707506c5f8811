package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse/pkg/models"
	"gatehouse/pkg/platform/httputil"
)

const (
	DefaultServiceName = "gatehouse backend with Firebase auth"
	DefaultVersion     = "1.0.0"
)

// Handler serves health and the authenticated demo endpoints.
type Handler struct {
	service string
	version string
	logger  *slog.Logger
}

func NewHandler(service, version string, logger *slog.Logger) *Handler {
	if service == "" {
		service = DefaultServiceName
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Handler{service: service, version: version, logger: logger}
}

// Register mounts the public endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleHealth)
	r.Get("/health", h.HandleHealth)
}

// RegisterAuthenticated mounts endpoints that need a verified caller. The
// router must apply auth.RequireAuth first.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/auth/hello", h.HandleHello)
	r.Post("/auth/protected", h.HandleProtected)
	r.Get("/user/profile", h.HandleProfile)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, r, http.StatusOK, models.Health{
		Status:  "healthy",
		Service: h.service,
		Version: h.version,
	}, "Service is running")
}
