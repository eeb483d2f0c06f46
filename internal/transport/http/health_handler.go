package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"licensegate/pkg/contracts"
	"licensegate/pkg/contracts/domain"
)

// HealthChecker reports service health and build information.
type HealthChecker interface {
	HealthCheck(ctx context.Context) domain.HealthReport
	Version() contracts.VersionInfo
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health. A degraded report is served with 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := h.service.HealthCheck(r.Context())
	if report.Status != domain.HealthStatusOK {
		h.logger.WarnContext(r.Context(), "health check degraded", slog.Any("components", report.Components))
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, report)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
