package http

import (
	"net/http"

	apierrors "licensegate/internal/errors"
)

// MetricsHandler exposes the Prometheus registry. A nil exporter answers 404.
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		apierrors.WriteProblem(w, apierrors.NewProblemDetails(
			http.StatusNotFound,
			apierrors.TypeNotFound,
			"Not Found",
			"Metrics are disabled",
			r.URL.Path,
		))
		return
	}
	h.exporter.ServeHTTP(w, r)
}
