package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus registry. The router only mounts
// it when METRICS_ENABLED is set.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
