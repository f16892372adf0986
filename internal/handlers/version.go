package handlers

import (
	"net/http"

	"dupescan/internal/startup"
)

// GetVersion reports version and build details as injected at link time.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
