package handlers

import (
	"net/http"

	"dupescan/internal/logging"
)

// GetStats returns current index statistics. Counts are computed live;
// last-scan fields come from the cache the scanner maintains.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.CalculateStats(r.Context())
	if err != nil {
		logging.Error("Failed to calculate stats: %v", err)
		writeJSONError(w, "Failed to calculate stats", http.StatusInternalServerError)
		return
	}

	cached := h.db.GetStats()
	stats.LastScan = cached.LastScan
	stats.LastScanLength = cached.LastScanLength

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
