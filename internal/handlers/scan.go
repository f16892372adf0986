package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"dupescan/internal/logging"
	"dupescan/internal/scanner"
)

// ScanRequest optionally overrides scan settings for one run. Absent
// fields fall back to the startup configuration; pointer fields tell an
// explicit false or empty list apart from an omitted one.
type ScanRequest struct {
	Path          string    `json:"path"`
	IncludeHidden *bool     `json:"includeHidden"`
	ExcludedDirs  *[]string `json:"excludedDirs"`
}

// ScanStatusResponse reports the current or most recent scan.
type ScanStatusResponse struct {
	Running   bool             `json:"running"`
	State     string           `json:"state,omitempty"`
	Root      string           `json:"root,omitempty"`
	StartedAt string           `json:"startedAt,omitempty"`
	Observed  int64            `json:"observed"`
	Hashed    int64            `json:"hashed"`
	Summary   *scanner.Summary `json:"summary,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// StartScan launches a background scan. A second request while a scan
// runs gets 409; an invalid root gets 400 and changes nothing.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := scanner.Config{
		Root:          h.scanDir,
		IncludeHidden: h.config.IncludeHidden,
		ExcludedDirs:  h.config.ExcludedDirs,
	}
	if req.Path != "" {
		cfg.Root = req.Path
	}
	if req.IncludeHidden != nil {
		cfg.IncludeHidden = *req.IncludeHidden
	}
	if req.ExcludedDirs != nil {
		cfg.ExcludedDirs = *req.ExcludedDirs
	}

	// The scan outlives this request, so it must not inherit the
	// request context.
	session, err := h.scanner.Start(context.Background(), cfg)
	if err != nil {
		var invalidRoot *scanner.InvalidRootError
		switch {
		case errors.Is(err, scanner.ErrScanInProgress):
			writeJSONError(w, "Scan already in progress", http.StatusConflict)
		case errors.As(err, &invalidRoot):
			writeJSONError(w, invalidRoot.Error(), http.StatusBadRequest)
		default:
			logging.Error("Failed to start scan: %v", err)
			writeJSONError(w, "Failed to start scan", http.StatusInternalServerError)
		}
		return
	}

	logging.Info("Scan started for %s", session.Root())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{
		"status": "started",
		"root":   session.Root(),
	})
}

// ScanStatus reports the running scan, or the outcome of the last one.
func (h *Handlers) ScanStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session := h.scanner.Last()
	if session == nil {
		writeJSON(w, ScanStatusResponse{Running: false})
		return
	}

	observed, hashed := session.Progress()
	response := ScanStatusResponse{
		Running:   session.Running(),
		State:     string(session.State()),
		Root:      session.Root(),
		StartedAt: session.StartedAt().Format(time.RFC3339),
		Observed:  observed,
		Hashed:    hashed,
	}

	if summary, err := session.Result(); err != nil {
		response.Error = err.Error()
	} else if summary != nil {
		response.Summary = summary
	}

	writeJSON(w, response)
}
