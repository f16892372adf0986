package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dupescan/internal/database"
	"dupescan/internal/duplicates"
	"dupescan/internal/logging"
)

// DuplicatesResponse is the duplicate listing payload.
type DuplicatesResponse struct {
	Groups []database.DuplicateGroup `json:"groups"`
	Count  int                       `json:"count"`
}

// HashRequest carries a single content hash, used by the ignore and
// unignore endpoints.
type HashRequest struct {
	Hash string `json:"hash"`
}

// GetDuplicates lists duplicate groups. Query parameters:
//
//	directory      restrict groups to paths under this directory
//	includeIgnored include groups on the ignore list
func (h *Handlers) GetDuplicates(w http.ResponseWriter, r *http.Request) {
	directory := r.URL.Query().Get("directory")
	includeIgnored := r.URL.Query().Get("includeIgnored") == "true"

	groups, err := h.dupes.Groups(r.Context(), directory, includeIgnored)
	if err != nil {
		logging.Error("Failed to load duplicates: %v", err)
		writeJSONError(w, "Failed to load duplicates", http.StatusInternalServerError)
		return
	}

	if groups == nil {
		groups = []database.DuplicateGroup{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, DuplicatesResponse{
		Groups: groups,
		Count:  len(groups),
	})
}

// IgnoreDuplicate adds a group's hash to the ignore list.
func (h *Handlers) IgnoreDuplicate(w http.ResponseWriter, r *http.Request) {
	hash, ok := decodeHashRequest(w, r)
	if !ok {
		return
	}

	if err := h.dupes.Ignore(r.Context(), hash); err != nil {
		respondHashError(w, err, "ignore")
		return
	}

	writeJSONStatus(w, "ignored")
}

// UnignoreDuplicate removes a group's hash from the ignore list.
func (h *Handlers) UnignoreDuplicate(w http.ResponseWriter, r *http.Request) {
	hash, ok := decodeHashRequest(w, r)
	if !ok {
		return
	}

	if err := h.dupes.Unignore(r.Context(), hash); err != nil {
		respondHashError(w, err, "unignore")
		return
	}

	writeJSONStatus(w, "unignored")
}

func decodeHashRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req HashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	return req.Hash, true
}

func respondHashError(w http.ResponseWriter, err error, op string) {
	var invalidHash *duplicates.InvalidHashError
	if errors.As(err, &invalidHash) {
		writeJSONError(w, invalidHash.Error(), http.StatusBadRequest)
		return
	}
	logging.Error("Failed to %s duplicate group: %v", op, err)
	writeJSONError(w, "Failed to update ignore list", http.StatusInternalServerError)
}
