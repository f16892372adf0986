package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"dupescan/internal/duplicates"
	"dupescan/internal/logging"
	"dupescan/internal/pathfilter"
)

// DeleteFileRequest names one indexed file to remove from disk and
// from the index.
type DeleteFileRequest struct {
	Path string `json:"path"`
}

// KeepOnlyRequest resolves a duplicate group by deleting every member
// except the named path.
type KeepOnlyRequest struct {
	Hash string `json:"hash"`
	Path string `json:"path"`
}

// KeepOnlyResponse reports the outcome per deleted member.
type KeepOnlyResponse struct {
	Kept    string   `json:"kept"`
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed,omitempty"`
}

// DeleteFile removes a file from disk and drops its index record. A
// file already gone from disk still has its record removed.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var req DeleteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	path, err := pathfilter.Normalize(req.Path)
	if err != nil {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Error("Failed to delete %s: %v", path, err)
		writeJSONError(w, "Failed to delete file", http.StatusInternalServerError)
		return
	}

	removed, err := h.db.DeleteFileRecord(r.Context(), path)
	if err != nil {
		logging.Error("Failed to remove index record for %s: %v", path, err)
		writeJSONError(w, "File deleted but index update failed", http.StatusInternalServerError)
		return
	}

	logging.Info("Deleted %s (indexed: %v)", path, removed)
	writeJSONStatus(w, "deleted")
}

// KeepOnlyFile deletes every member of a duplicate group except the
// named path. The kept path must be a current member of the group.
func (h *Handlers) KeepOnlyFile(w http.ResponseWriter, r *http.Request) {
	var req KeepOnlyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	keepPath, err := pathfilter.Normalize(req.Path)
	if err != nil {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	members, err := h.dupes.Members(r.Context(), req.Hash)
	if err != nil {
		var invalidHash *duplicates.InvalidHashError
		if errors.As(err, &invalidHash) {
			writeJSONError(w, invalidHash.Error(), http.StatusBadRequest)
			return
		}
		logging.Error("Failed to load group %s: %v", req.Hash, err)
		writeJSONError(w, "Failed to load duplicate group", http.StatusInternalServerError)
		return
	}

	keepFound := false
	for _, m := range members {
		if m.Path == keepPath {
			keepFound = true
			break
		}
	}
	if !keepFound {
		writeJSONError(w, "Path is not a member of this group", http.StatusBadRequest)
		return
	}

	response := KeepOnlyResponse{Kept: keepPath}
	for _, m := range members {
		if m.Path == keepPath {
			continue
		}

		if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
			logging.Error("Failed to delete %s: %v", m.Path, err)
			response.Failed = append(response.Failed, m.Path)
			continue
		}
		if _, err := h.db.DeleteFileRecord(r.Context(), m.Path); err != nil {
			logging.Error("Failed to remove index record for %s: %v", m.Path, err)
			response.Failed = append(response.Failed, m.Path)
			continue
		}
		response.Deleted = append(response.Deleted, m.Path)
	}

	logging.Info("Kept %s, deleted %d of %d group members",
		keepPath, len(response.Deleted), len(members)-1)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
