package handler

import (
	"log/slog"
	"net/http"
	"strconv"
)

const defaultHistoryLimit = 50

// handleGenerations returns the generation log export. Only request
// metadata is stored, so the response never contains quiz content.
func (h *Handler) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "generation log disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	export, err := h.store.ExportGenerations(limit)
	if err != nil {
		slog.Error("failed to export generations", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, export)
}
