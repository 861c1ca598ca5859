package handlers

import (
	"net/http"

	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/pkg/logger"
)

// ResultHandler serves the last optimization result to other pages
type ResultHandler struct {
	results *store.ResultStore
	logger  *logger.Logger
}

// NewResultHandler creates a new result handler
func NewResultHandler(results *store.ResultStore, log *logger.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		logger:  log,
	}
}

// GetLatest returns the stored result
// GET /api/results/latest
func (h *ResultHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.results.Load(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "No optimization result stored")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// DeleteLatest clears the stored result
// DELETE /api/results/latest
func (h *ResultHandler) DeleteLatest(w http.ResponseWriter, r *http.Request) {
	if err := h.results.Clear(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to clear result")
		respondError(w, http.StatusInternalServerError, "Failed to clear result")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
