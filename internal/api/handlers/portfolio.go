package handlers

import (
	"net/http"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/pkg/logger"
)

// PortfolioHandler reads and replaces the saved portfolio
type PortfolioHandler struct {
	portfolios *store.PortfolioStore
	logger     *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(portfolios *store.PortfolioStore, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		logger:     log,
	}
}

// Get returns the saved portfolio
// GET /api/portfolio
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.portfolios.Load(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "No portfolio saved")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Put replaces the saved portfolio
// PUT /api/portfolio
func (h *PortfolioHandler) Put(w http.ResponseWriter, r *http.Request) {
	var p contracts.Portfolio
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.portfolios.Save(r.Context(), &p); err != nil {
		h.logger.WithError(err).Error("Failed to save portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to save portfolio")
		return
	}

	respondJSON(w, http.StatusOK, p)
}
