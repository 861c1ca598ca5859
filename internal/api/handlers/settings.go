package handlers

import (
	"net/http"

	"github.com/wonny/quantafolio/internal/settings"
	"github.com/wonny/quantafolio/pkg/logger"
)

// SettingsHandler exposes user preferences
type SettingsHandler struct {
	provider *settings.Provider
	logger   *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(provider *settings.Provider, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		provider: provider,
		logger:   log,
	}
}

// SettingsPatch is a partial update; omitted fields keep their value
type SettingsPatch struct {
	Language      *string `json:"language"`
	Theme         *string `json:"theme"`
	AutoSave      *bool   `json:"autoSave"`
	Notifications *bool   `json:"notifications"`
}

// Apply copies the set fields onto p
func (sp SettingsPatch) Apply(p *settings.Preferences) {
	if sp.Language != nil {
		p.Language = *sp.Language
	}
	if sp.Theme != nil {
		p.Theme = *sp.Theme
	}
	if sp.AutoSave != nil {
		p.AutoSave = *sp.AutoSave
	}
	if sp.Notifications != nil {
		p.Notifications = *sp.Notifications
	}
}

// Get returns current preferences
// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.provider.Get())
}

// Put applies a partial update
// PUT /api/settings
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var patch SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	candidate := h.provider.Get()
	patch.Apply(&candidate)
	if err := candidate.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.provider.Update(r.Context(), patch.Apply)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save settings")
		respondError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}
