package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-sizer/internal/catalog"
	"github.com/technosupport/ts-sizer/internal/metrics"
)

type PresetHandler struct {
	Catalogs  *catalog.Manager
	Collector *metrics.Collector
}

func NewPresetHandler(m *catalog.Manager, collector *metrics.Collector) *PresetHandler {
	return &PresetHandler{Catalogs: m, Collector: collector}
}

// GET /api/v1/presets/{kind}
func (h *PresetHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	section, err := h.Catalogs.Current().Section(kind)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, section)
}

// POST /api/v1/presets/reload (admin)
func (h *PresetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	err := h.Catalogs.Reload()
	if h.Collector != nil {
		h.Collector.CatalogReload(err == nil)
	}
	if err != nil {
		// Previous snapshot stays active; report why the reload failed.
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
