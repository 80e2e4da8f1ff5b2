package http

import "net/http"

// ListPresets handles GET /api/v1/presets. An optional ?q= filters the catalog
// by id, title or description.
func (h *Handlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.Presets.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets, "count": len(presets)})
}

// GetPreset handles GET /api/v1/presets/{id}.
func (h *Handlers) GetPreset(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Presets.Preview(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, presetNotFound)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
