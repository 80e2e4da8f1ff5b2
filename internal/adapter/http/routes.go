package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. The mutating
// middlewares (idempotency replay, typically) wrap only the routes that create
// or change state.
func MountRoutes(r chi.Router, h *Handlers, mutating ...func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Stateless
		r.Post("/compile", h.Compile)
		r.Get("/seed", h.Seed)

		// Presets
		r.Get("/presets", h.ListPresets)
		r.Get("/presets/{id}", h.GetPreset)

		// Sessions
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}", h.GetSession)

		r.Group(func(r chi.Router) {
			r.Use(mutating...)

			r.Post("/sessions", h.CreateSession)
			r.Delete("/sessions/{id}", h.DeleteSession)
			r.Put("/sessions/{id}/title", h.SetTitle)

			// Spell list
			r.Put("/sessions/{id}/spells", h.SetSpells)
			r.Post("/sessions/{id}/spells", h.AppendSpell)
			r.Post("/sessions/{id}/spells/import", h.ImportSpells)
			r.Post("/sessions/{id}/spells/{spellId}/insert-after", h.InsertAfter)
			r.Patch("/sessions/{id}/spells/{spellId}", h.PatchSpell)
			r.Delete("/sessions/{id}/spells/{spellId}", h.DeleteSpell)
			r.Post("/sessions/{id}/spells/{spellId}/move", h.MoveSpell)
			r.Post("/sessions/{id}/spells/{spellId}/swap", h.SwapSpell)

			// Focus hint
			r.Put("/sessions/{id}/focus", h.SetFocus)
			r.Delete("/sessions/{id}/focus", h.ClearFocus)

			r.Post("/sessions/{id}/presets/{presetId}", h.LoadPreset)
		})
	})
}
