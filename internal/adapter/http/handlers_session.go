package http

import (
	"net/http"

	"github.com/Strob0t/SpellForge/internal/logger"
	"github.com/Strob0t/SpellForge/internal/service"
)

const (
	sessionNotFound = "session not found"
	presetNotFound  = "preset not found"
)

// spellMutationResponse is a snapshot plus the id of the spell the call created.
type spellMutationResponse struct {
	service.Snapshot
	SpellID  string `json:"spell_id"`
	Inserted bool   `json:"inserted"`
}

// sessionID reads {id} and tags the request context for logging.
func sessionID(r *http.Request) (string, *http.Request) {
	id := urlParam(r, "id")
	return id, r.WithContext(logger.WithSessionID(r.Context(), id))
}

func (h *Handlers) respondSnapshot(w http.ResponseWriter, snap service.Snapshot, err error) {
	if err != nil {
		writeDomainError(w, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Sessions.Create(r.Context())
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// ListSessions handles GET /api/v1/sessions.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.Sessions.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids, "count": len(ids)})
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	snap, err := h.Sessions.Get(r.Context(), id)
	h.respondSnapshot(w, snap, err)
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	if err := h.Sessions.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, sessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTitle handles PUT /api/v1/sessions/{id}/title.
func (h *Handlers) SetTitle(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[struct {
		Title *string `json:"title"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.Title == nil {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	snap, err := h.Sessions.SetTitle(r.Context(), id, *req.Title)
	h.respondSnapshot(w, snap, err)
}

type spellListRequest struct {
	Spells []spellRequest `json:"spells"`
}

// SetSpells handles PUT /api/v1/sessions/{id}/spells.
func (h *Handlers) SetSpells(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[spellListRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	spells, err := decodeSpells(req.Spells, true)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	snap, err := h.Sessions.SetSpells(r.Context(), id, spells)
	h.respondSnapshot(w, snap, err)
}

type appendRequest struct {
	Spell   *spellRequest `json:"spell"`
	FreshID bool          `json:"fresh_id"`
}

// AppendSpell handles POST /api/v1/sessions/{id}/spells. Without a body it
// appends a blank spell. With {"spell": ...} it appends that spell, keeping
// its id unless fresh_id is set.
func (h *Handlers) AppendSpell(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)

	req, ok := readOptionalJSON[appendRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	ctx := r.Context()
	var (
		snap    service.Snapshot
		spellID string
		err     error
	)
	switch {
	case req.Spell == nil:
		snap, spellID, err = h.Sessions.AppendEmpty(ctx, id)
	case req.FreshID:
		sp, decErr := decodeSpell(req.Spell, false)
		if decErr != nil {
			writeDomainError(w, decErr, "")
			return
		}
		snap, err = h.Sessions.AppendWithFreshID(ctx, id, sp)
		if err == nil {
			spellID = snap.Prompt.Spells[len(snap.Prompt.Spells)-1].ID
		}
	default:
		sp, decErr := decodeSpell(req.Spell, true)
		if decErr != nil {
			writeDomainError(w, decErr, "")
			return
		}
		snap, err = h.Sessions.Append(ctx, id, sp)
		spellID = sp.ID
	}
	if err != nil {
		writeDomainError(w, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, spellMutationResponse{Snapshot: snap, SpellID: spellID, Inserted: true})
}

// ImportSpells handles POST /api/v1/sessions/{id}/spells/import. Every
// imported spell gets a fresh id.
func (h *Handlers) ImportSpells(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[spellListRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	spells, err := decodeSpells(req.Spells, false)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	snap, err := h.Sessions.AppendManyWithFreshIDs(r.Context(), id, spells)
	h.respondSnapshot(w, snap, err)
}

// InsertAfter handles POST /api/v1/sessions/{id}/spells/{spellId}/insert-after.
// An unknown anchor inserts nothing and reports inserted=false.
func (h *Handlers) InsertAfter(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	snap, newID, err := h.Sessions.InsertEmptyAfter(r.Context(), id, urlParam(r, "spellId"))
	if err != nil {
		writeDomainError(w, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, spellMutationResponse{Snapshot: snap, SpellID: newID, Inserted: newID != ""})
}

type patchSpellRequest struct {
	Content     *string `json:"content"`
	Enabled     *bool   `json:"enabled"`
	Enhancement *int    `json:"enhancement"`
}

// PatchSpell handles PATCH /api/v1/sessions/{id}/spells/{spellId}. All
// present fields are applied together as one session event.
func (h *Handlers) PatchSpell(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[patchSpellRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.Content == nil && req.Enabled == nil && req.Enhancement == nil {
		writeError(w, http.StatusBadRequest, "one of content, enabled, enhancement is required")
		return
	}
	snap, err := h.Sessions.PatchSpell(r.Context(), id, urlParam(r, "spellId"), service.SpellPatch{
		Content:     req.Content,
		Enabled:     req.Enabled,
		Enhancement: req.Enhancement,
	})
	h.respondSnapshot(w, snap, err)
}

// DeleteSpell handles DELETE /api/v1/sessions/{id}/spells/{spellId}.
func (h *Handlers) DeleteSpell(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	snap, err := h.Sessions.DeleteSpell(r.Context(), id, urlParam(r, "spellId"))
	h.respondSnapshot(w, snap, err)
}

// MoveSpell handles POST /api/v1/sessions/{id}/spells/{spellId}/move.
func (h *Handlers) MoveSpell(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[struct {
		OverID string `json:"over_id"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.OverID, "over_id") {
		return
	}
	snap, err := h.Sessions.Move(r.Context(), id, urlParam(r, "spellId"), req.OverID)
	h.respondSnapshot(w, snap, err)
}

// SwapSpell handles POST /api/v1/sessions/{id}/spells/{spellId}/swap with
// direction "prev" or "next".
func (h *Handlers) SwapSpell(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[struct {
		Direction string `json:"direction"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	var towardPrevious bool
	switch req.Direction {
	case "prev":
		towardPrevious = true
	case "next":
	default:
		writeError(w, http.StatusBadRequest, `direction must be "prev" or "next"`)
		return
	}
	snap, err := h.Sessions.SwapWithNeighbor(r.Context(), id, urlParam(r, "spellId"), towardPrevious)
	h.respondSnapshot(w, snap, err)
}

// SetFocus handles PUT /api/v1/sessions/{id}/focus.
func (h *Handlers) SetFocus(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	req, ok := readJSON[struct {
		Index *int `json:"index"`
	}](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	snap, err := h.Sessions.SetFocus(r.Context(), id, *req.Index)
	h.respondSnapshot(w, snap, err)
}

// ClearFocus handles DELETE /api/v1/sessions/{id}/focus.
func (h *Handlers) ClearFocus(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	snap, err := h.Sessions.ClearFocus(r.Context(), id)
	h.respondSnapshot(w, snap, err)
}

// LoadPreset handles POST /api/v1/sessions/{id}/presets/{presetId}.
func (h *Handlers) LoadPreset(w http.ResponseWriter, r *http.Request) {
	id, r := sessionID(r)
	presetID := urlParam(r, "presetId")
	if _, err := h.Presets.Get(presetID); err != nil {
		writeDomainError(w, err, presetNotFound)
		return
	}
	snap, err := h.Presets.LoadInto(r.Context(), id, presetID)
	h.respondSnapshot(w, snap, err)
}
