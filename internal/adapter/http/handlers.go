package http

import (
	"fmt"
	"net/http"

	cfotel "github.com/Strob0t/SpellForge/internal/adapter/otel"
	"github.com/Strob0t/SpellForge/internal/adapter/ws"
	"github.com/Strob0t/SpellForge/internal/domain"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
	"github.com/Strob0t/SpellForge/internal/service"
)

// Handlers holds the services the REST API is served from.
type Handlers struct {
	Sessions *service.SessionService
	Presets  *service.PresetService
	Hub      *ws.Hub // optional; reported by /health
	Version  string
}

// spellRequest is the wire form of a spell. Pointer fields distinguish a
// missing field from its zero value so malformed records are rejected here
// instead of silently defaulting.
type spellRequest struct {
	ID          *string `json:"id"`
	Content     *string `json:"content"`
	Enabled     *bool   `json:"enabled"`
	Enhancement *int    `json:"enhancement"`
}

// toSpell converts the record, or names the first required field it lacks.
func (s *spellRequest) toSpell(requireID bool) (prompt.Spell, string) {
	switch {
	case requireID && (s.ID == nil || *s.ID == ""):
		return prompt.Spell{}, "id"
	case s.Content == nil:
		return prompt.Spell{}, "content"
	case s.Enabled == nil:
		return prompt.Spell{}, "enabled"
	case s.Enhancement == nil:
		return prompt.Spell{}, "enhancement"
	}
	sp := prompt.Spell{Content: *s.Content, Enabled: *s.Enabled, Enhancement: *s.Enhancement}
	if s.ID != nil {
		sp.ID = *s.ID
	}
	return sp, ""
}

// decodeSpell converts a single wire record.
func decodeSpell(in *spellRequest, requireID bool) (prompt.Spell, error) {
	sp, missing := in.toSpell(requireID)
	if missing != "" {
		return prompt.Spell{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, missing)
	}
	return sp, nil
}

// decodeSpells converts wire records, reporting the index of the first bad one.
func decodeSpells(in []spellRequest, requireID bool) ([]prompt.Spell, error) {
	out := make([]prompt.Spell, len(in))
	for i := range in {
		sp, missing := in[i].toSpell(requireID)
		if missing != "" {
			return nil, fmt.Errorf("%w: spell %d: %s is required", domain.ErrValidation, i, missing)
		}
		out[i] = sp
	}
	return out, nil
}

type compileRequest struct {
	Spells    []spellRequest `json:"spells"`
	Notation  string         `json:"notation,omitempty"`
	Separator *string        `json:"separator,omitempty"`
}

type compileResponse struct {
	Compiled string          `json:"compiled"`
	Notation prompt.Notation `json:"notation"`
}

// Compile handles POST /api/v1/compile, a stateless render of a spell list.
func (h *Handlers) Compile(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[compileRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	compiler := h.Sessions.Compiler()
	if req.Notation != "" {
		n, err := prompt.ParseNotation(req.Notation)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		compiler.Notation = n
	}
	if req.Separator != nil {
		compiler.Separator = *req.Separator
	}

	spells, err := decodeSpells(req.Spells, false)
	if err == nil {
		err = prompt.ValidateTemplates(spells)
	}
	if err != nil {
		writeDomainError(w, err, "")
		return
	}

	_, span := cfotel.StartCompileSpan(r.Context(), len(spells), string(compiler.Notation))
	compiled := compiler.Compile(spells)
	span.End()

	writeJSON(w, http.StatusOK, compileResponse{Compiled: compiled, Notation: compiler.Notation})
}

// Seed handles GET /api/v1/seed.
func (h *Handlers) Seed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint32{"seed": service.Seed()})
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Sessions      int    `json:"sessions"`
	WSConnections int    `json:"ws_connections"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Version: h.Version, Sessions: h.Sessions.Count()}
	if h.Hub != nil {
		resp.WSConnections = h.Hub.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, resp)
}
