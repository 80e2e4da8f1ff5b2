package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	cfotel "github.com/Strob0t/SpellForge/internal/adapter/otel"
	"github.com/Strob0t/SpellForge/internal/domain"
	"github.com/Strob0t/SpellForge/internal/domain/preset"
	"github.com/Strob0t/SpellForge/internal/port/cache"
)

// PresetPreview is a preset together with its compiled text.
type PresetPreview struct {
	preset.Preset
	Compiled string `json:"compiled"`
}

// PresetService serves the preset catalog and merges presets into sessions.
type PresetService struct {
	presets    []preset.Preset
	byID       map[string]int
	sessions   *SessionService
	cache      cache.Cache
	previewTTL time.Duration
	metrics    *cfotel.Metrics
}

// NewPresetService builds the catalog from the built-in presets plus every
// YAML preset in dir. A YAML preset replaces a built-in with the same id.
// cache and metrics may be nil.
func NewPresetService(dir string, sessions *SessionService, c cache.Cache, previewTTL time.Duration, metrics *cfotel.Metrics) (*PresetService, error) {
	loaded, err := preset.LoadFromDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}

	s := &PresetService{
		byID:       make(map[string]int),
		sessions:   sessions,
		cache:      c,
		previewTTL: previewTTL,
		metrics:    metrics,
	}
	for _, p := range preset.Builtin() {
		s.add(p)
	}
	for _, p := range loaded {
		s.add(p)
	}

	slog.Info("presets loaded", "builtin", len(preset.Builtin()), "files", len(loaded), "total", len(s.presets))
	return s, nil
}

func (s *PresetService) add(p preset.Preset) {
	if i, ok := s.byID[p.ID]; ok {
		s.presets[i] = p
		return
	}
	s.byID[p.ID] = len(s.presets)
	s.presets = append(s.presets, p)
}

// List returns all presets in catalog order.
func (s *PresetService) List() []preset.Preset {
	out := make([]preset.Preset, len(s.presets))
	for i := range s.presets {
		out[i] = clonePreset(s.presets[i])
	}
	return out
}

// Get returns one preset by id.
func (s *PresetService) Get(id string) (preset.Preset, error) {
	i, ok := s.byID[id]
	if !ok {
		return preset.Preset{}, fmt.Errorf("preset %s: %w", id, domain.ErrNotFound)
	}
	return clonePreset(s.presets[i]), nil
}

// Preview returns a preset with its compiled text. Presets are immutable, so
// the compiled text is memoized per preset and notation.
func (s *PresetService) Preview(ctx context.Context, id string) (PresetPreview, error) {
	p, err := s.Get(id)
	if err != nil {
		return PresetPreview{}, err
	}

	compiler := s.sessions.Compiler()
	key := "preset:" + id + ":" + string(compiler.Notation)

	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, key); err == nil && found {
			s.metrics.RecordPreviewLookup(ctx, true)
			return PresetPreview{Preset: p, Compiled: string(data)}, nil
		}
	}
	s.metrics.RecordPreviewLookup(ctx, false)

	compiled := compiler.Compile(p.Spells)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(compiled), s.previewTTL); err != nil {
			slog.Warn("preset preview cache set failed", "preset_id", id, "error", err)
		}
	}
	return PresetPreview{Preset: p, Compiled: compiled}, nil
}

// Search returns presets whose id, title or description contains q,
// case-insensitively. An empty query returns the whole catalog.
func (s *PresetService) Search(q string) []preset.Preset {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return s.List()
	}
	var out []preset.Preset
	for i := range s.presets {
		p := &s.presets[i]
		if strings.Contains(strings.ToLower(p.ID), q) ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, clonePreset(*p))
		}
	}
	return out
}

// LoadInto appends the preset's spells to a session under fresh ids.
func (s *PresetService) LoadInto(ctx context.Context, sessionID, presetID string) (Snapshot, error) {
	ctx, span := cfotel.StartPresetLoadSpan(ctx, sessionID, presetID)
	defer span.End()

	p, err := s.Get(presetID)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := s.sessions.AppendManyWithFreshIDs(ctx, sessionID, p.Spells)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load preset %s: %w", presetID, err)
	}
	return snap, nil
}

func clonePreset(p preset.Preset) preset.Preset {
	p.Spells = slices.Clone(p.Spells)
	return p
}
