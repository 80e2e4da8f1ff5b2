package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Strob0t/SpellForge/internal/config"
	"github.com/Strob0t/SpellForge/internal/domain"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// countingCache is an in-memory cache.Cache that counts hits.
type countingCache struct {
	data map[string][]byte
	hits int
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{data: make(map[string][]byte)}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func writePreset(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func newTestPresets(t *testing.T, dir string, c *countingCache) (*PresetService, *SessionService) {
	t.Helper()
	sessions, _ := newTestSessions(config.Session{})
	var svc *PresetService
	var err error
	if c == nil {
		svc, err = NewPresetService(dir, sessions, nil, time.Minute, nil)
	} else {
		svc, err = NewPresetService(dir, sessions, c, time.Minute, nil)
	}
	if err != nil {
		t.Fatalf("NewPresetService: %v", err)
	}
	return svc, sessions
}

func TestPresetService_BuiltinsWithoutDirectory(t *testing.T) {
	svc, _ := newTestPresets(t, filepath.Join(t.TempDir(), "missing"), nil)
	list := svc.List()
	if len(list) == 0 {
		t.Fatal("expected built-in presets")
	}
	for _, p := range list {
		if !p.Builtin {
			t.Errorf("preset %s should be marked builtin", p.ID)
		}
	}
}

func TestPresetService_FileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "quality.yaml", `id: quality
title: House Quality
spells:
  - content: award winning
    enabled: true
    enhancement: 2
`)
	writePreset(t, dir, "portrait.yml", `id: portrait
title: Portrait
spells:
  - content: portrait
    enabled: true
`)
	svc, _ := newTestPresets(t, dir, nil)

	p, err := svc.Get("quality")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "House Quality" || p.Builtin {
		t.Fatalf("expected file preset to replace builtin, got %+v", p)
	}
	if _, err := svc.Get("portrait"); err != nil {
		t.Fatalf("file preset missing: %v", err)
	}

	ids := map[string]int{}
	for _, p := range svc.List() {
		ids[p.ID]++
	}
	if ids["quality"] != 1 {
		t.Fatalf("quality listed %d times", ids["quality"])
	}
}

func TestPresetService_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "bad.yaml", "id: bad\ntitle: Bad\nspells: []\n")
	sessions, _ := newTestSessions(config.Session{})
	if _, err := NewPresetService(dir, sessions, nil, 0, nil); err == nil {
		t.Fatal("expected error for preset without spells")
	}
}

func TestPresetService_GetUnknown(t *testing.T) {
	svc, _ := newTestPresets(t, t.TempDir(), nil)
	if _, err := svc.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPresetService_GetReturnsCopy(t *testing.T) {
	svc, _ := newTestPresets(t, t.TempDir(), nil)
	p, _ := svc.Get("quality")
	p.Spells[0].Content = "changed"
	again, _ := svc.Get("quality")
	if again.Spells[0].Content == "changed" {
		t.Fatal("Get exposes catalog storage")
	}
}

func TestPresetService_PreviewCached(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "portrait.yaml", `id: portrait
title: Portrait
spells:
  - content: portrait
    enabled: true
  - content: soft light
    enabled: true
    enhancement: 2
`)
	c := newCountingCache()
	svc, _ := newTestPresets(t, dir, c)
	ctx := context.Background()

	first, err := svc.Preview(ctx, "portrait")
	if err != nil {
		t.Fatal(err)
	}
	if first.Compiled != "portrait, {{soft light}}" {
		t.Fatalf("compiled = %q", first.Compiled)
	}
	second, err := svc.Preview(ctx, "portrait")
	if err != nil {
		t.Fatal(err)
	}
	if second.Compiled != first.Compiled {
		t.Fatal("cached preview differs")
	}
	if c.sets != 1 || c.hits != 1 {
		t.Fatalf("expected 1 set and 1 hit, got %d sets, %d hits", c.sets, c.hits)
	}
	if _, ok := c.data["preset:portrait:braces"]; !ok {
		t.Fatalf("unexpected cache keys %v", c.data)
	}
}

func TestPresetService_PreviewWithoutCache(t *testing.T) {
	svc, _ := newTestPresets(t, t.TempDir(), nil)
	p, err := svc.Preview(context.Background(), "quality")
	if err != nil {
		t.Fatal(err)
	}
	if p.Compiled != prompt.Compile(p.Spells) {
		t.Fatalf("compiled = %q", p.Compiled)
	}
}

func TestPresetService_Search(t *testing.T) {
	svc, _ := newTestPresets(t, t.TempDir(), nil)
	if got := svc.Search(""); len(got) != len(svc.List()) {
		t.Fatal("empty query should return the catalog")
	}
	got := svc.Search("LIGHT")
	if len(got) != 1 || got[0].ID != "cinematic-lighting" {
		t.Fatalf("unexpected search result %+v", got)
	}
	if got := svc.Search("no-such-preset"); len(got) != 0 {
		t.Fatalf("expected no match, got %d", len(got))
	}
}

func TestPresetService_LoadInto(t *testing.T) {
	svc, sessions := newTestPresets(t, t.TempDir(), nil)
	ctx := context.Background()
	sess, err := sessions.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := svc.Get("quality")

	snap, err := svc.LoadInto(ctx, sess.SessionID, "quality")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Prompt.Spells) != 1+len(p.Spells) {
		t.Fatalf("expected %d spells, got %d", 1+len(p.Spells), len(snap.Prompt.Spells))
	}
	for i, sp := range snap.Prompt.Spells[1:] {
		if sp.Content != p.Spells[i].Content {
			t.Fatalf("spell %d content %q, want %q", i, sp.Content, p.Spells[i].Content)
		}
		if sp.ID == p.Spells[i].ID {
			t.Fatalf("spell %d kept template id %s", i, sp.ID)
		}
	}

	// Loading twice never produces duplicate ids.
	snap, err = svc.LoadInto(ctx, sess.SessionID, "quality")
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, id := range snap.Prompt.IDs() {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}

	if _, err := svc.LoadInto(ctx, sess.SessionID, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown preset, got %v", err)
	}
	if _, err := svc.LoadInto(ctx, "no-session", "quality"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}
