package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	cfotel "github.com/Strob0t/SpellForge/internal/adapter/otel"
	"github.com/Strob0t/SpellForge/internal/adapter/ws"
	"github.com/Strob0t/SpellForge/internal/config"
	"github.com/Strob0t/SpellForge/internal/domain"
	"github.com/Strob0t/SpellForge/internal/domain/preset"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
	"github.com/Strob0t/SpellForge/internal/logger"
	"github.com/Strob0t/SpellForge/internal/port/broadcast"
)

// Snapshot is the observable state of one editing session after a mutation.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	Version   uint64        `json:"version"`
	Prompt    prompt.Prompt `json:"prompt"`
	Compiled  string        `json:"compiled"`
	FocusHint *int          `json:"focus_hint"`
}

// Event converts the snapshot into its WebSocket payload.
func (s Snapshot) Event() ws.SessionSnapshotEvent {
	return ws.SessionSnapshotEvent{
		SessionID: s.SessionID,
		Version:   s.Version,
		Prompt:    s.Prompt,
		Compiled:  s.Compiled,
		FocusHint: s.FocusHint,
	}
}

// sessionState is one session's prompt plus its derived text. mu serializes
// the session's mutation stream; compiled always equals compiling prompt.
type sessionState struct {
	mu       sync.Mutex
	id       string
	prompt   prompt.Prompt
	compiled string
	focus    *int
	version  uint64
	lastUsed time.Time
}

func (st *sessionState) snapshot() Snapshot {
	snap := Snapshot{
		SessionID: st.id,
		Version:   st.version,
		Prompt:    st.prompt.Clone(),
		Compiled:  st.compiled,
	}
	if st.focus != nil {
		f := *st.focus
		snap.FocusHint = &f
	}
	return snap
}

// SessionService is the registry of in-memory editing sessions.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState

	cfg      config.Session
	compiler prompt.Compiler
	hub      broadcast.Broadcaster
	metrics  *cfotel.Metrics
	newID    prompt.IDGenerator
	now      func() time.Time
}

// NewSessionService creates a new SessionService. hub and metrics may be nil.
func NewSessionService(cfg config.Session, compiler prompt.Compiler, hub broadcast.Broadcaster, metrics *cfotel.Metrics) *SessionService {
	return &SessionService{
		sessions: make(map[string]*sessionState),
		cfg:      cfg,
		compiler: compiler,
		hub:      hub,
		metrics:  metrics,
		newID:    prompt.NewID,
		now:      time.Now,
	}
}

// SetIDGenerator replaces the generator used for session and spell ids.
func (s *SessionService) SetIDGenerator(gen prompt.IDGenerator) {
	s.newID = gen
}

// Compiler returns the compiler sessions render with.
func (s *SessionService) Compiler() prompt.Compiler {
	return s.compiler
}

// --- Registry ---

// Create starts a session seeded with the initial positive prompt.
func (s *SessionService) Create(ctx context.Context) (Snapshot, error) {
	p := preset.InitialPositivePrompt(s.newID)
	st := &sessionState{
		prompt:   p,
		compiled: s.compiler.Compile(p.Spells),
		version:  1,
		lastUsed: s.now(),
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("create session: %d sessions open: %w", s.cfg.MaxSessions, domain.ErrLimitReached)
	}
	st.id = s.mintSessionID()
	s.sessions[st.id] = st
	s.mu.Unlock()

	s.metrics.RecordSessionCreated(ctx)
	logger.From(logger.WithSessionID(ctx, st.id)).Info("session created")

	snap := st.snapshot()
	s.broadcast(ctx, snap)
	return snap, nil
}

// Get returns the current snapshot of a session.
func (s *SessionService) Get(_ context.Context, id string) (Snapshot, error) {
	st, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastUsed = s.now()
	return st.snapshot(), nil
}

// SessionSnapshot implements ws.SnapshotSource.
func (s *SessionService) SessionSnapshot(ctx context.Context, id string) (ws.SessionSnapshotEvent, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return ws.SessionSnapshotEvent{}, err
	}
	return snap.Event(), nil
}

// Delete discards a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	logger.From(logger.WithSessionID(ctx, id)).Info("session deleted")
	s.broadcastClosed(ctx, id, "deleted")
	return nil
}

// List returns the ids of all open sessions, sorted.
func (s *SessionService) List(_ context.Context) []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// --- Mutations ---

// SetSpells replaces the spell list of a session. The list must carry
// unique ids and in-range enhancements.
func (s *SessionService) SetSpells(ctx context.Context, id string, spells []prompt.Spell) (Snapshot, error) {
	if err := prompt.ValidateSpells(spells); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, id, "set_spells", func(p prompt.Prompt) prompt.Prompt {
		return p.SetSpells(spells)
	})
}

// SetTitle replaces the prompt title.
func (s *SessionService) SetTitle(ctx context.Context, id, title string) (Snapshot, error) {
	return s.mutate(ctx, id, "set_title", func(p prompt.Prompt) prompt.Prompt {
		return p.SetTitle(title)
	})
}

// UpdateContent replaces the content of one spell.
func (s *SessionService) UpdateContent(ctx context.Context, id, spellID, content string) (Snapshot, error) {
	return s.mutate(ctx, id, "update_content", func(p prompt.Prompt) prompt.Prompt {
		return p.UpdateContent(spellID, content)
	})
}

// SetEnabled toggles one spell.
func (s *SessionService) SetEnabled(ctx context.Context, id, spellID string, enabled bool) (Snapshot, error) {
	return s.mutate(ctx, id, "set_enabled", func(p prompt.Prompt) prompt.Prompt {
		return p.SetEnabled(spellID, enabled)
	})
}

// SetEnhancement sets the weight of one spell.
func (s *SessionService) SetEnhancement(ctx context.Context, id, spellID string, enhancement int) (Snapshot, error) {
	if err := prompt.ValidateTemplates([]prompt.Spell{{Enhancement: enhancement}}); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, id, "set_enhancement", func(p prompt.Prompt) prompt.Prompt {
		return p.SetEnhancement(spellID, enhancement)
	})
}

// SpellPatch holds the fields of one spell to change. Nil fields are kept.
type SpellPatch struct {
	Content     *string
	Enabled     *bool
	Enhancement *int
}

// PatchSpell applies every set field of patch to one spell as a single
// event. An unknown spell id is a no-op.
func (s *SessionService) PatchSpell(ctx context.Context, id, spellID string, patch SpellPatch) (Snapshot, error) {
	if patch.Enhancement != nil {
		if err := prompt.ValidateTemplates([]prompt.Spell{{Enhancement: *patch.Enhancement}}); err != nil {
			return Snapshot{}, err
		}
	}
	return s.mutate(ctx, id, "patch", func(p prompt.Prompt) prompt.Prompt {
		if patch.Content != nil {
			p = p.UpdateContent(spellID, *patch.Content)
		}
		if patch.Enabled != nil {
			p = p.SetEnabled(spellID, *patch.Enabled)
		}
		if patch.Enhancement != nil {
			p = p.SetEnhancement(spellID, *patch.Enhancement)
		}
		return p
	})
}

// InsertEmptyAfter inserts a blank spell right after afterID and returns its
// id. When afterID is not in the list nothing is inserted and the returned
// id is empty.
func (s *SessionService) InsertEmptyAfter(ctx context.Context, id, afterID string) (Snapshot, string, error) {
	newSpell := preset.EmptySpell(s.newID)
	inserted := false
	snap, err := s.mutate(ctx, id, "insert_after", func(p prompt.Prompt) prompt.Prompt {
		for p.IndexOf(newSpell.ID) >= 0 {
			newSpell.ID = s.newID()
		}
		next, ok := p.InsertAfter(afterID, newSpell)
		inserted = ok
		return next
	})
	if err != nil || !inserted {
		return snap, "", err
	}
	return snap, newSpell.ID, nil
}

// AppendEmpty appends a blank spell and returns its id.
func (s *SessionService) AppendEmpty(ctx context.Context, id string) (Snapshot, string, error) {
	var newID string
	snap, err := s.mutate(ctx, id, "append_empty", func(p prompt.Prompt) prompt.Prompt {
		next := p.AppendWithFreshID(prompt.Spell{Enabled: true}, s.newID)
		newID = next.Spells[len(next.Spells)-1].ID
		return next
	})
	return snap, newID, err
}

// Append appends sp keeping its id, which must not already be in the list.
// A rejected append leaves the session, its version and subscribers untouched.
func (s *SessionService) Append(ctx context.Context, id string, sp prompt.Spell) (Snapshot, error) {
	if err := prompt.ValidateSpell(sp); err != nil {
		return Snapshot{}, err
	}
	return s.mutateChecked(ctx, id, "append", func(p prompt.Prompt) (prompt.Prompt, error) {
		if p.IndexOf(sp.ID) >= 0 {
			return p, fmt.Errorf("%w: spell id %s already exists", domain.ErrValidation, sp.ID)
		}
		return p.Append(sp), nil
	})
}

// AppendWithFreshID appends a copy of sp under a newly minted id.
func (s *SessionService) AppendWithFreshID(ctx context.Context, id string, sp prompt.Spell) (Snapshot, error) {
	return s.AppendManyWithFreshIDs(ctx, id, []prompt.Spell{sp})
}

// AppendManyWithFreshIDs appends copies of spells, each under a newly minted id.
func (s *SessionService) AppendManyWithFreshIDs(ctx context.Context, id string, spells []prompt.Spell) (Snapshot, error) {
	if err := prompt.ValidateTemplates(spells); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(ctx, id, "import", func(p prompt.Prompt) prompt.Prompt {
		return p.AppendManyWithFreshIDs(spells, s.newID)
	})
}

// DeleteSpell removes one spell.
func (s *SessionService) DeleteSpell(ctx context.Context, id, spellID string) (Snapshot, error) {
	return s.mutate(ctx, id, "delete", func(p prompt.Prompt) prompt.Prompt {
		return p.Delete(spellID)
	})
}

// Move drops activeID onto the slot held by overID.
func (s *SessionService) Move(ctx context.Context, id, activeID, overID string) (Snapshot, error) {
	return s.mutate(ctx, id, "move", func(p prompt.Prompt) prompt.Prompt {
		return p.Move(activeID, overID)
	})
}

// SwapWithNeighbor shifts one spell a single slot toward the start or end.
func (s *SessionService) SwapWithNeighbor(ctx context.Context, id, spellID string, towardPrevious bool) (Snapshot, error) {
	return s.mutate(ctx, id, "swap", func(p prompt.Prompt) prompt.Prompt {
		return p.SwapWithNeighbor(spellID, towardPrevious)
	})
}

// --- Focus hint ---

// SetFocus records which spell index the UI should focus next.
func (s *SessionService) SetFocus(ctx context.Context, id string, index int) (Snapshot, error) {
	if index < 0 {
		return Snapshot{}, fmt.Errorf("%w: focus index %d is negative", domain.ErrValidation, index)
	}
	return s.apply(ctx, id, "set_focus", func(st *sessionState) error {
		st.focus = &index
		return nil
	})
}

// ClearFocus acknowledges the focus hint.
func (s *SessionService) ClearFocus(ctx context.Context, id string) (Snapshot, error) {
	return s.apply(ctx, id, "clear_focus", func(st *sessionState) error {
		st.focus = nil
		return nil
	})
}

// --- Janitor ---

// StartJanitor spawns a goroutine that evicts sessions idle for longer than
// the configured TTL. It returns a cancel function that stops the goroutine.
// With a zero TTL or interval nothing is started.
func (s *SessionService) StartJanitor() func() {
	if s.cfg.IdleTTL <= 0 || s.cfg.JanitorInterval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(s.cfg.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictIdle(ctx)
			}
		}
	}()
	return cancel
}

// EvictIdle removes sessions idle for longer than the TTL and returns how
// many were removed.
func (s *SessionService) EvictIdle(ctx context.Context) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	var expired []string
	s.mu.Lock()
	for id, st := range s.sessions {
		st.mu.Lock()
		idle := st.lastUsed.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.broadcastClosed(ctx, id, "expired")
	}
	if len(expired) > 0 {
		s.metrics.RecordSessionsEvicted(ctx, len(expired))
		slog.Info("idle sessions evicted", "count", len(expired))
	}
	return len(expired)
}

// --- internals ---

// mutate applies a prompt transformation and recompiles. A transformation
// that does not find its target leaves the prompt unchanged but still counts
// as an applied event.
func (s *SessionService) mutate(ctx context.Context, id, op string, fn func(prompt.Prompt) prompt.Prompt) (Snapshot, error) {
	return s.mutateChecked(ctx, id, op, func(p prompt.Prompt) (prompt.Prompt, error) {
		return fn(p), nil
	})
}

// mutateChecked is mutate for transformations that can reject the current
// state. On error the session is left exactly as it was.
func (s *SessionService) mutateChecked(ctx context.Context, id, op string, fn func(prompt.Prompt) (prompt.Prompt, error)) (Snapshot, error) {
	return s.apply(ctx, id, op, func(st *sessionState) error {
		next, err := fn(st.prompt)
		if err != nil {
			return err
		}
		st.prompt = next
		start := time.Now()
		st.compiled = s.compiler.Compile(st.prompt.Spells)
		s.metrics.RecordMutation(ctx, op, time.Since(start))
		return nil
	})
}

// apply runs fn under the session lock. The version advances and a snapshot
// is broadcast only when fn succeeds.
func (s *SessionService) apply(ctx context.Context, id, op string, fn func(*sessionState) error) (Snapshot, error) {
	st, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	ctx, span := cfotel.StartMutationSpan(ctx, id, op)
	defer span.End()

	st.mu.Lock()
	if err := fn(st); err != nil {
		st.mu.Unlock()
		return Snapshot{}, err
	}
	st.version++
	st.lastUsed = s.now()
	snap := st.snapshot()
	st.mu.Unlock()

	logger.From(logger.WithSessionID(ctx, id)).Debug("session mutated", "op", op, "version", snap.Version)
	s.broadcast(ctx, snap)
	return snap, nil
}

func (s *SessionService) lookup(id string) (*sessionState, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return st, nil
}

// mintSessionID must be called with s.mu held.
func (s *SessionService) mintSessionID() string {
	for {
		id := s.newID()
		if _, taken := s.sessions[id]; !taken {
			return id
		}
	}
}

func (s *SessionService) broadcast(ctx context.Context, snap Snapshot) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventSessionSnapshot, snap.Event())
}

func (s *SessionService) broadcastClosed(ctx context.Context, id, reason string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventSessionClosed, ws.SessionClosedEvent{SessionID: id, Reason: reason})
}
