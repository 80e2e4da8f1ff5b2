// Package prompt defines the spell/prompt data model and the prompt compiler.
//
// A Prompt is an ordered, titled list of spells. Every mutation is a value
// method that returns a new Prompt and leaves the receiver untouched. A
// mutation whose target id is absent returns a prompt equal to the receiver.
package prompt

import "slices"

// Prompt is an ordered container of spells plus metadata.
type Prompt struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Spells []Spell `json:"spells" yaml:"spells"`
}

// New creates a prompt with a fresh id holding the given spells in order.
func New(title string, gen IDGenerator, spells ...Spell) Prompt {
	return Prompt{
		ID:     gen(),
		Title:  title,
		Spells: slices.Clone(spells),
	}
}

// Clone returns a deep copy of p.
func (p Prompt) Clone() Prompt {
	p.Spells = slices.Clone(p.Spells)
	return p
}

// IndexOf returns the position of the spell with the given id, or -1.
func (p Prompt) IndexOf(id string) int {
	return slices.IndexFunc(p.Spells, func(s Spell) bool { return s.ID == id })
}

// Find returns the spell with the given id.
func (p Prompt) Find(id string) (Spell, bool) {
	i := p.IndexOf(id)
	if i < 0 {
		return Spell{}, false
	}
	return p.Spells[i], true
}

// IDs returns spell ids in list order.
func (p Prompt) IDs() []string {
	ids := make([]string, len(p.Spells))
	for i := range p.Spells {
		ids[i] = p.Spells[i].ID
	}
	return ids
}

// SetSpells replaces the spell list wholesale.
func (p Prompt) SetSpells(spells []Spell) Prompt {
	p.Spells = slices.Clone(spells)
	return p
}

// SetTitle replaces the prompt title.
func (p Prompt) SetTitle(title string) Prompt {
	p.Title = title
	return p
}

// UpdateContent replaces the content of one spell.
func (p Prompt) UpdateContent(id, content string) Prompt {
	return p.update(id, func(s *Spell) { s.Content = content })
}

// SetEnabled replaces the enabled flag of one spell.
func (p Prompt) SetEnabled(id string, enabled bool) Prompt {
	return p.update(id, func(s *Spell) { s.Enabled = enabled })
}

// SetEnhancement replaces the enhancement of one spell.
func (p Prompt) SetEnhancement(id string, enhancement int) Prompt {
	return p.update(id, func(s *Spell) { s.Enhancement = enhancement })
}

// InsertAfter places s immediately after the spell with id afterID.
// When the anchor is absent the spell is dropped and ok is false; callers
// that want the spell at the end must fall back to Append.
func (p Prompt) InsertAfter(afterID string, s Spell) (_ Prompt, ok bool) {
	i := p.IndexOf(afterID)
	if i < 0 {
		return p, false
	}
	p.Spells = slices.Insert(slices.Clone(p.Spells), i+1, s)
	return p, true
}

// Append places s at the end of the list, keeping its id.
func (p Prompt) Append(s Spell) Prompt {
	p.Spells = append(slices.Clip(p.Spells), s)
	return p
}

// AppendWithFreshID appends a copy of s carrying a newly minted id.
func (p Prompt) AppendWithFreshID(s Spell, gen IDGenerator) Prompt {
	return p.AppendManyWithFreshIDs([]Spell{s}, gen)
}

// AppendManyWithFreshIDs appends copies of spells, each carrying a newly
// minted id that does not collide with any id already in the list.
func (p Prompt) AppendManyWithFreshIDs(spells []Spell, gen IDGenerator) Prompt {
	if len(spells) == 0 {
		return p
	}
	taken := make(map[string]struct{}, len(p.Spells)+len(spells))
	for i := range p.Spells {
		taken[p.Spells[i].ID] = struct{}{}
	}
	out := make([]Spell, 0, len(p.Spells)+len(spells))
	out = append(out, p.Spells...)
	for _, s := range spells {
		s.ID = mintUnique(gen, taken)
		out = append(out, s)
	}
	p.Spells = out
	return p
}

// Delete removes the spell with the given id.
func (p Prompt) Delete(id string) Prompt {
	i := p.IndexOf(id)
	if i < 0 {
		return p
	}
	p.Spells = slices.Delete(slices.Clone(p.Spells), i, i+1)
	return p
}

// Move relocates the spell activeID to the index currently held by overID,
// shifting the spells in between by one slot. It is a no-op when either id
// is absent or both name the same spell.
func (p Prompt) Move(activeID, overID string) Prompt {
	from, to := p.IndexOf(activeID), p.IndexOf(overID)
	if from < 0 || to < 0 || from == to {
		return p
	}
	p.Spells = moveItem(p.Spells, from, to)
	return p
}

// SwapWithNeighbor moves the spell one slot toward the start
// (towardPrevious) or the end of the list. Moves past either end are no-ops;
// the list never wraps.
func (p Prompt) SwapWithNeighbor(id string, towardPrevious bool) Prompt {
	from := p.IndexOf(id)
	if from < 0 {
		return p
	}
	to := from + 1
	if towardPrevious {
		to = from - 1
	}
	if to < 0 || to >= len(p.Spells) {
		return p
	}
	p.Spells = moveItem(p.Spells, from, to)
	return p
}

func (p Prompt) update(id string, fn func(*Spell)) Prompt {
	i := p.IndexOf(id)
	if i < 0 {
		return p
	}
	p.Spells = slices.Clone(p.Spells)
	fn(&p.Spells[i])
	return p
}

// moveItem returns a copy of list with the element at from reinserted at to.
func moveItem(list []Spell, from, to int) []Spell {
	out := slices.Clone(list)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

func mintUnique(gen IDGenerator, taken map[string]struct{}) string {
	for {
		id := gen()
		if _, dup := taken[id]; !dup {
			taken[id] = struct{}{}
			return id
		}
	}
}
