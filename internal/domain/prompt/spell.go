package prompt

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/SpellForge/internal/domain"
)

// MaxEnhancement bounds the magnitude of a spell's enhancement.
const MaxEnhancement = 20

// Spell is one independently toggleable, independently weighted prompt fragment.
type Spell struct {
	ID          string `json:"id" yaml:"id"`
	Content     string `json:"content" yaml:"content"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Enhancement int    `json:"enhancement" yaml:"enhancement"`
}

// IDGenerator mints opaque unique identifiers.
type IDGenerator func() string

// NewID is the default IDGenerator backed by random (v4) UUIDs.
func NewID() string {
	return uuid.NewString()
}

// NewEmpty returns a blank, enabled, unweighted spell with a fresh id.
func NewEmpty(gen IDGenerator) Spell {
	return Spell{ID: gen(), Enabled: true}
}

// CopyOf returns an independent copy of src carrying a freshly minted id.
func CopyOf(src Spell, gen IDGenerator) Spell {
	src.ID = gen()
	return src
}

// IsBlank reports whether the spell has no renderable content.
func (s Spell) IsBlank() bool {
	return strings.TrimSpace(s.Content) == ""
}

// ValidateSpell checks a single externally supplied spell record.
func ValidateSpell(s Spell) error {
	if reason := checkSpell(s); reason != "" {
		return fmt.Errorf("%w: %s", domain.ErrValidation, reason)
	}
	return nil
}

// ValidateSpells checks a list of externally supplied spells: every record
// must be valid and ids must be unique within the list.
func ValidateSpells(spells []Spell) error {
	seen := make(map[string]struct{}, len(spells))
	for i := range spells {
		if reason := checkSpell(spells[i]); reason != "" {
			return fmt.Errorf("%w: spell %d: %s", domain.ErrValidation, i, reason)
		}
		if _, dup := seen[spells[i].ID]; dup {
			return fmt.Errorf("%w: spell %d: duplicate id %s", domain.ErrValidation, i, spells[i].ID)
		}
		seen[spells[i].ID] = struct{}{}
	}
	return nil
}

// ValidateTemplates checks spells that will be imported with freshly minted
// ids. Their own ids are ignored and may repeat or be empty.
func ValidateTemplates(spells []Spell) error {
	for i := range spells {
		if reason := checkEnhancement(spells[i]); reason != "" {
			return fmt.Errorf("%w: spell %d: %s", domain.ErrValidation, i, reason)
		}
	}
	return nil
}

func checkSpell(s Spell) string {
	if s.ID == "" {
		return "id is required"
	}
	return checkEnhancement(s)
}

func checkEnhancement(s Spell) string {
	if s.Enhancement > MaxEnhancement || s.Enhancement < -MaxEnhancement {
		return fmt.Sprintf("enhancement %d out of range [-%d, %d]", s.Enhancement, MaxEnhancement, MaxEnhancement)
	}
	return ""
}
