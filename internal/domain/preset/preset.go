// Package preset defines reusable spell templates and the seed prompt every
// session starts from. Presets are loaded from built-ins and YAML files.
package preset

import (
	"errors"
	"fmt"

	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// InitialPromptTitle is the title of the prompt every new session starts with.
const InitialPromptTitle = "Positive Prompt"

var (
	ErrIDRequired    = errors.New("preset id is required")
	ErrTitleRequired = errors.New("preset title is required")
	ErrNoSpells      = errors.New("preset must have at least one spell")
)

// Preset is a named, reusable list of spells. Spell ids inside a preset are
// template ids only; loading a preset always mints fresh ids.
type Preset struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Builtin     bool           `json:"builtin" yaml:"-"`
	Spells      []prompt.Spell `json:"spells" yaml:"spells"`
}

// Validate checks the preset for structural correctness.
func (p *Preset) Validate() error {
	if p.ID == "" {
		return ErrIDRequired
	}
	if p.Title == "" {
		return ErrTitleRequired
	}
	if len(p.Spells) == 0 {
		return ErrNoSpells
	}
	if err := prompt.ValidateTemplates(p.Spells); err != nil {
		return fmt.Errorf("preset %s: %w", p.ID, err)
	}
	return nil
}

// EmptySpell returns a blank, enabled, unweighted spell with a fresh id.
func EmptySpell(gen prompt.IDGenerator) prompt.Spell {
	return prompt.NewEmpty(gen)
}

// InitialPositivePrompt returns the prompt a new session starts with: one
// empty spell under the default title.
func InitialPositivePrompt(gen prompt.IDGenerator) prompt.Prompt {
	return prompt.New(InitialPromptTitle, gen, EmptySpell(gen))
}
