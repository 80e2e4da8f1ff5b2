package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/SpellForge/internal/domain"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// presetFile is the on-disk form of a Preset. Spell records use pointer
// fields so a missing content or enabled key is rejected rather than read
// as its zero value.
type presetFile struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Spells      []spellEntry `yaml:"spells"`
}

// spellEntry is one spell record in a preset file. enhancement is optional
// and defaults to 0.
type spellEntry struct {
	ID          string  `yaml:"id"`
	Content     *string `yaml:"content"`
	Enabled     *bool   `yaml:"enabled"`
	Enhancement int     `yaml:"enhancement"`
}

func (f presetFile) toPreset() (Preset, error) {
	p := Preset{ID: f.ID, Title: f.Title, Description: f.Description}
	if len(f.Spells) > 0 {
		p.Spells = make([]prompt.Spell, len(f.Spells))
	}
	for i, e := range f.Spells {
		switch {
		case e.Content == nil:
			return Preset{}, fmt.Errorf("%w: spell %d: content is required", domain.ErrValidation, i)
		case e.Enabled == nil:
			return Preset{}, fmt.Errorf("%w: spell %d: enabled is required", domain.ErrValidation, i)
		}
		p.Spells[i] = prompt.Spell{ID: e.ID, Content: *e.Content, Enabled: *e.Enabled, Enhancement: e.Enhancement}
	}
	return p, nil
}

// LoadFromFile reads a single Preset from a YAML file.
func LoadFromFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read preset file %s: %w", path, err)
	}

	var doc presetFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}
	p, err := doc.toPreset()
	if err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate preset file %s: %w", path, err)
	}

	return &p, nil
}

// LoadFromDirectory reads all .yaml/.yml files from a directory. A missing
// directory yields an empty slice, not an error.
func LoadFromDirectory(dir string) ([]Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read preset directory %s: %w", dir, err)
	}

	var presets []Preset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		p, err := LoadFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}

	return presets, nil
}
