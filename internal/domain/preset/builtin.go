package preset

import "github.com/Strob0t/SpellForge/internal/domain/prompt"

// Builtin returns the built-in preset catalog.
func Builtin() []Preset {
	return []Preset{
		quality(),
		negativeDefaults(),
		cinematicLighting(),
	}
}

func quality() Preset {
	return Preset{
		ID:          "quality",
		Title:       "Quality Tags",
		Description: "General quality boosters placed at the front of a prompt.",
		Builtin:     true,
		Spells: []prompt.Spell{
			{ID: "quality-1", Content: "masterpiece", Enabled: true, Enhancement: 2},
			{ID: "quality-2", Content: "best quality", Enabled: true, Enhancement: 1},
			{ID: "quality-3", Content: "highly detailed", Enabled: true},
		},
	}
}

func negativeDefaults() Preset {
	return Preset{
		ID:          "negative-defaults",
		Title:       "Negative Defaults",
		Description: "Common artifacts to steer away from in a negative prompt.",
		Builtin:     true,
		Spells: []prompt.Spell{
			{ID: "negative-1", Content: "lowres", Enabled: true},
			{ID: "negative-2", Content: "bad anatomy", Enabled: true},
			{ID: "negative-3", Content: "worst quality", Enabled: true, Enhancement: 1},
			{ID: "negative-4", Content: "jpeg artifacts", Enabled: true},
			{ID: "negative-5", Content: "watermark", Enabled: false},
		},
	}
}

func cinematicLighting() Preset {
	return Preset{
		ID:          "cinematic-lighting",
		Title:       "Cinematic Lighting",
		Description: "Lighting and lens fragments for a film-still look.",
		Builtin:     true,
		Spells: []prompt.Spell{
			{ID: "cinematic-1", Content: "cinematic lighting", Enabled: true, Enhancement: 1},
			{ID: "cinematic-2", Content: "volumetric light", Enabled: true},
			{ID: "cinematic-3", Content: "depth of field", Enabled: true},
			{ID: "cinematic-4", Content: "film grain", Enabled: true, Enhancement: -1},
		},
	}
}
