package prompt

import (
	"fmt"
	"math"
	"strings"
)

// Separator joins rendered spells in the compiled text.
const Separator = ", "

// Notation selects the weighting markup emitted around a spell's content.
type Notation string

const (
	// NotationBraces nests one {} pair per positive step and one [] pair per
	// negative step.
	NotationBraces Notation = "braces"
	// NotationNumeric emits (content:w) with w = 1.1^enhancement.
	NotationNumeric Notation = "numeric"
)

// numericBase is the per-step multiplier of NotationNumeric.
const numericBase = 1.1

// ParseNotation maps a configuration string to a Notation.
// The empty string selects NotationBraces.
func ParseNotation(s string) (Notation, error) {
	switch Notation(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotationBraces:
		return NotationBraces, nil
	case NotationNumeric:
		return NotationNumeric, nil
	default:
		return "", fmt.Errorf("unknown notation %q", s)
	}
}

// Compiler renders an ordered spell list into one prompt string.
type Compiler struct {
	Notation  Notation
	Separator string
}

// DefaultCompiler uses brace notation and the standard separator.
var DefaultCompiler = Compiler{Notation: NotationBraces, Separator: Separator}

// Compile renders spells with DefaultCompiler.
func Compile(spells []Spell) string {
	return DefaultCompiler.Compile(spells)
}

// Compile renders the enabled, non-blank spells in list order. Disabled and
// blank spells contribute neither text nor a separator.
func (c Compiler) Compile(spells []Spell) string {
	var b strings.Builder
	n := 0
	for i := range spells {
		s := &spells[i]
		if !s.Enabled || s.IsBlank() {
			continue
		}
		if n > 0 {
			b.WriteString(c.Separator)
		}
		b.WriteString(c.Notation.Weight(strings.TrimSpace(s.Content), s.Enhancement))
		n++
	}
	return b.String()
}

// Weight wraps content in the markup for the given enhancement. Zero leaves
// content unchanged; magnitudes beyond MaxEnhancement are clamped.
func (n Notation) Weight(content string, enhancement int) string {
	enhancement = clamp(enhancement)
	if enhancement == 0 {
		return content
	}
	if n == NotationNumeric {
		w := math.Pow(numericBase, float64(enhancement))
		return fmt.Sprintf("(%s:%.2f)", content, w)
	}
	open, closing := "{", "}"
	depth := enhancement
	if enhancement < 0 {
		open, closing = "[", "]"
		depth = -enhancement
	}
	return strings.Repeat(open, depth) + content + strings.Repeat(closing, depth)
}

func clamp(v int) int {
	return max(-MaxEnhancement, min(MaxEnhancement, v))
}
