package prompt

import (
	"strings"
	"testing"
)

func TestCompile_Scenario(t *testing.T) {
	spells := []Spell{
		{ID: "1", Content: "cat", Enabled: true, Enhancement: 0},
		{ID: "2", Content: "blue sky", Enabled: false, Enhancement: 2},
		{ID: "3", Content: "4k", Enabled: true, Enhancement: -1},
	}
	got := Compile(spells)
	if got != "cat, [4k]" {
		t.Fatalf("Compile = %q, want %q", got, "cat, [4k]")
	}
	if strings.Contains(got, "blue sky") {
		t.Fatal("disabled spell leaked into output")
	}
}

func TestCompile_Empty(t *testing.T) {
	if got := Compile(nil); got != "" {
		t.Fatalf("Compile(nil) = %q", got)
	}
	if got := Compile([]Spell{}); got != "" {
		t.Fatalf("Compile(empty) = %q", got)
	}
}

func TestCompile_AllDisabled(t *testing.T) {
	spells := []Spell{
		{ID: "1", Content: "a", Enhancement: 3},
		{ID: "2", Content: "b", Enhancement: -2},
		{ID: "3", Content: "c"},
	}
	if got := Compile(spells); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestCompile_SkipsBlankWithoutStraySeparators(t *testing.T) {
	spells := []Spell{
		{ID: "1", Content: "", Enabled: true},
		{ID: "2", Content: "red", Enabled: true},
		{ID: "3", Content: "   ", Enabled: true, Enhancement: 2},
		{ID: "4", Content: "hat", Enabled: true},
		{ID: "5", Content: "\t", Enabled: true},
	}
	if got := Compile(spells); got != "red, hat" {
		t.Fatalf("Compile = %q", got)
	}
}

func TestCompile_TrimsContent(t *testing.T) {
	spells := []Spell{{ID: "1", Content: "  soft light \n", Enabled: true, Enhancement: 1}}
	if got := Compile(spells); got != "{soft light}" {
		t.Fatalf("Compile = %q", got)
	}
}

func TestCompile_PreservesOrder(t *testing.T) {
	spells := []Spell{
		{ID: "1", Content: "c", Enabled: true},
		{ID: "2", Content: "x", Enabled: false},
		{ID: "3", Content: "a", Enabled: true},
		{ID: "4", Content: "b", Enabled: true},
	}
	if got := Compile(spells); got != "c, a, b" {
		t.Fatalf("Compile = %q", got)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	spells := sample().Spells
	first := Compile(spells)
	for range 10 {
		if got := Compile(spells); got != first {
			t.Fatalf("non-deterministic output: %q vs %q", got, first)
		}
	}
}

func TestCompile_CustomSeparator(t *testing.T) {
	c := Compiler{Notation: NotationBraces, Separator: " | "}
	spells := []Spell{
		{ID: "1", Content: "a", Enabled: true},
		{ID: "2", Content: "b", Enabled: true},
	}
	if got := c.Compile(spells); got != "a | b" {
		t.Fatalf("Compile = %q", got)
	}
}

func TestWeight_Braces(t *testing.T) {
	tests := []struct {
		enhancement int
		want        string
	}{
		{0, "cat"},
		{1, "{cat}"},
		{3, "{{{cat}}}"},
		{-1, "[cat]"},
		{-2, "[[cat]]"},
	}
	for _, tt := range tests {
		if got := NotationBraces.Weight("cat", tt.enhancement); got != tt.want {
			t.Errorf("Weight(%d) = %q, want %q", tt.enhancement, got, tt.want)
		}
	}
}

func TestWeight_BracesMonotonic(t *testing.T) {
	prev := len(NotationBraces.Weight("x", 0))
	for e := 1; e <= MaxEnhancement; e++ {
		n := len(NotationBraces.Weight("x", e))
		if n <= prev {
			t.Fatalf("enhancement %d not stronger than %d", e, e-1)
		}
		prev = n
	}
}

func TestWeight_Clamped(t *testing.T) {
	got := NotationBraces.Weight("x", MaxEnhancement+50)
	want := NotationBraces.Weight("x", MaxEnhancement)
	if got != want {
		t.Fatalf("expected clamp to MaxEnhancement")
	}
	if NotationBraces.Weight("x", -1000) != NotationBraces.Weight("x", -MaxEnhancement) {
		t.Fatal("expected clamp to -MaxEnhancement")
	}
}

func TestWeight_Numeric(t *testing.T) {
	tests := []struct {
		enhancement int
		want        string
	}{
		{0, "cat"},
		{1, "(cat:1.10)"},
		{2, "(cat:1.21)"},
		{3, "(cat:1.33)"},
		{-1, "(cat:0.91)"},
		{-2, "(cat:0.83)"},
	}
	for _, tt := range tests {
		if got := NotationNumeric.Weight("cat", tt.enhancement); got != tt.want {
			t.Errorf("Weight(%d) = %q, want %q", tt.enhancement, got, tt.want)
		}
	}
}

func TestCompile_NumericNotation(t *testing.T) {
	c := Compiler{Notation: NotationNumeric, Separator: Separator}
	spells := []Spell{
		{ID: "1", Content: "cat", Enabled: true},
		{ID: "2", Content: "4k", Enabled: true, Enhancement: 1},
	}
	if got := c.Compile(spells); got != "cat, (4k:1.10)" {
		t.Fatalf("Compile = %q", got)
	}
}

func TestParseNotation(t *testing.T) {
	tests := []struct {
		in      string
		want    Notation
		wantErr bool
	}{
		{"", NotationBraces, false},
		{"braces", NotationBraces, false},
		{" Numeric ", NotationNumeric, false},
		{"parens", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNotation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
