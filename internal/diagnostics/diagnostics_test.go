package diagnostics

import (
	"bytes"
	"testing"

	"github.com/orizon-lang/matchcheck/internal/position"
)

func span(line, col int) position.Span {
	return position.PointSpan(position.Position{Filename: "lib/main.oriz", Line: line, Column: col, Offset: line})
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Level:    LevelWarning,
		Category: CategoryUnchecked,
		Span:     span(3, 7),
		Message:  "something is unchecked",
	}

	want := "main.oriz:3:7: warning: something is unchecked"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLevelAndCategoryStrings(t *testing.T) {
	if LevelError.String() != "error" || LevelWarning.String() != "warning" || LevelInfo.String() != "info" {
		t.Error("level strings out of sync")
	}

	if CategoryUnchecked.String() != "unchecked" || CategoryOther.String() != "other" {
		t.Error("category strings out of sync")
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	if c.Count() != 0 {
		t.Fatalf("fresh collector Count() = %d", c.Count())
	}

	c.Warn(span(1, 1), "first", CategoryUnchecked)
	c.Warn(span(2, 1), "second", CategoryOther)

	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}

	diags := c.Diagnostics()
	if len(diags) != 2 || diags[0].Message != "first" || diags[1].Message != "second" {
		t.Errorf("Diagnostics() = %v, want emission order", diags)
	}

	if diags[0].Level != LevelWarning || diags[0].Category != CategoryUnchecked {
		t.Errorf("Warn recorded %v / %v", diags[0].Level, diags[0].Category)
	}

	// The returned slice is a copy; mutating it must not affect the
	// collector.
	diags[0].Message = "mutated"

	if c.Diagnostics()[0].Message != "first" {
		t.Error("Diagnostics() must return a copy")
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer

	p := NewPrinter(&buf)
	p.Warn(span(5, 2), "printed warning", CategoryOther)

	want := "main.oriz:5:2: warning: printed warning\n"
	if got := buf.String(); got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}
