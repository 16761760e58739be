// Package diagnostics carries the warnings produced around checkability
// analysis. The analyzer returns structured classification data; this
// package renders and collects the messages derived from it.
package diagnostics

import (
	"fmt"
	"io"
	"sync"

	"github.com/orizon-lang/matchcheck/internal/position"
)

// Level represents the severity of a diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies a checkability warning.
type Category int

const (
	// CategoryUnchecked marks warnings about type tests whose outcome
	// cannot be fully established at runtime (erasure, abstract types).
	CategoryUnchecked Category = iota

	// CategoryOther covers the remaining checkability warnings, such as
	// tests that can never succeed.
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryUnchecked:
		return "unchecked"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// Diagnostic is a single rendered warning with its source span.
type Diagnostic struct {
	Level    Level
	Category Category
	Span     position.Span
	Message  string
}

// String formats the diagnostic the way the CLI prints it.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Level, d.Message)
}

// Sink receives warnings from analysis call sites.
type Sink interface {
	Warn(span position.Span, message string, category Category)
}

// ====== Collector ======

// Collector is an in-memory Sink, used by tests and by drivers that
// post-process warnings before printing.
type Collector struct {
	mu   sync.Mutex
	list []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Warn records a warning-level diagnostic.
func (c *Collector) Warn(span position.Span, message string, category Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = append(c.list, Diagnostic{
		Level:    LevelWarning,
		Category: category,
		Span:     span,
		Message:  message,
	})
}

// Diagnostics returns a copy of the collected diagnostics in emission
// order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.list))
	copy(out, c.list)

	return out
}

// Count returns the number of collected diagnostics.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.list)
}

// ====== Printer ======

// Printer is a Sink that writes each diagnostic to an io.Writer as it
// arrives.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a printer over w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Warn writes a warning-level diagnostic.
func (p *Printer) Warn(span position.Span, message string, category Category) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := Diagnostic{Level: LevelWarning, Category: category, Span: span, Message: message}
	fmt.Fprintln(p.w, d.String())
}
