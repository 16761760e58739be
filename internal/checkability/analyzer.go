// Analyzer: the call-site glue around the classifier. It normalizes the
// query, renders warnings to the diagnostic sink, and registers deferred
// rechecks for results that depend on incomplete sealed hierarchies.

package checkability

import (
	"fmt"
	"log"

	"github.com/orizon-lang/matchcheck/internal/diagnostics"
	"github.com/orizon-lang/matchcheck/internal/position"
	"github.com/orizon-lang/matchcheck/internal/types"
)

// Analyzer runs checkability analysis for type-test sites and turns the
// structured results into diagnostics.
type Analyzer struct {
	Types types.TypeOracle
	Hier  types.HierarchyOracle
	Elab  *Elaboration
	Sink  diagnostics.Sink

	// Tracef receives internal (non-user-facing) trace lines.
	Tracef func(format string, args ...interface{})
}

// NewAnalyzer wires an analyzer over the given collaborators.
func NewAnalyzer(to types.TypeOracle, ho types.HierarchyOracle, elab *Elaboration, sink diagnostics.Sink) *Analyzer {
	return &Analyzer{
		Types:  to,
		Hier:   ho,
		Elab:   elab,
		Sink:   sink,
		Tracef: log.Printf,
	}
}

func (a *Analyzer) trace(format string, args ...interface{}) {
	if a.Tracef != nil {
		a.Tracef(format, args...)
	}
}

// CheckTypeTest classifies a single type test of scrut against pat and
// emits the warranted diagnostics at span. The classification is
// returned for callers that branch on it.
func (a *Analyzer) CheckTypeTest(span position.Span, scrut, pat *types.Type) Checkability {
	// A pattern suppressed with @unchecked skips analysis entirely;
	// the test is taken at face value.
	if pat.IsUncheckedAnnotated() {
		return RuntimeCheckable
	}

	x := a.Types.Widen(a.Types.Dealias(scrut))
	p := a.Types.Widen(a.Types.Dealias(pat))

	c := NewChecker(a.Types, a.Hier, a.Elab, x, p, false)
	c.Trace = a.trace

	result := c.Result()

	switch result {
	case StaticallyFalse:
		a.warnNeverMatches(span, c)
	case Uncheckable:
		a.warnUnchecked(span, c)
	case RuntimeCheckable:
		a.maybeScheduleRecheck(span, x, p)
	case CheckabilityError:
		// Erroneous inputs and unexplained verdicts say nothing; the
		// upstream error (or the trace log) is the record.
	}

	return result
}

// maybeScheduleRecheck registers a post-checkpoint recheck when the
// provisional RuntimeCheckable verdict leaned on a sealed or final
// symbol whose children are still being elaborated. Completing those
// children can only strengthen the verdict to StaticallyFalse.
func (a *Analyzer) maybeScheduleRecheck(span position.Span, x, p *types.Type) {
	if a.Elab == nil {
		return
	}

	xsym := a.Types.Dealias(x).HeadSymbol()
	psym := a.Types.Dealias(p).HeadSymbol()

	// Both properties must hold of one and the same head: the verdict is
	// provisional only when the sealed or final symbol itself is the one
	// whose children are still being collected.
	if !a.openSealed(xsym) && !a.openSealed(psym) {
		return
	}

	id, err := a.Elab.Schedule(func() {
		rc := NewChecker(a.Types, a.Hier, a.Elab, x, p, true)
		rc.Trace = a.trace

		if rc.Result() == StaticallyFalse {
			a.warnNeverMatches(span, rc)
		}
	})
	if err != nil {
		a.trace("checkability: recheck not scheduled: %v", err)

		return
	}

	a.trace("checkability: recheck %s scheduled for %s vs %s", id, x, p)
}

func (a *Analyzer) sealedOrFinal(sym *types.Symbol) bool {
	return a.Hier.IsSealed(sym) || a.Hier.IsFinal(sym)
}

// openSealed reports whether sym is sealed or final while its own set of
// children is still incomplete.
func (a *Analyzer) openSealed(sym *types.Symbol) bool {
	return a.sealedOrFinal(sym) && a.elaborating(sym)
}

func (a *Analyzer) elaborating(sym *types.Symbol) bool {
	return sym != nil && a.Elab.IsBeingElaborated(sym)
}

func (a *Analyzer) warnNeverMatches(span position.Span, c *Checker) {
	if a.Sink == nil {
		return
	}

	var msg string
	if c.NeverSubClass() {
		msg = fmt.Sprintf("a value of type %s can never be an instance of %s", c.X, c.P)
	} else {
		msg = fmt.Sprintf("a value of type %s can never match pattern type %s", c.X, c.P)
	}

	a.Sink.Warn(span, msg, diagnostics.CategoryOther)
}

func (a *Analyzer) warnUnchecked(span position.Span, c *Checker) {
	if a.Sink == nil {
		return
	}

	witness := c.UncheckableType()

	var msg string

	switch {
	case witness == c.P:
		msg = fmt.Sprintf("abstract type %s cannot be checked at runtime; the test is unchecked", c.P)
	case c.UncheckableCard() >= 2:
		msg = fmt.Sprintf("the type test for %s cannot be fully checked at runtime: its type arguments are eliminated by erasure", c.P)
	default:
		msg = fmt.Sprintf("type argument %s in pattern type %s is unchecked: it is eliminated by erasure", witness, c.P)
	}

	a.Sink.Warn(span, msg, diagnostics.CategoryUnchecked)
}
