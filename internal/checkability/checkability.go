// Package checkability decides, without running the program, whether a
// runtime type test can succeed: always, never, only with a runtime
// remnant check, or not decidably at all once erasure has discarded the
// tested type's arguments.
//
// A test of scrutinee type X against pattern type P is classified by four
// conditions evaluated in a fixed priority order:
//
//	P1  X conforms to P with the pattern's own type variables wildcarded
//	    -> the test is statically true.
//	P2  no value of X can ever also be a value of P
//	    -> the test is statically false.
//	P3  the best refinement of X under the assumption "X is also a P"
//	    conforms to P -> a runtime instance check decides the test.
//	P4  none of the above -> the test is uncheckable, and the witness
//	    search names the type argument erasure is responsible for.
package checkability

import (
	"fmt"

	"github.com/orizon-lang/matchcheck/internal/types"
)

// Checkability is the classification of one (X, P) query at the current
// point of hierarchy knowledge. Completing a sealed hierarchy can only
// move RuntimeCheckable to StaticallyFalse, never the reverse.
type Checkability int

const (
	StaticallyTrue Checkability = iota
	StaticallyFalse
	RuntimeCheckable
	Uncheckable
	CheckabilityError
)

// String returns the string representation of a Checkability.
func (c Checkability) String() string {
	switch c {
	case StaticallyTrue:
		return "statically true"
	case StaticallyFalse:
		return "statically false"
	case RuntimeCheckable:
		return "runtime checkable"
	case Uncheckable:
		return "uncheckable"
	case CheckabilityError:
		return "error"
	default:
		return "invalid"
	}
}

// ElaborationContext exposes the temporal state the engines need: which
// symbols are still being elaborated (their sealed children may be an
// undercount) and where to queue work for after the checkpoint.
type ElaborationContext interface {
	IsBeingElaborated(sym *types.Symbol) bool
	ScheduleAfterElaboration(task func())
}

// Checker classifies a single (X, P) pair. A Checker is created fresh
// per query (and once more, with IsRecheck set, when a provisional
// result is re-derived after the hierarchy checkpoint) and discarded
// after its accessors are consumed. It is not safe for concurrent use.
type Checker struct {
	X *types.Type
	P *types.Type

	// IsRecheck marks the post-checkpoint pass: sealed children are
	// complete and may be trusted by the irreconcilability recursion.
	IsRecheck bool

	// Trace receives internal diagnostics that are not user-facing.
	Trace func(format string, args ...interface{})

	to   types.TypeOracle
	ho   types.HierarchyOracle
	elab ElaborationContext
	eng  *NeverSubEngine

	computed bool
	result   Checkability
	p1, p2   bool
	p3       bool

	xrDone bool
	xr     *types.Type

	uncheckableType *types.Type
	uncheckableCard int
}

// NewChecker creates a checker for one (X, P) query. X and P must be
// normalized (dealiased and widened) by the caller.
func NewChecker(to types.TypeOracle, ho types.HierarchyOracle, elab ElaborationContext, x, p *types.Type, isRecheck bool) *Checker {
	return &Checker{
		X:         x,
		P:         p,
		IsRecheck: isRecheck,
		to:        to,
		ho:        ho,
		elab:      elab,
		eng:       &NeverSubEngine{to: to, ho: ho, elab: elab, isRecheck: isRecheck},
	}
}

// Classify runs one query and returns the classification, the
// uncheckable witness (nil if none) with its cardinality, and whether
// the head symbols are irreconcilable.
func Classify(to types.TypeOracle, ho types.HierarchyOracle, elab ElaborationContext, x, p *types.Type) (Checkability, *types.Type, int, bool) {
	c := NewChecker(to, ho, elab, x, p, false)

	return c.Result(), c.UncheckableType(), c.UncheckableCard(), c.NeverSubClass()
}

// Result computes (once) and returns the classification.
func (c *Checker) Result() Checkability {
	if !c.computed {
		c.result = c.compute()
		c.computed = true
	}

	return c.result
}

// UncheckableType returns the offending type argument of an Uncheckable
// result, or nil.
func (c *Checker) UncheckableType() *types.Type {
	c.Result()

	return c.uncheckableType
}

// UncheckableCard returns 1 for a single offending argument, 2 for
// two-or-more, 0 otherwise.
func (c *Checker) UncheckableCard() int {
	c.Result()

	return c.uncheckableCard
}

// NeverSubClass reports whether the head symbols of X and P can never
// both be ancestors of one runtime value. Call sites use it to phrase
// the "never matches" diagnostic.
func (c *Checker) NeverSubClass() bool {
	return c.eng.IsNeverSubClass(c.xsym(), c.psym())
}

// Summary renders the condition values for tracing. Valid after Result.
func (c *Checker) Summary() string {
	c.Result()

	return fmt.Sprintf("%s => %s", c.conditions(), c.result)
}

// conditions renders the condition values without forcing the result.
// compute traces through this directly: it runs before the result is
// memoized, so it must not go through Result.
func (c *Checker) conditions() string {
	return fmt.Sprintf("X=%s P=%s P1(static subtype)=%v P2(never subtype)=%v P3(runtime checkable)=%v",
		c.X, c.P, c.p1, c.p2, c.p3)
}

func (c *Checker) compute() Checkability {
	// Erroneous inputs make every subtyping query meaningless; bail out
	// before asking any.
	if c.X.IsErroneous() || c.P.IsErroneous() {
		return CheckabilityError
	}

	c.p1 = c.conformsToPattern(c.X, c.P)
	c.p2 = !c.ho.IsPrimitiveValueClass(c.psym()) && c.eng.IsNeverSubType(c.X, c.P)
	c.p3 = c.isNonRefinementClassType(c.P) && c.conformsToPattern(c.XR(), c.P)

	switch {
	case c.p1:
		return StaticallyTrue
	case c.p2:
		return StaticallyFalse
	case c.p3:
		return RuntimeCheckable
	}

	w, card := c.searchWitness()
	if w == nil {
		// The classifier could not explain its own verdict. Log for
		// post-mortem and say nothing stronger than "unknown".
		c.tracef("checkability: uncheckable with no witness: %s", c.conditions())

		return CheckabilityError
	}

	c.uncheckableType = w
	c.uncheckableCard = card

	return Uncheckable
}

func (c *Checker) tracef(format string, args ...interface{}) {
	if c.Trace != nil {
		c.Trace(format, args...)
	}
}

func (c *Checker) xsym() *types.Symbol {
	return c.to.Dealias(c.X).HeadSymbol()
}

func (c *Checker) psym() *types.Symbol {
	return c.to.Dealias(c.P).HeadSymbol()
}

// conformsToPattern checks plain subtyping of x against p with p's
// pattern type variables wildcarded. Plain subtyping, not a looser
// "matches" relation: the looser form wrongly reports runtime-checkable
// for tests that are in fact statically decided.
func (c *Checker) conformsToPattern(x, p *types.Type) bool {
	return c.to.SubtypeOf(x, wildcardQuantified(p))
}

// isNonRefinementClassType reports whether p is a plain class or trait
// reference. Refinements are decomposed by the call site, not here.
func (c *Checker) isNonRefinementClassType(p *types.Type) bool {
	ref := c.to.Dealias(p).Ref()

	return ref != nil && c.ho.IsClass(ref.Sym)
}

// wildcardQuantified substitutes an unconstrained wildcard for every
// quantified (pattern-introduced) type variable occurring in t.
func wildcardQuantified(t *types.Type) *types.Type {
	quantified := make(map[*types.Symbol]*types.Type)
	collectQuantified(t, quantified)

	if len(quantified) == 0 {
		return t
	}

	return types.SubstSyms(t, quantified)
}

func collectQuantified(t *types.Type, out map[*types.Symbol]*types.Type) {
	if t == nil {
		return
	}

	switch t.Kind {
	case types.KindRef:
		ref := t.Ref()
		if ref.Sym.Quantified {
			out[ref.Sym] = types.Wildcard
		}

		for _, a := range ref.Args {
			collectQuantified(a, out)
		}
	case types.KindRefined:
		for _, p := range t.Refined().Parents {
			collectQuantified(p, out)
		}
	case types.KindExistential:
		ex := t.Existential()
		for _, b := range ex.Bound {
			out[b] = types.Wildcard
		}

		collectQuantified(ex.Underlying, out)
	case types.KindAnnotated:
		collectQuantified(t.Annotated().Underlying, out)
	}
}

// ====== Knowledge Propagation ======

// XR is the best refinement of X under the assumption that the tested
// value is also a P: what the scrutinee's static type forces P's type
// arguments to be.
func (c *Checker) XR() *types.Type {
	if !c.xrDone {
		c.xr = c.propagateKnownTypes()
		c.xrDone = true
	}

	return c.xr
}

func (c *Checker) propagateKnownTypes() *types.Type {
	psym := c.psym()
	if psym == nil {
		return c.X
	}

	// A scrutinee known only as the top type tells us nothing beyond
	// P's erased shape.
	if c.xsym() == c.ho.Top() {
		return c.classExistential(psym)
	}

	params := c.ho.TypeParams(psym)
	if len(params) == 0 {
		return c.to.AppliedType(psym, nil)
	}

	// Instantiate P's head with fresh inference variables and solve
	// them against X's view at every shared base class.
	fresh := make([]*types.Symbol, len(params))
	freshRefs := make([]*types.Type, len(params))
	freshIndex := make(map[*types.Symbol]int, len(params))

	for i, p := range params {
		fresh[i] = types.NewQuantified(p.Sym.Name)
		freshRefs[i] = types.NewRef(fresh[i])
		freshIndex[fresh[i]] = i
	}

	generic := c.to.AppliedType(psym, freshRefs)
	bindings := make([]*types.Type, len(params))

	for _, bc := range c.ho.Ancestors(psym) {
		xb := c.to.BaseType(c.X, bc)
		if xb == nil {
			continue
		}

		pb := c.to.BaseType(generic, bc)
		if pb == nil {
			continue
		}

		xref, pref := xb.Ref(), pb.Ref()
		if xref == nil || pref == nil {
			continue
		}

		c.unifyArgs(xref.Args, pref.Args, freshIndex, bindings)
	}

	args := make([]*types.Type, len(params))

	for i, p := range params {
		switch {
		case bindings[i] != nil:
			args[i] = bindings[i]
		case p.Upper != nil:
			args[i] = p.Upper
		default:
			args[i] = types.Wildcard
		}
	}

	return c.to.AppliedType(psym, args)
}

// unifyArgs solves fresh variables by plain type equality, even for
// variant parameters. Solving with a variance-respecting join here
// loosens P3 and changes downstream verdicts; the stricter equality
// result is the one the rest of the analysis is calibrated against.
func (c *Checker) unifyArgs(xargs, pargs []*types.Type, freshIndex map[*types.Symbol]int, bindings []*types.Type) {
	n := len(xargs)
	if len(pargs) < n {
		n = len(pargs)
	}

	for i := 0; i < n; i++ {
		c.unify(xargs[i], pargs[i], freshIndex, bindings)
	}
}

func (c *Checker) unify(x, p *types.Type, freshIndex map[*types.Symbol]int, bindings []*types.Type) {
	if pref := p.Ref(); pref != nil && len(pref.Args) == 0 {
		if idx, ok := freshIndex[pref.Sym]; ok {
			// First solution wins; a conflicting rebinding is dropped.
			if bindings[idx] == nil {
				bindings[idx] = x
			}

			return
		}
	}

	xref, pref := x.Ref(), p.Ref()
	if xref != nil && pref != nil && xref.Sym == pref.Sym {
		c.unifyArgs(xref.Args, pref.Args, freshIndex, bindings)
	}
}

// classExistential abstracts P's head to its erasure-level shape: the
// erased constructor applied to its own parameters, existentially bound.
func (c *Checker) classExistential(psym *types.Symbol) *types.Type {
	params := c.ho.TypeParams(psym)
	erased := c.to.ErasureOf(psym)

	if len(params) == 0 {
		return c.to.AppliedType(erased, nil)
	}

	bound := make([]*types.Symbol, len(params))
	refs := make([]*types.Type, len(params))

	for i, p := range params {
		bound[i] = p.Sym
		refs[i] = types.NewRef(p.Sym)
	}

	return c.to.ExistentialAbstraction(bound, c.to.AppliedType(erased, refs))
}
