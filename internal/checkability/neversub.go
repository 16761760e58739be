// Never-subtype and irreconcilability engine: lifts "no runtime value
// can be an instance of both" from pairs of class symbols to pairs of
// parameterized types.

package checkability

import (
	"github.com/orizon-lang/matchcheck/internal/types"
)

// maxIrreconcilableDepth bounds the sealed-children recursion. Sealed
// hierarchies are finite and acyclic by upstream construction, but this
// engine cannot prove that itself; past the bound it answers the
// conservative "not irreconcilable".
const maxIrreconcilableDepth = 64

// NeverSubEngine answers never-subtype queries against one hierarchy
// state. The isRecheck flag controls whether sealed children may be
// trusted for symbols still being elaborated.
type NeverSubEngine struct {
	to        types.TypeOracle
	ho        types.HierarchyOracle
	elab      ElaborationContext
	isRecheck bool
}

// IsNeverSubClass reports whether no runtime value can ever have both
// symbols among its ancestors.
func (e *NeverSubEngine) IsNeverSubClass(sym1, sym2 *types.Symbol) bool {
	if sym1 == nil || sym2 == nil {
		return false
	}

	return e.irreconcilableAsParents(sym1, sym2, 0)
}

func (e *NeverSubEngine) irreconcilableAsParents(s1, s2 *types.Symbol, depth int) bool {
	if depth > maxIrreconcilableDepth {
		return false
	}

	// Only class symbols can be irreconcilable; abstract types may be
	// instantiated to anything.
	if !e.ho.IsClass(s1) || !e.ho.IsClass(s2) {
		return false
	}

	if e.ho.IsSubClass(s1, s2) || e.ho.IsSubClass(s2, s1) {
		return false
	}

	// An effectively final symbol admits no further extension that
	// could reconcile the pair.
	if e.effectivelyFinal(s1) || e.effectivelyFinal(s2) {
		return true
	}

	// Two concrete classes cannot be combined the way traits can be
	// mixed together.
	if !e.ho.IsTrait(s1) && !e.ho.IsTrait(s2) {
		return true
	}

	if !e.ho.IsSealed(s1) && !e.ho.IsFinal(s1) && !e.ho.IsSealed(s2) && !e.ho.IsFinal(s2) {
		return false
	}

	// Children of a symbol still being elaborated may be an undercount;
	// trusting them would produce a false "irreconcilable". The caller
	// compensates by re-running the whole classification as a recheck
	// once the hierarchy is complete.
	if !e.isRecheck && e.elab != nil &&
		(e.elab.IsBeingElaborated(s1) || e.elab.IsBeingElaborated(s2)) {
		return false
	}

	for _, c1 := range e.children(s1) {
		for _, c2 := range e.children(s2) {
			if !e.irreconcilableAsParents(c1, c2, depth+1) {
				return false
			}
		}
	}

	return true
}

func (e *NeverSubEngine) effectivelyFinal(s *types.Symbol) bool {
	final, err := e.ho.IsEffectivelyFinal(s)
	if err != nil {
		// Unresolved symbol: finality cannot be trusted yet.
		return false
	}

	return final
}

// children returns the sealed children of a sealed or final symbol, or
// the symbol itself otherwise.
func (e *NeverSubEngine) children(s *types.Symbol) []*types.Symbol {
	if e.ho.IsSealed(s) || e.ho.IsFinal(s) {
		return e.ho.SealedChildren(s)
	}

	return []*types.Symbol{s}
}

// IsNeverSubType reports whether no value of tp1 can ever also be a
// value of tp2. The inconclusive cases answer false; not every
// unrelated-shape pair is provably never-subtype.
func (e *NeverSubEngine) IsNeverSubType(tp1, tp2 *types.Type) bool {
	tp1 = stripAnnotations(e.to.Dealias(tp1))
	tp2 = stripAnnotations(e.to.Dealias(tp2))

	r1, r2 := tp1.Ref(), tp2.Ref()
	if r1 == nil || r2 == nil {
		return false
	}

	if e.IsNeverSubClass(r1.Sym, r2.Sym) {
		return true
	}

	if e.ho.IsSubClass(r1.Sym, r2.Sym) {
		base := e.to.BaseType(tp1, r2.Sym)
		if base != nil {
			if bref := base.Ref(); bref != nil {
				return e.isNeverSubArgs(bref.Args, r2.Args, e.ho.TypeParams(r2.Sym))
			}
		}
	}

	return false
}

// isNeverSubArgs reports whether any parallel argument pair is
// never-compatible under its parameter's variance.
func (e *NeverSubEngine) isNeverSubArgs(args1, args2 []*types.Type, params []types.TypeParam) bool {
	n := len(args1)
	if len(args2) < n {
		n = len(args2)
	}

	if len(params) < n {
		n = len(params)
	}

	for i := 0; i < n; i++ {
		switch params[i].Variance {
		case types.Covariant:
			if e.IsNeverSubType(args2[i], args1[i]) {
				return true
			}
		case types.Contravariant:
			if e.IsNeverSubType(args1[i], args2[i]) {
				return true
			}
		default:
			if e.isNeverSameType(args1[i], args2[i]) {
				return true
			}
		}
	}

	return false
}

// isNeverSameType recurses structurally: irreconcilable heads, or the
// same head with never-compatible arguments.
func (e *NeverSubEngine) isNeverSameType(tp1, tp2 *types.Type) bool {
	tp1 = stripAnnotations(e.to.Dealias(tp1))
	tp2 = stripAnnotations(e.to.Dealias(tp2))

	r1, r2 := tp1.Ref(), tp2.Ref()
	if r1 == nil || r2 == nil {
		return false
	}

	if e.IsNeverSubClass(r1.Sym, r2.Sym) {
		return true
	}

	return r1.Sym == r2.Sym && e.isNeverSubArgs(r1.Args, r2.Args, e.ho.TypeParams(r1.Sym))
}

func stripAnnotations(t *types.Type) *types.Type {
	for {
		ann := t.Annotated()
		if ann == nil {
			return t
		}

		t = ann.Underlying
	}
}
