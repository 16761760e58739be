// Uncheckable-witness search: when a test is neither statically decided
// nor runtime-checkable, locate the type argument inside P whose runtime
// identity erasure has discarded.

package checkability

import (
	"github.com/orizon-lang/matchcheck/internal/types"
)

// searchWitness returns the first offending type argument and the
// cardinality of the offense: 1 for exactly one offending argument, 2
// for two-or-more. Two-or-more is deliberately collapsed into one
// bucket; call sites phrase the generic "eliminated by erasure" message
// for it instead of naming an argument the others would appear to be
// cleared by.
func (c *Checker) searchWitness() (*types.Type, int) {
	psym := c.psym()
	if psym != nil && c.ho.IsAbstractType(psym) {
		// The whole pattern is an abstract type: the pattern itself is
		// the witness.
		return c.P, 1
	}

	cands := c.collectCandidates()
	if len(cands) == 0 {
		return nil, 0
	}

	masked := make(map[*types.Type]bool, len(cands))
	for _, t := range cands {
		masked[t] = true
	}

	var first *types.Type

	count := 0

	for _, targ := range cands {
		derived := maskOthers(c.P, targ, masked)
		if !c.to.SubtypeOf(c.XR(), derived) {
			if first == nil {
				first = targ
			}

			count++
			if count == 2 {
				break
			}
		}
	}

	return first, count
}

// collectCandidates gathers the type arguments in P's top-level shape,
// in a fixed left-to-right traversal order: refinement parents are
// flattened, array element types are looked into (an abstract element is
// itself the candidate), existential binders are recorded as quantified.
// Wildcards, suppressed arguments, and quantified variables are never
// candidates.
func (c *Checker) collectCandidates() []*types.Type {
	var out []*types.Type

	quantified := make(map[*types.Symbol]bool)

	var walk func(t *types.Type)
	walk = func(t *types.Type) {
		switch t.Kind {
		case types.KindAnnotated:
			ann := t.Annotated()
			if ann.Unchecked {
				return
			}

			walk(ann.Underlying)
		case types.KindExistential:
			ex := t.Existential()
			for _, b := range ex.Bound {
				quantified[b] = true
			}

			walk(ex.Underlying)
		case types.KindRefined:
			for _, p := range t.Refined().Parents {
				walk(p)
			}
		case types.KindRef:
			ref := t.Ref()

			if ref.Sym == c.ho.Array() && len(ref.Args) == 1 {
				elem := ref.Args[0]
				if h := elem.HeadSymbol(); h != nil && c.ho.IsAbstractType(h) {
					if !c.excludedCandidate(elem, quantified) {
						out = append(out, elem)
					}

					return
				}

				walk(elem)

				return
			}

			for _, arg := range ref.Args {
				if !c.excludedCandidate(arg, quantified) {
					out = append(out, arg)
				}
			}
		}
	}

	walk(c.to.Dealias(c.P))

	return out
}

func (c *Checker) excludedCandidate(arg *types.Type, quantified map[*types.Symbol]bool) bool {
	if arg.Kind == types.KindWildcard {
		return true
	}

	if arg.IsUncheckedAnnotated() {
		return true
	}

	if h := arg.HeadSymbol(); h != nil && (h.Quantified || quantified[h]) {
		return true
	}

	return false
}

// maskOthers rebuilds t with every candidate other than keep replaced by
// a wildcard. Candidates are identified by node identity within P.
func maskOthers(t *types.Type, keep *types.Type, masked map[*types.Type]bool) *types.Type {
	if t == keep {
		return t
	}

	if masked[t] {
		return types.Wildcard
	}

	switch t.Kind {
	case types.KindRef:
		ref := t.Ref()
		args := make([]*types.Type, len(ref.Args))
		changed := false

		for i, a := range ref.Args {
			args[i] = maskOthers(a, keep, masked)
			changed = changed || args[i] != a
		}

		if !changed {
			return t
		}

		return types.NewRef(ref.Sym, args...)
	case types.KindRefined:
		rt := t.Refined()
		parents := make([]*types.Type, len(rt.Parents))
		changed := false

		for i, p := range rt.Parents {
			parents[i] = maskOthers(p, keep, masked)
			changed = changed || parents[i] != p
		}

		if !changed {
			return t
		}

		return types.NewRefined(rt.HasDecls, parents...)
	case types.KindExistential:
		ex := t.Existential()

		u := maskOthers(ex.Underlying, keep, masked)
		if u == ex.Underlying {
			return t
		}

		return types.NewExistential(ex.Bound, u)
	case types.KindAnnotated:
		ann := t.Annotated()

		u := maskOthers(ann.Underlying, keep, masked)
		if u == ann.Underlying {
			return t
		}

		if ann.Unchecked {
			return types.NewUnchecked(u)
		}

		return u
	default:
		return t
	}
}
