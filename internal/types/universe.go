// In-memory symbol store implementing the TypeOracle and HierarchyOracle
// interfaces. The Universe is the reference collaborator used by the CLI
// driver and the test suites; a compiler front end would substitute its
// own symbol table behind the same interfaces.

package types

// Universe owns the symbols of one analysis run and answers every oracle
// query from them. It is not safe for concurrent mutation; queries are
// read-only once elaboration has populated the store.
type Universe struct {
	symbols map[string]*Symbol
	top     *Symbol
	array   *Symbol
}

// NewUniverse creates a store pre-populated with the universal top type
// and the array constructor.
func NewUniverse() *Universe {
	u := &Universe{symbols: make(map[string]*Symbol)}

	u.top = u.Declare("Any")
	u.top.Resolve(&SymbolInfo{Kind: SymbolClass})

	elem := NewQuantified("T")
	u.array = u.Declare("Array")
	u.array.Resolve(&SymbolInfo{
		Kind:       SymbolClass,
		Final:      true,
		TypeParams: []TypeParam{{Sym: elem, Variance: Invariant}},
		Parents:    []*Type{NewRef(u.top)},
	})

	return u
}

// Declare returns the named symbol, creating it unresolved if needed.
// Forward references during elaboration go through Declare.
func (u *Universe) Declare(name string) *Symbol {
	if s, ok := u.symbols[name]; ok {
		return s
	}

	s := NewSymbol(name)
	u.symbols[name] = s

	return s
}

// Lookup returns the named symbol, or nil.
func (u *Universe) Lookup(name string) *Symbol {
	return u.symbols[name]
}

// Define declares the named symbol and resolves it in one step. Children
// registration for sealed or final parents happens here: defining a
// symbol whose parent is sealed appends it to that parent's known
// children, modeling how elaboration discovers a hierarchy over time.
func (u *Universe) Define(name string, info *SymbolInfo) *Symbol {
	s := u.Declare(name)

	if info.Kind == SymbolClass || info.Kind == SymbolTrait {
		if len(info.Parents) == 0 {
			info.Parents = []*Type{NewRef(u.top)}
		}
	}

	s.Resolve(info)

	for _, p := range info.Parents {
		head := p.HeadSymbol()
		if head == nil || head.info == nil {
			continue
		}

		if head.info.Sealed || head.info.Final {
			head.info.Children = append(head.info.Children, s)
		}
	}

	return s
}

// ====== HierarchyOracle ======

func (u *Universe) IsClass(sym *Symbol) bool        { return sym != nil && sym.IsClass() }
func (u *Universe) IsTrait(sym *Symbol) bool        { return sym != nil && sym.IsTrait() }
func (u *Universe) IsAbstractType(sym *Symbol) bool { return sym != nil && sym.IsAbstractType() }
func (u *Universe) IsSealed(sym *Symbol) bool       { return sym != nil && sym.IsSealed() }
func (u *Universe) IsFinal(sym *Symbol) bool        { return sym != nil && sym.IsFinal() }

func (u *Universe) IsPrimitiveValueClass(sym *Symbol) bool {
	return sym != nil && sym.IsPrimitiveValueClass()
}

// IsEffectivelyFinal requires the symbol to be resolved: finality cannot
// be trusted on a symbol whose declaration has not been seen yet.
func (u *Universe) IsEffectivelyFinal(sym *Symbol) (bool, error) {
	info, err := sym.Info()
	if err != nil {
		return false, err
	}

	return info.Final || info.NotOverridden, nil
}

// TypeParams returns the formal parameters of a resolved symbol, or nil.
func (u *Universe) TypeParams(sym *Symbol) []TypeParam {
	if sym == nil || sym.info == nil {
		return nil
	}

	return sym.info.TypeParams
}

// SealedChildren returns the children known so far. Before the
// elaboration checkpoint this may be an undercount.
func (u *Universe) SealedChildren(sym *Symbol) []*Symbol {
	if sym == nil || sym.info == nil {
		return nil
	}

	return sym.info.Children
}

// IsSubClass reports whether sub has super among its ancestors.
func (u *Universe) IsSubClass(sub, super *Symbol) bool {
	if sub == nil || super == nil {
		return false
	}

	if sub == super {
		return true
	}

	if super == u.top && sub.IsClass() {
		return true
	}

	for _, anc := range u.Ancestors(sub) {
		if anc == super {
			return true
		}
	}

	return false
}

// Ancestors returns sym followed by its transitive parents, depth-first
// in declaration order, deduplicated.
func (u *Universe) Ancestors(sym *Symbol) []*Symbol {
	var out []*Symbol

	seen := make(map[*Symbol]bool)

	var walk func(s *Symbol)
	walk = func(s *Symbol) {
		if s == nil || seen[s] {
			return
		}

		seen[s] = true
		out = append(out, s)

		if s.info == nil {
			return
		}

		for _, p := range s.info.Parents {
			walk(u.Dealias(p).HeadSymbol())
		}
	}

	walk(sym)

	return out
}

// Top returns the universal top type's symbol.
func (u *Universe) Top() *Symbol { return u.top }

// Array returns the array constructor's symbol.
func (u *Universe) Array() *Symbol { return u.array }

// ====== TypeOracle ======

// Dealias expands top-level alias references.
func (u *Universe) Dealias(t *Type) *Type {
	for {
		ref := t.Ref()
		if ref == nil || ref.Sym.info == nil || ref.Sym.info.Kind != SymbolAlias {
			return t
		}

		info := ref.Sym.info
		repl := paramSubst(info.TypeParams, ref.Args)
		t = SubstSyms(info.Alias, repl)
	}
}

// Widen is the identity in this store: the model carries no singleton or
// narrowed types. The method exists so callers normalize uniformly.
func (u *Universe) Widen(t *Type) *Type { return t }

// AppliedType constructs sym applied to args.
func (u *Universe) AppliedType(sym *Symbol, args []*Type) *Type {
	return NewRef(sym, args...)
}

// ExistentialAbstraction quantifies bound out of underlying.
func (u *Universe) ExistentialAbstraction(bound []*Symbol, underlying *Type) *Type {
	if len(bound) == 0 {
		return underlying
	}

	return NewExistential(bound, underlying)
}

// ErasureOf returns the erased constructor: aliases erase to the head of
// their expansion, everything else to itself.
func (u *Universe) ErasureOf(sym *Symbol) *Symbol {
	if sym.info != nil && sym.info.Kind == SymbolAlias {
		head := u.Dealias(NewRef(sym)).HeadSymbol()
		if head != nil && head != sym {
			return u.ErasureOf(head)
		}
	}

	return sym
}

// BaseType computes the view of t as an instance of sym by walking
// parents with argument substitution.
func (u *Universe) BaseType(t *Type, sym *Symbol) *Type {
	if t == nil || sym == nil {
		return nil
	}

	switch t.Kind {
	case KindAnnotated:
		return u.BaseType(t.Annotated().Underlying, sym)
	case KindExistential:
		return u.BaseType(wildcardOut(t.Existential()), sym)
	case KindRefined:
		for _, p := range t.Refined().Parents {
			if bt := u.BaseType(p, sym); bt != nil {
				return bt
			}
		}

		return nil
	case KindRef:
		t = u.Dealias(t)

		ref := t.Ref()
		if ref == nil {
			return u.BaseType(t, sym)
		}

		if ref.Sym == sym {
			return t
		}

		if sym == u.top && ref.Sym.IsClass() {
			return NewRef(u.top)
		}

		info := ref.Sym.info
		if info == nil {
			return nil
		}

		repl := paramSubst(info.TypeParams, ref.Args)
		for _, parent := range info.Parents {
			if bt := u.BaseType(SubstSyms(parent, repl), sym); bt != nil {
				return bt
			}
		}

		return nil
	default:
		return nil
	}
}

// SubtypeOf reports whether a conforms to b.
func (u *Universe) SubtypeOf(a, b *Type) bool {
	return u.conforms(a, b)
}

// SameType reports whether a and b are the same type.
func (u *Universe) SameType(a, b *Type) bool {
	if a != nil && b != nil && a.Kind == KindWildcard && b.Kind == KindWildcard {
		return true
	}

	return u.conforms(a, b) && u.conforms(b, a)
}

func (u *Universe) conforms(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}

	if a.Kind == KindErroneous || b.Kind == KindErroneous {
		return false
	}

	// Annotations are transparent to conformance.
	if ann := a.Annotated(); ann != nil {
		return u.conforms(ann.Underlying, b)
	}

	if ann := b.Annotated(); ann != nil {
		return u.conforms(a, ann.Underlying)
	}

	if b.Kind == KindWildcard {
		return true
	}

	a = u.Dealias(a)
	b = u.Dealias(b)

	if rb := b.Ref(); rb != nil && rb.Sym == u.top {
		return true
	}

	// A top-level wildcard on the left conforms only to wildcards and
	// the top type, both handled above.
	if a.Kind == KindWildcard {
		return false
	}

	// Existentials: conformance against an existential holds when it
	// holds against the underlying with the binders unconstrained.
	if ex := b.Existential(); ex != nil {
		return u.conforms(a, wildcardOut(ex))
	}

	if ex := a.Existential(); ex != nil {
		return u.conforms(wildcardOut(ex), b)
	}

	// Refinement on the right: every parent must be satisfied, and a
	// refinement with its own declarations cannot be proven here.
	if rt := b.Refined(); rt != nil {
		if rt.HasDecls {
			return false
		}

		for _, p := range rt.Parents {
			if !u.conforms(a, p) {
				return false
			}
		}

		return true
	}

	// Refinement on the left: any parent view suffices.
	if rt := a.Refined(); rt != nil {
		for _, p := range rt.Parents {
			if u.conforms(p, b) {
				return true
			}
		}

		return false
	}

	ra, rb := a.Ref(), b.Ref()
	if ra == nil || rb == nil {
		return false
	}

	if ra.Sym == rb.Sym {
		return u.argsConform(ra.Args, rb.Args, u.TypeParams(rb.Sym))
	}

	// Abstract types and quantified variables conform through their
	// declared bounds.
	if ra.Sym.IsAbstractType() {
		if ra.Sym.info != nil {
			for _, upper := range ra.Sym.info.Parents {
				if u.conforms(upper, b) {
					return true
				}
			}
		}

		return false
	}

	base := u.BaseType(a, rb.Sym)
	if base == nil {
		return false
	}

	baseRef := base.Ref()
	if baseRef == nil {
		return false
	}

	return u.argsConform(baseRef.Args, rb.Args, u.TypeParams(rb.Sym))
}

// argsConform checks parallel argument lists under the parameters'
// variances. A wildcard on the right accepts anything; a wildcard on the
// left conforms to nothing concrete.
func (u *Universe) argsConform(as, bs []*Type, params []TypeParam) bool {
	if len(as) != len(bs) {
		return false
	}

	for i := range as {
		if bs[i].Kind == KindWildcard {
			continue
		}

		if as[i].Kind == KindWildcard {
			return false
		}

		variance := Invariant
		if i < len(params) {
			variance = params[i].Variance
		}

		switch variance {
		case Covariant:
			if !u.conforms(as[i], bs[i]) {
				return false
			}
		case Contravariant:
			if !u.conforms(bs[i], as[i]) {
				return false
			}
		default:
			if !u.SameType(as[i], bs[i]) {
				return false
			}
		}
	}

	return true
}

// ====== Helpers ======

func paramSubst(params []TypeParam, args []*Type) map[*Symbol]*Type {
	n := len(params)
	if len(args) < n {
		n = len(args)
	}

	repl := make(map[*Symbol]*Type, n)
	for i := 0; i < n; i++ {
		repl[params[i].Sym] = args[i]
	}

	return repl
}

func wildcardOut(ex *ExistentialType) *Type {
	repl := make(map[*Symbol]*Type, len(ex.Bound))
	for _, b := range ex.Bound {
		repl[b] = Wildcard
	}

	return SubstSyms(ex.Underlying, repl)
}
