// Oracle interfaces consumed by the checkability analyzer. The analyzer
// itself never stores type or hierarchy state; everything it knows it
// learns through these two read-only views.

package types

// TypeOracle answers subtyping and type-derivation queries. All methods
// are synchronous and perform no I/O.
type TypeOracle interface {
	// SubtypeOf reports whether a conforms to b.
	SubtypeOf(a, b *Type) bool

	// SameType reports whether a and b are the same type.
	SameType(a, b *Type) bool

	// Dealias expands alias references until a non-alias head is reached.
	Dealias(t *Type) *Type

	// Widen replaces narrowed views of a type with its underlying type.
	Widen(t *Type) *Type

	// BaseType computes the view of t as an instance of sym, or nil when
	// sym is not a base of t.
	BaseType(t *Type, sym *Symbol) *Type

	// AppliedType constructs sym applied to the given arguments.
	AppliedType(sym *Symbol, args []*Type) *Type

	// ExistentialAbstraction quantifies the bound symbols out of
	// underlying.
	ExistentialAbstraction(bound []*Symbol, underlying *Type) *Type

	// ErasureOf returns the erased type constructor of sym: the symbol a
	// runtime instance test can actually observe.
	ErasureOf(sym *Symbol) *Symbol
}

// HierarchyOracle answers per-symbol class hierarchy queries. Children
// of sealed symbols may be incomplete until the driver's elaboration
// checkpoint; results depending on them are provisional until then.
type HierarchyOracle interface {
	IsClass(sym *Symbol) bool
	IsTrait(sym *Symbol) bool
	IsAbstractType(sym *Symbol) bool
	IsSealed(sym *Symbol) bool
	IsFinal(sym *Symbol) bool
	IsPrimitiveValueClass(sym *Symbol) bool

	// IsEffectivelyFinal reports whether the symbol is final or has no
	// overriding subclass. It requires the symbol to be resolved and
	// returns ErrUnresolved otherwise; the driver must resolve symbols
	// before finality can be trusted.
	IsEffectivelyFinal(sym *Symbol) (bool, error)

	// TypeParams returns the symbol's formal type parameters in
	// declaration order.
	TypeParams(sym *Symbol) []TypeParam

	// SealedChildren returns the known direct children of a sealed or
	// final symbol. The set may be an undercount before the checkpoint.
	SealedChildren(sym *Symbol) []*Symbol

	// IsSubClass reports whether sub has super among its ancestors.
	IsSubClass(sub, super *Symbol) bool

	// Ancestors returns the symbol and its transitive parents in a
	// deterministic linearization order.
	Ancestors(sym *Symbol) []*Symbol

	// Top returns the universal top type's symbol.
	Top() *Symbol

	// Array returns the array constructor's symbol, whose single
	// argument is observable at runtime only through its erasure.
	Array() *Symbol
}
