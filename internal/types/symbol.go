// Symbol model for the matchcheck analyzer.
// Symbols identify classes, traits, abstract types, and aliases. They are
// resolved in two explicit phases: a symbol is created Unresolved and
// later carries a SymbolInfo once the surrounding driver elaborates it.

package types

import (
	"errors"
	"fmt"
)

// ====== Variance ======

// Variance represents the variance of a type parameter.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// String returns the string representation of a Variance.
func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "invalid"
	}
}

// TypeParam is a formal type parameter of a class-like symbol.
type TypeParam struct {
	Sym      *Symbol
	Variance Variance
	Upper    *Type // declared upper bound; nil means unbounded
}

// ====== Symbol Kinds ======

// SymbolKind classifies a resolved symbol.
type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolTrait
	SymbolAbstractType
	SymbolAlias
)

// String returns the string representation of a SymbolKind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolClass:
		return "class"
	case SymbolTrait:
		return "trait"
	case SymbolAbstractType:
		return "abstract type"
	case SymbolAlias:
		return "type alias"
	default:
		return "invalid"
	}
}

// ====== Symbol ======

// ErrUnresolved is returned by queries that require a resolved symbol.
var ErrUnresolved = errors.New("symbol not yet resolved")

// SymbolInfo is the resolved view of a symbol. It is attached exactly
// once; afterwards only the Children set may grow, until the hierarchy
// checkpoint closes it.
type SymbolInfo struct {
	Kind           SymbolKind
	Sealed         bool
	Final          bool
	PrimitiveValue bool

	// NotOverridden marks a symbol the driver knows has no overriding
	// subclass even though it is not declared final. Together with Final
	// it decides effective finality.
	NotOverridden bool
	TypeParams     []TypeParam
	Parents        []*Type // direct parents, written over the formal params
	Alias          *Type   // alias target, SymbolAlias only
	Children       []*Symbol
}

// Symbol identifies a class, trait, abstract type, or alias. Symbols are
// owned by the hierarchy store; the analyzer only reads them.
type Symbol struct {
	Name string

	// Quantified marks a pattern-introduced or existentially bound type
	// variable. It is a creation-time property, not part of resolution.
	Quantified bool

	info *SymbolInfo
}

// NewSymbol creates an unresolved symbol.
func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

// NewQuantified creates a quantified type-variable symbol. Pattern type
// variables and existential binders are created through this form.
func NewQuantified(name string) *Symbol {
	return &Symbol{Name: name, Quantified: true}
}

// Resolved reports whether the symbol carries its info.
func (s *Symbol) Resolved() bool {
	return s.info != nil
}

// Resolve attaches the symbol's info. Resolving twice is a driver bug.
func (s *Symbol) Resolve(info *SymbolInfo) {
	if s.info != nil {
		panic(fmt.Sprintf("symbol %s resolved twice", s.Name))
	}

	s.info = info
}

// Info returns the resolved info, or ErrUnresolved. Callers that can
// tolerate incomplete knowledge use the boolean helpers instead.
func (s *Symbol) Info() (*SymbolInfo, error) {
	if s.info == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, s.Name)
	}

	return s.info, nil
}

// ====== Conservative Boolean Views ======
// Unresolved symbols answer false to every query below. Queries whose
// precision matters for soundness (effective finality, sealed children)
// go through the fallible accessors on the hierarchy store instead.

// IsClass reports whether the symbol is a class or trait.
func (s *Symbol) IsClass() bool {
	return s.info != nil && (s.info.Kind == SymbolClass || s.info.Kind == SymbolTrait)
}

// IsTrait reports whether the symbol is a trait.
func (s *Symbol) IsTrait() bool {
	return s.info != nil && s.info.Kind == SymbolTrait
}

// IsAbstractType reports whether the symbol is an abstract type member
// or a quantified type variable.
func (s *Symbol) IsAbstractType() bool {
	if s.Quantified {
		return true
	}

	return s.info != nil && s.info.Kind == SymbolAbstractType
}

// IsSealed reports whether the symbol is sealed.
func (s *Symbol) IsSealed() bool {
	return s.info != nil && s.info.Sealed
}

// IsFinal reports whether the symbol is final.
func (s *Symbol) IsFinal() bool {
	return s.info != nil && s.info.Final
}

// IsPrimitiveValueClass reports whether the symbol is a primitive value
// class.
func (s *Symbol) IsPrimitiveValueClass() bool {
	return s.info != nil && s.info.PrimitiveValue
}

// String returns the symbol's name.
func (s *Symbol) String() string {
	return s.Name
}
