// Basic type expression model for the matchcheck analyzer.
// This module provides the immutable type values the checkability
// classifier reasons about.

package types

import (
	"fmt"
	"strings"
)

// ====== Core Type Model ======

// TypeKind represents the kind of a type expression.
type TypeKind int

const (
	// KindRef is a class, trait, or abstract-type reference with its
	// (possibly empty) type arguments.
	KindRef TypeKind = iota

	// KindRefined is a structural refinement over a list of parents.
	KindRefined

	// KindExistential is an existentially quantified type.
	KindExistential

	// KindAnnotated wraps a type carrying an annotation; the only
	// annotation the analyzer interprets is the "unchecked" suppression.
	KindAnnotated

	// KindWildcard is the unconstrained placeholder. It stands both for
	// source-level wildcards and for "don't care" positions substituted
	// in by the analyzer.
	KindWildcard

	// KindErroneous marks a type that already failed to elaborate
	// upstream.
	KindErroneous
)

// String returns the string representation of a TypeKind.
func (tk TypeKind) String() string {
	switch tk {
	case KindRef:
		return "ref"
	case KindRefined:
		return "refined"
	case KindExistential:
		return "existential"
	case KindAnnotated:
		return "annotated"
	case KindWildcard:
		return "wildcard"
	case KindErroneous:
		return "erroneous"
	default:
		return "invalid"
	}
}

// Type represents an immutable type expression. The analyzer never
// mutates a Type; it only derives new ones.
type Type struct {
	Kind TypeKind
	Data interface{} // Kind-specific payload, nil for Wildcard/Erroneous
}

// RefType is the payload of a KindRef type.
type RefType struct {
	Sym  *Symbol
	Args []*Type
}

// RefinedType is the payload of a KindRefined type. HasDecls marks
// whether the refinement declares members beyond its parents.
type RefinedType struct {
	Parents  []*Type
	HasDecls bool
}

// ExistentialType is the payload of a KindExistential type.
type ExistentialType struct {
	Bound      []*Symbol
	Underlying *Type
}

// AnnotatedType is the payload of a KindAnnotated type.
type AnnotatedType struct {
	Underlying *Type
	Unchecked  bool // true for the "don't warn" suppression annotation
}

// ====== Singletons ======

var (
	// Wildcard is the shared unconstrained placeholder.
	Wildcard = &Type{Kind: KindWildcard}

	// Erroneous is the shared upstream-error sentinel.
	Erroneous = &Type{Kind: KindErroneous}
)

// ====== Type Construction Functions ======

// NewRef creates a class/trait/abstract-type reference.
func NewRef(sym *Symbol, args ...*Type) *Type {
	return &Type{
		Kind: KindRef,
		Data: &RefType{Sym: sym, Args: args},
	}
}

// NewRefined creates a structural refinement type.
func NewRefined(hasDecls bool, parents ...*Type) *Type {
	return &Type{
		Kind: KindRefined,
		Data: &RefinedType{Parents: parents, HasDecls: hasDecls},
	}
}

// NewExistential creates an existentially quantified type.
func NewExistential(bound []*Symbol, underlying *Type) *Type {
	return &Type{
		Kind: KindExistential,
		Data: &ExistentialType{Bound: bound, Underlying: underlying},
	}
}

// NewUnchecked wraps a type in the "don't warn" suppression annotation.
func NewUnchecked(underlying *Type) *Type {
	return &Type{
		Kind: KindAnnotated,
		Data: &AnnotatedType{Underlying: underlying, Unchecked: true},
	}
}

// ====== Payload Accessors ======

// Ref returns the RefType payload, or nil if the type is not a reference.
func (t *Type) Ref() *RefType {
	if t == nil || t.Kind != KindRef {
		return nil
	}

	return t.Data.(*RefType)
}

// Refined returns the RefinedType payload, or nil.
func (t *Type) Refined() *RefinedType {
	if t == nil || t.Kind != KindRefined {
		return nil
	}

	return t.Data.(*RefinedType)
}

// Existential returns the ExistentialType payload, or nil.
func (t *Type) Existential() *ExistentialType {
	if t == nil || t.Kind != KindExistential {
		return nil
	}

	return t.Data.(*ExistentialType)
}

// Annotated returns the AnnotatedType payload, or nil.
func (t *Type) Annotated() *AnnotatedType {
	if t == nil || t.Kind != KindAnnotated {
		return nil
	}

	return t.Data.(*AnnotatedType)
}

// ====== Type Properties ======

// HeadSymbol returns the head symbol of the type, looking through
// annotations and existential binders. Refinements, wildcards, and
// erroneous types have no head symbol.
func (t *Type) HeadSymbol() *Symbol {
	switch t.Kind {
	case KindRef:
		return t.Ref().Sym
	case KindAnnotated:
		return t.Annotated().Underlying.HeadSymbol()
	case KindExistential:
		return t.Existential().Underlying.HeadSymbol()
	default:
		return nil
	}
}

// IsErroneous reports whether the type carries an upstream error marker
// anywhere in its structure.
func (t *Type) IsErroneous() bool {
	if t == nil {
		return false
	}

	switch t.Kind {
	case KindErroneous:
		return true
	case KindRef:
		for _, arg := range t.Ref().Args {
			if arg.IsErroneous() {
				return true
			}
		}

		return false
	case KindRefined:
		for _, p := range t.Refined().Parents {
			if p.IsErroneous() {
				return true
			}
		}

		return false
	case KindExistential:
		return t.Existential().Underlying.IsErroneous()
	case KindAnnotated:
		return t.Annotated().Underlying.IsErroneous()
	default:
		return false
	}
}

// IsUncheckedAnnotated reports whether the type itself carries the
// "don't warn" suppression annotation.
func (t *Type) IsUncheckedAnnotated() bool {
	ann := t.Annotated()

	return ann != nil && ann.Unchecked
}

// ====== Substitution ======

// SubstSyms returns a copy of the type in which every bare reference to
// a symbol in the map is replaced by its image. References with type
// arguments are rebuilt with substituted arguments instead.
func SubstSyms(t *Type, repl map[*Symbol]*Type) *Type {
	if t == nil || len(repl) == 0 {
		return t
	}

	switch t.Kind {
	case KindRef:
		ref := t.Ref()
		if img, ok := repl[ref.Sym]; ok && len(ref.Args) == 0 {
			return img
		}

		args := make([]*Type, len(ref.Args))
		changed := false

		for i, a := range ref.Args {
			args[i] = SubstSyms(a, repl)
			changed = changed || args[i] != a
		}

		if !changed {
			return t
		}

		return NewRef(ref.Sym, args...)
	case KindRefined:
		rt := t.Refined()
		parents := make([]*Type, len(rt.Parents))
		changed := false

		for i, p := range rt.Parents {
			parents[i] = SubstSyms(p, repl)
			changed = changed || parents[i] != p
		}

		if !changed {
			return t
		}

		return NewRefined(rt.HasDecls, parents...)
	case KindExistential:
		ex := t.Existential()
		// Bound symbols shadow outer substitutions.
		inner := repl

		for _, b := range ex.Bound {
			if _, ok := repl[b]; ok {
				inner = make(map[*Symbol]*Type, len(repl))
				for k, v := range repl {
					inner[k] = v
				}

				for _, s := range ex.Bound {
					delete(inner, s)
				}

				break
			}
		}

		u := SubstSyms(ex.Underlying, inner)
		if u == ex.Underlying {
			return t
		}

		return NewExistential(ex.Bound, u)
	case KindAnnotated:
		ann := t.Annotated()

		u := SubstSyms(ann.Underlying, repl)
		if u == ann.Underlying {
			return t
		}

		return &Type{Kind: KindAnnotated, Data: &AnnotatedType{Underlying: u, Unchecked: ann.Unchecked}}
	default:
		return t
	}
}

// ====== String Representation ======

// String returns the source-like rendering of the type.
func (t *Type) String() string {
	if t == nil {
		return "<none>"
	}

	switch t.Kind {
	case KindRef:
		ref := t.Ref()
		if len(ref.Args) == 0 {
			return ref.Sym.Name
		}

		args := make([]string, len(ref.Args))
		for i, a := range ref.Args {
			args[i] = a.String()
		}

		return fmt.Sprintf("%s[%s]", ref.Sym.Name, strings.Join(args, ", "))
	case KindRefined:
		rt := t.Refined()
		parents := make([]string, len(rt.Parents))

		for i, p := range rt.Parents {
			parents[i] = p.String()
		}

		s := strings.Join(parents, " with ")
		if rt.HasDecls {
			s += " {...}"
		}

		return s
	case KindExistential:
		ex := t.Existential()
		names := make([]string, len(ex.Bound))

		for i, b := range ex.Bound {
			names[i] = b.Name
		}

		return fmt.Sprintf("some[%s] %s", strings.Join(names, ", "), ex.Underlying.String())
	case KindAnnotated:
		ann := t.Annotated()
		if ann.Unchecked {
			return ann.Underlying.String() + " @unchecked"
		}

		return ann.Underlying.String()
	case KindWildcard:
		return "_"
	case KindErroneous:
		return "<error>"
	default:
		return fmt.Sprintf("<%s>", t.Kind)
	}
}
