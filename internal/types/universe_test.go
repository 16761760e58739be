package types

import (
	"errors"
	"testing"
)

// hierarchy is the shared test fixture: a small class graph exercising
// variance, traits, aliases, and sealed children.
//
//	class Big; class Small extends Big
//	final class Str
//	trait Seq[A]; class List[A] extends Seq[A]
//	class Box[+A]; trait Cmp[-A]
//	trait TA; trait TB; class Mix extends TA with TB
//	abstract type Elem <: TA
//	type IntList = List[Int]; type Chan[A] = Seq[A]
//	sealed trait Closed; final class Leaf extends Closed
type hierarchy struct {
	u *Universe

	big, small, intSym, str          *Symbol
	seq, list, box, cmp              *Symbol
	ta, tb, mix, elem                *Symbol
	intList, chanAlias, closed, leaf *Symbol
}

func newHierarchy() *hierarchy {
	u := NewUniverse()
	h := &hierarchy{u: u}

	h.big = u.Define("Big", &SymbolInfo{Kind: SymbolClass})
	h.small = u.Define("Small", &SymbolInfo{
		Kind:    SymbolClass,
		Parents: []*Type{NewRef(h.big)},
	})
	h.intSym = u.Define("Int", &SymbolInfo{Kind: SymbolClass, Final: true, PrimitiveValue: true})
	h.str = u.Define("Str", &SymbolInfo{Kind: SymbolClass, Final: true})

	seqA := NewQuantified("A")
	h.seq = u.Define("Seq", &SymbolInfo{
		Kind:       SymbolTrait,
		TypeParams: []TypeParam{{Sym: seqA, Variance: Invariant}},
	})

	listA := NewQuantified("A")
	h.list = u.Define("List", &SymbolInfo{
		Kind:       SymbolClass,
		TypeParams: []TypeParam{{Sym: listA, Variance: Invariant}},
		Parents:    []*Type{NewRef(h.seq, NewRef(listA))},
	})

	boxA := NewQuantified("A")
	h.box = u.Define("Box", &SymbolInfo{
		Kind:       SymbolClass,
		TypeParams: []TypeParam{{Sym: boxA, Variance: Covariant}},
	})

	cmpA := NewQuantified("A")
	h.cmp = u.Define("Cmp", &SymbolInfo{
		Kind:       SymbolTrait,
		TypeParams: []TypeParam{{Sym: cmpA, Variance: Contravariant}},
	})

	h.ta = u.Define("TA", &SymbolInfo{Kind: SymbolTrait})
	h.tb = u.Define("TB", &SymbolInfo{Kind: SymbolTrait})
	h.mix = u.Define("Mix", &SymbolInfo{
		Kind:    SymbolClass,
		Parents: []*Type{NewRef(h.ta), NewRef(h.tb)},
	})

	h.elem = u.Define("Elem", &SymbolInfo{
		Kind:    SymbolAbstractType,
		Parents: []*Type{NewRef(h.ta)},
	})

	h.intList = u.Define("IntList", &SymbolInfo{
		Kind:  SymbolAlias,
		Alias: NewRef(h.list, NewRef(h.intSym)),
	})

	chanA := NewQuantified("A")
	h.chanAlias = u.Define("Chan", &SymbolInfo{
		Kind:       SymbolAlias,
		TypeParams: []TypeParam{{Sym: chanA, Variance: Invariant}},
		Alias:      NewRef(h.seq, NewRef(chanA)),
	})

	h.closed = u.Define("Closed", &SymbolInfo{Kind: SymbolTrait, Sealed: true})
	h.leaf = u.Define("Leaf", &SymbolInfo{
		Kind:    SymbolClass,
		Final:   true,
		Parents: []*Type{NewRef(h.closed)},
	})

	return h
}

func (h *hierarchy) intT() *Type   { return NewRef(h.intSym) }
func (h *hierarchy) strT() *Type   { return NewRef(h.str) }
func (h *hierarchy) anyT() *Type   { return NewRef(h.u.Top()) }
func (h *hierarchy) bigT() *Type   { return NewRef(h.big) }
func (h *hierarchy) smallT() *Type { return NewRef(h.small) }

func TestSubtypeOf(t *testing.T) {
	h := newHierarchy()

	exVar := NewQuantified("x")

	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"reflexive applied", NewRef(h.list, h.intT()), NewRef(h.list, h.intT()), true},
		{"class to parent trait", NewRef(h.list, h.intT()), NewRef(h.seq, h.intT()), true},
		{"parent trait to class", NewRef(h.seq, h.intT()), NewRef(h.list, h.intT()), false},
		{"invariant argument widening", NewRef(h.list, h.smallT()), NewRef(h.list, h.bigT()), false},
		{"covariant argument widening", NewRef(h.box, h.smallT()), NewRef(h.box, h.bigT()), true},
		{"covariant argument narrowing", NewRef(h.box, h.bigT()), NewRef(h.box, h.smallT()), false},
		{"contravariant argument narrowing", NewRef(h.cmp, h.bigT()), NewRef(h.cmp, h.smallT()), true},
		{"contravariant argument widening", NewRef(h.cmp, h.smallT()), NewRef(h.cmp, h.bigT()), false},
		{"wildcard on the right", NewRef(h.list, h.intT()), NewRef(h.list, Wildcard), true},
		{"wildcard on the left", NewRef(h.list, Wildcard), NewRef(h.list, h.intT()), false},
		{"everything below top", NewRef(h.list, h.intT()), h.anyT(), true},
		{"top above nothing concrete", h.anyT(), NewRef(h.list, h.intT()), false},
		{"refinement on the right, all parents", NewRef(h.mix), NewRefined(false, NewRef(h.ta), NewRef(h.tb)), true},
		{"refinement on the right, missing parent", h.strT(), NewRefined(false, NewRef(h.ta), NewRef(h.tb)), false},
		{"refinement with declarations unprovable", NewRef(h.mix), NewRefined(true, NewRef(h.ta)), false},
		{"refinement on the left", NewRefined(false, NewRef(h.ta), NewRef(h.tb)), NewRef(h.ta), true},
		{"existential on the right", NewRef(h.list, h.intT()), NewExistential([]*Symbol{exVar}, NewRef(h.list, NewRef(exVar))), true},
		{"existential on the left", NewExistential([]*Symbol{exVar}, NewRef(h.list, NewRef(exVar))), NewRef(h.list, h.intT()), false},
		{"existential left against erased shape", NewExistential([]*Symbol{exVar}, NewRef(h.list, NewRef(exVar))), NewRef(h.seq, Wildcard), true},
		{"abstract type through its bound", NewRef(h.elem), NewRef(h.ta), true},
		{"abstract type outside its bound", NewRef(h.elem), NewRef(h.tb), false},
		{"annotation transparent on the left", NewUnchecked(NewRef(h.list, h.intT())), NewRef(h.seq, h.intT()), true},
		{"annotation transparent on the right", NewRef(h.list, h.intT()), NewUnchecked(NewRef(h.seq, h.intT())), true},
		{"alias expands on the left", NewRef(h.intList), NewRef(h.seq, h.intT()), true},
		{"alias expands on the right", NewRef(h.list, h.intT()), NewRef(h.intList), true},
		{"parameterized alias", NewRef(h.list, h.intT()), NewRef(h.chanAlias, h.intT()), true},
		{"erroneous left", Erroneous, h.anyT(), false},
		{"erroneous right", h.intT(), Erroneous, false},
		{"unrelated classes", h.strT(), h.intT(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.u.SubtypeOf(tt.a, tt.b); got != tt.want {
				t.Errorf("SubtypeOf(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameType(t *testing.T) {
	h := newHierarchy()

	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"identical", NewRef(h.list, h.intT()), NewRef(h.list, h.intT()), true},
		{"alias and expansion", NewRef(h.intList), NewRef(h.list, h.intT()), true},
		{"wildcard pair", Wildcard, Wildcard, true},
		{"subtype but not same", NewRef(h.list, h.intT()), NewRef(h.seq, h.intT()), false},
		{"different arguments", NewRef(h.list, h.intT()), NewRef(h.list, h.strT()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.u.SameType(tt.a, tt.b); got != tt.want {
				t.Errorf("SameType(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBaseType(t *testing.T) {
	h := newHierarchy()

	tests := []struct {
		name string
		t    *Type
		sym  *Symbol
		want string // "" means nil
	}{
		{"view at parent trait", NewRef(h.list, h.intT()), h.seq, "Seq[Int]"},
		{"view at own head", NewRef(h.list, h.intT()), h.list, "List[Int]"},
		{"view at top", NewRef(h.list, h.intT()), h.u.Top(), "Any"},
		{"no view at unrelated", h.strT(), h.list, ""},
		{"alias expands first", NewRef(h.intList), h.seq, "Seq[Int]"},
		{"refined left picks a parent view", NewRefined(false, NewRef(h.list, h.intT())), h.seq, "Seq[Int]"},
		{"annotation is transparent", NewUnchecked(NewRef(h.list, h.intT())), h.seq, "Seq[Int]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.u.BaseType(tt.t, tt.sym)

			switch {
			case tt.want == "" && got != nil:
				t.Errorf("BaseType(%s, %s) = %s, want nil", tt.t, tt.sym, got)
			case tt.want != "" && (got == nil || got.String() != tt.want):
				t.Errorf("BaseType(%s, %s) = %s, want %s", tt.t, tt.sym, got, tt.want)
			}
		})
	}
}

func TestDealias(t *testing.T) {
	h := newHierarchy()

	t.Run("simple alias", func(t *testing.T) {
		got := h.u.Dealias(NewRef(h.intList))
		if got.String() != "List[Int]" {
			t.Errorf("Dealias(IntList) = %s, want List[Int]", got)
		}
	})

	t.Run("parameterized alias", func(t *testing.T) {
		got := h.u.Dealias(NewRef(h.chanAlias, h.strT()))
		if got.String() != "Seq[Str]" {
			t.Errorf("Dealias(Chan[Str]) = %s, want Seq[Str]", got)
		}
	})

	t.Run("non-alias unchanged", func(t *testing.T) {
		orig := NewRef(h.list, h.intT())
		if got := h.u.Dealias(orig); got != orig {
			t.Errorf("Dealias rebuilt a non-alias type")
		}
	})
}

func TestErasureOf(t *testing.T) {
	h := newHierarchy()

	if got := h.u.ErasureOf(h.intList); got != h.list {
		t.Errorf("ErasureOf(IntList) = %s, want List", got)
	}

	if got := h.u.ErasureOf(h.list); got != h.list {
		t.Errorf("ErasureOf(List) = %s, want List", got)
	}
}

func TestAncestors(t *testing.T) {
	h := newHierarchy()

	got := h.u.Ancestors(h.list)

	want := []*Symbol{h.list, h.seq, h.u.Top()}
	if len(got) != len(want) {
		t.Fatalf("Ancestors(List) = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ancestors(List)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIsSubClass(t *testing.T) {
	h := newHierarchy()

	pending := NewSymbol("Pending")

	tests := []struct {
		name       string
		sub, super *Symbol
		want       bool
	}{
		{"reflexive", h.list, h.list, true},
		{"direct parent", h.list, h.seq, true},
		{"transitive top", h.list, h.u.Top(), true},
		{"reversed", h.seq, h.list, false},
		{"unrelated", h.str, h.list, false},
		{"unresolved sub", pending, h.list, false},
		{"nil super", h.list, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.u.IsSubClass(tt.sub, tt.super); got != tt.want {
				t.Errorf("IsSubClass(%s, %s) = %v, want %v", tt.sub, tt.super, got, tt.want)
			}
		})
	}
}

func TestIsEffectivelyFinal(t *testing.T) {
	h := newHierarchy()

	t.Run("final class", func(t *testing.T) {
		final, err := h.u.IsEffectivelyFinal(h.str)
		if err != nil || !final {
			t.Errorf("IsEffectivelyFinal(Str) = %v, %v", final, err)
		}
	})

	t.Run("not-overridden class", func(t *testing.T) {
		sym := h.u.Define("Solo", &SymbolInfo{Kind: SymbolClass, NotOverridden: true})

		final, err := h.u.IsEffectivelyFinal(sym)
		if err != nil || !final {
			t.Errorf("IsEffectivelyFinal(Solo) = %v, %v", final, err)
		}
	})

	t.Run("open class", func(t *testing.T) {
		final, err := h.u.IsEffectivelyFinal(h.big)
		if err != nil || final {
			t.Errorf("IsEffectivelyFinal(Big) = %v, %v", final, err)
		}
	})

	t.Run("unresolved symbol", func(t *testing.T) {
		_, err := h.u.IsEffectivelyFinal(h.u.Declare("Later"))
		if !errors.Is(err, ErrUnresolved) {
			t.Errorf("IsEffectivelyFinal(unresolved) err = %v, want ErrUnresolved", err)
		}
	})
}

func TestDefineRegistersSealedChildren(t *testing.T) {
	h := newHierarchy()

	children := h.u.SealedChildren(h.closed)
	if len(children) != 1 || children[0] != h.leaf {
		t.Fatalf("SealedChildren(Closed) = %v, want [Leaf]", children)
	}

	// Open parents never track children.
	if got := h.u.SealedChildren(h.big); len(got) != 0 {
		t.Errorf("SealedChildren(Big) = %v, want none", got)
	}
}

func TestDeclareIsIdempotent(t *testing.T) {
	u := NewUniverse()

	a := u.Declare("Thing")
	b := u.Declare("Thing")

	if a != b {
		t.Error("Declare must return the same symbol for the same name")
	}

	if u.Lookup("Thing") != a {
		t.Error("Lookup must find declared symbols")
	}

	if u.Lookup("Missing") != nil {
		t.Error("Lookup of an unknown name must return nil")
	}
}

func TestUniverseBuiltins(t *testing.T) {
	u := NewUniverse()

	if u.Top() == nil || u.Top().Name != "Any" {
		t.Errorf("Top() = %v", u.Top())
	}

	if u.Array() == nil || !u.Array().IsFinal() {
		t.Errorf("Array() = %v, want a final symbol", u.Array())
	}

	if params := u.TypeParams(u.Array()); len(params) != 1 {
		t.Errorf("Array must take one type parameter, got %d", len(params))
	}
}
