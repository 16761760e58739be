package fixture

import (
	"strings"
	"testing"

	"github.com/orizon-lang/matchcheck/internal/types"
)

func parserUniverse() *types.Universe {
	u := types.NewUniverse()

	u.Define("Int", &types.SymbolInfo{Kind: types.SymbolClass, Final: true})

	a := types.NewQuantified("A")
	u.Define("List", &types.SymbolInfo{
		Kind:       types.SymbolClass,
		TypeParams: []types.TypeParam{{Sym: a, Variance: types.Invariant}},
	})

	u.Define("TA", &types.SymbolInfo{Kind: types.SymbolTrait})
	u.Define("TB", &types.SymbolInfo{Kind: types.SymbolTrait})

	return u
}

func TestParseType(t *testing.T) {
	u := parserUniverse()

	tests := []struct {
		name string
		src  string
		want string // rendered form of the parsed type
	}{
		{"bare name", "Int", "Int"},
		{"applied", "List[Int]", "List[Int]"},
		{"nested application", "List[List[Int]]", "List[List[Int]]"},
		{"wildcard", "_", "_"},
		{"wildcard argument", "List[_]", "List[_]"},
		{"intersection", "TA with TB", "TA with TB"},
		{"suppression", "List[Int] @unchecked", "List[Int] @unchecked"},
		{"array from the built-ins", "Array[Int]", "Array[Int]"},
		{"spaces tolerated", "  List[ Int ] ", "List[Int]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(u, nil, nil, tt.src)
			if err != nil {
				t.Fatalf("ParseType(%q) = %v", tt.src, err)
			}

			if got.String() != tt.want {
				t.Errorf("ParseType(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	u := parserUniverse()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown name", "Missing", "unknown type symbol Missing"},
		{"lowercase without binder context", "List[t]", "unknown type symbol t"},
		{"unterminated arguments", "List[Int", "expected ']'"},
		{"empty argument", "List[]", "expected a type name"},
		{"trailing input", "Int Int", "trailing input"},
		{"empty input", "", "expected a type name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseType(u, nil, nil, tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseType(%q) = %v, want error containing %q", tt.src, err, tt.wantErr)
			}
		})
	}
}

func TestParseTypeScope(t *testing.T) {
	u := parserUniverse()

	formal := types.NewQuantified("A")
	scope := map[string]*types.Symbol{"A": formal}

	got, err := ParseType(u, scope, nil, "List[A]")
	if err != nil {
		t.Fatalf("ParseType = %v", err)
	}

	if got.Ref().Args[0].Ref().Sym != formal {
		t.Error("scope names must resolve to the formal parameter")
	}
}

func TestParseTypeBinders(t *testing.T) {
	u := parserUniverse()

	binders := make(map[string]*types.Symbol)

	first, err := ParseType(u, nil, binders, "List[t]")
	if err != nil {
		t.Fatalf("ParseType = %v", err)
	}

	second, err := ParseType(u, nil, binders, "t")
	if err != nil {
		t.Fatalf("ParseType = %v", err)
	}

	bound := first.Ref().Args[0].Ref().Sym
	if !bound.Quantified {
		t.Error("binder-introduced variables must be quantified")
	}

	if second.Ref().Sym != bound {
		t.Error("repeated binder names must resolve to the same variable")
	}

	// Uppercase unknown names stay errors even in binder context.
	if _, err := ParseType(u, nil, binders, "Missing"); err == nil {
		t.Error("uppercase unknown names must not become binders")
	}
}
