// Package fixture loads hierarchy and query descriptions for the
// matchcheck CLI and test drivers. A fixture is a TOML file declaring a
// class hierarchy, the symbols still being elaborated at query time, and
// the (scrutinee, pattern) pairs to classify.
package fixture

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/matchcheck/internal/checkability"
	"github.com/orizon-lang/matchcheck/internal/position"
	"github.com/orizon-lang/matchcheck/internal/types"
)

// FormatConstraint is the semver range of fixture format versions this
// loader accepts.
const FormatConstraint = "^1"

// File is the decoded fixture.
type File struct {
	Version     string       `toml:"version"`
	Elaborating []string     `toml:"elaborating"`
	Symbols     []SymbolDecl `toml:"symbols"`
	Queries     []Query      `toml:"queries"`

	path string
}

// SymbolDecl declares one symbol of the hierarchy.
type SymbolDecl struct {
	Name          string   `toml:"name"`
	Kind          string   `toml:"kind"` // class | trait | abstract | alias
	Sealed        bool     `toml:"sealed"`
	Final         bool     `toml:"final"`
	Primitive     bool     `toml:"primitive"`
	NotOverridden bool     `toml:"not_overridden"`
	Params        []string `toml:"params"` // "+A" covariant, "-A" contravariant, "A" invariant
	Extends       []string `toml:"extends"`
	Target        string   `toml:"target"` // alias target, kind = "alias" only
}

// Query is one (scrutinee, pattern) pair to classify.
type Query struct {
	Scrutinee string `toml:"scrutinee"`
	Pattern   string `toml:"pattern"`
}

// CompiledQuery is a query elaborated against the fixture's universe.
type CompiledQuery struct {
	Scrutinee *types.Type
	Pattern   *types.Type
	Span      position.Span
	Source    Query
}

// Load reads and validates a fixture file.
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}

	f.path = path

	if err := f.checkVersion(); err != nil {
		return nil, err
	}

	return &f, nil
}

func (f *File) checkVersion() error {
	if f.Version == "" {
		return fmt.Errorf("fixture %s: missing format version", f.path)
	}

	v, err := semver.NewVersion(f.Version)
	if err != nil {
		return fmt.Errorf("fixture %s: bad format version %q: %w", f.path, f.Version, err)
	}

	constraint, err := semver.NewConstraint(FormatConstraint)
	if err != nil {
		return err
	}

	if !constraint.Check(v) {
		return fmt.Errorf("fixture %s: format version %s outside supported range %s", f.path, v, FormatConstraint)
	}

	return nil
}

// Build elaborates the fixture into a populated universe, the
// elaboration context with the declared open symbols, and the compiled
// queries in file order.
func (f *File) Build() (*types.Universe, *checkability.Elaboration, []CompiledQuery, error) {
	uni := types.NewUniverse()

	// Declaration pass: every name is visible before any body is read.
	for _, decl := range f.Symbols {
		if decl.Name == "" {
			return nil, nil, nil, fmt.Errorf("fixture %s: symbol with empty name", f.path)
		}

		if s := uni.Lookup(decl.Name); s != nil && s.Resolved() {
			return nil, nil, nil, fmt.Errorf("fixture %s: duplicate symbol %s", f.path, decl.Name)
		}

		uni.Declare(decl.Name)
	}

	// Resolution pass, in file order.
	for _, decl := range f.Symbols {
		if err := f.resolveSymbol(uni, decl); err != nil {
			return nil, nil, nil, err
		}
	}

	registerSealedChildren(uni, f.Symbols)

	elab := checkability.NewElaboration()

	for _, name := range f.Elaborating {
		sym := uni.Lookup(name)
		if sym == nil {
			return nil, nil, nil, fmt.Errorf("fixture %s: elaborating unknown symbol %s", f.path, name)
		}

		elab.Begin(sym)
	}

	queries, err := f.compileQueries(uni)
	if err != nil {
		return nil, nil, nil, err
	}

	return uni, elab, queries, nil
}

func (f *File) resolveSymbol(uni *types.Universe, decl SymbolDecl) error {
	sym := uni.Lookup(decl.Name)
	if sym.Resolved() {
		return fmt.Errorf("fixture %s: duplicate symbol %s", f.path, decl.Name)
	}

	params, scope, err := parseParams(decl.Params)
	if err != nil {
		return fmt.Errorf("fixture %s: symbol %s: %w", f.path, decl.Name, err)
	}

	parents := make([]*types.Type, 0, len(decl.Extends))

	for _, src := range decl.Extends {
		t, perr := ParseType(uni, scope, nil, src)
		if perr != nil {
			return fmt.Errorf("fixture %s: symbol %s: %w", f.path, decl.Name, perr)
		}

		parents = append(parents, t)
	}

	info := &types.SymbolInfo{
		Sealed:         decl.Sealed,
		Final:          decl.Final,
		PrimitiveValue: decl.Primitive,
		NotOverridden:  decl.NotOverridden,
		TypeParams:     params,
		Parents:        parents,
	}

	switch strings.ToLower(decl.Kind) {
	case "class", "":
		info.Kind = types.SymbolClass
	case "trait":
		info.Kind = types.SymbolTrait
	case "abstract":
		info.Kind = types.SymbolAbstractType
	case "alias":
		info.Kind = types.SymbolAlias

		if decl.Target == "" {
			return fmt.Errorf("fixture %s: alias %s: missing target", f.path, decl.Name)
		}

		target, perr := ParseType(uni, scope, nil, decl.Target)
		if perr != nil {
			return fmt.Errorf("fixture %s: alias %s: %w", f.path, decl.Name, perr)
		}

		info.Alias = target
	default:
		return fmt.Errorf("fixture %s: symbol %s: unknown kind %q", f.path, decl.Name, decl.Kind)
	}

	if (info.Kind == types.SymbolClass || info.Kind == types.SymbolTrait) && len(info.Parents) == 0 {
		info.Parents = []*types.Type{types.NewRef(uni.Top())}
	}

	sym.Resolve(info)

	return nil
}

// registerSealedChildren runs after all symbols are resolved so that
// declaration order never hides a child from its sealed parent.
func registerSealedChildren(uni *types.Universe, decls []SymbolDecl) {
	for _, decl := range decls {
		sym := uni.Lookup(decl.Name)

		info, err := sym.Info()
		if err != nil {
			continue
		}

		for _, parent := range info.Parents {
			head := uni.Dealias(parent).HeadSymbol()
			if head == nil || !(head.IsSealed() || head.IsFinal()) {
				continue
			}

			phead, perr := head.Info()
			if perr != nil {
				continue
			}

			if !containsSymbol(phead.Children, sym) {
				phead.Children = append(phead.Children, sym)
			}
		}
	}
}

func containsSymbol(list []*types.Symbol, sym *types.Symbol) bool {
	for _, s := range list {
		if s == sym {
			return true
		}
	}

	return false
}

func parseParams(specs []string) ([]types.TypeParam, map[string]*types.Symbol, error) {
	params := make([]types.TypeParam, 0, len(specs))
	scope := make(map[string]*types.Symbol, len(specs))

	for _, spec := range specs {
		variance := types.Invariant
		name := spec

		switch {
		case strings.HasPrefix(spec, "+"):
			variance = types.Covariant
			name = spec[1:]
		case strings.HasPrefix(spec, "-"):
			variance = types.Contravariant
			name = spec[1:]
		}

		if name == "" {
			return nil, nil, fmt.Errorf("empty type parameter in %q", spec)
		}

		sym := types.NewQuantified(name)
		scope[name] = sym
		params = append(params, types.TypeParam{Sym: sym, Variance: variance})
	}

	return params, scope, nil
}

func (f *File) compileQueries(uni *types.Universe) ([]CompiledQuery, error) {
	out := make([]CompiledQuery, 0, len(f.Queries))

	for i, q := range f.Queries {
		binders := make(map[string]*types.Symbol)

		scrut, err := ParseType(uni, nil, binders, q.Scrutinee)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: query %d: %w", f.path, i+1, err)
		}

		pat, err := ParseType(uni, nil, binders, q.Pattern)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: query %d: %w", f.path, i+1, err)
		}

		// The span's line carries the query ordinal; fixtures have no
		// finer-grained positions.
		pos := position.Position{Filename: f.path, Line: i + 1, Column: 1, Offset: i}

		out = append(out, CompiledQuery{
			Scrutinee: scrut,
			Pattern:   pat,
			Span:      position.PointSpan(pos),
			Source:    q,
		})
	}

	return out, nil
}
