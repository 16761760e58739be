// Type-expression parser for fixture files. The surface syntax is the
// minimal subset diagnostics and queries need:
//
//	type    := inter ( "@unchecked" )?
//	inter   := applied ( "with" applied )*
//	applied := "_" | ident ( "[" type ( "," type )* "]" )?
//
// In query context, a lowercase identifier that names no declared symbol
// introduces a pattern type variable, the way a lowercase name in a type
// pattern binds fresh.

package fixture

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/orizon-lang/matchcheck/internal/types"
)

type exprParser struct {
	src   string
	pos   int
	uni   *types.Universe
	scope map[string]*types.Symbol

	// binders accumulates pattern type variables when non-nil; the same
	// name resolves to the same variable within one query.
	binders map[string]*types.Symbol
}

// ParseType parses one type expression. scope resolves formal type
// parameters; binders, when non-nil, enables pattern-variable creation
// for lowercase unknown names.
func ParseType(uni *types.Universe, scope map[string]*types.Symbol, binders map[string]*types.Symbol, src string) (*types.Type, error) {
	p := &exprParser{src: src, uni: uni, scope: scope, binders: binders}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: trailing input at offset %d", src, p.pos)
	}

	return t, nil
}

func (p *exprParser) parseType() (*types.Type, error) {
	t, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if strings.HasPrefix(p.src[p.pos:], "@unchecked") {
		p.pos += len("@unchecked")

		return types.NewUnchecked(t), nil
	}

	return t, nil
}

func (p *exprParser) parseIntersection() (*types.Type, error) {
	first, err := p.parseApplied()
	if err != nil {
		return nil, err
	}

	parents := []*types.Type{first}

	for {
		save := p.pos

		p.skipSpace()

		if id := p.peekIdent(); id == "with" {
			p.pos += len("with")

			next, err := p.parseApplied()
			if err != nil {
				return nil, err
			}

			parents = append(parents, next)

			continue
		}

		p.pos = save

		break
	}

	if len(parents) == 1 {
		return first, nil
	}

	return types.NewRefined(false, parents...), nil
}

func (p *exprParser) parseApplied() (*types.Type, error) {
	p.skipSpace()

	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("type %q: expected a type name at offset %d", p.src, p.pos)
	}

	if name == "_" {
		return types.Wildcard, nil
	}

	sym, err := p.resolve(name)
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.pos >= len(p.src) || p.src[p.pos] != '[' {
		return types.NewRef(sym), nil
	}

	p.pos++ // consume '['

	var args []*types.Type

	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		p.skipSpace()

		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++

			continue
		}

		break
	}

	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return nil, fmt.Errorf("type %q: expected ']' at offset %d", p.src, p.pos)
	}

	p.pos++

	return types.NewRef(sym, args...), nil
}

func (p *exprParser) resolve(name string) (*types.Symbol, error) {
	if s, ok := p.scope[name]; ok {
		return s, nil
	}

	if s := p.uni.Lookup(name); s != nil {
		return s, nil
	}

	if p.binders != nil && startsLower(name) {
		if s, ok := p.binders[name]; ok {
			return s, nil
		}

		s := types.NewQuantified(name)
		p.binders[name] = s

		return s, nil
	}

	return nil, fmt.Errorf("type %q: unknown type symbol %s", p.src, name)
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// peekIdent returns the identifier at the cursor without consuming it.
func (p *exprParser) peekIdent() string {
	end := p.pos
	for end < len(p.src) && isIdentChar(p.src[end]) {
		end++
	}

	return p.src[p.pos:end]
}

func (p *exprParser) ident() string {
	id := p.peekIdent()
	p.pos += len(id)

	return id
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func startsLower(name string) bool {
	for _, r := range name {
		return unicode.IsLower(r)
	}

	return false
}
