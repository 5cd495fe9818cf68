// Package regex parses the pattern language compiled by package fa.
//
// Operators, loosest first:
//
//	a|b  a&b  a^b    union, intersection, shuffle (one level, left to right)
//	ab               concatenation
//	a* a+ a? a{m,n}  repetition ({m}, {m,} and {,n} also accepted)
//
// Atoms are literals, \x escapes, the wildcard '.', character classes
// [a-z] and [^...], and groups; () is the empty word and so is the empty
// pattern. Blanks and tabs are ignored.
package regex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/exp/slices"

	"automata/automaton"
)

var patternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Escaped", Pattern: `\\.`},
	{Name: "Quantifier", Pattern: `\{[^}]*\}`},
	{Name: "Class", Pattern: `\[(\\.|[^\]\\])*\]`},
	{Name: "Infix", Pattern: `[|&^]`},
	{Name: "Postfix", Pattern: `[*+?]`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Char", Pattern: `[^|&^*+?(){}\[\]\\. \t]`},
})

type pattern struct {
	Expr *expr `parser:"@@?"`
}

type expr struct {
	Left *term    `parser:"@@"`
	Rest []*infix `parser:"@@*"`
}

type infix struct {
	Op    string `parser:"@Infix"`
	Right *term  `parser:"@@"`
}

type term struct {
	Factors []*factor `parser:"@@+"`
}

type factor struct {
	Atom    *atom    `parser:"@@"`
	Postfix []string `parser:"@(Postfix | Quantifier)*"`

	Pos lexer.Position
}

type atom struct {
	Group   *group `parser:"  @@"`
	Dot     bool   `parser:"| @Dot"`
	Class   string `parser:"| @Class"`
	Escaped string `parser:"| @Escaped"`
	Char    string `parser:"| @Char"`

	Pos lexer.Position
}

type group struct {
	Open  string `parser:"@'('"`
	Inner *expr  `parser:"@@? ')'"`
}

var parser = participle.MustBuild[pattern](
	participle.Lexer(patternLexer),
	participle.Elide("Whitespace"),
)

// Error is a syntax error in a pattern. It wraps automaton.ErrInvalidRegex.
type Error struct {
	Offset int // byte offset into the pattern
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid regex at offset %d: %s", e.Offset, e.Msg)
}

func (e *Error) Unwrap() error { return automaton.ErrInvalidRegex }

// Parse parses a pattern into a syntax tree.
func Parse(src string) (*Node, error) {
	p, err := parser.ParseString("pattern", src)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &Error{Offset: perr.Position().Offset, Msg: perr.Message()}
		}
		return nil, &Error{Msg: err.Error()}
	}
	if p.Expr == nil {
		return Epsilon(), nil
	}
	return p.Expr.node()
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// Validate reports whether src is a well-formed pattern.
func Validate(src string) error {
	_, err := Parse(src)
	return err
}

// --- дерево грамматики → Node -----------------------------------------------

func (e *expr) node() (*Node, error) {
	left, err := e.Left.node()
	if err != nil {
		return nil, err
	}
	for _, in := range e.Rest {
		right, err := in.Right.node()
		if err != nil {
			return nil, err
		}
		op := map[string]Op{"|": OpUnion, "&": OpIntersect, "^": OpShuffle}[in.Op]
		if left.Op == op {
			left.Sub = append(left.Sub, right)
		} else {
			left = &Node{Op: op, Sub: []*Node{left, right}}
		}
	}
	return left, nil
}

func (t *term) node() (*Node, error) {
	sub := make([]*Node, 0, len(t.Factors))
	for _, f := range t.Factors {
		n, err := f.node()
		if err != nil {
			return nil, err
		}
		sub = append(sub, n)
	}
	if len(sub) == 1 {
		return sub[0], nil
	}
	return &Node{Op: OpConcat, Sub: sub}, nil
}

func (f *factor) node() (*Node, error) {
	n, err := f.Atom.node()
	if err != nil {
		return nil, err
	}
	for _, p := range f.Postfix {
		switch p {
		case "*":
			n = Repeat(n, 0, Unbounded)
		case "+":
			n = Repeat(n, 1, Unbounded)
		case "?":
			n = Repeat(n, 0, 1)
		default:
			min, max, err := parseQuantifier(p)
			if err != nil {
				return nil, &Error{Offset: f.Pos.Offset, Msg: err.Error()}
			}
			n = Repeat(n, min, max)
		}
	}
	return n, nil
}

func (a *atom) node() (*Node, error) {
	switch {
	case a.Group != nil:
		if a.Group.Inner == nil {
			return Epsilon(), nil
		}
		return a.Group.Inner.node()
	case a.Dot:
		return &Node{Op: OpWildcard}, nil
	case a.Class != "":
		n, err := parseClass(a.Class)
		if err != nil {
			return nil, &Error{Offset: a.Pos.Offset, Msg: err.Error()}
		}
		return n, nil
	case a.Escaped != "":
		r, _ := utf8.DecodeRuneInString(a.Escaped[1:])
		return Literal(r), nil
	}
	r, _ := utf8.DecodeRuneInString(a.Char)
	return Literal(r), nil
}

// parseQuantifier разбирает "{m}", "{m,}", "{,n}" или "{m,n}".
func parseQuantifier(q string) (min, max int, err error) {
	body := q[1 : len(q)-1]
	lo, hi, hasComma := strings.Cut(body, ",")
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	if lo == "" && hi == "" {
		return 0, 0, fmt.Errorf("quantifier %s has no bounds", q)
	}
	if lo != "" {
		if min, err = strconv.Atoi(lo); err != nil {
			return 0, 0, fmt.Errorf("bad lower bound in %s", q)
		}
	}
	switch {
	case !hasComma:
		max = min
	case hi == "":
		max = Unbounded
	default:
		if max, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("bad upper bound in %s", q)
		}
	}
	if min < 0 {
		return 0, 0, fmt.Errorf("quantifier lower bound %d is negative", min)
	}
	if max != Unbounded && max < min {
		return 0, 0, fmt.Errorf("quantifier upper bound %d is below lower bound %d", max, min)
	}
	return min, max, nil
}

// parseClass разбирает "[...]": диапазоны, экранирование \x и ведущий ^.
func parseClass(c string) (*Node, error) {
	body := []rune(c[1 : len(c)-1])
	n := &Node{Op: OpClass}
	if len(body) > 0 && body[0] == '^' {
		n.Negated = true
		body = body[1:]
	}
	// сначала снимаем экранирование, запоминая экранированные руны
	var runes []rune
	var literal []bool
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			runes = append(runes, body[i])
			literal = append(literal, true)
			continue
		}
		runes = append(runes, body[i])
		literal = append(literal, false)
	}
	set := map[rune]struct{}{}
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' && !literal[i+1] {
			lo, hi := runes[i], runes[i+2]
			if lo > hi {
				return nil, fmt.Errorf("bad range %c-%c in %s", lo, hi, c)
			}
			for r := lo; r <= hi; r++ {
				set[r] = struct{}{}
			}
			i += 2
			continue
		}
		set[runes[i]] = struct{}{}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("empty character class %s", c)
	}
	for r := range set {
		n.Set = append(n.Set, r)
	}
	slices.Sort(n.Set)
	return n, nil
}
