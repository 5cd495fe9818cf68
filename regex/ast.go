package regex

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Op is the kind of a Node.
type Op int

const (
	OpEmpty     Op = iota // ε, written ()
	OpLiteral             // single symbol
	OpWildcard            // . (any input symbol)
	OpClass               // [...]
	OpConcat              // ab
	OpUnion               // a|b
	OpIntersect           // a&b
	OpShuffle             // a^b
	OpRepeat              // a*, a+, a?, a{m,n}
)

// Node is a regular-expression syntax tree. Leaves are OpEmpty,
// OpLiteral, OpWildcard and OpClass; OpRepeat has one child; the
// remaining operators have two or more.
type Node struct {
	Op      Op
	Sym     rune    // OpLiteral
	Set     []rune  // OpClass, sorted and unique
	Negated bool    // OpClass
	Min     int     // OpRepeat
	Max     int     // OpRepeat, negative when unbounded
	Sub     []*Node // operands
}

// Unbounded is the Max of an OpRepeat without upper bound.
const Unbounded = -1

// Epsilon returns the node matching only the empty word.
func Epsilon() *Node { return &Node{Op: OpEmpty} }

// Literal returns the node matching a single symbol.
func Literal(r rune) *Node { return &Node{Op: OpLiteral, Sym: r} }

// Concat joins nodes, dropping ε operands and flattening nested
// concatenations.
func Concat(nodes ...*Node) *Node {
	var sub []*Node
	for _, n := range nodes {
		switch n.Op {
		case OpEmpty:
		case OpConcat:
			sub = append(sub, n.Sub...)
		default:
			sub = append(sub, n)
		}
	}
	switch len(sub) {
	case 0:
		return Epsilon()
	case 1:
		return sub[0]
	}
	return &Node{Op: OpConcat, Sub: sub}
}

// Union builds an alternation. Nested unions are flattened, duplicate
// operands dropped, and an ε operand turns the rest into an option.
func Union(nodes ...*Node) *Node {
	var sub []*Node
	seen := map[string]bool{}
	hasEmpty := false
	var add func(n *Node)
	add = func(n *Node) {
		switch n.Op {
		case OpEmpty:
			hasEmpty = true
		case OpUnion:
			for _, s := range n.Sub {
				add(s)
			}
		default:
			key := n.String()
			if !seen[key] {
				seen[key] = true
				sub = append(sub, n)
			}
		}
	}
	for _, n := range nodes {
		add(n)
	}
	var out *Node
	switch len(sub) {
	case 0:
		return Epsilon()
	case 1:
		out = sub[0]
	default:
		out = &Node{Op: OpUnion, Sub: sub}
	}
	if hasEmpty {
		return Optional(out)
	}
	return out
}

// Star returns n*.
func Star(n *Node) *Node {
	switch {
	case n.Op == OpEmpty:
		return n
	case n.Op == OpRepeat && n.Min <= 1 && (n.Max < 0 || n.Max == 1):
		// (a*)*, (a+)* and (a?)* are all a*
		return &Node{Op: OpRepeat, Min: 0, Max: Unbounded, Sub: n.Sub}
	}
	return &Node{Op: OpRepeat, Min: 0, Max: Unbounded, Sub: []*Node{n}}
}

// Optional returns n?, or n itself when it already matches ε.
func Optional(n *Node) *Node {
	if n.Nullable() {
		return n
	}
	return &Node{Op: OpRepeat, Min: 0, Max: 1, Sub: []*Node{n}}
}

// Repeat returns n{min,max}.
func Repeat(n *Node, min, max int) *Node {
	return &Node{Op: OpRepeat, Min: min, Max: max, Sub: []*Node{n}}
}

// Nullable reports whether n matches the empty word.
func (n *Node) Nullable() bool {
	switch n.Op {
	case OpEmpty:
		return true
	case OpRepeat:
		return n.Min == 0 || n.Sub[0].Nullable()
	case OpUnion:
		for _, s := range n.Sub {
			if s.Nullable() {
				return true
			}
		}
		return false
	case OpConcat, OpIntersect, OpShuffle:
		for _, s := range n.Sub {
			if !s.Nullable() {
				return false
			}
		}
		return true
	}
	return false
}

// Symbols returns the symbols named literally in n (literals and
// non-negated classes), sorted.
func (n *Node) Symbols() []rune {
	set := map[rune]struct{}{}
	var walk func(*Node)
	walk = func(n *Node) {
		switch n.Op {
		case OpLiteral:
			set[n.Sym] = struct{}{}
		case OpClass:
			if !n.Negated {
				for _, r := range n.Set {
					set[r] = struct{}{}
				}
			}
		}
		for _, s := range n.Sub {
			walk(s)
		}
	}
	walk(n)
	out := make([]rune, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// --- printing ---------------------------------------------------------------

// binding strength of each operator, loosest first
const (
	precInfix = iota + 1
	precConcat
	precPostfix
	precAtom
)

func (n *Node) prec() int {
	switch n.Op {
	case OpUnion, OpIntersect, OpShuffle:
		return precInfix
	case OpConcat:
		return precConcat
	case OpRepeat:
		return precPostfix
	}
	return precAtom
}

// String renders n in the syntax accepted by Parse, with the fewest
// parentheses that keep the tree shape.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Op {
	case OpEmpty:
		b.WriteString("()")
	case OpLiteral:
		writeSymbol(b, n.Sym)
	case OpWildcard:
		b.WriteByte('.')
	case OpClass:
		writeClass(b, n)
	case OpConcat:
		for _, s := range n.Sub {
			writeOperand(b, s, s.prec() < precConcat)
		}
	case OpUnion, OpIntersect, OpShuffle:
		sep := map[Op]string{OpUnion: "|", OpIntersect: "&", OpShuffle: "^"}[n.Op]
		for i, s := range n.Sub {
			if i > 0 {
				b.WriteString(sep)
			}
			writeOperand(b, s, s.prec() == precInfix && s.Op != n.Op)
		}
	case OpRepeat:
		writeOperand(b, n.Sub[0], n.Sub[0].prec() < precAtom)
		switch {
		case n.Min == 0 && n.Max < 0:
			b.WriteByte('*')
		case n.Min == 1 && n.Max < 0:
			b.WriteByte('+')
		case n.Min == 0 && n.Max == 1:
			b.WriteByte('?')
		case n.Min == n.Max:
			b.WriteString("{" + strconv.Itoa(n.Min) + "}")
		case n.Max < 0:
			b.WriteString("{" + strconv.Itoa(n.Min) + ",}")
		default:
			b.WriteString("{" + strconv.Itoa(n.Min) + "," + strconv.Itoa(n.Max) + "}")
		}
	}
}

func writeOperand(b *strings.Builder, n *Node, paren bool) {
	if paren {
		b.WriteByte('(')
	}
	n.write(b)
	if paren {
		b.WriteByte(')')
	}
}

// reserved runes must be escaped to be read as literals
const reserved = `()|&^*+?{}[].\ ` + "\t"

func writeSymbol(b *strings.Builder, r rune) {
	if strings.ContainsRune(reserved, r) {
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}

func writeClass(b *strings.Builder, n *Node) {
	b.WriteByte('[')
	if n.Negated {
		b.WriteByte('^')
	}
	for i := 0; i < len(n.Set); {
		j := i
		for j+1 < len(n.Set) && n.Set[j+1] == n.Set[j]+1 {
			j++
		}
		if j-i >= 2 {
			writeClassRune(b, n.Set[i])
			b.WriteByte('-')
			writeClassRune(b, n.Set[j])
			i = j + 1
			continue
		}
		writeClassRune(b, n.Set[i])
		i++
	}
	b.WriteByte(']')
}

func writeClassRune(b *strings.Builder, r rune) {
	switch r {
	case ']', '\\', '-', '^':
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}
