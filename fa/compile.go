package fa

import (
	"fmt"

	u "github.com/araddon/gou"
	"golang.org/x/exp/slices"

	"automata/automaton"
	"automata/regex"
)

// nfaFrag: кусок автомата, то есть входное состояние и «висячие» выходы,
// которые ещё надо связать ε-переходом с продолжением.
type nfaFrag struct {
	start int
	outs  []int
}

type compiler struct {
	b *nfaBuilder
}

func (c *compiler) patchOuts(outs []int, to int) {
	for _, s := range outs {
		c.b.edge(s, Epsilon, to)
	}
}

func (c *compiler) empty() nfaFrag {
	s := c.b.add(false)
	return nfaFrag{start: s, outs: []int{s}}
}

// symbolFrag принимает любой один символ из syms.
func (c *compiler) symbolFrag(syms []rune) nfaFrag {
	s1, s2 := c.b.add(false), c.b.add(false)
	for _, r := range syms {
		c.b.edge(s1, r, s2)
	}
	return nfaFrag{start: s1, outs: []int{s2}}
}

func (c *compiler) known(syms []rune) error {
	for _, r := range syms {
		if _, ok := c.b.symIdx[r]; !ok {
			return fmt.Errorf("%w: %q is not an input symbol", automaton.ErrInvalidSymbol, r)
		}
	}
	return nil
}

func (c *compiler) build(n *regex.Node) (nfaFrag, error) {
	switch n.Op {
	case regex.OpEmpty:
		return c.empty(), nil
	case regex.OpLiteral:
		if err := c.known([]rune{n.Sym}); err != nil {
			return nfaFrag{}, err
		}
		return c.symbolFrag([]rune{n.Sym}), nil
	case regex.OpWildcard:
		return c.symbolFrag(c.b.symbols), nil
	case regex.OpClass:
		if !n.Negated {
			if err := c.known(n.Set); err != nil {
				return nfaFrag{}, err
			}
			return c.symbolFrag(n.Set), nil
		}
		var rest []rune
		for _, r := range c.b.symbols {
			if _, found := slices.BinarySearch(n.Set, r); !found {
				rest = append(rest, r)
			}
		}
		return c.symbolFrag(rest), nil
	case regex.OpConcat:
		var frag nfaFrag
		for i, sub := range n.Sub {
			f, err := c.build(sub)
			if err != nil {
				return nfaFrag{}, err
			}
			if i == 0 {
				frag = f
				continue
			}
			c.patchOuts(frag.outs, f.start)
			frag.outs = f.outs
		}
		return frag, nil
	case regex.OpUnion:
		s := c.b.add(false)
		var outs []int
		for _, sub := range n.Sub {
			f, err := c.build(sub)
			if err != nil {
				return nfaFrag{}, err
			}
			c.b.edge(s, Epsilon, f.start)
			outs = append(outs, f.outs...)
		}
		return nfaFrag{start: s, outs: outs}, nil
	case regex.OpRepeat:
		return c.repeat(n)
	case regex.OpIntersect, regex.OpShuffle:
		acc, err := compileNode(n.Sub[0], c.b.symbols)
		if err != nil {
			return nfaFrag{}, err
		}
		for _, sub := range n.Sub[1:] {
			m, err := compileNode(sub, c.b.symbols)
			if err != nil {
				return nfaFrag{}, err
			}
			if n.Op == regex.OpIntersect {
				acc = acc.Intersection(m)
			} else {
				acc = acc.ShuffleProduct(m)
			}
		}
		off := c.b.embed(acc)
		frag := nfaFrag{start: off + acc.initial}
		for _, f := range acc.finals() {
			frag.outs = append(frag.outs, off+f)
		}
		return frag, nil
	}
	return nfaFrag{}, fmt.Errorf("%w: unknown node %d", automaton.ErrInvalidRegex, n.Op)
}

// repeat разворачивает n{min,max}: min копий операнда, затем копия под
// звездой (без верхней границы) или max-min вложенных необязательных копий.
func (c *compiler) repeat(n *regex.Node) (nfaFrag, error) {
	sub := n.Sub[0]
	frag := c.empty()
	for i := 0; i < n.Min; i++ {
		f, err := c.build(sub)
		if err != nil {
			return nfaFrag{}, err
		}
		c.patchOuts(frag.outs, f.start)
		frag.outs = f.outs
	}
	if n.Max < 0 {
		f, err := c.build(sub)
		if err != nil {
			return nfaFrag{}, err
		}
		s := c.b.add(false)
		c.patchOuts(f.outs, s)
		c.b.edge(s, Epsilon, f.start)
		c.patchOuts(frag.outs, s)
		frag.outs = []int{s}
		return frag, nil
	}
	tail := frag.outs
	outs := append([]int(nil), frag.outs...)
	for i := n.Min; i < n.Max; i++ {
		f, err := c.build(sub)
		if err != nil {
			return nfaFrag{}, err
		}
		c.patchOuts(tail, f.start)
		tail = f.outs
		outs = append(outs, f.outs...)
	}
	frag.outs = outs
	return frag, nil
}

// compileNode строит НКА по n над symbols без недостижимых состояний.
func compileNode(n *regex.Node, symbols []rune) (*NFA, error) {
	c := &compiler{b: newNFABuilder(symbols)}
	frag, err := c.build(n)
	if err != nil {
		return nil, err
	}
	for _, s := range frag.outs {
		c.b.final[s] = true
	}
	return c.b.trim(frag.start).build(0, nil), nil
}

// trim возвращает построитель только с состояниями, достижимыми из
// initial; нумерация в порядке BFS, initial получает 0.
func (b *nfaBuilder) trim(initial int) *nfaBuilder {
	pos := map[int]int{initial: 0}
	order := []int{initial}
	out := newNFABuilder(b.symbols)
	visit := func(t int) int {
		if i, ok := pos[t]; ok {
			return i
		}
		pos[t] = len(order)
		order = append(order, t)
		return pos[t]
	}
	for q := 0; q < len(order); q++ {
		s := order[q]
		from := out.add(b.final[s])
		for _, t := range b.eps[s] {
			out.edge(from, Epsilon, visit(t))
		}
		for j, targets := range b.delta[s] {
			for _, t := range targets {
				out.edge(from, b.symbols[j], visit(t))
			}
		}
	}
	return out
}

func regexSymbols(symbols []rune, nodes ...*regex.Node) ([]rune, error) {
	if symbols == nil {
		for _, n := range nodes {
			symbols = append(symbols, n.Symbols()...)
		}
	}
	syms := normSymbols(symbols)
	if _, ok := slices.BinarySearch(syms, Epsilon); ok {
		return nil, fmt.Errorf("%w: the empty symbol is reserved for ε moves", automaton.ErrInvalidSymbol)
	}
	return syms, nil
}

// NFAFromRegex compiles pattern into an NFA over symbols. A nil symbols
// uses the symbols the pattern names literally, in which case wildcards
// and negated classes range over those alone.
func NFAFromRegex(pattern string, symbols []rune) (*NFA, error) {
	node, err := regex.Parse(pattern)
	if err != nil {
		return nil, err
	}
	syms, err := regexSymbols(symbols, node)
	if err != nil {
		return nil, err
	}
	n, err := compileNode(node, syms)
	if err != nil {
		return nil, err
	}
	u.Debugf("compiled %q into %d states", pattern, len(n.states))
	return n, nil
}

// regexPair компилирует оба шаблона над общим алфавитом и
// детерминизирует их.
func regexPair(a, b string, symbols []rune) (*DFA, *DFA, error) {
	na, err := regex.Parse(a)
	if err != nil {
		return nil, nil, err
	}
	nb, err := regex.Parse(b)
	if err != nil {
		return nil, nil, err
	}
	syms, err := regexSymbols(symbols, na, nb)
	if err != nil {
		return nil, nil, err
	}
	ma, err := compileNode(na, syms)
	if err != nil {
		return nil, nil, err
	}
	mb, err := compileNode(nb, syms)
	if err != nil {
		return nil, nil, err
	}
	return DFAFromNFA(ma), DFAFromNFA(mb), nil
}

// RegexEqual reports whether patterns a and b denote the same language.
// A nil symbols uses every symbol either pattern names.
func RegexEqual(a, b string, symbols []rune) (bool, error) {
	da, db, err := regexPair(a, b, symbols)
	if err != nil {
		return false, err
	}
	return da.Equal(db), nil
}

// RegexSubset reports whether the language of a is contained in that of b.
func RegexSubset(a, b string, symbols []rune) (bool, error) {
	da, db, err := regexPair(a, b, symbols)
	if err != nil {
		return false, err
	}
	return da.IsSubset(db)
}

// RegexSuperset reports whether the language of a contains that of b.
func RegexSuperset(a, b string, symbols []rune) (bool, error) {
	return RegexSubset(b, a, symbols)
}
