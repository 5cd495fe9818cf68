package fa

import (
	"fmt"
	"strconv"

	u "github.com/araddon/gou"
	"golang.org/x/exp/slices"

	"automata/automaton"
)

// explore builds a DFA breadth-first from start. next returns the
// successor of a key on the j-th symbol (false for no transition), name
// is only consulted when names are retained. States are numbered in
// discovery order otherwise.
func explore[K comparable](symbols []rune, start K, next func(K, int) (K, bool), final func(K) bool, name func(K) State, o options) *DFA {
	idx := map[K]int{start: 0}
	keys := []K{start}
	var delta [][]int
	for q := 0; q < len(keys); q++ {
		row := make([]int, len(symbols))
		for j := range symbols {
			row[j] = -1
			t, ok := next(keys[q], j)
			if !ok {
				continue
			}
			i, seen := idx[t]
			if !seen {
				i = len(keys)
				idx[t] = i
				keys = append(keys, t)
			}
			row[j] = i
		}
		delta = append(delta, row)
	}
	names := make([]State, len(keys))
	finals := make([]bool, len(keys))
	for i, k := range keys {
		finals[i] = final(k)
		if o.retainNames {
			names[i] = name(k)
		} else {
			names[i] = num(i)
		}
	}
	if o.retainNames {
		names = uniqueNames(names)
	}
	d := newDFA(names, symbols, delta, 0, finals)
	if o.skipMinify {
		return d
	}
	return d.minify(nil, o.retainNames)
}

// search reports whether a key satisfying target is reachable from start.
func search[K comparable](symbols int, start K, next func(K, int) (K, bool), target func(K) bool) bool {
	seen := map[K]bool{start: true}
	queue := []K{start}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if target(k) {
			return true
		}
		for j := 0; j < symbols; j++ {
			if t, ok := next(k, j); ok && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return false
}

// pair is a product state; -1 stands for the implicit trap state of a
// partial operand.
type pair struct{ a, b int }

type product struct {
	lhs, rhs *DFA
	next     func(pair, int) (pair, bool)
}

// crossProduct prepares the lazy product of lhs and rhs. A side whose
// trap state cannot influence the result is marked irrelevant, and
// transitions into it are pruned.
func crossProduct(lhs, rhs *DFA, lhsRelevant, rhsRelevant bool) (*product, error) {
	if !slices.Equal(lhs.symbols, rhs.symbols) {
		return nil, fmt.Errorf("%w: %q and %q", automaton.ErrSymbolMismatch, string(lhs.symbols), string(rhs.symbols))
	}
	next := func(p pair, j int) (pair, bool) {
		ta, tb := -1, -1
		if p.a >= 0 {
			ta = lhs.delta[p.a][j]
		}
		if p.b >= 0 {
			tb = rhs.delta[p.b][j]
		}
		if ta < 0 && tb < 0 || ta < 0 && !lhsRelevant || tb < 0 && !rhsRelevant {
			return pair{}, false
		}
		return pair{ta, tb}, true
	}
	return &product{lhs: lhs, rhs: rhs, next: next}, nil
}

func (p *product) start() pair { return pair{p.lhs.initial, p.rhs.initial} }

func (p *product) finals(k pair) (bool, bool) {
	return k.a >= 0 && p.lhs.final[k.a], k.b >= 0 && p.rhs.final[k.b]
}

func (p *product) build(op func(a, b bool) bool, o options) *DFA {
	trapA, trapB := trapName(p.lhs), trapName(p.rhs)
	name := func(k pair) State {
		a, b := trapA, trapB
		if k.a >= 0 {
			a = p.lhs.states[k.a]
		}
		if k.b >= 0 {
			b = p.rhs.states[k.b]
		}
		return automaton.PairName(a, b)
	}
	final := func(k pair) bool { return op(p.finals(k)) }
	d := explore(p.lhs.symbols, p.start(), p.next, final, name, o)
	u.Debugf("product: %d x %d states -> %d", len(p.lhs.states), len(p.rhs.states), len(d.states))
	return d
}

func (p *product) find(target func(a, b bool) bool) bool {
	return search(len(p.lhs.symbols), p.start(), p.next, func(k pair) bool { return target(p.finals(k)) })
}

// trapName is the name used for the implicit trap state of d.
func trapName(d *DFA) State {
	for i := -1; ; i-- {
		if _, ok := d.index[State(strconv.Itoa(i))]; !ok {
			return State(strconv.Itoa(i))
		}
	}
}

// Union returns a DFA for L(d) ∪ L(other). Both operands must share
// their input symbols. The result is minified unless SkipMinify is given;
// RetainNames names states after the pairs they come from.
func (d *DFA) Union(other *DFA, opts ...Option) (*DFA, error) {
	p, err := crossProduct(d, other, true, true)
	if err != nil {
		return nil, err
	}
	return p.build(func(a, b bool) bool { return a || b }, collect(opts)), nil
}

// Intersection returns a DFA for L(d) ∩ L(other).
func (d *DFA) Intersection(other *DFA, opts ...Option) (*DFA, error) {
	p, err := crossProduct(d, other, false, false)
	if err != nil {
		return nil, err
	}
	return p.build(func(a, b bool) bool { return a && b }, collect(opts)), nil
}

// Difference returns a DFA for L(d) \ L(other).
func (d *DFA) Difference(other *DFA, opts ...Option) (*DFA, error) {
	p, err := crossProduct(d, other, false, true)
	if err != nil {
		return nil, err
	}
	return p.build(func(a, b bool) bool { return a && !b }, collect(opts)), nil
}

// SymmetricDifference returns a DFA for the words in exactly one of L(d)
// and L(other).
func (d *DFA) SymmetricDifference(other *DFA, opts ...Option) (*DFA, error) {
	p, err := crossProduct(d, other, true, true)
	if err != nil {
		return nil, err
	}
	return p.build(func(a, b bool) bool { return a != b }, collect(opts)), nil
}

// Equal reports whether d and other accept the same language. Automata
// over different input symbols are never equal.
func (d *DFA) Equal(other *DFA) bool {
	p, err := crossProduct(d, other, true, true)
	if err != nil {
		return false
	}
	return !p.find(func(a, b bool) bool { return a != b })
}

// IsSubset reports whether L(d) ⊆ L(other).
func (d *DFA) IsSubset(other *DFA) (bool, error) {
	p, err := crossProduct(d, other, false, true)
	if err != nil {
		return false, err
	}
	return !p.find(func(a, b bool) bool { return a && !b }), nil
}

// IsSuperset reports whether L(d) ⊇ L(other).
func (d *DFA) IsSuperset(other *DFA) (bool, error) {
	return other.IsSubset(d)
}

// IsStrictSubset reports whether L(d) ⊊ L(other).
func (d *DFA) IsStrictSubset(other *DFA) (bool, error) {
	ok, err := d.IsSubset(other)
	if err != nil || !ok {
		return false, err
	}
	return !d.Equal(other), nil
}

// IsStrictSuperset reports whether L(d) ⊋ L(other).
func (d *DFA) IsStrictSuperset(other *DFA) (bool, error) {
	return other.IsStrictSubset(d)
}

// IsDisjoint reports whether L(d) ∩ L(other) is empty.
func (d *DFA) IsDisjoint(other *DFA) (bool, error) {
	p, err := crossProduct(d, other, false, false)
	if err != nil {
		return false, err
	}
	return !p.find(func(a, b bool) bool { return a && b }), nil
}
