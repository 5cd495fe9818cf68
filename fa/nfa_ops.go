package fa

import (
	u "github.com/araddon/gou"
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"
)

// mergedBuilder returns a builder over the union of the operands'
// alphabets.
func mergedBuilder(ns ...*NFA) *nfaBuilder {
	var syms []rune
	for _, n := range ns {
		syms = append(syms, n.symbols...)
	}
	return newNFABuilder(normSymbols(syms))
}

func (b *nfaBuilder) markFinals(off int, n *NFA) {
	for i, ok := n.final.NextSet(0); ok; i, ok = n.final.NextSet(i + 1) {
		b.final[off+int(i)] = true
	}
}

func (n *NFA) finals() []int {
	var out []int
	for i, ok := n.final.NextSet(0); ok; i, ok = n.final.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Union returns an NFA for L(n) ∪ L(other). States are renumbered; a new
// initial state has ε moves to both former initial states.
func (n *NFA) Union(other *NFA) *NFA {
	b := mergedBuilder(n, other)
	start := b.add(false)
	a := b.embed(n)
	c := b.embed(other)
	b.markFinals(a, n)
	b.markFinals(c, other)
	b.edge(start, Epsilon, a+n.initial)
	b.edge(start, Epsilon, c+other.initial)
	return b.build(start, nil)
}

// Concatenate returns an NFA for L(n)·L(other).
func (n *NFA) Concatenate(other *NFA) *NFA {
	b := mergedBuilder(n, other)
	a := b.embed(n)
	c := b.embed(other)
	for _, f := range n.finals() {
		b.edge(a+f, Epsilon, c+other.initial)
	}
	b.markFinals(c, other)
	return b.build(a+n.initial, nil)
}

// KleeneStar returns an NFA for L(n)*.
func (n *NFA) KleeneStar() *NFA {
	b := mergedBuilder(n)
	start := b.add(false)
	a := b.embed(n)
	end := b.add(true)
	b.edge(start, Epsilon, a+n.initial)
	b.edge(start, Epsilon, end)
	for _, f := range n.finals() {
		b.edge(a+f, Epsilon, a+n.initial)
		b.edge(a+f, Epsilon, end)
	}
	return b.build(start, nil)
}

// Option returns an NFA for L(n) ∪ {ε}. The new initial state has no
// incoming moves.
func (n *NFA) Option() *NFA {
	b := mergedBuilder(n)
	start := b.add(true)
	a := b.embed(n)
	b.markFinals(a, n)
	b.edge(start, Epsilon, a+n.initial)
	return b.build(start, nil)
}

// Reverse returns an NFA for the reversal of L(n).
func (n *NFA) Reverse() *NFA {
	b := mergedBuilder(n)
	for range n.states {
		b.add(false)
	}
	start := b.add(false)
	for s := range n.states {
		for j, targets := range n.delta[s] {
			for _, t := range targets {
				b.edge(t, n.symbols[j], s)
			}
		}
		for _, t := range n.eps[s] {
			b.edge(t, Epsilon, s)
		}
	}
	for _, f := range n.finals() {
		b.edge(start, Epsilon, f)
	}
	b.final[n.initial] = true
	return b.build(start, nil)
}

// pairMoves lists the pairs reachable from p in one step of a product of
// a and b. With joint, both sides read each symbol together; otherwise
// exactly one side moves. ε moves are always taken by one side alone.
func pairMoves(a, b *NFA, p pair, joint bool, visit func(sym rune, q pair)) {
	for _, t := range a.eps[p.a] {
		visit(Epsilon, pair{t, p.b})
	}
	for _, t := range b.eps[p.b] {
		visit(Epsilon, pair{p.a, t})
	}
	for ja, sym := range a.symbols {
		jb, ok := b.symIdx[sym]
		switch {
		case joint && ok:
			for _, ta := range a.delta[p.a][ja] {
				for _, tb := range b.delta[p.b][jb] {
					visit(sym, pair{ta, tb})
				}
			}
		case !joint:
			for _, ta := range a.delta[p.a][ja] {
				visit(sym, pair{ta, p.b})
			}
		}
	}
	if !joint {
		for jb, sym := range b.symbols {
			for _, tb := range b.delta[p.b][jb] {
				visit(sym, pair{p.a, tb})
			}
		}
	}
}

// productNFA builds the reachable part of a product of n and other. A
// pair is final when both components are.
func (n *NFA) productNFA(other *NFA, joint bool) *NFA {
	b := mergedBuilder(n, other)
	idx := map[pair]int{}
	var queue []pair
	visit := func(p pair) int {
		if i, ok := idx[p]; ok {
			return i
		}
		i := b.add(n.final.Test(uint(p.a)) && other.final.Test(uint(p.b)))
		idx[p] = i
		queue = append(queue, p)
		return i
	}
	start := visit(pair{n.initial, other.initial})
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		from := idx[p]
		pairMoves(n, other, p, joint, func(sym rune, q pair) {
			b.edge(from, sym, visit(q))
		})
	}
	u.Debugf("nfa product: %d x %d states -> %d pairs", len(n.states), len(other.states), len(idx))
	return b.build(start, nil)
}

// Intersection returns an NFA for L(n) ∩ L(other).
func (n *NFA) Intersection(other *NFA) *NFA { return n.productNFA(other, true) }

// ShuffleProduct returns an NFA for the interleavings of a word of L(n)
// with a word of L(other).
func (n *NFA) ShuffleProduct(other *NFA) *NFA { return n.productNFA(other, false) }

// reachPairs returns the pairs reachable from starts in the joint product
// of a and b.
func reachPairs(a, b *NFA, starts []pair) map[pair]bool {
	seen := map[pair]bool{}
	queue := []pair{}
	for _, p := range starts {
		if !seen[p] {
			seen[p] = true
			queue = append(queue, p)
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		pairMoves(a, b, p, true, func(_ rune, q pair) {
			if !seen[q] {
				seen[q] = true
				queue = append(queue, q)
			}
		})
	}
	return seen
}

// RightQuotient returns an NFA for L(n)/L(other), the words x such that
// xy ∈ L(n) for some y ∈ L(other). The states and moves of n are kept;
// a state becomes final when reading some word of L(other) from it can
// end in a final state.
func (n *NFA) RightQuotient(other *NFA) *NFA {
	b := mergedBuilder(n, other)
	a := b.embed(n)
	for q := range n.states {
		for p := range reachPairs(n, other, []pair{{q, other.initial}}) {
			if n.final.Test(uint(p.a)) && other.final.Test(uint(p.b)) {
				b.final[a+q] = true
				break
			}
		}
	}
	return b.build(a+n.initial, n.States())
}

// LeftQuotient returns an NFA for L(other)\L(n), the words y such that
// xy ∈ L(n) for some x ∈ L(other). A new initial state has ε moves to
// every state of n reachable by a word of L(other).
func (n *NFA) LeftQuotient(other *NFA) *NFA {
	b := mergedBuilder(n, other)
	a := b.embed(n)
	b.markFinals(a, n)
	start := b.add(false)
	entry := bitset.New(uint(len(n.states)))
	for p := range reachPairs(n, other, []pair{{n.initial, other.initial}}) {
		if other.final.Test(uint(p.b)) {
			entry.Set(uint(p.a))
		}
	}
	for i, ok := entry.NextSet(0); ok; i, ok = entry.NextSet(i + 1) {
		b.edge(start, Epsilon, a+int(i))
	}
	names := append(n.States(), freshState("q", stateSet(n.states)))
	return b.build(start, names)
}

// EliminateLambda returns an equivalent NFA without ε moves. Every state
// takes over the moves of its ε-closure and becomes final when the
// closure holds a final state; states left unreachable are dropped.
// Names are kept.
func (n *NFA) EliminateLambda() *NFA {
	size := len(n.states)
	moves := make([][][]int, size)
	for s := range n.states {
		moves[s] = make([][]int, len(n.symbols))
		for j := range n.symbols {
			var targets []int
			for _, q := range n.closure[s] {
				targets = append(targets, n.delta[q][j]...)
			}
			slices.Sort(targets)
			moves[s][j] = slices.Compact(targets)
		}
	}
	// reachable part without ε moves
	keep := bitset.New(uint(size))
	keep.Set(uint(n.initial))
	queue := []int{n.initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, targets := range moves[s] {
			for _, t := range targets {
				if !keep.Test(uint(t)) {
					keep.Set(uint(t))
					queue = append(queue, t)
				}
			}
		}
	}
	b := newNFABuilder(n.InputSymbols())
	pos := make([]int, size)
	var names []State
	for s, ok := keep.NextSet(0); ok; s, ok = keep.NextSet(s + 1) {
		pos[s] = b.add(n.closureFinal(int(s)))
		names = append(names, n.states[s])
	}
	for s, ok := keep.NextSet(0); ok; s, ok = keep.NextSet(s + 1) {
		for j, targets := range moves[s] {
			for _, t := range targets {
				b.edge(pos[s], n.symbols[j], pos[t])
			}
		}
	}
	return b.build(pos[n.initial], names)
}
