package fa

import (
	"encoding/binary"

	u "github.com/araddon/gou"
	"github.com/bits-and-blooms/bitset"

	"automata/automaton"
)

// DFAFromNFA converts n into an equivalent DFA by the subset
// construction. Only subsets reachable from the closure of the initial
// state are built and no trap state is added, so the result may be
// partial. It is minified unless SkipMinify is given; with RetainNames
// subset states are named "{s1,s2,...}".
func DFAFromNFA(n *NFA, opts ...Option) *DFA {
	o := collect(opts)
	start := n.start()
	idx := map[string]int{subsetKey(start): 0}
	sets := []*bitset.BitSet{start}
	var delta [][]int
	for q := 0; q < len(sets); q++ {
		row := make([]int, len(n.symbols))
		for j := range n.symbols {
			next := n.step(sets[q], j)
			if next.None() {
				row[j] = -1
				continue
			}
			key := subsetKey(next)
			i, ok := idx[key]
			if !ok {
				i = len(sets)
				idx[key] = i
				sets = append(sets, next)
			}
			row[j] = i
		}
		delta = append(delta, row)
	}
	names := make([]State, len(sets))
	final := make([]bool, len(sets))
	for i, set := range sets {
		final[i] = set.IntersectionCardinality(n.final) > 0
		if o.retainNames {
			names[i] = automaton.SetName(n.names(set))
		} else {
			names[i] = num(i)
		}
	}
	if o.retainNames {
		names = uniqueNames(names)
	}
	u.Debugf("determinize: %d NFA states -> %d subsets", len(n.states), len(sets))
	d := newDFA(names, n.InputSymbols(), delta, 0, final)
	if o.skipMinify {
		return d
	}
	return d.minify(nil, o.retainNames)
}

// subsetKey encodes the words of set. Every set of one construction has
// the same length, so equal keys mean equal sets.
func subsetKey(set *bitset.BitSet) string {
	words := set.Bytes()
	buf := make([]byte, 0, 8*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return string(buf)
}
