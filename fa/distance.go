package fa

import (
	"fmt"
	"strconv"

	"automata/automaton"
)

// EditDistance returns an NFA over symbols accepting the words within
// Levenshtein distance k of reference. State "i,j" means i symbols of
// reference have been consumed using j edits. NoInsertion, NoDeletion
// and NoSubstitution restrict the allowed edits; substitution alone gives
// Hamming distance.
func EditDistance(symbols []rune, reference string, k int, opts ...Option) (*NFA, error) {
	o := collect(opts)
	if k < 0 {
		return nil, fmt.Errorf("%w: distance %d must not be negative", automaton.ErrInvalidArgument, k)
	}
	if o.noInsertion && o.noDeletion && o.noSubstitution {
		return nil, fmt.Errorf("%w: every edit operation is disabled", automaton.ErrInvalidArgument)
	}
	syms, err := prepare(symbols, reference)
	if err != nil {
		return nil, err
	}
	ref := []rune(reference)
	b := newNFABuilder(syms)
	id := func(i, j int) int { return i*(k+1) + j }
	var names []State
	for i := 0; i <= len(ref); i++ {
		for j := 0; j <= k; j++ {
			b.add(i == len(ref))
			names = append(names, State(strconv.Itoa(i)+","+strconv.Itoa(j)))
		}
	}
	for i := 0; i <= len(ref); i++ {
		for j := 0; j <= k; j++ {
			from := id(i, j)
			if i < len(ref) {
				b.edge(from, ref[i], id(i+1, j))
			}
			if j == k {
				continue
			}
			if !o.noInsertion {
				for _, sym := range syms {
					b.edge(from, sym, id(i, j+1))
				}
			}
			if i == len(ref) {
				continue
			}
			if !o.noSubstitution {
				for _, sym := range syms {
					b.edge(from, sym, id(i+1, j+1))
				}
			}
			if !o.noDeletion {
				b.edge(from, Epsilon, id(i+1, j+1))
			}
		}
	}
	return b.build(0, names), nil
}
