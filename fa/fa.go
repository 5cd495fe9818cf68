// Package fa implements finite automata: DFAs with total or partial
// transition functions, NFAs with ε moves, and GNFAs whose edges carry
// regular expressions. All automata are immutable once constructed; every
// operation returns a new value.
package fa

import (
	"fmt"
	"sort"
	"strconv"

	u "github.com/araddon/gou"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"automata/automaton"
)

// State is re-exported for convenience.
type State = automaton.State

// Epsilon labels empty-symbol NFA transitions.
const Epsilon rune = 0

// Option tunes constructions. Each operation documents the options it
// reads and ignores the rest.
type Option func(*options)

type options struct {
	retainNames    bool
	skipMinify     bool
	negate         bool
	complete       bool
	noInsertion    bool
	noDeletion     bool
	noSubstitution bool
}

// RetainNames derives state names from the states they were built from
// ("{a,b}" for merged or subset states, "(a,b)" for product pairs)
// instead of numbering them.
func RetainNames() Option { return func(o *options) { o.retainNames = true } }

// SkipMinify returns the raw construction without minimizing it.
func SkipMinify() Option { return func(o *options) { o.skipMinify = true } }

// Negate makes a pattern constructor build the complement language.
func Negate() Option { return func(o *options) { o.negate = true } }

// Complete makes a constructor return a complete DFA instead of a
// partial one.
func Complete() Option { return func(o *options) { o.complete = true } }

// NoInsertion disables insertions in EditDistance.
func NoInsertion() Option { return func(o *options) { o.noInsertion = true } }

// NoDeletion disables deletions in EditDistance.
func NoDeletion() Option { return func(o *options) { o.noDeletion = true } }

// NoSubstitution disables substitutions in EditDistance.
func NoSubstitution() Option { return func(o *options) { o.noSubstitution = true } }

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// --- symbols ----------------------------------------------------------------

// normSymbols returns a sorted copy of in without duplicates.
func normSymbols(in []rune) []rune {
	out := append([]rune(nil), in...)
	slices.Sort(out)
	return slices.Compact(out)
}

func symbolIndex(symbols []rune) map[rune]int {
	idx := make(map[rune]int, len(symbols))
	for i, r := range symbols {
		idx[r] = i
	}
	return idx
}

func symbolsOf(s string) []rune { return normSymbols([]rune(s)) }

// checkWord fails if word uses a symbol outside symbols.
func checkWord(symbols []rune, word string) error {
	for _, r := range word {
		if _, ok := slices.BinarySearch(symbols, r); !ok {
			return fmt.Errorf("%w: %q is not an input symbol", automaton.ErrInvalidSymbol, r)
		}
	}
	return nil
}

func checkSymbols(symbols []rune, sub []rune) error {
	for _, r := range sub {
		if _, ok := slices.BinarySearch(symbols, r); !ok {
			return fmt.Errorf("%w: %q is not an input symbol", automaton.ErrInvalidSymbol, r)
		}
	}
	return nil
}

// --- states -----------------------------------------------------------------

func num(i int) State { return State(strconv.Itoa(i)) }

func stateSet(states []State) map[State]bool {
	set := make(map[State]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	return set
}

func sortedKeys[V any](m map[State]V) []State {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func sortedRuneKeys[V any](m map[rune]V) []rune {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// sortPermutation returns the order in which names sort, and for each
// original position its new one.
func sortPermutation(names []State) (order, pos []int) {
	order = make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })
	pos = make([]int, len(names))
	for n, o := range order {
		pos[o] = n
	}
	return order, pos
}

// freshState returns the first of base, base1, base2, ... not in taken.
func freshState(base string, taken map[State]bool) State {
	if !taken[State(base)] {
		return State(base)
	}
	for i := 1; ; i++ {
		s := State(base + strconv.Itoa(i))
		if !taken[s] {
			return s
		}
	}
}

// uniqueNames returns names unchanged when they are pairwise distinct and
// a plain numbering otherwise. Derived names can collide when the source
// names themselves contain the separators used to build them.
func uniqueNames(names []State) []State {
	seen := make(map[State]bool, len(names))
	for _, s := range names {
		if seen[s] {
			u.Warnf("derived state names collide on %s, numbering states instead", s)
			out := make([]State, len(names))
			for i := range out {
				out[i] = num(i)
			}
			return out
		}
		seen[s] = true
	}
	return names
}
