package fa

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"

	"automata/automaton"
)

// NFAParams are the constructor parameters of an NFA. Empty-symbol moves
// are keyed by Epsilon.
type NFAParams struct {
	States       []State
	InputSymbols []rune
	Transitions  map[State]map[rune][]State
	InitialState State
	FinalStates  []State
}

// NFA is a nondeterministic finite automaton with ε moves.
type NFA struct {
	states  []State // sorted
	index   map[State]int
	symbols []rune // sorted, without Epsilon
	symIdx  map[rune]int
	delta   [][][]int // delta[state][symbol], sorted targets
	eps     [][]int   // ε targets per state, sorted
	closure [][]int   // sorted, state included
	initial int
	final   *bitset.BitSet

	params *NFAParams
}

var _ automaton.Automaton[[]State] = (*NFA)(nil)

// NewNFA validates p (unless validation is disabled globally) and builds
// an NFA from it.
func NewNFA(p NFAParams) (*NFA, error) {
	cfg := automaton.CurrentConfig()
	if cfg.ValidateAutomata {
		if err := validateNFA(&p); err != nil {
			return nil, err
		}
	}
	n := nfaFromParams(&p)
	if cfg.AllowMutableAutomata {
		n.params = &p
	}
	return n, nil
}

// MustNFA is like NewNFA but panics on error.
func MustNFA(p NFAParams) *NFA {
	n, err := NewNFA(p)
	if err != nil {
		panic(err)
	}
	return n
}

func validateNFA(p *NFAParams) error {
	states := stateSet(p.States)
	symbols := normSymbols(p.InputSymbols)
	if _, ok := slices.BinarySearch(symbols, Epsilon); ok {
		return fmt.Errorf("%w: the empty symbol is reserved for ε moves", automaton.ErrInvalidSymbol)
	}
	for _, s := range sortedKeys(p.Transitions) {
		if !states[s] {
			return fmt.Errorf("%w: transition start state %s is not a state", automaton.ErrInvalidState, s)
		}
		lookup := p.Transitions[s]
		for _, sym := range sortedRuneKeys(lookup) {
			if _, ok := slices.BinarySearch(symbols, sym); !ok && sym != Epsilon {
				return fmt.Errorf("%w: state %s has a transition on %q", automaton.ErrInvalidSymbol, s, sym)
			}
			for _, to := range lookup[sym] {
				if !states[to] {
					return fmt.Errorf("%w: end state %s for transition on %s is not a state", automaton.ErrInvalidState, to, s)
				}
			}
		}
	}
	if !states[p.InitialState] {
		return fmt.Errorf("%w: initial state %s is not a state", automaton.ErrInvalidState, p.InitialState)
	}
	for _, f := range p.FinalStates {
		if !states[f] {
			return fmt.Errorf("%w: final state %s is not a state", automaton.ErrInvalidState, f)
		}
	}
	return nil
}

func nfaFromParams(p *NFAParams) *NFA {
	all := stateSet(p.States)
	all[p.InitialState] = true
	for _, f := range p.FinalStates {
		all[f] = true
	}
	syms := append([]rune(nil), p.InputSymbols...)
	for s, lookup := range p.Transitions {
		all[s] = true
		for sym, targets := range lookup {
			if sym != Epsilon {
				syms = append(syms, sym)
			}
			for _, to := range targets {
				all[to] = true
			}
		}
	}
	names := sortedKeys(all)
	b := newNFABuilder(normSymbols(syms))
	index := make(map[State]int, len(names))
	for i, s := range names {
		index[s] = i
		b.add(false)
	}
	for _, f := range p.FinalStates {
		b.final[index[f]] = true
	}
	for s, lookup := range p.Transitions {
		for sym, targets := range lookup {
			for _, to := range targets {
				b.edge(index[s], sym, index[to])
			}
		}
	}
	return b.build(index[p.InitialState], names)
}

// nfaBuilder accumulates states and edges by number.
type nfaBuilder struct {
	symbols []rune
	symIdx  map[rune]int
	delta   [][][]int
	eps     [][]int
	final   []bool
}

func newNFABuilder(symbols []rune) *nfaBuilder {
	return &nfaBuilder{symbols: symbols, symIdx: symbolIndex(symbols)}
}

func (b *nfaBuilder) add(final bool) int {
	b.delta = append(b.delta, make([][]int, len(b.symbols)))
	b.eps = append(b.eps, nil)
	b.final = append(b.final, final)
	return len(b.delta) - 1
}

// edge adds from -sym-> to; sym must be Epsilon or one of the symbols.
func (b *nfaBuilder) edge(from int, sym rune, to int) {
	if sym == Epsilon {
		b.eps[from] = append(b.eps[from], to)
		return
	}
	j := b.symIdx[sym]
	b.delta[from][j] = append(b.delta[from][j], to)
}

// embed copies every state and edge of n, returning the number given to
// n's state 0. Final flags are not copied.
func (b *nfaBuilder) embed(n *NFA) int {
	off := len(b.delta)
	for range n.states {
		b.add(false)
	}
	for s := range n.states {
		for j, targets := range n.delta[s] {
			for _, t := range targets {
				b.edge(off+s, n.symbols[j], off+t)
			}
		}
		for _, t := range n.eps[s] {
			b.edge(off+s, Epsilon, off+t)
		}
	}
	return off
}

// build finishes the NFA. names gives each state's name (numbers when
// nil); the result is re-indexed by sorted name.
func (b *nfaBuilder) build(initial int, names []State) *NFA {
	if names == nil {
		names = make([]State, len(b.delta))
		for i := range names {
			names[i] = num(i)
		}
	}
	order, pos := sortPermutation(names)
	size := len(names)
	n := &NFA{
		states:  make([]State, size),
		index:   make(map[State]int, size),
		symbols: b.symbols,
		symIdx:  b.symIdx,
		delta:   make([][][]int, size),
		eps:     make([][]int, size),
		initial: pos[initial],
		final:   bitset.New(uint(size)),
	}
	remap := func(targets []int) []int {
		if len(targets) == 0 {
			return nil
		}
		out := make([]int, len(targets))
		for i, t := range targets {
			out[i] = pos[t]
		}
		slices.Sort(out)
		return slices.Compact(out)
	}
	for i, o := range order {
		n.states[i] = names[o]
		n.index[names[o]] = i
		if b.final[o] {
			n.final.Set(uint(i))
		}
		n.delta[i] = make([][]int, len(b.symbols))
		for j, targets := range b.delta[o] {
			n.delta[i][j] = remap(targets)
		}
		n.eps[i] = remap(b.eps[o])
	}
	n.computeClosures()
	return n
}

// computeClosures stores the ε-closure of every state. States without ε
// moves share slices of one identity table, so the cost follows the
// number of ε edges rather than the square of the state count.
func (n *NFA) computeClosures() {
	size := len(n.states)
	ids := make([]int, size)
	for i := range ids {
		ids[i] = i
	}
	n.closure = make([][]int, size)
	seen := bitset.New(uint(size))
	for s := range n.states {
		if len(n.eps[s]) == 0 {
			n.closure[s] = ids[s : s+1 : s+1]
			continue
		}
		var c []int
		stack := []int{s}
		for len(stack) > 0 {
			q := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen.Test(uint(q)) {
				continue
			}
			seen.Set(uint(q))
			c = append(c, q)
			stack = append(stack, n.eps[q]...)
		}
		for _, q := range c {
			seen.Clear(uint(q))
		}
		slices.Sort(c)
		n.closure[s] = c
	}
}

// closureFinal reports whether the ε-closure of s holds a final state.
func (n *NFA) closureFinal(s int) bool {
	for _, q := range n.closure[s] {
		if n.final.Test(uint(q)) {
			return true
		}
	}
	return false
}

// --- accessors --------------------------------------------------------------

// States returns the states in sorted order.
func (n *NFA) States() []State { return append([]State(nil), n.states...) }

// InputSymbols returns the alphabet in sorted order.
func (n *NFA) InputSymbols() []rune { return append([]rune(nil), n.symbols...) }

// InitialState returns the initial state.
func (n *NFA) InitialState() State { return n.states[n.initial] }

// FinalStates returns the final states in sorted order.
func (n *NFA) FinalStates() []State { return n.names(n.final) }

// IsFinal reports whether s is a final state.
func (n *NFA) IsFinal(s State) bool {
	i, ok := n.index[s]
	return ok && n.final.Test(uint(i))
}

// Transitions returns the targets of s on sym (Epsilon for ε moves).
func (n *NFA) Transitions(s State, sym rune) []State {
	i, ok := n.index[s]
	if !ok {
		return nil
	}
	var targets []int
	if sym == Epsilon {
		targets = n.eps[i]
	} else if j, ok := n.symIdx[sym]; ok {
		targets = n.delta[i][j]
	}
	out := make([]State, len(targets))
	for k, t := range targets {
		out[k] = n.states[t]
	}
	return out
}

// NumStates returns the number of states.
func (n *NFA) NumStates() int { return len(n.states) }

// EpsilonClosure returns the states reachable from any of states by ε
// moves alone, states included, in sorted order.
func (n *NFA) EpsilonClosure(states ...State) ([]State, error) {
	set := bitset.New(uint(len(n.states)))
	for _, s := range states {
		i, ok := n.index[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a state", automaton.ErrInvalidState, s)
		}
		for _, q := range n.closure[i] {
			set.Set(uint(q))
		}
	}
	return n.names(set), nil
}

func (n *NFA) names(set *bitset.BitSet) []State {
	out := make([]State, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out = append(out, n.states[i])
	}
	return out
}

// Params returns the constructor parameters describing n.
func (n *NFA) Params() NFAParams {
	if n.params != nil {
		return *n.params
	}
	p := NFAParams{
		States:       n.States(),
		InputSymbols: n.InputSymbols(),
		Transitions:  make(map[State]map[rune][]State, len(n.states)),
		InitialState: n.InitialState(),
		FinalStates:  n.FinalStates(),
	}
	for i, s := range n.states {
		lookup := map[rune][]State{}
		for j := range n.symbols {
			if len(n.delta[i][j]) > 0 {
				lookup[n.symbols[j]] = n.Transitions(s, n.symbols[j])
			}
		}
		if len(n.eps[i]) > 0 {
			lookup[Epsilon] = n.Transitions(s, Epsilon)
		}
		p.Transitions[s] = lookup
	}
	return p
}

// Validate re-checks the automaton's parameters.
func (n *NFA) Validate() error {
	p := n.Params()
	return validateNFA(&p)
}

// Copy returns an equal, independent NFA.
func (n *NFA) Copy() *NFA {
	b := newNFABuilder(n.InputSymbols())
	b.embed(n)
	for i := range n.states {
		b.final[i] = n.final.Test(uint(i))
	}
	c := b.build(n.initial, n.States())
	if n.params != nil {
		p := n.Params()
		c.params = &p
	}
	return c
}

// NFAFromDFA returns the NFA with the same states and moves as d.
func NFAFromDFA(d *DFA) *NFA {
	b := newNFABuilder(d.InputSymbols())
	for i := range d.states {
		b.add(d.final[i])
	}
	for i, row := range d.delta {
		for j, t := range row {
			if t >= 0 {
				b.edge(i, d.symbols[j], t)
			}
		}
	}
	return b.build(d.initial, d.States())
}

// --- reading ----------------------------------------------------------------

func (n *NFA) start() *bitset.BitSet {
	set := bitset.New(uint(len(n.states)))
	for _, q := range n.closure[n.initial] {
		set.Set(uint(q))
	}
	return set
}

// step returns the ε-closed set reached from set on the j-th symbol.
func (n *NFA) step(set *bitset.BitSet, j int) *bitset.BitSet {
	next := bitset.New(uint(len(n.states)))
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		for _, t := range n.delta[i][j] {
			for _, q := range n.closure[t] {
				next.Set(uint(q))
			}
		}
	}
	return next
}

// ReadInputStepwise returns a stepper over the sets of current states.
func (n *NFA) ReadInputStepwise(word string) *automaton.Stepper[[]State] {
	set := n.start()
	move := func(_ []State, r rune) ([]State, error) {
		j, ok := n.symIdx[r]
		if !ok {
			return nil, automaton.Rejectf("%q is not a valid input symbol", r)
		}
		set = n.step(set, j)
		return n.names(set), nil
	}
	check := func(cur []State) error {
		if set.IntersectionCardinality(n.final) == 0 {
			return automaton.Rejectf("the NFA stopped on all non-final states %v", cur)
		}
		return nil
	}
	return automaton.NewStepper(n.names(set), word, move, check)
}

// ReadInput returns the set of states reached after reading word, or a
// rejection.
func (n *NFA) ReadInput(word string) ([]State, error) {
	return automaton.Drain(n.ReadInputStepwise(word))
}

// AcceptsInput reports whether word is in the language.
func (n *NFA) AcceptsInput(word string) bool {
	set := n.start()
	for _, r := range word {
		j, ok := n.symIdx[r]
		if !ok {
			return false
		}
		set = n.step(set, j)
		if set.None() {
			return false
		}
	}
	return set.IntersectionCardinality(n.final) > 0
}

// Equal reports whether n and other accept the same language. Automata
// over different input symbols are never equal.
func (n *NFA) Equal(other *NFA) bool {
	if !slices.Equal(n.symbols, other.symbols) {
		return false
	}
	return DFAFromNFA(n).Equal(DFAFromNFA(other))
}
