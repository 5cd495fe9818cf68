package fa

import (
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/exp/slices"

	"automata/automaton"
)

// DFAParams are the constructor parameters of a DFA.
type DFAParams struct {
	States       []State
	InputSymbols []rune
	Transitions  map[State]map[rune]State
	InitialState State
	FinalStates  []State
	// AllowPartial permits states without a transition on every symbol.
	AllowPartial bool
}

// DFA is a deterministic finite automaton.
type DFA struct {
	states       []State // sorted
	index        map[State]int
	symbols      []rune // sorted
	symIdx       map[rune]int
	delta        [][]int // delta[state][symbol], -1 when missing
	initial      int
	final        []bool
	allowPartial bool

	params *DFAParams // caller's parameters, kept only for mutable automata
	counts countCache
}

var _ automaton.Automaton[State] = (*DFA)(nil)

type countCache struct {
	mu     sync.Mutex
	levels [][]*big.Int // levels[k][state] = accepted words of length k from state
}

// NewDFA validates p (unless validation is disabled globally) and builds
// a DFA from it.
func NewDFA(p DFAParams) (*DFA, error) {
	cfg := automaton.CurrentConfig()
	if cfg.ValidateAutomata {
		if err := validateDFA(&p); err != nil {
			return nil, err
		}
	}
	d := dfaFromParams(&p)
	if cfg.AllowMutableAutomata {
		d.params = &p
	}
	return d, nil
}

// MustDFA is like NewDFA but panics on error.
func MustDFA(p DFAParams) *DFA {
	d, err := NewDFA(p)
	if err != nil {
		panic(err)
	}
	return d
}

func validateDFA(p *DFAParams) error {
	states := stateSet(p.States)
	symbols := normSymbols(p.InputSymbols)
	for _, s := range sortedKeys(p.Transitions) {
		if !states[s] {
			return fmt.Errorf("%w: transition start state %s is not a state", automaton.ErrInvalidState, s)
		}
	}
	for _, s := range automaton.SortStates(append([]State(nil), p.States...)) {
		lookup, ok := p.Transitions[s]
		if !ok && !p.AllowPartial {
			return fmt.Errorf("%w: state %s has no transitions", automaton.ErrMissingState, s)
		}
		for _, sym := range sortedRuneKeys(lookup) {
			if _, ok := slices.BinarySearch(symbols, sym); !ok {
				return fmt.Errorf("%w: state %s has a transition on %q", automaton.ErrInvalidSymbol, s, sym)
			}
			if to := lookup[sym]; !states[to] {
				return fmt.Errorf("%w: end state %s for transition on %s is not a state", automaton.ErrInvalidState, to, s)
			}
		}
		if p.AllowPartial {
			continue
		}
		for _, sym := range symbols {
			if _, ok := lookup[sym]; !ok {
				return fmt.Errorf("%w: state %s is missing a transition on %q", automaton.ErrMissingSymbol, s, sym)
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

// dfaFromParams indexes p. Anything referenced but not declared is added
// so that unvalidated parameters cannot cause a panic.
func dfaFromParams(p *DFAParams) *DFA {
	all := stateSet(p.States)
	all[p.InitialState] = true
	for _, f := range p.FinalStates {
		all[f] = true
	}
	syms := append([]rune(nil), p.InputSymbols...)
	for s, lookup := range p.Transitions {
		all[s] = true
		for sym, to := range lookup {
			all[to] = true
			syms = append(syms, sym)
		}
	}
	names := sortedKeys(all)
	symbols := normSymbols(syms)
	index := make(map[State]int, len(names))
	for i, s := range names {
		index[s] = i
	}
	symIdx := symbolIndex(symbols)
	delta := make([][]int, len(names))
	for i, s := range names {
		row := make([]int, len(symbols))
		for j := range row {
			row[j] = -1
		}
		for sym, to := range p.Transitions[s] {
			row[symIdx[sym]] = index[to]
		}
		delta[i] = row
	}
	final := make([]bool, len(names))
	for _, f := range p.FinalStates {
		final[index[f]] = true
	}
	return &DFA{
		states:       names,
		index:        index,
		symbols:      symbols,
		symIdx:       symIdx,
		delta:        delta,
		initial:      index[p.InitialState],
		final:        final,
		allowPartial: p.AllowPartial,
	}
}

// newDFA builds a DFA from an already consistent indexed description.
// names may come in any order; the result is re-indexed by sorted name.
// The DFA allows partial transitions exactly when some are missing.
func newDFA(names []State, symbols []rune, delta [][]int, initial int, final []bool) *DFA {
	order, pos := sortPermutation(names)
	d := &DFA{
		states:  make([]State, len(names)),
		index:   make(map[State]int, len(names)),
		symbols: symbols,
		symIdx:  symbolIndex(symbols),
		delta:   make([][]int, len(names)),
		initial: pos[initial],
		final:   make([]bool, len(names)),
	}
	for n, o := range order {
		d.states[n] = names[o]
		d.index[names[o]] = n
		d.final[n] = final[o]
		row := make([]int, len(symbols))
		for j, t := range delta[o] {
			if t < 0 {
				row[j] = -1
				d.allowPartial = true
			} else {
				row[j] = pos[t]
			}
		}
		d.delta[n] = row
	}
	return d
}

// --- accessors --------------------------------------------------------------

// States returns the states in sorted order.
func (d *DFA) States() []State { return append([]State(nil), d.states...) }

// InputSymbols returns the alphabet in sorted order.
func (d *DFA) InputSymbols() []rune { return append([]rune(nil), d.symbols...) }

// InitialState returns the initial state.
func (d *DFA) InitialState() State { return d.states[d.initial] }

// FinalStates returns the final states in sorted order.
func (d *DFA) FinalStates() []State {
	var out []State
	for i, f := range d.final {
		if f {
			out = append(out, d.states[i])
		}
	}
	return out
}

// IsFinal reports whether s is a final state.
func (d *DFA) IsFinal(s State) bool {
	i, ok := d.index[s]
	return ok && d.final[i]
}

// Transition returns the target of s on sym.
func (d *DFA) Transition(s State, sym rune) (State, bool) {
	i, ok := d.index[s]
	j, ok2 := d.symIdx[sym]
	if !ok || !ok2 || d.delta[i][j] < 0 {
		return "", false
	}
	return d.states[d.delta[i][j]], true
}

// NumStates returns the number of states.
func (d *DFA) NumStates() int { return len(d.states) }

// AllowPartial reports whether the DFA was built allowing missing transitions.
func (d *DFA) AllowPartial() bool { return d.allowPartial }

// IsPartial reports whether some transition is actually missing.
func (d *DFA) IsPartial() bool {
	for _, row := range d.delta {
		for _, t := range row {
			if t < 0 {
				return true
			}
		}
	}
	return false
}

// Params returns the constructor parameters describing d.
func (d *DFA) Params() DFAParams {
	if d.params != nil {
		return *d.params
	}
	p := DFAParams{
		States:       d.States(),
		InputSymbols: d.InputSymbols(),
		Transitions:  make(map[State]map[rune]State, len(d.states)),
		InitialState: d.InitialState(),
		FinalStates:  d.FinalStates(),
		AllowPartial: d.allowPartial,
	}
	for i, row := range d.delta {
		lookup := make(map[rune]State, len(row))
		for j, t := range row {
			if t >= 0 {
				lookup[d.symbols[j]] = d.states[t]
			}
		}
		p.Transitions[d.states[i]] = lookup
	}
	return p
}

// Validate re-checks the automaton's parameters.
func (d *DFA) Validate() error {
	p := d.Params()
	return validateDFA(&p)
}

// Copy returns an equal, independent DFA.
func (d *DFA) Copy() *DFA {
	c := &DFA{
		states:       d.States(),
		index:        make(map[State]int, len(d.index)),
		symbols:      d.InputSymbols(),
		symIdx:       symbolIndex(d.symbols),
		delta:        make([][]int, len(d.delta)),
		initial:      d.initial,
		final:        append([]bool(nil), d.final...),
		allowPartial: d.allowPartial,
	}
	for s, i := range d.index {
		c.index[s] = i
	}
	for i, row := range d.delta {
		c.delta[i] = append([]int(nil), row...)
	}
	if d.params != nil {
		p := d.Params()
		c.params = &p
	}
	return c
}

// --- reading ----------------------------------------------------------------

// ReadInputStepwise returns a stepper over the states visited while
// reading word. A missing transition ends the read with a rejection.
func (d *DFA) ReadInputStepwise(word string) *automaton.Stepper[State] {
	move := func(cur State, r rune) (State, error) {
		j, ok := d.symIdx[r]
		if !ok {
			return cur, automaton.Rejectf("%q is not a valid input symbol", r)
		}
		t := d.delta[d.index[cur]][j]
		if t < 0 {
			return cur, automaton.Rejectf("state %s has no transition on %q", cur, r)
		}
		return d.states[t], nil
	}
	check := func(cur State) error {
		if !d.final[d.index[cur]] {
			return automaton.Rejectf("the DFA stopped on a non-final state (%s)", cur)
		}
		return nil
	}
	return automaton.NewStepper(d.InitialState(), word, move, check)
}

// ReadInput returns the state reached after reading word, or a rejection.
func (d *DFA) ReadInput(word string) (State, error) {
	return automaton.Drain(d.ReadInputStepwise(word))
}

// AcceptsInput reports whether word is in the language.
func (d *DFA) AcceptsInput(word string) bool {
	cur, ok := d.run(d.initial, word)
	return ok && d.final[cur]
}

// run follows word from state i; ok is false when the DFA gets stuck.
func (d *DFA) run(i int, word string) (int, bool) {
	for _, r := range word {
		j, ok := d.symIdx[r]
		if !ok {
			return i, false
		}
		i = d.delta[i][j]
		if i < 0 {
			return i, false
		}
	}
	return i, true
}

// reachable marks the states reachable from the initial state.
func (d *DFA) reachable() []bool {
	seen := make([]bool, len(d.states))
	seen[d.initial] = true
	queue := []int{d.initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, t := range d.delta[s] {
			if t >= 0 && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return seen
}

// coreachable marks the states from which a final state can be reached.
func (d *DFA) coreachable() []bool {
	back := make([][]int, len(d.states))
	for s, row := range d.delta {
		for _, t := range row {
			if t >= 0 {
				back[t] = append(back[t], s)
			}
		}
	}
	seen := make([]bool, len(d.states))
	var queue []int
	for s, f := range d.final {
		if f {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, p := range back[s] {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen
}
