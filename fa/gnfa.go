package fa

import (
	"fmt"
	"sync"

	u "github.com/araddon/gou"
	"golang.org/x/exp/slices"

	"automata/automaton"
	"automata/regex"
)

// GNFAParams are the constructor parameters of a GNFA. Transitions maps
// a state to the label of each outgoing edge: a missing entry is no edge
// and the empty string is an ε edge.
type GNFAParams struct {
	States       []State
	InputSymbols []rune
	Transitions  map[State]map[State]string
	InitialState State
	FinalState   State
}

// GNFA is a generalized NFA whose edges are labelled with regular
// expressions. The initial state has no incoming edges and the final
// state no outgoing ones. Its main use is turning automata into regular
// expressions.
type GNFA struct {
	states  []State // sorted
	index   map[State]int
	symbols []rune
	edges   []map[int]*regex.Node // edges[from][to]
	initial int
	final   int

	params *GNFAParams
	once   sync.Once
	nfa    *NFA
	nfaErr error
}

var _ automaton.Automaton[[]State] = (*GNFA)(nil)

// NewGNFA validates p (unless validation is disabled globally) and builds
// a GNFA from it.
func NewGNFA(p GNFAParams) (*GNFA, error) {
	cfg := automaton.CurrentConfig()
	if cfg.ValidateAutomata {
		if err := validateGNFA(&p); err != nil {
			return nil, err
		}
	}
	g, err := gnfaFromParams(&p)
	if err != nil {
		return nil, err
	}
	if cfg.AllowMutableAutomata {
		g.params = &p
	}
	return g, nil
}

func validateGNFA(p *GNFAParams) error {
	states := stateSet(p.States)
	symbols := normSymbols(p.InputSymbols)
	if !states[p.InitialState] {
		return fmt.Errorf("%w: initial state %s is not a state", automaton.ErrInvalidState, p.InitialState)
	}
	if !states[p.FinalState] {
		return fmt.Errorf("%w: final state %s is not a state", automaton.ErrInvalidState, p.FinalState)
	}
	if p.InitialState == p.FinalState {
		return fmt.Errorf("%w: final state %s is also the initial state", automaton.ErrFinalState, p.FinalState)
	}
	for _, from := range sortedKeys(p.Transitions) {
		if !states[from] {
			return fmt.Errorf("%w: transition start state %s is not a state", automaton.ErrInvalidState, from)
		}
		lookup := p.Transitions[from]
		if from == p.FinalState && len(lookup) > 0 {
			return fmt.Errorf("%w: final state %s has outgoing transitions", automaton.ErrFinalState, from)
		}
		for _, to := range sortedKeys(lookup) {
			if !states[to] {
				return fmt.Errorf("%w: end state %s for transition on %s is not a state", automaton.ErrInvalidState, to, from)
			}
			if to == p.InitialState {
				return fmt.Errorf("%w: initial state %s has an incoming transition from %s", automaton.ErrInitialState, to, from)
			}
			node, err := regex.Parse(lookup[to])
			if err != nil {
				return fmt.Errorf("state %s has invalid transition expression %q: %w", from, lookup[to], err)
			}
			if err := checkSymbols(symbols, node.Symbols()); err != nil {
				return fmt.Errorf("%w: state %s has transition expression %q outside the input symbols", automaton.ErrInvalidRegex, from, lookup[to])
			}
		}
	}
	return nil
}

func gnfaFromParams(p *GNFAParams) (*GNFA, error) {
	all := stateSet(p.States)
	all[p.InitialState] = true
	all[p.FinalState] = true
	syms := append([]rune(nil), p.InputSymbols...)
	labels := map[State]map[State]*regex.Node{}
	for from, lookup := range p.Transitions {
		all[from] = true
		labels[from] = map[State]*regex.Node{}
		for to, expr := range lookup {
			all[to] = true
			node, err := regex.Parse(expr)
			if err != nil {
				return nil, err
			}
			labels[from][to] = node
			syms = append(syms, node.Symbols()...)
		}
	}
	g := newGNFA(sortedKeys(all), normSymbols(syms))
	for from, lookup := range labels {
		for to, node := range lookup {
			g.edges[g.index[from]][g.index[to]] = node
		}
	}
	g.initial, g.final = g.index[p.InitialState], g.index[p.FinalState]
	return g, nil
}

// newGNFA: ОНКА без рёбер над отсортированными именами.
func newGNFA(names []State, symbols []rune) *GNFA {
	g := &GNFA{
		states:  names,
		index:   make(map[State]int, len(names)),
		symbols: symbols,
		edges:   make([]map[int]*regex.Node, len(names)),
	}
	for i, s := range names {
		g.index[s] = i
		g.edges[i] = map[int]*regex.Node{}
	}
	return g
}

// addLabel объединяет node с меткой ребра from -> to.
func (g *GNFA) addLabel(from, to int, node *regex.Node) {
	if old, ok := g.edges[from][to]; ok {
		node = regex.Union(old, node)
	}
	g.edges[from][to] = node
}

// gnfaFrom оборачивает состояния автомата новыми начальным и конечным
// состояниями; собственные рёбра добавляет edges.
func gnfaFrom(states []State, symbols []rune, initial int, finals []int, edges func(g *GNFA, pos []int)) *GNFA {
	taken := stateSet(states)
	start := freshNumber(taken)
	taken[start] = true
	end := freshNumber(taken)
	names := append(append([]State(nil), states...), start, end)
	order, pos := sortPermutation(names)
	sorted := make([]State, len(names))
	for i, o := range order {
		sorted[i] = names[o]
	}
	g := newGNFA(sorted, symbols)
	g.initial, g.final = pos[len(states)], pos[len(states)+1]
	edges(g, pos)
	g.addLabel(g.initial, pos[initial], regex.Epsilon())
	for _, f := range finals {
		g.addLabel(pos[f], g.final, regex.Epsilon())
	}
	return g
}

// freshNumber: наименьшее неотрицательное число, которого нет в taken.
func freshNumber(taken map[State]bool) State {
	for i := 0; ; i++ {
		if !taken[num(i)] {
			return num(i)
		}
	}
}

// GNFAFromDFA returns a GNFA accepting the language of d. Parallel edges
// are joined into a union.
func GNFAFromDFA(d *DFA) *GNFA {
	var finals []int
	for i, f := range d.final {
		if f {
			finals = append(finals, i)
		}
	}
	return gnfaFrom(d.states, d.InputSymbols(), d.initial, finals, func(g *GNFA, pos []int) {
		for s, row := range d.delta {
			for j, t := range row {
				if t >= 0 {
					g.addLabel(pos[s], pos[t], regex.Literal(d.symbols[j]))
				}
			}
		}
	})
}

// GNFAFromNFA returns a GNFA accepting the language of n. An ε move
// parallel to symbol moves makes their label optional.
func GNFAFromNFA(n *NFA) *GNFA {
	return gnfaFrom(n.states, n.InputSymbols(), n.initial, n.finals(), func(g *GNFA, pos []int) {
		for s := range n.states {
			for j, targets := range n.delta[s] {
				for _, t := range targets {
					g.addLabel(pos[s], pos[t], regex.Literal(n.symbols[j]))
				}
			}
			for _, t := range n.eps[s] {
				g.addLabel(pos[s], pos[t], regex.Epsilon())
			}
		}
	})
}

// --- accessors --------------------------------------------------------------

// States returns the states in sorted order.
func (g *GNFA) States() []State { return append([]State(nil), g.states...) }

// InputSymbols returns the alphabet in sorted order.
func (g *GNFA) InputSymbols() []rune { return append([]rune(nil), g.symbols...) }

// InitialState returns the initial state.
func (g *GNFA) InitialState() State { return g.states[g.initial] }

// FinalState returns the final state.
func (g *GNFA) FinalState() State { return g.states[g.final] }

// Label returns the expression on the edge from -> to ("" for ε).
func (g *GNFA) Label(from, to State) (string, bool) {
	i, ok := g.index[from]
	j, ok2 := g.index[to]
	if !ok || !ok2 {
		return "", false
	}
	node, ok := g.edges[i][j]
	if !ok {
		return "", false
	}
	return label(node), true
}

func label(node *regex.Node) string {
	if node.Op == regex.OpEmpty {
		return ""
	}
	return node.String()
}

// Params returns the constructor parameters describing g. Labels are
// given in canonical form.
func (g *GNFA) Params() GNFAParams {
	if g.params != nil {
		return *g.params
	}
	p := GNFAParams{
		States:       g.States(),
		InputSymbols: g.InputSymbols(),
		Transitions:  make(map[State]map[State]string, len(g.states)),
		InitialState: g.InitialState(),
		FinalState:   g.FinalState(),
	}
	for i, edges := range g.edges {
		if i == g.final {
			continue
		}
		lookup := make(map[State]string, len(edges))
		for j, node := range edges {
			lookup[g.states[j]] = label(node)
		}
		p.Transitions[g.states[i]] = lookup
	}
	return p
}

// Validate re-checks the automaton's parameters.
func (g *GNFA) Validate() error {
	p := g.Params()
	return validateGNFA(&p)
}

// Copy returns an equal, independent GNFA.
func (g *GNFA) Copy() *GNFA {
	c := newGNFA(g.States(), g.InputSymbols())
	c.initial, c.final = g.initial, g.final
	for i, edges := range g.edges {
		for j, node := range edges {
			c.edges[i][j] = node
		}
	}
	if g.params != nil {
		p := g.Params()
		c.params = &p
	}
	return c
}

// --- удаление состояний -----------------------------------------------------

// ToRegex returns a regular expression for the language of g, found by
// ripping out states one at a time. The state with the fewest incident
// edges goes first, ties broken by name. The empty language has no
// expression and fails with ErrEmptyLanguage.
func (g *GNFA) ToRegex() (string, error) {
	edges := make([]map[int]*regex.Node, len(g.edges))
	for i, e := range g.edges {
		edges[i] = make(map[int]*regex.Node, len(e))
		for j, node := range e {
			edges[i][j] = node
		}
	}
	alive := make([]bool, len(g.states))
	for i := range alive {
		alive[i] = true
	}
	for left := len(g.states); left > 2; left-- {
		rip := g.ripCandidate(edges, alive)
		alive[rip] = false
		r2, loop := edges[rip][rip]
		for qi := range g.states {
			r1, ok := edges[qi][rip]
			if !alive[qi] || qi == g.final || !ok {
				continue
			}
			for qj := range g.states {
				r3, ok := edges[rip][qj]
				if !alive[qj] || qj == g.initial || !ok {
					continue
				}
				path := []*regex.Node{r1}
				if loop {
					path = append(path, regex.Star(r2))
				}
				node := regex.Concat(append(path, r3)...)
				if r4, ok := edges[qi][qj]; ok {
					node = regex.Union(r4, node)
				}
				edges[qi][qj] = node
			}
			delete(edges[qi], rip)
		}
		edges[rip] = nil
		u.Debugf("gnfa: ripped %s, %d states left", g.states[rip], left-1)
	}
	node, ok := edges[g.initial][g.final]
	if !ok {
		return "", fmt.Errorf("%w: no path from %s to %s", automaton.ErrEmptyLanguage, g.InitialState(), g.FinalState())
	}
	return node.String(), nil
}

// ripCandidate выбирает живое внутреннее состояние с наименьшим числом рёбер.
func (g *GNFA) ripCandidate(edges []map[int]*regex.Node, alive []bool) int {
	degree := make([]int, len(g.states))
	for from, e := range edges {
		if !alive[from] {
			continue
		}
		for to := range e {
			if !alive[to] {
				continue
			}
			if from != g.initial {
				degree[from]++
			}
			if to != g.final {
				degree[to]++
			}
		}
	}
	best := -1
	for s := range g.states {
		if !alive[s] || s == g.initial || s == g.final {
			continue
		}
		if best < 0 || degree[s] < degree[best] {
			best = s
		}
	}
	return best
}

// --- reading ----------------------------------------------------------------

// ToNFA returns an NFA accepting the language of g. Every GNFA state
// keeps its name; the states compiled from edge labels are numbered.
// Labels are compiled over the GNFA's alphabet, which construction
// extends with every symbol a label names, so an error only comes from a
// label the compiler does not understand.
func (g *GNFA) ToNFA() (*NFA, error) {
	c := &compiler{b: newNFABuilder(g.symbols)}
	for range g.states {
		c.b.add(false)
	}
	c.b.final[g.final] = true
	for from, e := range g.edges {
		targets := make([]int, 0, len(e))
		for to := range e {
			targets = append(targets, to)
		}
		slices.Sort(targets)
		for _, to := range targets {
			frag, err := c.build(e[to])
			if err != nil {
				return nil, fmt.Errorf("edge %s -> %s: %w", g.states[from], g.states[to], err)
			}
			c.b.edge(from, Epsilon, frag.start)
			c.patchOuts(frag.outs, to)
		}
	}
	names := g.States()
	taken := stateSet(names)
	for len(names) < len(c.b.delta) {
		s := freshNumber(taken)
		taken[s] = true
		names = append(names, s)
	}
	return c.b.build(g.initial, names), nil
}

func (g *GNFA) compiled() (*NFA, error) {
	g.once.Do(func() { g.nfa, g.nfaErr = g.ToNFA() })
	return g.nfa, g.nfaErr
}

// ReadInputStepwise returns a stepper over the sets of current states of
// the NFA returned by ToNFA.
func (g *GNFA) ReadInputStepwise(word string) *automaton.Stepper[[]State] {
	n, err := g.compiled()
	if err != nil {
		return automaton.FailedStepper[[]State](err)
	}
	return n.ReadInputStepwise(word)
}

// ReadInput returns the set of states of the NFA returned by ToNFA reached
// after reading word, or a rejection.
func (g *GNFA) ReadInput(word string) ([]State, error) {
	n, err := g.compiled()
	if err != nil {
		return nil, err
	}
	return n.ReadInput(word)
}

// AcceptsInput reports whether word is in the language.
func (g *GNFA) AcceptsInput(word string) bool {
	n, err := g.compiled()
	return err == nil && n.AcceptsInput(word)
}
