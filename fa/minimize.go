package fa

import (
	"fmt"
	"strconv"

	u "github.com/araddon/gou"

	"automata/automaton"
	"automata/internal/partition"
)

// Minify returns the minimal DFA for the same language. Unreachable
// states are dropped first. When a reachable state is missing a
// transition, the states that cannot reach a final state are merged with
// the implicit trap state and removed, so the result is partial. When the
// reachable part is complete the result is complete too, and its dead
// states collapse into one ordinary non-accepting state. States are
// numbered in breadth-first order unless RetainNames is given, in which
// case each state is named after the set of states it merges.
func (d *DFA) Minify(opts ...Option) *DFA {
	return d.minify(nil, collect(opts).retainNames)
}

// workSet: рабочее множество Хопкрофта, очередь без повторов.
type workSet struct {
	queue []int
	in    map[int]bool
}

func (w *workSet) add(id int) {
	if !w.in[id] {
		w.in[id] = true
		w.queue = append(w.queue, id)
	}
}

func (w *workSet) pop() int {
	id := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.in, id)
	return id
}

// minify оставляет состояния, достижимые через keep (все, если keep ==
// nil), и склеивает эквивалентные.
func (d *DFA) minify(keep []bool, retainNames bool) *DFA {
	// --- 1. достижимые состояния, плотные номера в порядке BFS ---
	id := make([]int, len(d.states))
	for i := range id {
		id[i] = -1
	}
	kept := func(t int) bool { return t >= 0 && (keep == nil || keep[t]) }
	order := []int{d.initial}
	id[d.initial] = 0
	trap := -1
	for q := 0; q < len(order); q++ {
		for _, t := range d.delta[order[q]] {
			switch {
			case !kept(t):
				trap = 0
			case id[t] < 0:
				id[t] = len(order)
				order = append(order, t)
			}
		}
	}
	m := len(order)
	size := m
	if trap == 0 {
		trap = m
		size++
	}
	target := func(c, j int) int {
		t := d.delta[order[c]][j]
		if !kept(t) {
			return trap
		}
		return id[t]
	}

	// --- 2. прообразы по каждому символу ---
	k := len(d.symbols)
	back := make([][][]int, k)
	for j := range back {
		back[j] = make([][]int, size)
		for c := 0; c < m; c++ {
			t := target(c, j)
			back[j][t] = append(back[j][t], c)
		}
		if trap >= 0 {
			back[j][trap] = append(back[j][trap], trap)
		}
	}

	// --- 3. измельчение разбиения ---
	p := partition.New(size)
	var finals []int
	for c, s := range order {
		if d.final[s] {
			finals = append(finals, c)
		}
	}
	start := p.IDs()[0]
	if splits := p.Refine(finals); len(splits) > 0 {
		start = splits[0].Inside
	}
	work := &workSet{in: map[int]bool{}}
	work.add(start)
	for len(work.queue) > 0 {
		active := append([]int(nil), p.Block(work.pop())...)
		for j := 0; j < k; j++ {
			var pre []int
			for _, x := range active {
				pre = append(pre, back[j][x]...)
			}
			for _, sp := range p.Refine(pre) {
				switch {
				case work.in[sp.Outside]:
					work.add(sp.Inside)
				case len(p.Block(sp.Inside)) < len(p.Block(sp.Outside)):
					work.add(sp.Inside)
				default:
					work.add(sp.Outside)
				}
			}
		}
	}

	// --- 4. по состоянию на блок, нумерация от начального блока ---
	trapBlock := -1
	if trap >= 0 {
		trapBlock = p.Owner(trap)
	}
	blockIdx := map[int]int{}
	var blocks []int
	visit := func(b int) int {
		if i, ok := blockIdx[b]; ok {
			return i
		}
		blockIdx[b] = len(blocks)
		blocks = append(blocks, b)
		return len(blocks) - 1
	}
	visit(p.Owner(0))
	var delta [][]int
	for q := 0; q < len(blocks); q++ {
		b := blocks[q]
		row := make([]int, k)
		for j := range row {
			row[j] = -1
			if b == trapBlock {
				continue
			}
			if t := p.Owner(target(p.Block(b)[0], j)); t != trapBlock {
				row[j] = visit(t)
			}
		}
		delta = append(delta, row)
	}
	names := make([]State, len(blocks))
	final := make([]bool, len(blocks))
	for i, b := range blocks {
		members := p.Block(b)
		if b != trapBlock {
			final[i] = d.final[order[members[0]]]
		}
		if !retainNames {
			names[i] = num(i)
			continue
		}
		merged := make([]State, 0, len(members))
		for _, c := range members {
			if c != trap {
				merged = append(merged, d.states[order[c]])
			}
		}
		names[i] = automaton.SetName(merged)
	}
	if retainNames {
		names = uniqueNames(names)
	}
	u.Debugf("minify: %d states, %d reachable, %d after refinement", len(d.states), m, len(blocks))
	return newDFA(names, d.symbols, delta, 0, final)
}

// ToComplete returns an equivalent complete DFA, routing every missing
// transition to a trap state. An empty trap name picks the first of
// "-1", "-2", ... that is not already a state. A complete DFA is copied.
func (d *DFA) ToComplete(trap State) (*DFA, error) {
	if !d.IsPartial() {
		return d.Copy(), nil
	}
	if trap == "" {
		for i := -1; ; i-- {
			if _, ok := d.index[State(strconv.Itoa(i))]; !ok {
				trap = State(strconv.Itoa(i))
				break
			}
		}
	} else if _, ok := d.index[trap]; ok {
		return nil, fmt.Errorf("%w: trap state %s is already a state", automaton.ErrInvalidState, trap)
	}
	t := len(d.states)
	names := append(d.States(), trap)
	delta := make([][]int, 0, t+1)
	for _, row := range d.delta {
		r := make([]int, len(row))
		for j, to := range row {
			if to < 0 {
				to = t
			}
			r[j] = to
		}
		delta = append(delta, r)
	}
	loop := make([]int, len(d.symbols))
	for j := range loop {
		loop[j] = t
	}
	delta = append(delta, loop)
	return newDFA(names, d.symbols, delta, d.initial, append(append([]bool(nil), d.final...), false)), nil
}

// ToPartial removes every state that is unreachable or cannot reach a
// final state (the initial state is always kept) along with the edges
// into them. The result is minified unless SkipMinify is given.
func (d *DFA) ToPartial(opts ...Option) *DFA {
	o := collect(opts)
	reach, coreach := d.reachable(), d.coreachable()
	live := make([]bool, len(d.states))
	for i := range live {
		live[i] = reach[i] && coreach[i]
	}
	live[d.initial] = true
	if !o.skipMinify {
		return d.minify(live, o.retainNames)
	}
	pos := make([]int, len(d.states))
	var names []State
	var final []bool
	for i, ok := range live {
		pos[i] = -1
		if ok {
			pos[i] = len(names)
			names = append(names, d.states[i])
			final = append(final, d.final[i])
		}
	}
	delta := make([][]int, 0, len(names))
	for i, row := range d.delta {
		if !live[i] {
			continue
		}
		r := make([]int, len(row))
		for j, t := range row {
			r[j] = -1
			if t >= 0 && live[t] {
				r[j] = pos[t]
			}
		}
		delta = append(delta, r)
	}
	return newDFA(names, d.symbols, delta, pos[d.initial], final)
}

// Complement returns a DFA accepting exactly the words d rejects. Partial
// DFAs are completed first. The result is minified unless SkipMinify is
// given.
func (d *DFA) Complement(opts ...Option) *DFA {
	o := collect(opts)
	c := d
	if d.IsPartial() {
		c, _ = d.ToComplete("")
	}
	final := make([]bool, len(c.final))
	for i, f := range c.final {
		final[i] = !f
	}
	flipped := newDFA(c.States(), c.symbols, c.delta, c.initial, final)
	if o.skipMinify {
		return flipped
	}
	return flipped.minify(nil, o.retainNames)
}
