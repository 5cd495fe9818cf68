package fa

import (
	"fmt"
	"iter"
	"math/big"
	"math/rand"
	"sort"
	"time"

	"automata/automaton"
)

// --- language properties ----------------------------------------------------

// IsEmpty reports whether the DFA accepts no word.
func (d *DFA) IsEmpty() bool {
	for i, ok := range d.reachable() {
		if ok && d.final[i] {
			return false
		}
	}
	return true
}

// live marks the states that are both reachable and co-reachable.
func (d *DFA) live() []bool {
	reach, coreach := d.reachable(), d.coreachable()
	out := make([]bool, len(reach))
	for i := range out {
		out[i] = reach[i] && coreach[i]
	}
	return out
}

// IsFinite reports whether the DFA accepts finitely many words. The empty
// language is finite.
func (d *DFA) IsFinite() bool {
	live := d.live()
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(d.states))
	var cyclic func(s int) bool
	cyclic = func(s int) bool {
		color[s] = grey
		for _, t := range d.delta[s] {
			if t < 0 || !live[t] {
				continue
			}
			if color[t] == grey || color[t] == white && cyclic(t) {
				return true
			}
		}
		color[s] = black
		return false
	}
	for s := range d.states {
		if live[s] && color[s] == white && cyclic(s) {
			return false
		}
	}
	return true
}

// MinimumWordLength returns the length of the shortest accepted word.
func (d *DFA) MinimumWordLength() (int, error) {
	dist := map[int]int{d.initial: 0}
	queue := []int{d.initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if d.final[s] {
			return dist[s], nil
		}
		for _, t := range d.delta[s] {
			if _, seen := dist[t]; t >= 0 && !seen {
				dist[t] = dist[s] + 1
				queue = append(queue, t)
			}
		}
	}
	return 0, fmt.Errorf("%w: the DFA accepts no word", automaton.ErrEmptyLanguage)
}

// MaximumWordLength returns the length of the longest accepted word.
func (d *DFA) MaximumWordLength() (int, error) {
	if d.IsEmpty() {
		return 0, fmt.Errorf("%w: the DFA accepts no word", automaton.ErrEmptyLanguage)
	}
	if !d.IsFinite() {
		return 0, fmt.Errorf("%w: the DFA has no longest word", automaton.ErrInfiniteLanguage)
	}
	live := d.live()
	memo := make([]int, len(d.states))
	for i := range memo {
		memo[i] = -1
	}
	var longest func(s int) int
	longest = func(s int) int {
		if memo[s] >= 0 {
			return memo[s]
		}
		best := 0
		for _, t := range d.delta[s] {
			if t >= 0 && live[t] {
				best = max(best, longest(t)+1)
			}
		}
		memo[s] = best
		return best
	}
	return longest(d.initial), nil
}

// --- counting ---------------------------------------------------------------

// countLevels extends the count cache to length k and returns levels 0..k.
// Cached levels are never modified once appended.
func (d *DFA) countLevels(k int) [][]*big.Int {
	c := &d.counts
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.levels) <= k {
		i := len(c.levels)
		level := make([]*big.Int, len(d.states))
		for s := range level {
			level[s] = new(big.Int)
			if i == 0 {
				if d.final[s] {
					level[s].SetInt64(1)
				}
				continue
			}
			for _, t := range d.delta[s] {
				if t >= 0 {
					level[s].Add(level[s], c.levels[i-1][t])
				}
			}
		}
		c.levels = append(c.levels, level)
	}
	return c.levels[:k+1]
}

// CountWordsOfLength returns the number of accepted words of length k.
func (d *DFA) CountWordsOfLength(k int) *big.Int {
	if k < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(d.countLevels(k)[k][d.initial])
}

// Cardinality returns the number of accepted words.
func (d *DFA) Cardinality() (*big.Int, error) {
	lo, err := d.MinimumWordLength()
	if err != nil {
		return new(big.Int), nil
	}
	hi, err := d.MaximumWordLength()
	if err != nil {
		return nil, err
	}
	levels := d.countLevels(hi)
	total := new(big.Int)
	for k := lo; k <= hi; k++ {
		total.Add(total, levels[k][d.initial])
	}
	return total, nil
}

// RandomWord returns an accepted word of length k drawn uniformly at
// random. A nil rng is seeded from the clock.
func (d *DFA) RandomWord(k int, rng *rand.Rand) (string, error) {
	if k < 0 {
		return "", fmt.Errorf("%w: negative length %d", automaton.ErrInvalidArgument, k)
	}
	levels := d.countLevels(k)
	s := d.initial
	if levels[k][s].Sign() == 0 {
		return "", fmt.Errorf("%w: no word of length %d", automaton.ErrEmptyLanguage, k)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	word := make([]rune, 0, k)
	for rem := k; rem > 0; rem-- {
		choice := new(big.Int).Rand(rng, levels[rem][s])
		for j, t := range d.delta[s] {
			if t < 0 {
				continue
			}
			c := levels[rem-1][t]
			if choice.Cmp(c) < 0 {
				word = append(word, d.symbols[j])
				s = t
				break
			}
			choice.Sub(choice, c)
		}
	}
	return string(word), nil
}

// --- enumeration ------------------------------------------------------------

// WordOption tunes Successors and Predecessors.
type WordOption func(*wordOptions)

type wordOptions struct {
	inclusive bool
	minLength int
	maxLength int // negative when unbounded
	less      func(a, b rune) bool
}

// Inclusive makes the pivot word itself part of the sequence when the DFA
// accepts it.
func Inclusive() WordOption { return func(o *wordOptions) { o.inclusive = true } }

// MinLength skips words shorter than n.
func MinLength(n int) WordOption { return func(o *wordOptions) { o.minLength = n } }

// MaxLength skips words longer than n.
func MaxLength(n int) WordOption { return func(o *wordOptions) { o.maxLength = n } }

// SymbolOrder replaces rune order when comparing symbols.
func SymbolOrder(less func(a, b rune) bool) WordOption {
	return func(o *wordOptions) { o.less = less }
}

// walker enumerates the accepted words of one length by depth-first
// search, pruning subtrees that hold no accepted word.
type walker struct {
	d      *DFA
	order  []int // symbol indices in visiting order
	rank   []int // rank[j] is the position of symbol j in ascending order
	desc   bool
	counts [][]*big.Int
	buf    []rune
	yield  func(string) bool
}

func (d *DFA) newWalker(less func(a, b rune) bool, desc bool) *walker {
	order := make([]int, len(d.symbols))
	for i := range order {
		order[i] = i
	}
	if less != nil {
		sort.SliceStable(order, func(a, b int) bool { return less(d.symbols[order[a]], d.symbols[order[b]]) })
	}
	rank := make([]int, len(order))
	for r, j := range order {
		rank[j] = r
	}
	if desc {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	return &walker{d: d, order: order, rank: rank, desc: desc}
}

// length yields the accepted words of length n in order. With a pivot
// (symbol indices, len n) only words past it are visited; the pivot itself
// is yielded when inclusive.
func (w *walker) length(n int, pivot []int, inclusive bool, yield func(string) bool) bool {
	w.counts = w.d.countLevels(n)
	if w.counts[n][w.d.initial].Sign() == 0 {
		return true
	}
	w.buf = w.buf[:0]
	w.yield = yield
	return w.step(w.d.initial, n, pivot, inclusive)
}

func (w *walker) step(s, n int, pivot []int, inclusive bool) bool {
	depth := len(w.buf)
	if depth == n {
		if w.d.final[s] && (pivot == nil || inclusive) {
			return w.yield(string(w.buf))
		}
		return true
	}
	for _, j := range w.order {
		var tight []int
		if pivot != nil {
			pr := w.rank[pivot[depth]]
			if !w.desc && w.rank[j] < pr || w.desc && w.rank[j] > pr {
				continue
			}
			if w.rank[j] == pr {
				tight = pivot
			}
		}
		t := w.d.delta[s][j]
		if t < 0 || w.counts[n-depth-1][t].Sign() == 0 {
			continue
		}
		w.buf = append(w.buf, w.d.symbols[j])
		ok := w.step(t, n, tight, inclusive)
		w.buf = w.buf[:depth]
		if !ok {
			return false
		}
	}
	return true
}

// WordsOfLength yields the accepted words of length k in lexicographic
// order.
func (d *DFA) WordsOfLength(k int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if k < 0 {
			return
		}
		d.newWalker(nil, false).length(k, nil, false, yield)
	}
}

// Words yields every accepted word, shorter words first and words of
// equal length in lexicographic order. The sequence is infinite when the
// language is.
func (d *DFA) Words() iter.Seq[string] {
	return func(yield func(string) bool) {
		lo, err := d.MinimumWordLength()
		if err != nil {
			return
		}
		hi, err := d.MaximumWordLength()
		if err != nil {
			hi = -1
		}
		w := d.newWalker(nil, false)
		for n := lo; hi < 0 || n <= hi; n++ {
			if !w.length(n, nil, false, yield) {
				return
			}
		}
	}
}

func (d *DFA) wordBounds(opts []WordOption) (wordOptions, int) {
	o := wordOptions{maxLength: -1}
	for _, opt := range opts {
		opt(&o)
	}
	// upper bound on the length of any accepted word, -1 when unbounded
	hi := o.maxLength
	if longest, err := d.MaximumWordLength(); err == nil {
		if hi < 0 || longest < hi {
			hi = longest
		}
	} else if d.IsEmpty() {
		hi = min(hi, -2)
	}
	return o, hi
}

func (d *DFA) pivotIndices(word string) ([]int, error) {
	if err := checkWord(d.symbols, word); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(word))
	for _, r := range word {
		out = append(out, d.symIdx[r])
	}
	return out, nil
}

// Successors yields the accepted words that come after pivot, in
// increasing order: by length first, then lexicographically under the
// symbol order. The sequence is infinite when the language is and no
// MaxLength is given.
func (d *DFA) Successors(pivot string, opts ...WordOption) (iter.Seq[string], error) {
	p, err := d.pivotIndices(pivot)
	if err != nil {
		return nil, err
	}
	o, hi := d.wordBounds(opts)
	return func(yield func(string) bool) {
		if hi < -1 {
			return
		}
		w := d.newWalker(o.less, false)
		p, n := p, len(p)
		if o.minLength > n {
			n, p = o.minLength, nil
		}
		for ; hi < 0 || n <= hi; n++ {
			if !w.length(n, p, o.inclusive, yield) {
				return
			}
			p = nil
		}
	}, nil
}

// Predecessors yields the accepted words that come before pivot, in
// decreasing order. Infinite languages fail with ErrInfiniteLanguage.
func (d *DFA) Predecessors(pivot string, opts ...WordOption) (iter.Seq[string], error) {
	p, err := d.pivotIndices(pivot)
	if err != nil {
		return nil, err
	}
	if !d.IsFinite() {
		return nil, fmt.Errorf("%w: predecessors of %q are unbounded", automaton.ErrInfiniteLanguage, pivot)
	}
	o, hi := d.wordBounds(opts)
	return func(yield func(string) bool) {
		w := d.newWalker(o.less, true)
		p, n := p, len(p)
		if n > hi {
			n, p = hi, nil
		}
		for ; n >= o.minLength && n >= 0; n-- {
			if !w.length(n, p, o.inclusive, yield) {
				return
			}
			p = nil
		}
	}, nil
}

func firstWord(seq iter.Seq[string], err error) (string, bool, error) {
	if err != nil {
		return "", false, err
	}
	for w := range seq {
		return w, true, nil
	}
	return "", false, nil
}

// Successor returns the first word Successors would yield; ok is false
// when there is none.
func (d *DFA) Successor(pivot string, opts ...WordOption) (word string, ok bool, err error) {
	return firstWord(d.Successors(pivot, opts...))
}

// Predecessor returns the first word Predecessors would yield.
func (d *DFA) Predecessor(pivot string, opts ...WordOption) (word string, ok bool, err error) {
	return firstWord(d.Predecessors(pivot, opts...))
}
