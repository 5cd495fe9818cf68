package fa

import (
	"fmt"
	"strconv"
	"strings"

	u "github.com/araddon/gou"
	"golang.org/x/exp/slices"

	"automata/automaton"
)

// table is a DFA under construction: states are row numbers, state 0 is
// initial and columns follow the sorted symbols.
type table struct {
	symbols []rune
	symIdx  map[rune]int
	delta   [][]int
	final   []bool
}

func newTable(symbols []rune, n int) *table {
	t := &table{symbols: symbols, symIdx: symbolIndex(symbols)}
	for i := 0; i < n; i++ {
		t.add(false)
	}
	return t
}

// add appends a state without transitions and returns it.
func (t *table) add(final bool) int {
	row := make([]int, len(t.symbols))
	for j := range row {
		row[j] = -1
	}
	t.delta = append(t.delta, row)
	t.final = append(t.final, final)
	return len(t.delta) - 1
}

func (t *table) set(from int, sym rune, to int) { t.delta[from][t.symIdx[sym]] = to }

// loop sends every symbol of from to to.
func (t *table) loop(from, to int) {
	for j := range t.delta[from] {
		t.delta[from][j] = to
	}
}

// build turns the table into a DFA, honoring Negate and Complete.
func (t *table) build(o options) *DFA {
	names := make([]State, len(t.delta))
	for i := range names {
		names[i] = num(i)
	}
	d := newDFA(names, t.symbols, t.delta, 0, t.final)
	switch {
	case o.negate:
		return d.Complement(SkipMinify())
	case o.complete && d.IsPartial():
		d, _ = d.ToComplete("")
	}
	return d
}

func prepare(symbols []rune, words ...string) ([]rune, error) {
	syms := normSymbols(symbols)
	for _, w := range words {
		if err := checkWord(syms, w); err != nil {
			return nil, err
		}
	}
	return syms, nil
}

// UniversalLanguage returns the one-state DFA accepting every word over
// symbols.
func UniversalLanguage(symbols []rune) *DFA {
	t := newTable(normSymbols(symbols), 1)
	t.loop(0, 0)
	t.final[0] = true
	return t.build(options{})
}

// EmptyLanguage returns the one-state DFA rejecting every word.
func EmptyLanguage(symbols []rune) *DFA {
	t := newTable(normSymbols(symbols), 1)
	t.loop(0, 0)
	return t.build(options{})
}

// DFAFromPrefix returns the minimal DFA accepting the words that start
// with prefix. The result is partial unless Complete or Negate is given.
func DFAFromPrefix(symbols []rune, prefix string, opts ...Option) (*DFA, error) {
	syms, err := prepare(symbols, prefix)
	if err != nil {
		return nil, err
	}
	p := []rune(prefix)
	t := newTable(syms, len(p)+1)
	for i, r := range p {
		t.set(i, r, i+1)
	}
	t.loop(len(p), len(p))
	t.final[len(p)] = true
	return t.build(collect(opts)), nil
}

// DFAFromSubstring returns the minimal DFA accepting the words that
// contain substring, built from its Knuth-Morris-Pratt failure table.
func DFAFromSubstring(symbols []rune, substring string, opts ...Option) (*DFA, error) {
	return fromSubstring(symbols, substring, false, opts)
}

// DFAFromSuffix returns the minimal DFA accepting the words that end with
// suffix.
func DFAFromSuffix(symbols []rune, suffix string, opts ...Option) (*DFA, error) {
	return fromSubstring(symbols, suffix, true, opts)
}

// kmpTable returns the failure links of pattern: kmp[i] is the state to
// fall back to when pattern[i] does not match, -1 meaning before the
// start; kmp[len] is the state reached after a full match.
func kmpTable(pattern []rune) []int {
	kmp := make([]int, len(pattern)+1)
	if len(pattern) > 0 {
		kmp[0] = -1
	}
	cand := 0
	for i := 1; i < len(pattern); i++ {
		if pattern[i] == pattern[cand] {
			kmp[i] = kmp[cand]
		} else {
			kmp[i] = cand
			for cand >= 0 && pattern[i] != pattern[cand] {
				cand = kmp[cand]
			}
		}
		cand++
	}
	kmp[len(pattern)] = cand
	return kmp
}

func fromSubstring(symbols []rune, substring string, suffix bool, opts []Option) (*DFA, error) {
	syms, err := prepare(symbols, substring)
	if err != nil {
		return nil, err
	}
	p := []rune(substring)
	n := len(p)
	if n == 0 {
		suffix = false
	}
	kmp := kmpTable(p)
	t := newTable(syms, n+1)
	t.loop(n, n)
	t.final[n] = true
	limit := n
	if suffix {
		limit = n + 1
	}
	for i := 0; i < limit; i++ {
		for _, sym := range syms {
			c := i
			if i == n {
				c = kmp[n]
			}
			for c != -1 && p[c] != sym {
				c = kmp[c]
			}
			t.set(i, sym, c+1)
		}
	}
	return t.build(collect(opts)), nil
}

// DFAFromSubstrings returns a DFA accepting the words that contain at
// least one of substrings, built as an Aho-Corasick matcher.
func DFAFromSubstrings(symbols []rune, substrings []string, opts ...Option) (*DFA, error) {
	return fromSubstrings(symbols, substrings, false, opts)
}

// DFAFromSuffixes returns a DFA accepting the words that end with one of
// suffixes.
func DFAFromSuffixes(symbols []rune, suffixes []string, opts ...Option) (*DFA, error) {
	return fromSubstrings(symbols, suffixes, true, opts)
}

func fromSubstrings(symbols []rune, words []string, suffix bool, opts []Option) (*DFA, error) {
	syms, err := prepare(symbols, words...)
	if err != nil {
		return nil, err
	}
	words = append([]string(nil), words...)
	slices.Sort(words)
	words = slices.Compact(words)

	// keyword trie, node 0 is the root
	children := []map[rune]int{{}}
	out := []bool{false}
	for _, w := range words {
		node := 0
		for _, r := range w {
			next, ok := children[node][r]
			if !ok {
				next = len(children)
				children = append(children, map[rune]int{})
				out = append(out, false)
				children[node][r] = next
			}
			node = next
		}
		out[node] = true
	}

	// failure links, breadth first
	fail := make([]int, len(children))
	queue := []int{}
	for _, r := range sortedRuneKeys(children[0]) {
		queue = append(queue, children[0][r])
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, r := range sortedRuneKeys(children[node]) {
			child := children[node][r]
			queue = append(queue, child)
			f := fail[node]
			for f != 0 && children[f][r] == 0 {
				f = fail[f]
			}
			if to, ok := children[f][r]; ok && to != child {
				fail[child] = to
			}
			out[child] = out[child] || out[fail[child]]
		}
	}

	t := newTable(syms, len(children))
	for node := range children {
		t.final[node] = out[node]
		for _, sym := range syms {
			f := node
			for f != 0 && children[f][sym] == 0 {
				f = fail[f]
			}
			t.set(node, sym, children[f][sym])
		}
	}
	if !suffix {
		end := t.add(true)
		t.loop(end, end)
		for node := range children {
			if out[node] {
				t.loop(node, end)
			}
		}
	}
	u.Debugf("aho-corasick: %d keywords, %d states", len(words), len(t.delta))
	return t.build(collect(opts)), nil
}

// DFAFromSubsequence returns the minimal DFA accepting the words that
// contain subsequence as a (not necessarily contiguous) subsequence.
func DFAFromSubsequence(symbols []rune, subsequence string, opts ...Option) (*DFA, error) {
	syms, err := prepare(symbols, subsequence)
	if err != nil {
		return nil, err
	}
	p := []rune(subsequence)
	t := newTable(syms, len(p)+1)
	for i := range t.delta {
		t.loop(i, i)
	}
	for i, r := range p {
		t.set(i, r, i+1)
	}
	t.final[len(p)] = true
	return t.build(collect(opts)), nil
}

func countedSymbols(syms, counted []rune) (map[rune]bool, error) {
	if counted == nil {
		counted = syms
	}
	if err := checkSymbols(syms, counted); err != nil {
		return nil, err
	}
	set := map[rune]bool{}
	for _, r := range counted {
		set[r] = true
	}
	return set, nil
}

// DFAOfLength returns the minimal DFA accepting the words whose length is
// between minLength and maxLength inclusive; a negative maxLength means no
// upper bound. Only symbols in counted add to the length (all symbols
// when counted is nil).
func DFAOfLength(symbols []rune, minLength, maxLength int, counted []rune) (*DFA, error) {
	if minLength < 0 || maxLength >= 0 && maxLength < minLength {
		return nil, fmt.Errorf("%w: length range [%d,%d]", automaton.ErrInvalidArgument, minLength, maxLength)
	}
	syms := normSymbols(symbols)
	count, err := countedSymbols(syms, counted)
	if err != nil {
		return nil, err
	}
	n := minLength
	if maxLength >= 0 {
		n = maxLength + 1
	}
	t := newTable(syms, n+1)
	for i := 0; i < n; i++ {
		for _, sym := range syms {
			if count[sym] {
				t.set(i, sym, i+1)
			} else {
				t.set(i, sym, i)
			}
		}
	}
	t.loop(n, n)
	if maxLength < 0 {
		t.final[n] = true
	} else {
		for i := minLength; i <= maxLength; i++ {
			t.final[i] = true
		}
	}
	return t.build(options{}), nil
}

// DFACountMod returns the DFA accepting the words whose number of counted
// symbols, taken modulo k, is one of remainders ({0} when nil).
func DFACountMod(symbols []rune, k int, remainders []int, counted []rune) (*DFA, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: modulus %d must be positive", automaton.ErrInvalidArgument, k)
	}
	syms := normSymbols(symbols)
	count, err := countedSymbols(syms, counted)
	if err != nil {
		return nil, err
	}
	if remainders == nil {
		remainders = []int{0}
	}
	t := newTable(syms, k)
	for _, r := range remainders {
		if r < 0 || r >= k {
			return nil, fmt.Errorf("%w: remainder %d out of range for modulus %d", automaton.ErrInvalidArgument, r, k)
		}
		t.final[r] = true
	}
	for i := 0; i < k; i++ {
		for _, sym := range syms {
			if count[sym] {
				t.set(i, sym, (i+1)%k)
			} else {
				t.set(i, sym, i)
			}
		}
	}
	return t.build(options{}), nil
}

func checkNth(syms []rune, sym rune, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: position %d must be positive", automaton.ErrInvalidArgument, n)
	}
	return checkSymbols(syms, []rune{sym})
}

// DFANthFromStart returns the minimal DFA accepting the words whose n-th
// symbol (counting from 1) is sym.
func DFANthFromStart(symbols []rune, sym rune, n int) (*DFA, error) {
	syms := normSymbols(symbols)
	if err := checkNth(syms, sym, n); err != nil {
		return nil, err
	}
	if len(syms) == 1 {
		return DFAOfLength(syms, n, -1, nil)
	}
	t := newTable(syms, n+2)
	for i := 0; i < n; i++ {
		t.loop(i, i+1)
	}
	t.set(n-1, sym, n+1)
	t.loop(n, n)
	t.loop(n+1, n+1)
	t.final[n+1] = true
	return t.build(options{}), nil
}

// DFANthFromEnd returns the minimal DFA accepting the words whose n-th
// symbol from the end is sym. It has 2^n states, one per window of the
// last n positions.
func DFANthFromEnd(symbols []rune, sym rune, n int) (*DFA, error) {
	syms := normSymbols(symbols)
	if err := checkNth(syms, sym, n); err != nil {
		return nil, err
	}
	if len(syms) == 1 {
		return DFAOfLength(syms, n, -1, nil)
	}
	if n > 24 {
		return nil, fmt.Errorf("%w: position %d needs 2^%d states", automaton.ErrInvalidArgument, n, n)
	}
	size := 1 << n
	t := newTable(syms, size)
	for s := 0; s < size; s++ {
		t.loop(s, 2*s%size)
		t.set(s, sym, (2*s+1)%size)
		t.final[s] = s >= size/2
	}
	return t.build(options{}), nil
}

// DFAFromFiniteLanguage returns the minimal DFA accepting exactly words.
// Words are added to a trie in sorted order and each finished branch is
// merged into an equivalent registered state as soon as no later word
// can extend it. The result is partial unless Complete is given.
func DFAFromFiniteLanguage(symbols []rune, words []string, opts ...Option) (*DFA, error) {
	syms, err := prepare(symbols, words...)
	if err != nil {
		return nil, err
	}
	o := collect(opts)
	if len(words) == 0 {
		if o.negate {
			return UniversalLanguage(syms), nil
		}
		return EmptyLanguage(syms), nil
	}
	words = append([]string(nil), words...)
	slices.Sort(words)
	words = slices.Compact(words)

	// states are the prefixes still in the trie
	delta := map[string]map[rune]string{}
	back := map[string]map[string]bool{"": {}}
	final := map[string]bool{}
	registry := map[string]string{}

	signature := func(s string) string {
		var b strings.Builder
		b.WriteString(strconv.FormatBool(final[s]))
		for _, r := range sortedRuneKeys(delta[s]) {
			b.WriteString(strconv.QuoteRune(r))
			b.WriteString(strconv.Quote(delta[s][r]))
		}
		return b.String()
	}
	add := func(word string) {
		prefix := ""
		for _, r := range word {
			next := prefix + string(r)
			if delta[prefix] == nil {
				delta[prefix] = map[rune]string{}
			}
			if _, ok := delta[prefix][r]; !ok {
				delta[prefix][r] = next
			}
			if back[next] == nil {
				back[next] = map[string]bool{}
			}
			back[next][prefix] = true
			prefix = next
		}
		delta[prefix] = map[rune]string{}
		final[prefix] = true
	}
	compress := func(word, next string) {
		w := []rune(word)
		lcp := commonPrefix(w, []rune(next))
		for i := len(w); i > lcp; i-- {
			prefix := string(w[:i])
			sig := signature(prefix)
			same, ok := registry[sig]
			if !ok {
				registry[sig] = prefix
				continue
			}
			delete(final, prefix)
			delete(delta, prefix)
			for parent := range back[prefix] {
				for r, to := range delta[parent] {
					if to == prefix {
						delta[parent][r] = same
					}
				}
				back[same][parent] = true
			}
		}
	}
	prev := words[0]
	add(prev)
	for _, w := range words[1:] {
		compress(prev, w)
		add(w)
		prev = w
	}
	compress(prev, "")

	// number the surviving prefixes breadth first
	idx := map[string]int{"": 0}
	queue := []string{""}
	t := newTable(syms, 0)
	t.add(final[""])
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, r := range sortedRuneKeys(delta[s]) {
			to := delta[s][r]
			i, ok := idx[to]
			if !ok {
				i = t.add(final[to])
				idx[to] = i
				queue = append(queue, to)
			}
			t.set(idx[s], r, i)
		}
	}
	u.Debugf("finite language: %d words, %d states", len(words), len(t.delta))
	return t.build(o), nil
}

func commonPrefix(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
