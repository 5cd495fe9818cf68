package fa

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alphabets pairs each test alphabet with the word length checked over it.
var alphabets = []struct {
	symbols []rune
	depth   int
}{
	{[]rune("ab"), 7},
	{[]rune("abc"), 5},
}

func randomDFA(rng *rand.Rand, symbols []rune) *DFA {
	n := 1 + rng.Intn(7)
	p := DFAParams{
		InputSymbols: symbols,
		Transitions:  map[State]map[rune]State{},
		InitialState: "q0",
		AllowPartial: rng.Intn(2) == 0,
	}
	for i := 0; i < n; i++ {
		p.States = append(p.States, State(fmt.Sprintf("q%d", i)))
	}
	for _, s := range p.States {
		row := map[rune]State{}
		for _, r := range symbols {
			if p.AllowPartial && rng.Intn(4) == 0 {
				continue
			}
			row[r] = p.States[rng.Intn(n)]
		}
		p.Transitions[s] = row
		if rng.Intn(3) == 0 {
			p.FinalStates = append(p.FinalStates, s)
		}
	}
	return MustDFA(p)
}

func randomNFA(rng *rand.Rand, symbols []rune) *NFA {
	n := 1 + rng.Intn(6)
	p := NFAParams{
		InputSymbols: symbols,
		Transitions:  map[State]map[rune][]State{},
		InitialState: "q0",
	}
	for i := 0; i < n; i++ {
		p.States = append(p.States, State(fmt.Sprintf("q%d", i)))
	}
	for _, s := range p.States {
		row := map[rune][]State{}
		for _, r := range append([]rune{Epsilon}, symbols...) {
			k := rng.Intn(3)
			if r == Epsilon && rng.Intn(3) != 0 {
				k = 0
			}
			for ; k > 0; k-- {
				row[r] = append(row[r], p.States[rng.Intn(n)])
			}
		}
		p.Transitions[s] = row
		if rng.Intn(3) == 0 {
			p.FinalStates = append(p.FinalStates, s)
		}
	}
	return MustNFA(p)
}

// distinguishable reports whether some word is accepted from exactly one
// of the states i and j. A missing transition leads to -1, which accepts
// nothing.
func distinguishable(d *DFA, i, j int) bool {
	type pair struct{ a, b int }
	accepting := func(s int) bool { return s >= 0 && d.final[s] }
	next := func(s, k int) int {
		if s < 0 {
			return -1
		}
		return d.delta[s][k]
	}
	seen := map[pair]bool{{i, j}: true}
	queue := []pair{{i, j}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if accepting(p.a) != accepting(p.b) {
			return true
		}
		for k := range d.symbols {
			q := pair{next(p.a, k), next(p.b, k)}
			if !seen[q] {
				seen[q] = true
				queue = append(queue, q)
			}
		}
	}
	return false
}

// requireMinimal checks that every state of m is reachable, that no two
// states accept the same words and, when m is partial with a non-empty
// language, that no state is dead.
func requireMinimal(t *testing.T, m *DFA) {
	t.Helper()
	for i, ok := range m.reachable() {
		require.True(t, ok, "state %s is unreachable", m.states[i])
		if m.IsPartial() && !m.IsEmpty() {
			require.True(t, distinguishable(m, i, -1), "state %s is dead", m.states[i])
		}
	}
	for i := range m.states {
		for j := i + 1; j < len(m.states); j++ {
			require.True(t, distinguishable(m, i, j), "states %s and %s are equivalent", m.states[i], m.states[j])
		}
	}
}

func TestMinifyRandomDFAs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 300; i++ {
		a := alphabets[i%len(alphabets)]
		d := randomDFA(rng, a.symbols)
		t.Run(fmt.Sprintf("dfa %d", i), func(t *testing.T) {
			m := d.Minify()
			sameLanguage(t, d, m, a.symbols, a.depth)
			assert.LessOrEqual(t, m.NumStates(), d.NumStates())
			assert.Equal(t, m.NumStates(), m.Minify().NumStates())
			assert.True(t, m.Equal(d))
			requireMinimal(t, m)

			named := d.Minify(RetainNames())
			assert.Equal(t, m.NumStates(), named.NumStates())
			sameLanguage(t, d, named, a.symbols, a.depth)

			c := d.Complement()
			for _, w := range allWords(a.symbols, a.depth) {
				require.NotEqual(t, d.AcceptsInput(w), c.AcceptsInput(w), "word %q", w)
			}
		})
	}
}

func TestDeterminizeRandomNFAs(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 300; i++ {
		a := alphabets[i%len(alphabets)]
		n := randomNFA(rng, a.symbols)
		t.Run(fmt.Sprintf("nfa %d", i), func(t *testing.T) {
			d := DFAFromNFA(n)
			sameLanguage(t, n, d, a.symbols, a.depth)
			requireMinimal(t, d)

			raw := DFAFromNFA(n, SkipMinify())
			sameLanguage(t, n, raw, a.symbols, a.depth)
			assert.Equal(t, d.NumStates(), raw.Minify().NumStates())

			e := n.EliminateLambda()
			sameLanguage(t, n, e, a.symbols, a.depth)
			for _, s := range e.States() {
				assert.Empty(t, e.Transitions(s, Epsilon), "state %s", s)
			}

			r := n.Reverse()
			for _, w := range allWords(a.symbols, a.depth) {
				require.Equal(t, n.AcceptsInput(w), r.AcceptsInput(reverse(w)), "word %q", w)
			}
			sameLanguage(t, n, r.Reverse(), a.symbols, a.depth)
		})
	}
}
