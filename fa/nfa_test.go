package fa

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automata/automaton"
)

func sampleNFAParams() NFAParams {
	return NFAParams{
		States:       []State{"q0", "q1", "q2"},
		InputSymbols: []rune{'a', 'b'},
		Transitions: map[State]map[rune][]State{
			"q0": {'a': {"q1"}},
			"q1": {'a': {"q1"}, Epsilon: {"q2"}},
			"q2": {'b': {"q0"}},
		},
		InitialState: "q0",
		FinalStates:  []State{"q1"},
	}
}

func sampleNFA(t *testing.T) *NFA {
	t.Helper()
	n, err := NewNFA(sampleNFAParams())
	require.NoError(t, err)
	return n
}

func finiteNFA(t *testing.T, symbols string, words ...string) *NFA {
	t.Helper()
	d, err := DFAFromFiniteLanguage([]rune(symbols), words)
	require.NoError(t, err)
	return NFAFromDFA(d)
}

func reverse(w string) string {
	r := []rune(w)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// acceptedUpTo lists the words over symbols up to length n that a accepts.
func acceptedUpTo(a acceptor, symbols []rune, n int) []string {
	var out []string
	for _, w := range allWords(symbols, n) {
		if a.AcceptsInput(w) {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

func TestNFAReadInput(t *testing.T) {
	n := sampleNFA(t)
	accepts(t, n, []string{"a", "aa", "aba", "aaba", "abaaba"}, []string{"", "b", "ab", "abb", "ac"})

	states, err := n.ReadInput("aba")
	require.NoError(t, err)
	assert.Equal(t, []State{"q1", "q2"}, states)

	_, err = n.ReadInput("ab")
	assert.True(t, automaton.IsRejection(err))
	_, err = n.ReadInput("abc")
	assert.True(t, automaton.IsRejection(err))
}

func TestNFAReadInputStepwise(t *testing.T) {
	s := sampleNFA(t).ReadInputStepwise("ab")
	var got []automaton.Configuration[[]State]
	for s.Next() {
		got = append(got, s.Configuration())
	}
	assert.Equal(t, []automaton.Configuration[[]State]{
		{Current: []State{"q0"}, Remaining: "ab"},
		{Current: []State{"q1", "q2"}, Remaining: "b"},
		{Current: []State{"q0"}, Remaining: ""},
	}, got)
	assert.True(t, automaton.IsRejection(s.Err()))

	// an empty set of states keeps reading until the word is consumed
	s = sampleNFA(t).ReadInputStepwise("bab")
	steps := 0
	for s.Next() {
		steps++
	}
	assert.Equal(t, 4, steps)
	assert.True(t, automaton.IsRejection(s.Err()))
}

func TestNewNFAValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *NFAParams)
		want   error
	}{
		{"epsilon symbol", func(p *NFAParams) { p.InputSymbols = append(p.InputSymbols, Epsilon) }, automaton.ErrInvalidSymbol},
		{"invalid start state", func(p *NFAParams) { p.Transitions["q9"] = nil }, automaton.ErrInvalidState},
		{"invalid symbol", func(p *NFAParams) { p.Transitions["q0"]['c'] = []State{"q1"} }, automaton.ErrInvalidSymbol},
		{"invalid end state", func(p *NFAParams) { p.Transitions["q0"]['b'] = []State{"q9"} }, automaton.ErrInvalidState},
		{"invalid initial", func(p *NFAParams) { p.InitialState = "q9" }, automaton.ErrInvalidState},
		{"invalid final", func(p *NFAParams) { p.FinalStates = []State{"q9"} }, automaton.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleNFAParams()
			tt.modify(&p)
			_, err := NewNFA(p)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNFAAccessors(t *testing.T) {
	n := sampleNFA(t)
	assert.Equal(t, []State{"q0", "q1", "q2"}, n.States())
	assert.Equal(t, State("q0"), n.InitialState())
	assert.Equal(t, []State{"q1"}, n.FinalStates())
	assert.True(t, n.IsFinal("q1"))
	assert.Equal(t, []State{"q2"}, n.Transitions("q1", Epsilon))
	assert.Equal(t, []State{"q1"}, n.Transitions("q0", 'a'))
	assert.Empty(t, n.Transitions("q0", 'b'))

	c, err := n.EpsilonClosure("q1")
	require.NoError(t, err)
	assert.Equal(t, []State{"q1", "q2"}, c)
	c, err = n.EpsilonClosure("q0", "q2")
	require.NoError(t, err)
	assert.Equal(t, []State{"q0", "q2"}, c)
	_, err = n.EpsilonClosure("q9")
	assert.True(t, errors.Is(err, automaton.ErrInvalidState))
}

func TestNFAParamsRoundTrip(t *testing.T) {
	n := sampleNFA(t)
	assert.Equal(t, sampleNFAParams().Transitions["q1"], n.Params().Transitions["q1"])
	assert.NoError(t, n.Validate())

	again, err := NewNFA(n.Params())
	require.NoError(t, err)
	assert.True(t, again.Equal(n))

	c := n.Copy()
	assert.Equal(t, n.States(), c.States())
	sameLanguage(t, n, c, n.InputSymbols(), 6)
}

func TestDFAFromNFA(t *testing.T) {
	n := sampleNFA(t)
	d := DFAFromNFA(n, SkipMinify(), RetainNames())
	assert.Equal(t, []State{"{q0}", "{q1,q2}"}, d.States())
	assert.Equal(t, State("{q0}"), d.InitialState())
	assert.Equal(t, []State{"{q1,q2}"}, d.FinalStates())
	assert.True(t, d.IsPartial())
	sameLanguage(t, n, d, n.InputSymbols(), 7)

	m := DFAFromNFA(n)
	assert.Equal(t, m.NumStates(), m.Minify().NumStates())
	assert.True(t, m.Equal(d))

	back := NFAFromDFA(oddOnes(t))
	assert.Equal(t, oddOnes(t).States(), back.States())
	sameLanguage(t, back, oddOnes(t), []rune("01"), 7)
}

func TestNFAUnionConcatenate(t *testing.T) {
	a := NFAFromDFA(prefixA(t))
	b := NFAFromDFA(suffixB(t))
	syms := []rune("ab")

	union := a.Union(b)
	matches(t, DFAFromNFA(union), 6, func(w string) bool { return strings.HasPrefix(w, "a") || strings.HasSuffix(w, "b") })

	ab, err := NFAFromRegex("ab", nil)
	require.NoError(t, err)
	ba, err := NFAFromRegex("ba", nil)
	require.NoError(t, err)
	cat := ab.Concatenate(ba)
	assert.Equal(t, []string{"abba"}, acceptedUpTo(cat, syms, 6))

	mixed := finiteNFA(t, "a", "a").Union(finiteNFA(t, "b", "b"))
	assert.Equal(t, syms, mixed.InputSymbols())
	assert.Equal(t, []string{"a", "b"}, acceptedUpTo(mixed, syms, 3))
}

func TestNFAKleeneStarOption(t *testing.T) {
	syms := []rune("ab")
	ab := finiteNFA(t, "ab", "ab", "b")
	star := ab.KleeneStar()
	inStar := func(w string) bool {
		ok := make([]bool, len(w)+1)
		ok[0] = true
		for i := 1; i <= len(w); i++ {
			ok[i] = i >= 1 && ok[i-1] && w[i-1] == 'b' || i >= 2 && ok[i-2] && w[i-2:i] == "ab"
		}
		return ok[len(w)]
	}
	for _, w := range allWords(syms, 7) {
		assert.Equal(t, inStar(w), star.AcceptsInput(w), w)
	}

	opt := ab.Option()
	assert.Equal(t, []string{"", "ab", "b"}, acceptedUpTo(opt, syms, 4))
}

func TestNFAReverse(t *testing.T) {
	n := sampleNFA(t)
	r := n.Reverse()
	for _, w := range allWords(n.InputSymbols(), 7) {
		assert.Equal(t, n.AcceptsInput(reverse(w)), r.AcceptsInput(w), w)
	}
	assert.True(t, r.Reverse().Equal(n))
}

func TestNFAIntersection(t *testing.T) {
	a := NFAFromDFA(prefixA(t))
	b := NFAFromDFA(suffixB(t))
	i := a.Intersection(b)
	matches(t, DFAFromNFA(i), 6, func(w string) bool { return strings.HasPrefix(w, "a") && strings.HasSuffix(w, "b") })

	x, err := NFAFromRegex("aaaa*", nil)
	require.NoError(t, err)
	y, err := NFAFromRegex("(a)|(aa)|(aaa)", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa"}, acceptedUpTo(x.Intersection(y), []rune("a"), 6))
}

func TestNFAShuffleProduct(t *testing.T) {
	s := finiteNFA(t, "ab", "aba").ShuffleProduct(finiteNFA(t, "ab", "bab"))
	assert.Equal(t,
		[]string{"ababab", "ababba", "abbaab", "abbaba", "baabab", "baabba", "babaab", "bababa"},
		acceptedUpTo(s, []rune("ab"), 7))
}

func TestNFARightQuotient(t *testing.T) {
	syms := "adefhnorsuy"
	n := finiteNFA(t, syms, "hooray", "sunray", "defray", "ray")
	q := n.RightQuotient(finiteNFA(t, syms, "ray"))
	assert.Equal(t, []string{"", "def", "hoo", "sun"}, collectAll(DFAFromNFA(q).Words()))
	assert.Equal(t, n.States(), q.States())

	a, err := NFAFromRegex("a+bc+", nil)
	require.NoError(t, err)
	c, err := NFAFromRegex("c+", nil)
	require.NoError(t, err)
	want, err := NFAFromRegex("a+bc*", nil)
	require.NoError(t, err)
	assert.True(t, a.RightQuotient(c).Equal(want))
}

func TestNFALeftQuotient(t *testing.T) {
	syms := "acehmortz"
	n := finiteNFA(t, syms, "match", "matter", "mat", "matzoth")
	q := n.LeftQuotient(finiteNFA(t, syms, "mat"))
	assert.Equal(t, []string{"", "ch", "ter", "zoth"}, collectAll(DFAFromNFA(q).Words()))

	a, err := NFAFromRegex("a+bc+", nil)
	require.NoError(t, err)
	pre, err := NFAFromRegex("a+", nil)
	require.NoError(t, err)
	want, err := NFAFromRegex("a*bc+", nil)
	require.NoError(t, err)
	assert.True(t, a.LeftQuotient(pre).Equal(want))
}

func TestEliminateLambda(t *testing.T) {
	n := sampleNFA(t)
	e := n.EliminateLambda()
	for _, lookup := range e.Params().Transitions {
		assert.NotContains(t, lookup, Epsilon)
	}
	sameLanguage(t, n, e, n.InputSymbols(), 7)
	assert.Equal(t, State("q0"), e.InitialState())

	r, err := NFAFromRegex("(a|b)*c?", nil)
	require.NoError(t, err)
	sameLanguage(t, r, r.EliminateLambda(), r.InputSymbols(), 5)
}

func TestNFAEqual(t *testing.T) {
	n := sampleNFA(t)
	assert.True(t, n.Equal(n.Copy()))
	assert.True(t, n.Equal(n.EliminateLambda()))
	assert.False(t, n.Equal(n.KleeneStar()))
	assert.False(t, finiteNFA(t, "a", "a").Equal(finiteNFA(t, "ab", "a")))
}

func TestEditDistance(t *testing.T) {
	n, err := EditDistance([]rune("ab"), "ab", 1)
	require.NoError(t, err)
	accepts(t, n, []string{"ab", "a", "b", "aab", "abb", "aa", "bb", "bab"}, []string{"ba", "", "abab", "bba"})
	assert.Contains(t, n.States(), State("0,0"))
	assert.Equal(t, State("0,0"), n.InitialState())

	hamming, err := EditDistance([]rune("ab"), "ab", 1, NoInsertion(), NoDeletion())
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "ab", "bb"}, acceptedUpTo(hamming, []rune("ab"), 4))

	ins, err := EditDistance([]rune("ab"), "ab", 1, NoDeletion(), NoSubstitution())
	require.NoError(t, err)
	assert.Equal(t, []string{"aab", "ab", "aba", "abb", "bab"}, acceptedUpTo(ins, []rune("ab"), 4))

	del, err := EditDistance([]rune("ab"), "ab", 1, NoInsertion(), NoSubstitution())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab", "b"}, acceptedUpTo(del, []rune("ab"), 4))

	exact, err := EditDistance([]rune("ab"), "ab", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab"}, acceptedUpTo(exact, []rune("ab"), 4))

	_, err = EditDistance([]rune("ab"), "ab", -1)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = EditDistance([]rune("ab"), "ab", 1, NoInsertion(), NoDeletion(), NoSubstitution())
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = EditDistance([]rune("ab"), "abc", 1)
	assert.True(t, errors.Is(err, automaton.ErrInvalidSymbol))
}

func TestSubsetKeyCoversLargeSets(t *testing.T) {
	const size = 600000
	a, b := bitset.New(size), bitset.New(size)
	for i := uint(0); i < size/2; i++ {
		a.Set(i)
		b.Set(i)
	}
	a.Set(size - 2)
	b.Set(size - 1)
	assert.NotEqual(t, subsetKey(a), subsetKey(b))
	assert.Equal(t, subsetKey(a), subsetKey(a.Clone()))
	assert.NotEqual(t, subsetKey(bitset.New(size)), subsetKey(a))
}

func TestLongRegexHasSparseClosures(t *testing.T) {
	const length = 5000
	n, err := NFAFromRegex(strings.Repeat("a", length), nil)
	require.NoError(t, err)
	assert.Equal(t, 2*length, n.NumStates())

	total := 0
	for _, c := range n.closure {
		total += len(c)
	}
	assert.Less(t, total, 2*n.NumStates())

	assert.True(t, n.AcceptsInput(strings.Repeat("a", length)))
	assert.False(t, n.AcceptsInput(strings.Repeat("a", length-1)))
	assert.Equal(t, length+1, DFAFromNFA(n).NumStates())
}
