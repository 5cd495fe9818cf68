package fa

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automata/automaton"
)

// matches checks d against pred on every word over its symbols up to n.
func matches(t *testing.T, d *DFA, n int, pred func(w string) bool) {
	t.Helper()
	for _, w := range allWords(d.InputSymbols(), n) {
		require.Equal(t, pred(w), d.AcceptsInput(w), "word %q", w)
	}
}

func TestUniversalAndEmptyLanguage(t *testing.T) {
	all := UniversalLanguage([]rune("ba"))
	assert.Equal(t, []rune("ab"), all.InputSymbols())
	assert.Equal(t, 1, all.NumStates())
	matches(t, all, 4, func(string) bool { return true })

	none := EmptyLanguage([]rune("ab"))
	assert.Equal(t, 1, none.NumStates())
	matches(t, none, 4, func(string) bool { return false })
	assert.True(t, all.Complement().Equal(none))
}

func TestDFAFromPrefix(t *testing.T) {
	d, err := DFAFromPrefix([]rune("ab"), "ab")
	require.NoError(t, err)
	assert.Equal(t, 3, d.NumStates())
	matches(t, d, 5, func(w string) bool { return strings.HasPrefix(w, "ab") })

	neg, err := DFAFromPrefix([]rune("ab"), "ab", Negate())
	require.NoError(t, err)
	matches(t, neg, 5, func(w string) bool { return !strings.HasPrefix(w, "ab") })

	_, err = DFAFromPrefix([]rune("ab"), "abc")
	assert.True(t, errors.Is(err, automaton.ErrInvalidSymbol))
}

func TestDFAFromSubstring(t *testing.T) {
	for _, sub := range []string{"", "a", "aba", "abab", "aab", "bbab"} {
		d, err := DFAFromSubstring([]rune("ab"), sub)
		require.NoError(t, err)
		assert.Equal(t, len(sub)+1, d.NumStates(), sub)
		assert.Equal(t, d.NumStates(), d.Minify().NumStates(), sub)
		matches(t, d, 7, func(w string) bool { return strings.Contains(w, sub) })

		neg, err := DFAFromSubstring([]rune("ab"), sub, Negate())
		require.NoError(t, err)
		matches(t, neg, 6, func(w string) bool { return !strings.Contains(w, sub) })
	}
}

func TestDFAFromSuffix(t *testing.T) {
	for _, suf := range []string{"", "b", "aba", "abab", "aab"} {
		d, err := DFAFromSuffix([]rune("ab"), suf)
		require.NoError(t, err)
		assert.Equal(t, d.Minify().NumStates(), d.NumStates(), suf)
		matches(t, d, 7, func(w string) bool { return strings.HasSuffix(w, suf) })
	}
}

func TestDFAFromSubstrings(t *testing.T) {
	syms := []rune("abc")
	d, err := DFAFromSubstrings(syms, []string{"ab", "bc", "ab"})
	require.NoError(t, err)
	matches(t, d, 5, func(w string) bool { return strings.Contains(w, "ab") || strings.Contains(w, "bc") })
	accepts(t, d, []string{"cab", "bc", "abcab", "aab"}, []string{"", "ac", "ba", "cba"})

	a, err := DFAFromSubstring(syms, "ab")
	require.NoError(t, err)
	b, err := DFAFromSubstring(syms, "bc")
	require.NoError(t, err)
	both, err := a.Union(b)
	require.NoError(t, err)
	assert.True(t, d.Equal(both))

	neg, err := DFAFromSubstrings(syms, []string{"ab", "bc"}, Negate())
	require.NoError(t, err)
	assert.True(t, neg.Equal(both.Complement()))

	nested, err := DFAFromSubstrings([]rune("ab"), []string{"abab", "ba"})
	require.NoError(t, err)
	matches(t, nested, 6, func(w string) bool { return strings.Contains(w, "abab") || strings.Contains(w, "ba") })
}

func TestDFAFromSuffixes(t *testing.T) {
	syms := []rune("abc")
	d, err := DFAFromSuffixes(syms, []string{"ab", "bc"})
	require.NoError(t, err)
	accepts(t, d, []string{"cab", "bc", "abcab"}, []string{"abca", "abb", ""})
	matches(t, d, 5, func(w string) bool { return strings.HasSuffix(w, "ab") || strings.HasSuffix(w, "bc") })

	overlap, err := DFAFromSuffixes([]rune("ab"), []string{"aab", "ab", "bab"})
	require.NoError(t, err)
	matches(t, overlap, 6, func(w string) bool { return strings.HasSuffix(w, "ab") })
}

func TestDFAFromSubsequence(t *testing.T) {
	d, err := DFAFromSubsequence([]rune("abc"), "ab")
	require.NoError(t, err)
	assert.Equal(t, 3, d.NumStates())
	accepts(t, d, []string{"ab", "acb", "bab", "cacb"}, []string{"", "ba", "b", "cba"})

	isSub := func(w string) bool {
		i := strings.IndexByte(w, 'a')
		return i >= 0 && strings.IndexByte(w[i:], 'b') >= 0
	}
	matches(t, d, 5, isSub)
}

func TestDFAOfLength(t *testing.T) {
	d, err := DFAOfLength([]rune("ab"), 2, 3, nil)
	require.NoError(t, err)
	matches(t, d, 6, func(w string) bool { return len(w) >= 2 && len(w) <= 3 })

	d, err = DFAOfLength([]rune("ab"), 2, -1, nil)
	require.NoError(t, err)
	matches(t, d, 6, func(w string) bool { return len(w) >= 2 })

	d, err = DFAOfLength([]rune("ab"), 1, 1, []rune("a"))
	require.NoError(t, err)
	matches(t, d, 6, func(w string) bool { return strings.Count(w, "a") == 1 })

	_, err = DFAOfLength([]rune("ab"), 3, 2, nil)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = DFAOfLength([]rune("ab"), -1, 2, nil)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = DFAOfLength([]rune("ab"), 0, 2, []rune("c"))
	assert.True(t, errors.Is(err, automaton.ErrInvalidSymbol))
}

func TestDFACountMod(t *testing.T) {
	d, err := DFACountMod([]rune("ab"), 3, nil, []rune("a"))
	require.NoError(t, err)
	matches(t, d, 7, func(w string) bool { return strings.Count(w, "a")%3 == 0 })

	d, err = DFACountMod([]rune("ab"), 3, []int{1, 2}, nil)
	require.NoError(t, err)
	matches(t, d, 7, func(w string) bool { return len(w)%3 != 0 })

	_, err = DFACountMod([]rune("ab"), 0, nil, nil)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = DFACountMod([]rune("ab"), 3, []int{3}, nil)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
}

func TestDFANthFromStart(t *testing.T) {
	d, err := DFANthFromStart([]rune("ab"), 'a', 2)
	require.NoError(t, err)
	assert.Equal(t, 4, d.NumStates())
	matches(t, d, 6, func(w string) bool { return len(w) >= 2 && w[1] == 'a' })

	unary, err := DFANthFromStart([]rune("a"), 'a', 3)
	require.NoError(t, err)
	matches(t, unary, 6, func(w string) bool { return len(w) >= 3 })

	_, err = DFANthFromStart([]rune("ab"), 'a', 0)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
	_, err = DFANthFromStart([]rune("ab"), 'c', 1)
	assert.True(t, errors.Is(err, automaton.ErrInvalidSymbol))
}

func TestDFANthFromEnd(t *testing.T) {
	d, err := DFANthFromEnd([]rune("ab"), 'a', 2)
	require.NoError(t, err)
	assert.Equal(t, 4, d.NumStates())
	assert.Equal(t, 4, d.Minify().NumStates())
	accepts(t, d, []string{"ab", "bab", "aab"}, []string{"b", "ba", "abb"})
	matches(t, d, 7, func(w string) bool { return len(w) >= 2 && w[len(w)-2] == 'a' })

	d, err = DFANthFromEnd([]rune("abc"), 'c', 3)
	require.NoError(t, err)
	matches(t, d, 5, func(w string) bool { return len(w) >= 3 && w[len(w)-3] == 'c' })

	_, err = DFANthFromEnd([]rune("ab"), 'a', 25)
	assert.True(t, errors.Is(err, automaton.ErrInvalidArgument))
}

func TestDFAFromFiniteLanguage(t *testing.T) {
	d, err := DFAFromFiniteLanguage([]rune("ab"), []string{"bb", "aa"})
	require.NoError(t, err)
	assert.Equal(t, 4, d.NumStates())
	matches(t, d, 4, func(w string) bool { return w == "aa" || w == "bb" })

	words := []string{"tap", "taps", "top", "tops"}
	d, err = DFAFromFiniteLanguage([]rune("apost"), words)
	require.NoError(t, err)
	assert.Equal(t, 5, d.NumStates())
	assert.Equal(t, d.NumStates(), d.Minify().NumStates())
	assert.Equal(t, []string{"tap", "top", "taps", "tops"}, collectAll(d.Words()))

	eps, err := DFAFromFiniteLanguage([]rune("ab"), []string{"", "ab"})
	require.NoError(t, err)
	matches(t, eps, 4, func(w string) bool { return w == "" || w == "ab" })

	none, err := DFAFromFiniteLanguage([]rune("ab"), nil)
	require.NoError(t, err)
	assert.True(t, none.IsEmpty())

	all, err := DFAFromFiniteLanguage([]rune("ab"), nil, Negate())
	require.NoError(t, err)
	assert.True(t, all.Equal(UniversalLanguage([]rune("ab"))))

	full, err := DFAFromFiniteLanguage([]rune("ab"), []string{"a"}, Complete())
	require.NoError(t, err)
	assert.False(t, full.IsPartial())

	_, err = DFAFromFiniteLanguage([]rune("ab"), []string{"abc"})
	assert.True(t, errors.Is(err, automaton.ErrInvalidSymbol))
}
