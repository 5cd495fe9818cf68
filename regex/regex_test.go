package regex

import (
	"errors"
	"testing"

	u "github.com/araddon/gou"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automata/automaton"
)

func init() {
	u.SetupLogging("debug")
	u.SetColorOutput()
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"", "()"},
		{"  ", "()"},
		{"()", "()"},
		{"a", "a"},
		{"ab", "ab"},
		{"a b\tc", "abc"},
		{"a|bc*", "a|bc*"},
		{"(a|b)*", "(a|b)*"},
		{"a|b|c", "a|b|c"},
		{"a|b&c", "(a|b)&c"},
		{"a&(b|c)", "a&(b|c)"},
		{"a^b^c", "a^b^c"},
		{"(ab)+", "(ab)+"},
		{"a?", "a?"},
		{"a{3}", "a{3}"},
		{"a{2,}", "a{2,}"},
		{"a{,2}", "a{0,2}"},
		{"a{1,3}", "a{1,3}"},
		{"a**", "(a*)*"},
		{".", "."},
		{"[abc]", "[a-c]"},
		{"[a-cx]", "[a-cx]"},
		{"[^ab]", "[^ab]"},
		{`\*\.`, `\*\.`},
		{`[\]-]`, `[\-\]]`},
		{"a()b", "a()b"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
			// printed form parses back to the same tree
			again, err := Parse(n.String())
			require.NoError(t, err)
			assert.Equal(t, n.String(), again.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"|a",
		"a|",
		"a||b",
		"*a",
		"(",
		")",
		"a)",
		"(a",
		"(|a)",
		"a(*)",
		"a{3,1}",
		"a{-1}",
		"a{}",
		"a{x}",
		"[]",
		"[z-a]",
		"a&",
		`a\`,
		"a}",
	} {
		t.Run(src, func(t *testing.T) {
			err := Validate(src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, automaton.ErrInvalidRegex))
			var rerr *Error
			assert.True(t, errors.As(err, &rerr))
		})
	}
}

func TestQuantifierOffset(t *testing.T) {
	_, err := Parse("ab{2,1}")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 1, rerr.Offset)
}

func TestSymbols(t *testing.T) {
	n := MustParse("b(a|c)*[xy].[^q]")
	assert.Equal(t, []rune{'a', 'b', 'c', 'x', 'y'}, n.Symbols())
	assert.Empty(t, MustParse("").Symbols())
}

func TestNullable(t *testing.T) {
	for src, want := range map[string]bool{
		"":        true,
		"a":       false,
		"a*":      true,
		"a+":      false,
		"(a?)+":   true,
		"a|()":    true,
		"a*b*":    true,
		"a*b":     false,
		"a*&b?":   true,
		"a{0,3}":  true,
		"a{2,3}":  false,
		"a^b*":    false,
		"[ab]?":   true,
		".":       false,
		"()^()":   true,
		"(a|b)*c": false,
	} {
		assert.Equal(t, want, MustParse(src).Nullable(), src)
	}
}

func TestSmartConstructors(t *testing.T) {
	a, b := Literal('a'), Literal('b')

	assert.Equal(t, "()", Concat().String())
	assert.Equal(t, "ab", Concat(Epsilon(), a, Epsilon(), b).String())
	assert.Equal(t, "abab", Concat(Concat(a, b), Concat(a, b)).String())

	assert.Equal(t, "a|b", Union(a, b, a).String())
	assert.Equal(t, "(a|b)?", Union(a, Epsilon(), b).String())
	assert.Equal(t, "a*", Union(Star(a), Epsilon()).String())
	assert.Equal(t, "()", Union(Epsilon(), Epsilon()).String())

	assert.Equal(t, "a*", Star(Star(a)).String())
	assert.Equal(t, "a*", Star(Optional(a)).String())
	assert.Equal(t, "(ab)*", Star(Concat(a, b)).String())
	assert.Equal(t, "()", Star(Epsilon()).String())

	assert.Equal(t, "(a|b)c", Concat(Union(a, b), Literal('c')).String())
	assert.Equal(t, `\|`, Literal('|').String())
}
