// Package automaton holds the pieces shared by every finite-automaton
// variant: state identifiers, configurations, the stepwise reader, the
// error taxonomy and the process-wide settings.
package automaton

import (
	"sort"
	"strings"
)

// State identifies a state. States are compared and ordered as strings.
type State string

// Automaton is implemented by every automaton variant. C is the type of
// the "current" part of a configuration: a single State for a DFA, a
// sorted set of states for an NFA.
type Automaton[C any] interface {
	ReadInput(word string) (C, error)
	ReadInputStepwise(word string) *Stepper[C]
	AcceptsInput(word string) bool
	Validate() error
}

// Configuration is a snapshot of a running read.
type Configuration[C any] struct {
	Current   C
	Remaining string
}

// SortStates sorts states in place and returns them.
func SortStates(states []State) []State {
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

// SetName renders a set of states as "{a,b,c}" with members sorted.
func SetName(states []State) State {
	sorted := SortStates(append([]State(nil), states...))
	parts := make([]string, len(sorted))
	for i, s := range sorted {
		parts[i] = string(s)
	}
	return State("{" + strings.Join(parts, ",") + "}")
}

// PairName renders an ordered pair of states as "(a,b)".
func PairName(a, b State) State {
	return State("(" + string(a) + "," + string(b) + ")")
}
