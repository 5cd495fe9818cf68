package automaton

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrInvalidState  = errors.New("invalid state")
	ErrMissingState  = errors.New("missing state")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrMissingSymbol = errors.New("missing symbol")
	ErrInitialState  = errors.New("invalid initial state")
	ErrFinalState    = errors.New("invalid final state")
	ErrInvalidRegex  = errors.New("invalid regular expression")
)

// Operational errors.
var (
	ErrSymbolMismatch   = errors.New("input symbols do not match")
	ErrEmptyLanguage    = errors.New("language is empty")
	ErrInfiniteLanguage = errors.New("language is infinite")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// ErrRejected is wrapped by every error returned when a word is not accepted.
var ErrRejected = errors.New("input rejected")

// Rejectf builds a rejection error.
func Rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// IsRejection reports whether err is a rejection rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}
