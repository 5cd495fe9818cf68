package automaton

import "unicode/utf8"

// MoveFunc advances a configuration by one input symbol. A non-nil error
// ends the read.
type MoveFunc[C any] func(current C, symbol rune) (C, error)

// CheckFunc decides whether the configuration reached after the whole
// word has been consumed is accepting.
type CheckFunc[C any] func(current C) error

// Stepper reads a word one symbol at a time. It yields the initial
// configuration first and then one configuration per consumed symbol:
//
//	s := d.ReadInputStepwise("0110")
//	for s.Next() {
//		cfg := s.Configuration()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
//
// Rejection is never signalled mid-iteration; Next returns false and Err
// reports it.
type Stepper[C any] struct {
	cur     C
	rest    string
	started bool
	done    bool
	err     error
	move    MoveFunc[C]
	check   CheckFunc[C]
}

// NewStepper returns a stepper positioned before the initial configuration.
func NewStepper[C any](start C, word string, move MoveFunc[C], check CheckFunc[C]) *Stepper[C] {
	return &Stepper[C]{cur: start, rest: word, move: move, check: check}
}

// FailedStepper returns a stepper that yields nothing and reports err.
func FailedStepper[C any](err error) *Stepper[C] {
	return &Stepper[C]{started: true, done: true, err: err}
}

// Next advances to the next configuration.
func (s *Stepper[C]) Next() bool {
	if s.done {
		return false
	}
	if !s.started {
		s.started = true
		return true
	}
	if s.rest == "" {
		s.done = true
		s.err = s.check(s.cur)
		return false
	}
	r, size := utf8.DecodeRuneInString(s.rest)
	next, err := s.move(s.cur, r)
	if err != nil {
		s.done = true
		s.err = err
		return false
	}
	s.cur, s.rest = next, s.rest[size:]
	return true
}

// Configuration returns the configuration reached by the last call to Next.
func (s *Stepper[C]) Configuration() Configuration[C] {
	return Configuration[C]{Current: s.cur, Remaining: s.rest}
}

// Err returns the rejection (if any) once Next has returned false.
func (s *Stepper[C]) Err() error {
	return s.err
}

// Drain runs the stepper to the end and returns the last configuration.
func Drain[C any](s *Stepper[C]) (C, error) {
	for s.Next() {
	}
	return s.cur, s.Err()
}
