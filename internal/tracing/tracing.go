// Package tracing diffs an encoder emulation's guesses against an actual
// DEFLATE code stream, and restores the actual stream given the emulation
// plus the resulting diff. Grounded on trace.rs, generalized to use the
// stateful Scanner (see internal/technique) as the single place position and
// obscured-interval state mutate rather than threading pos by hand.
package tracing

import "github.com/elliotnunn/rezip/internal/codes"

// Scanner is the subset of *technique.Scanner the trace engine drives.
type Scanner interface {
	MoreData() bool
	Codes() []codes.Code
	Feedback(codes.Code)
	ByteAt(pos int) byte
	Pos() int
}

// Trace walks actual alongside the guesses s proposes, recording Correct for
// every code that matches the guess and an Actually/ActuallyLiteral entry
// the moment they diverge. s is driven forward by Feedback on every actual
// code consumed, whether or not it matched the guess.
func Trace(actual []codes.Code, s Scanner) []codes.Trace {
	ret := make([]codes.Trace, 0, len(actual))
	i := 0

	for s.MoreData() {
		guesses := s.Codes()
		if len(guesses) == 0 {
			panic("tracing: guesser proposed no codes with data remaining")
		}

		matched := 0
		for matched < len(guesses) {
			if i >= len(actual) || !actual[i].Equal(guesses[matched]) {
				break
			}
			ret = append(ret, codes.Trace{Kind: codes.Correct})
			s.Feedback(guesses[matched])
			i++
			matched++
		}

		if matched == len(guesses) {
			continue
		}

		if i >= len(actual) {
			panic("tracing: the guesser guessed more than there actually are")
		}

		code := actual[i]
		i++
		if lit, ok := code.AsLiteral(); ok {
			ret = append(ret, codes.Trace{Kind: codes.ActuallyLiteral})
			_ = lit
		} else {
			ref, _ := code.AsReference()
			ret = append(ret, codes.Trace{Kind: codes.Actually, Ref: ref})
		}
		s.Feedback(code)
	}

	return ret
}

// Restore replays trace against a fresh scan of s, reconstructing the
// original code stream: a Correct entry takes the guess verbatim, an
// ActuallyLiteral entry substitutes the plaintext byte at the scanner's
// position, and an Actually entry substitutes its carried Ref.
func Restore(trace []codes.Trace, s Scanner) []codes.Code {
	ret := make([]codes.Code, 0, len(trace))
	i := 0

	for s.MoreData() {
		guesses := s.Codes()
		if len(guesses) == 0 {
			panic("tracing: guesser proposed no codes with data remaining")
		}

		for _, guess := range guesses {
			if i >= len(trace) {
				panic("tracing: ran out of trace entries before the scan finished")
			}
			hint := trace[i]
			i++

			var orig codes.Code
			switch hint.Kind {
			case codes.Correct:
				orig = guess
			case codes.Actually:
				orig = codes.Reference(hint.Ref)
			case codes.ActuallyLiteral:
				orig = codes.Literal(s.ByteAt(s.Pos()))
			}

			s.Feedback(orig)
			ret = append(ret, orig)

			if hint.Kind != codes.Correct {
				// The emulation diverged and moved in a way it doesn't
				// understand; abandon the rest of this guess batch.
				break
			}
		}
	}

	return ret
}

// Validate traces actual against a fresh scanner from newScanner, then
// restores from that trace using a second fresh scanner and asserts the
// round trip reproduces actual exactly. A mismatch is a bug in the
// emulation or the trace/restore pair, not a data error, so it panics
// rather than returning an error.
func Validate(actual []codes.Code, newScanner func() Scanner) []codes.Trace {
	tr := Trace(actual, newScanner())
	restored := Restore(tr, newScanner())

	if len(restored) != len(actual) {
		panic("tracing: restore produced a different number of codes than the original")
	}
	for i := range actual {
		if !actual[i].Equal(restored[i]) {
			panic("tracing: restore did not reproduce the original code stream")
		}
	}

	return tr
}
