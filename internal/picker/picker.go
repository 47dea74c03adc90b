// Package picker chooses a single back-reference among enumerated
// candidates.
package picker

import "github.com/elliotnunn/rezip/internal/codes"

// Picker selects one candidate out of a stream of candidates, or reports
// none available. key identifies the call site (normally the position
// being probed); plain pickers ignore it, but a memoizing wrapper such as
// Cached uses it to recognize a repeated query.
type Picker interface {
	Pick(key string, next func() (codes.Ref, bool), cap uint16) (codes.Ref, bool)
}

// Longest picks the candidate with the greatest run, short-circuiting once
// a candidate reaches quitSearchAboveLength. Ties go to the first
// candidate seen (the chain is descending-by-position, so this is the
// nearest match).
type Longest struct{}

// Pick implements Picker.
func (Longest) Pick(key string, next func() (codes.Ref, bool), cap uint16) (codes.Ref, bool) {
	return cappedMaxByRun(next, cap)
}

// DropFarThrees behaves like Longest, but rejects the final choice if its
// run is exactly 3 and its distance exceeds 4096 -- a 3-byte match that
// far away rarely pays for its own encoding cost.
type DropFarThrees struct{}

// Pick implements Picker.
func (DropFarThrees) Pick(key string, next func() (codes.Ref, bool), cap uint16) (codes.Ref, bool) {
	r, ok := cappedMaxByRun(next, cap)
	if !ok {
		return codes.Ref{}, false
	}
	if r.Run() == 3 && r.Dist > 4096 {
		return codes.Ref{}, false
	}
	return r, true
}

// cappedMaxByRun returns the candidate with the greatest Run, stopping
// early once a candidate's run reaches cap.
func cappedMaxByRun(next func() (codes.Ref, bool), cap uint16) (codes.Ref, bool) {
	max, ok := next()
	if !ok {
		return codes.Ref{}, false
	}
	maxScore := max.Run()
	if maxScore >= cap {
		return max, true
	}

	for {
		candidate, ok := next()
		if !ok {
			break
		}
		score := candidate.Run()
		if score > maxScore {
			max, maxScore = candidate, score
			if maxScore >= cap {
				break
			}
		}
	}
	return max, true
}
