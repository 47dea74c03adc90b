// Package obscure filters a descending position sequence against the
// interval set of matches the encoder used but never inserted into the
// hash chain.
package obscure

import "github.com/elliotnunn/rezip/internal/codes"

// Filter returns an iterator over from that skips any position falling
// strictly inside one of by's (start, start+run) intervals. from is
// expected reverse-sorted (descending); by is small and sparse, so a
// linear scan per position is cheap at the sizes involved.
func Filter(from func() (int, bool), by []codes.Obscure) func() (int, bool) {
	return func() (int, bool) {
		for {
			pos, ok := from()
			if !ok {
				return 0, false
			}
			if !contains(by, pos) {
				return pos, true
			}
		}
	}
}

func contains(haystack []codes.Obscure, needle int) bool {
	for _, o := range haystack {
		if needle > o.Start && needle < o.Start+int(o.Run) {
			return true
		}
	}
	return false
}
