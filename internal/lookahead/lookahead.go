// Package lookahead implements the three match-selection strategies a real
// DEFLATE encoder might use at a given position: take the best match
// immediately (Greedy), defer by one byte to see if a longer match appears
// (Gzip), or defer by up to two bytes (ThreeZip). Grounded on lookahead.rs.
package lookahead

import "github.com/elliotnunn/rezip/internal/codes"

// Looker answers "what's the best candidate reference at this position"
// queries. Implemented by *technique.Scanner.
type Looker interface {
	// BestCandidate returns the literal byte at pos, and the best reference
	// there if one exists.
	BestCandidate(pos int) (lit byte, ref codes.Ref, ok bool)

	// BestCandidateBetterThan behaves like BestCandidate, but may apply a
	// tighter search budget (or abort early) given that any result must
	// beat a run of otherRun bytes to be worth returning. haveOther is
	// false when there is no other run to beat yet.
	BestCandidateBetterThan(pos int, otherRun uint16, haveOther bool) (lit byte, ref codes.Ref, ok bool)
}

func bestCandidate(l Looker, pos int) (byte, codes.Ref, bool) {
	return l.BestCandidateBetterThan(pos, 0, false)
}

// Strategy selects among the lookahead implementations.
type Strategy int

const (
	Greedy Strategy = iota
	Gzip
	ThreeZip
)

// Propose returns the codes a strategy emits starting at pos: one code for
// Greedy, one or more for Gzip and ThreeZip depending on how the lookahead
// resolves.
func (s Strategy) Propose(l Looker, pos int) []codes.Code {
	switch s {
	case Greedy:
		return greedy(l, pos)
	case Gzip:
		return gzip(l, pos)
	case ThreeZip:
		return threeZip(l, pos)
	default:
		panic("lookahead: unknown strategy")
	}
}

func greedy(l Looker, pos int) []codes.Code {
	lit, ref, ok := bestCandidate(l, pos)
	if ok {
		return []codes.Code{codes.Reference(ref)}
	}
	return []codes.Code{codes.Literal(lit)}
}

func gzip(l Looker, pos int) []codes.Code {
	currLit, currRef, ok := bestCandidate(l, pos)
	if !ok {
		return []codes.Code{codes.Literal(currLit)}
	}

	ret := make([]codes.Code, 0, 3)
	for {
		pos++
		newLit, newRef, ok := l.BestCandidateBetterThan(pos, currRef.Run(), true)
		if ok && newRef.Run() > currRef.Run() {
			ret = append(ret, codes.Literal(currLit))
			currLit, currRef = newLit, newRef
			continue
		}
		ret = append(ret, codes.Reference(currRef))
		break
	}
	return ret
}

func threeZip(l Looker, pos int) []codes.Code {
	firstLit, firstBest, ok := bestCandidate(l, pos)
	if ok && firstBest.Run() > 3 {
		return []codes.Code{codes.Reference(firstBest)}
	}
	if !ok {
		return []codes.Code{codes.Literal(firstLit)}
	}

	// firstBest.Run() == 3 here: a possibly-bad run worth deferring past.
	secondLit, secondBest, secondOk := bestCandidate(l, pos+1)
	if secondOk && secondBest.Run() <= 3 {
		secondOk = false
	}

	if secondOk && secondBest.Run() == 258 {
		// No point searching for a third run: this already wins.
		return []codes.Code{codes.Literal(firstLit), codes.Reference(secondBest)}
	}

	_, thirdBest, thirdOk := bestCandidate(l, pos+2)
	if thirdOk && thirdBest.Run() <= 4 {
		thirdOk = false
	}

	thirdResult := func(run codes.Ref) []codes.Code {
		return []codes.Code{codes.Literal(firstLit), codes.Literal(secondLit), codes.Reference(run)}
	}

	switch {
	case secondOk && thirdOk:
		if thirdBest.Run() > secondBest.Run() {
			return thirdResult(thirdBest)
		}
		return []codes.Code{codes.Literal(firstLit), codes.Reference(secondBest)}
	case secondOk:
		return []codes.Code{codes.Literal(firstLit), codes.Reference(secondBest)}
	case thirdOk:
		return thirdResult(thirdBest)
	default:
		return []codes.Code{codes.Reference(firstBest)}
	}
}
