package lookahead

import (
	"testing"

	"github.com/elliotnunn/rezip/internal/codes"
)

// fakeLooker lets each test wire up canned answers per position.
type fakeLooker struct {
	lit  map[int]byte
	ref  map[int]codes.Ref
	has  map[int]bool
	data []byte
}

func (f *fakeLooker) BestCandidate(pos int) (byte, codes.Ref, bool) {
	return f.BestCandidateBetterThan(pos, 0, false)
}

func (f *fakeLooker) BestCandidateBetterThan(pos int, otherRun uint16, haveOther bool) (byte, codes.Ref, bool) {
	lit := f.lit[pos]
	if f.data != nil && pos < len(f.data) {
		lit = f.data[pos]
	}
	r, ok := f.ref[pos], f.has[pos]
	if haveOther && ok && r.Run() <= otherRun {
		return lit, codes.Ref{}, false
	}
	return lit, r, ok
}

func TestGreedyLiteral(t *testing.T) {
	f := &fakeLooker{lit: map[int]byte{0: 'x'}}
	got := Greedy.Propose(f, 0)
	if len(got) != 1 {
		t.Fatalf("expected one code, got %v", got)
	}
	b, ok := got[0].AsLiteral()
	if !ok || b != 'x' {
		t.Fatalf("expected literal 'x', got %v", got[0])
	}
}

func TestGreedyReference(t *testing.T) {
	r := codes.NewRef(4, 10)
	f := &fakeLooker{ref: map[int]codes.Ref{0: r}, has: map[int]bool{0: true}}
	got := Greedy.Propose(f, 0)
	if len(got) != 1 {
		t.Fatalf("expected one code, got %v", got)
	}
	gr, ok := got[0].AsReference()
	if !ok || gr != r {
		t.Fatalf("expected reference %v, got %v", r, got[0])
	}
}

func TestGzipDefersForLongerMatch(t *testing.T) {
	// pos0: ref run 4. pos1: ref run 10 (beats 4) -> literal at pos0, then
	// look further from pos1. pos2: nothing better than 10 -> emit the ref.
	f := &fakeLooker{
		lit:  map[int]byte{0: 'a', 1: 'b'},
		ref:  map[int]codes.Ref{0: codes.NewRef(1, 4), 1: codes.NewRef(1, 10)},
		has:  map[int]bool{0: true, 1: true},
	}
	got := Gzip.Propose(f, 0)
	if len(got) != 2 {
		t.Fatalf("expected literal+reference, got %v", got)
	}
	b, ok := got[0].AsLiteral()
	if !ok || b != 'a' {
		t.Fatalf("expected first code to be literal 'a', got %v", got[0])
	}
	r, ok := got[1].AsReference()
	if !ok || r.Run() != 10 {
		t.Fatalf("expected second code to be the run-10 reference, got %v", got[1])
	}
}

func TestGzipNoCandidateIsLiteral(t *testing.T) {
	f := &fakeLooker{lit: map[int]byte{0: 'z'}}
	got := Gzip.Propose(f, 0)
	if len(got) != 1 {
		t.Fatalf("expected one code, got %v", got)
	}
	if b, ok := got[0].AsLiteral(); !ok || b != 'z' {
		t.Fatalf("expected literal 'z', got %v", got[0])
	}
}

func TestThreeZipLongFirstRunWins(t *testing.T) {
	f := &fakeLooker{ref: map[int]codes.Ref{0: codes.NewRef(1, 20)}, has: map[int]bool{0: true}}
	got := ThreeZip.Propose(f, 0)
	if len(got) != 1 {
		t.Fatalf("expected one code, got %v", got)
	}
	r, ok := got[0].AsReference()
	if !ok || r.Run() != 20 {
		t.Fatalf("expected the long run to be used directly, got %v", got[0])
	}
}

func TestThreeZipPrefersSecondOverThirdWhenLonger(t *testing.T) {
	f := &fakeLooker{
		lit: map[int]byte{0: 'a', 1: 'b', 2: 'c'},
		ref: map[int]codes.Ref{
			0: codes.NewRef(1, 3),
			1: codes.NewRef(1, 20),
			2: codes.NewRef(1, 10),
		},
		has: map[int]bool{0: true, 1: true, 2: true},
	}
	got := ThreeZip.Propose(f, 0)
	if len(got) != 2 {
		t.Fatalf("expected literal+reference, got %v", got)
	}
	r, ok := got[1].AsReference()
	if !ok || r.Run() != 20 {
		t.Fatalf("expected the second-position run to win, got %v", got)
	}
}

func TestThreeZipPrefersThirdWhenLonger(t *testing.T) {
	f := &fakeLooker{
		lit: map[int]byte{0: 'a', 1: 'b', 2: 'c'},
		ref: map[int]codes.Ref{
			0: codes.NewRef(1, 3),
			1: codes.NewRef(1, 10),
			2: codes.NewRef(1, 30),
		},
		has: map[int]bool{0: true, 1: true, 2: true},
	}
	got := ThreeZip.Propose(f, 0)
	if len(got) != 3 {
		t.Fatalf("expected literal+literal+reference, got %v", got)
	}
	r, ok := got[2].AsReference()
	if !ok || r.Run() != 30 {
		t.Fatalf("expected the third-position run to win, got %v", got)
	}
}

func TestThreeZipFallsBackToFirstRun(t *testing.T) {
	f := &fakeLooker{
		lit: map[int]byte{0: 'a', 1: 'b', 2: 'c'},
		ref: map[int]codes.Ref{0: codes.NewRef(1, 3)},
		has: map[int]bool{0: true},
	}
	got := ThreeZip.Propose(f, 0)
	if len(got) != 1 {
		t.Fatalf("expected a single fallback reference, got %v", got)
	}
	r, ok := got[0].AsReference()
	if !ok || r.Run() != 3 {
		t.Fatalf("expected the original 3-run, got %v", got[0])
	}
}

func TestThreeZipSecond258ShortCircuits(t *testing.T) {
	f := &fakeLooker{
		lit: map[int]byte{0: 'a', 1: 'b'},
		ref: map[int]codes.Ref{
			0: codes.NewRef(1, 3),
			1: codes.NewRef(1, 258),
			2: codes.NewRef(1, 40),
		},
		has: map[int]bool{0: true, 1: true, 2: true},
	}
	got := ThreeZip.Propose(f, 0)
	if len(got) != 2 {
		t.Fatalf("expected literal+reference (short-circuited), got %v", got)
	}
	r, ok := got[1].AsReference()
	if !ok || r.Run() != 258 {
		t.Fatalf("expected the 258-run to be used, got %v", got)
	}
}
