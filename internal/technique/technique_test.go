package technique

import (
	"testing"

	"github.com/elliotnunn/rezip/internal/allrefs"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/lookahead"
	"github.com/elliotnunn/rezip/internal/picker"
)

func TestGzipConfigPickerSwitchesAtLevel4(t *testing.T) {
	if _, ok := GzipConfig(3).Picker.(picker.Longest); !ok {
		t.Fatalf("expected Longest below level 4, got %T", GzipConfig(3).Picker)
	}
	if _, ok := GzipConfig(4).Picker.(picker.DropFarThrees); !ok {
		t.Fatalf("expected DropFarThrees from level 4 up, got %T", GzipConfig(4).Picker)
	}
}

func TestGzipConfigCachesPickerAtHighLevels(t *testing.T) {
	for level := 1; level <= 7; level++ {
		if _, ok := GzipConfig(level).Picker.(*picker.Cached); ok {
			t.Fatalf("level %d: expected an uncached picker, got *picker.Cached", level)
		}
	}
	for level := 8; level <= 9; level++ {
		if _, ok := GzipConfig(level).Picker.(*picker.Cached); !ok {
			t.Fatalf("level %d: expected *picker.Cached, got %T", level, GzipConfig(level).Picker)
		}
	}
}

func TestGzipConfigOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range level")
		}
	}()
	GzipConfig(10)
}

func TestScannerFeedbackAdvancesPos(t *testing.T) {
	data := []byte("abcabcabc")
	ar := allrefs.New(nil, data, 16)
	tech := New(GzipConfig(6), ar)
	s := tech.NewScanner()

	if s.Pos() != 0 {
		t.Fatalf("expected initial pos 0, got %d", s.Pos())
	}
	s.Feedback(codes.Literal('a'))
	if s.Pos() != 1 {
		t.Fatalf("expected pos 1 after a literal, got %d", s.Pos())
	}
	s.Feedback(codes.Reference(codes.NewRef(3, 5)))
	if s.Pos() != 6 {
		t.Fatalf("expected pos 6 after a run-5 reference, got %d", s.Pos())
	}
}

func TestScannerMoreData(t *testing.T) {
	data := []byte("ab")
	ar := allrefs.New(nil, data, 16)
	s := New(GzipConfig(6), ar).NewScanner()
	if !s.MoreData() {
		t.Fatal("expected more data at position 0")
	}
	s.Feedback(codes.Literal('a'))
	s.Feedback(codes.Literal('b'))
	if s.MoreData() {
		t.Fatal("expected no more data once every byte is consumed")
	}
}

func TestScannerCodesProposesLiteralOnNoMatch(t *testing.T) {
	data := []byte("abc")
	ar := allrefs.New(nil, data, 16)
	s := New(GzipConfig(6), ar).NewScanner()
	got := s.Codes()
	if len(got) != 1 {
		t.Fatalf("expected a single code, got %v", got)
	}
	if b, ok := got[0].AsLiteral(); !ok || b != 'a' {
		t.Fatalf("expected literal 'a', got %v", got[0])
	}
}

func TestScannerCodesProposesMatch(t *testing.T) {
	data := []byte("xabcabc")
	ar := allrefs.New(nil, data, 16)
	s := New(GzipConfig(6), ar).NewScanner()
	for s.MoreData() && s.Pos() < 4 {
		code := s.Codes()[0]
		s.Feedback(code)
	}
	got := s.Codes()
	if len(got) == 0 {
		t.Fatal("expected at least one code")
	}
	if _, ok := got[0].AsReference(); !ok {
		t.Fatalf("expected a reference at the repeated \"abc\", got %v", got[0])
	}
}

func TestSpicyConfigUsesThreeZip(t *testing.T) {
	c := SpicyConfig()
	if c.Lookahead != lookahead.ThreeZip {
		t.Fatalf("expected ThreeZip strategy, got %v", c.Lookahead)
	}
	if c.FirstByteBug {
		t.Fatal("spicy config should not emulate the first-byte bug")
	}
	if _, ok := c.Picker.(*picker.Cached); !ok {
		t.Fatalf("expected the spicy config's picker to be cached, got %T", c.Picker)
	}
}
