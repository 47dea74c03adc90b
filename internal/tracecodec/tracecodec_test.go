package tracecodec

import (
	"bytes"
	"testing"

	"github.com/elliotnunn/rezip/internal/codes"
)

func roundTrip(t *testing.T, trace []codes.Trace) []byte {
	t.Helper()
	data := Write(trace)
	readBack, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(readBack) != len(trace) {
		t.Fatalf("got %d entries, want %d", len(readBack), len(trace))
	}
	for i := range trace {
		if trace[i] != readBack[i] {
			t.Fatalf("entry %d: got %v, want %v", i, readBack[i], trace[i])
		}
	}
	return data
}

func TestRoundTripMixedEntries(t *testing.T) {
	trace := []codes.Trace{
		{Kind: codes.Correct},
		{Kind: codes.ActuallyLiteral},
		{Kind: codes.Actually, Ref: codes.NewRef(100, 10)},
		{Kind: codes.Correct},
		{Kind: codes.Correct},
	}
	roundTrip(t, trace)
}

func TestLongCorrectRunRoundTrips(t *testing.T) {
	trace := make([]codes.Trace, 32765)
	for i := range trace {
		trace[i] = codes.Trace{Kind: codes.Correct}
	}
	roundTrip(t, trace)

	trace[1] = codes.Trace{Kind: codes.ActuallyLiteral}
	roundTrip(t, trace)

	trace = append(trace, codes.Trace{Kind: codes.ActuallyLiteral})
	roundTrip(t, trace)
}

func TestCorrectRunSpanningMultipleWords(t *testing.T) {
	// maxRepresentable is 0xffff-32768 = 32767; force more than one word.
	n := maxRepresentable*2 + 5
	trace := make([]codes.Trace, n)
	for i := range trace {
		trace[i] = codes.Trace{Kind: codes.Correct}
	}
	data := roundTrip(t, trace)
	if len(data) != 6 { // three LE u16 words: two full chunks + remainder
		t.Fatalf("expected 3 words (6 bytes) for a %d-run split across chunks, got %d bytes", n, len(data))
	}
}

func TestEmptyTrace(t *testing.T) {
	data := Write(nil)
	if len(data) != 0 {
		t.Fatalf("expected no bytes for an empty trace, got %d", len(data))
	}
	readBack, err := Read(bytes.NewReader(data))
	if err != nil || len(readBack) != 0 {
		t.Fatalf("expected an empty, error-free read, got %v %v", readBack, err)
	}
}

func TestVerifyReturnsWrittenBytes(t *testing.T) {
	trace := []codes.Trace{{Kind: codes.ActuallyLiteral}}
	data := Verify(trace)
	if !bytes.Equal(data, Write(trace)) {
		t.Fatal("Verify should return the same bytes as Write")
	}
}
