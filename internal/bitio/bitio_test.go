package bitio

import (
	"bytes"
	"testing"
)

func TestWriteReadBit(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	bits := []bool{true, false, false, true, true, true, false, false}
	for _, b := range bits {
		if err := w.WriteBit(b); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(&buf)
	for i, want := range bits {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("bit %d = %v, want %v", i, got, want)
		}
	}
}

func TestReadPart(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteBitsVal(5, 0b10110); err != nil {
		t.Fatal(err)
	}
	if err := w.Align(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf)
	got, err := r.ReadPart(5)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0b10110 {
		t.Fatalf("ReadPart = %05b, want %05b", got, 0b10110)
	}
}

func TestAlignRejectsSetPadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBit(false)
	w.WriteBit(true) // non-zero padding
	w.Align()

	r := NewReader(&buf)
	r.ReadBit()
	if err := r.Align(); err == nil {
		t.Fatal("expected error for non-zero padding")
	}
}

func TestLengthPrefixedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	data := []byte("hello, world")
	if err := w.WriteLengthPrefixed(data); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf)
	got, err := r.ReadLengthPrefixed()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestLengthPrefixedMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x05, 0x00, 0x00, 0x00}) // NLEN should be 0xfffa
	r := NewReader(&buf)
	if _, err := r.ReadLengthPrefixed(); err == nil {
		t.Fatal("expected length prefix mismatch error")
	}
}

func TestTracking(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBitsVal(4, 0b1011)
	w.Align()

	r := NewReader(&buf)
	r.StartTracking()
	for i := 0; i < 4; i++ {
		r.ReadBit()
	}
	v := r.StopTracking()
	if v.Len() != 4 {
		t.Fatalf("tracked %d bits, want 4", v.Len())
	}
	if !v.Get(0) || !v.Get(1) || v.Get(2) || !v.Get(3) {
		t.Fatalf("tracked bits wrong: %v %v %v %v", v.Get(0), v.Get(1), v.Get(2), v.Get(3))
	}
}

func TestVecPushPop(t *testing.T) {
	var v Vec
	v.Push(true)
	v.Push(false)
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}
	bit, ok := v.Pop()
	if !ok || bit {
		t.Fatal("expected pop to return false")
	}
	bit, ok = v.Pop()
	if !ok || !bit {
		t.Fatal("expected pop to return true")
	}
	if v.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", v.Len())
	}
}

func TestVecPopByte(t *testing.T) {
	var v Vec
	for _, b := range []bool{true, false, false, true, false, true, true, true} {
		v.Push(b)
	}
	by, ok := v.PopByte()
	if !ok {
		t.Fatal("expected a byte")
	}
	if by != 0b1110_1001 {
		t.Fatalf("PopByte() = %08b, want %08b", by, 0b1110_1001)
	}
	if v.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", v.Len())
	}
}

func TestVecIter(t *testing.T) {
	var v Vec
	bits := []bool{true, false, true}
	for _, b := range bits {
		v.Push(b)
	}
	it := v.Iter()
	for i, want := range bits {
		got, err := it.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("bit %d = %v, want %v", i, got, want)
		}
	}
	if _, err := it.ReadBit(); err == nil {
		t.Fatal("expected exhaustion error")
	}
}
