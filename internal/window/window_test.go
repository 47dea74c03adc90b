package window

import (
	"bytes"
	"testing"
)

func TestGetAtDist(t *testing.T) {
	buf := WithCapacity(10)
	buf.Extend([]byte("abcdef"))
	if buf.GetAtDist(1) != 'f' {
		t.Fatalf("GetAtDist(1) = %c, want f", buf.GetAtDist(1))
	}
	if buf.GetAtDist(6) != 'a' {
		t.Fatalf("GetAtDist(6) = %c, want a", buf.GetAtDist(6))
	}

	buf.Extend([]byte("qrstuv"))
	if buf.GetAtDist(1) != 'v' {
		t.Fatalf("GetAtDist(1) = %c, want v", buf.GetAtDist(1))
	}
	if buf.GetAtDist(6) != 'q' {
		t.Fatalf("GetAtDist(6) = %c, want q", buf.GetAtDist(6))
	}
	if buf.GetAtDist(7) != 'f' {
		t.Fatalf("GetAtDist(7) = %c, want f", buf.GetAtDist(7))
	}
}

func TestGetAtDistOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range distance")
		}
	}()
	buf := WithCapacity(10)
	buf.Extend([]byte("abcdef"))
	buf.GetAtDist(7)
}

func TestBytes(t *testing.T) {
	buf := WithCapacity(6)
	buf.Extend([]byte("abcdefghij"))
	if got := string(buf.Bytes()); got != "efghij" {
		t.Fatalf("Bytes() = %q, want %q", got, "efghij")
	}
}

func TestCopySelfOverlap(t *testing.T) {
	buf := WithCapacity(32 * 1024)
	buf.Extend([]byte("a"))
	var out bytes.Buffer
	if err := buf.Copy(1, 5, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "aaaaa" {
		t.Fatalf("Copy(1,5) = %q, want %q", out.String(), "aaaaa")
	}
}

func TestCopyInvalidDistance(t *testing.T) {
	buf := WithCapacity(32 * 1024)
	buf.Extend([]byte("abc"))
	var out bytes.Buffer
	if err := buf.Copy(5, 3, &out); err == nil {
		t.Fatal("expected an error for a distance beyond the valid length")
	}
}
