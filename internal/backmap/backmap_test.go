package backmap

import "testing"

func TestHashCollisions(t *testing.T) {
	k := func(b []byte) Key { return Key{b[0], b[1], b[2]} }

	if got := k([]byte{3, 1, 1}).Hash(); got != 0b0000_1100_0010_0001 {
		t.Fatalf("hash = %016b, want %016b", got, 0b0000_1100_0010_0001)
	}

	a := k([]byte{'O', 'o', 'o'}).Hash()
	b := k([]byte{'o', 'o', 'o'}).Hash()
	if a != b {
		t.Fatalf("expected %q and %q to collide, got %d != %d", "Ooo", "ooo", a, b)
	}
}

func TestChainDescendingOrder(t *testing.T) {
	data := []byte("abcabcabc")
	m := New(nil, data)

	chain := m.Get(KeyAt(data[6:]))
	var positions []int
	for {
		pos, ok := chain.Next()
		if !ok {
			break
		}
		positions = append(positions, pos)
		if len(positions) > len(data) {
			t.Fatal("chain did not terminate")
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i] >= positions[i-1] {
			t.Fatalf("chain not strictly descending: %v", positions)
		}
	}
	if len(positions) < 2 {
		t.Fatalf("expected at least two occurrences of \"abc\", got %v", positions)
	}
}

func TestWithPreroll(t *testing.T) {
	preroll := []byte("xyzabc")
	data := []byte("123abc")
	m := New(preroll, data)

	chain := m.Get(KeyAt(data[3:]))
	pos, ok := chain.Next()
	if !ok {
		t.Fatal("expected at least one match")
	}
	if pos != 9 {
		t.Fatalf("expected the data occurrence at combined position 9 first, got %d", pos)
	}
	pos, ok = chain.Next()
	if !ok {
		t.Fatal("expected a second match")
	}
	if pos != 3 {
		t.Fatalf("expected the preroll occurrence at combined position 3, got %d", pos)
	}
}
