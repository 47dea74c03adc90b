// Package backmap indexes a byte buffer by every 3-byte key it contains,
// so candidate back-references can be enumerated in descending-position
// order from any point.
package backmap

const hashSize = 32 * 1024

// Key is a 3-byte match key.
type Key struct {
	B0, B1, B2 byte
}

// Hash computes the classic gzip rolling 3-byte hash, the same function
// both BackMap construction and lookup use.
func (k Key) Hash() uint16 {
	h := uint16(k.B0)
	h <<= 5
	h ^= uint16(k.B1)
	h <<= 5
	h ^= uint16(k.B2)
	return h & 0x7FFF
}

// KeyAt reads the 3-byte key starting at from[0:3].
func KeyAt(from []byte) Key {
	return Key{from[0], from[1], from[2]}
}

// BackMap is an immutable, position-indexed hash chain over preroll+data.
type BackMap struct {
	hashToPos [hashSize]int
	posToPos  []int
}

// New builds a BackMap over preroll (context bytes, e.g. the previous
// block's tail) followed by data, hashing every adjacent 3-byte window.
// Position 0 is never recorded as a "previous" position since the zero
// sentinel terminates chains and a 0-distance self-match is invalid
// regardless.
func New(preroll, data []byte) *BackMap {
	combined := make([]byte, 0, len(preroll)+len(data))
	combined = append(combined, preroll...)
	combined = append(combined, data...)

	m := &BackMap{posToPos: make([]int, len(combined))}

	for pos := 0; pos+2 < len(combined); pos++ {
		hash := KeyAt(combined[pos:]).Hash()
		prev := m.hashToPos[hash]
		m.posToPos[pos] = prev
		m.hashToPos[hash] = pos
	}

	return m
}

// Chain iterates matching positions in strictly descending order, the
// property the "take N nearest" candidate cap depends on. The first Next
// call always yields the chain head even if it is position 0 -- since
// position 0 can never be recorded as anyone's "previous" link, a chain
// head of 0 is ambiguous between "no entries" and "position 0 matched",
// and both are resolved downstream by AllRefs's literal key re-check.
type Chain struct {
	next     int
	done     bool
	posToPos []int
}

// Get returns the chain of positions that hashed the same as key, most
// recent first.
func (m *BackMap) Get(key Key) Chain {
	return Chain{next: m.hashToPos[key.Hash()], posToPos: m.posToPos}
}

// Next returns the next position in the chain and true, or false when exhausted.
func (c *Chain) Next() (int, bool) {
	if c.done {
		return 0, false
	}
	current := c.next
	if nextPos := c.posToPos[current]; nextPos == 0 {
		c.done = true
	} else {
		c.next = nextPos
	}
	return current, true
}
