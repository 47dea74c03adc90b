// Package window implements the 32 KiB sliding dictionary DEFLATE
// back-references are resolved against.
package window

import (
	"io"

	"github.com/elliotnunn/rezip/internal/codes"
)

// DefaultCapacity is the standard DEFLATE window size.
const DefaultCapacity = 32 * 1024

// CircularBuffer is a fixed-capacity ring buffer of recently emitted
// bytes, supporting distance-addressed reads and self-overlapping copies.
type CircularBuffer struct {
	data     []byte
	idx      int
	validCap uint16
}

// New returns a CircularBuffer with the standard 32 KiB capacity.
func New() *CircularBuffer {
	return WithCapacity(DefaultCapacity)
}

// WithCapacity returns a CircularBuffer with the given capacity.
func WithCapacity(cap uint16) *CircularBuffer {
	if cap == 0 {
		panic("window: capacity must be > 0")
	}
	return &CircularBuffer{data: make([]byte, cap)}
}

// Push writes val at the current position, advancing and saturating the
// valid length.
func (b *CircularBuffer) Push(val byte) {
	b.data[b.idx] = val
	b.idx = (b.idx + 1) % len(b.data)
	if int(b.validCap) < len(b.data) {
		b.validCap++
	}
}

// Extend pushes every byte of val in order.
func (b *CircularBuffer) Extend(val []byte) {
	for _, by := range val {
		b.Push(by)
	}
}

// Copy reads len bytes starting dist before the current position, writing
// each byte to into and pushing it back into the buffer as it goes --
// this is what makes len > dist self-overlapping copies correct.
func (b *CircularBuffer) Copy(dist, length uint16, into io.Writer) error {
	if dist == 0 || dist > b.validCap {
		return codes.NewParseError(codes.InvalidDistance, "dist %d must fit within valid length %d", dist, b.validCap)
	}

	readFrom := (b.idx - int(dist) + len(b.data)) % len(b.data)

	for i := uint16(0); i < length; i++ {
		by := b.data[readFrom]
		readFrom = (readFrom + 1) % len(b.data)
		if _, err := into.Write([]byte{by}); err != nil {
			return err
		}
		b.Push(by)
	}
	return nil
}

// GetAtDist returns the byte pushed dist pushes ago; dist must be in
// [1, Len()].
func (b *CircularBuffer) GetAtDist(dist uint16) byte {
	if dist == 0 || dist > b.validCap {
		panic("window: distance out of range")
	}
	target := b.idx - int(dist)
	if target < 0 {
		target += len(b.data)
	}
	return b.data[target]
}

// Capacity returns the ring's fixed capacity.
func (b *CircularBuffer) Capacity() uint16 { return uint16(len(b.data)) }

// Len returns the number of valid bytes currently held (saturates at capacity).
func (b *CircularBuffer) Len() uint16 { return b.validCap }

// Bytes materializes the valid contents in insertion order (oldest first).
func (b *CircularBuffer) Bytes() []byte {
	ret := make([]byte, 0, b.validCap)
	for pos := b.validCap; pos >= 1; pos-- {
		ret = append(ret, b.GetAtDist(pos))
	}
	return ret
}
