// Package plaintextcache exposes a sequential plaintext-producing source
// (typically DEFLATE block decompression) as a random-access io.ReaderAt,
// caching every block already produced so repeated reads over the same
// range don't re-run decompression. Grounded on reader2readerat.go,
// generalized from a raw io.Reader source to a restartable Source
// constructor, keeping the teacher's fixed-size block cache keyed by
// offset.
package plaintextcache

import (
	"fmt"
	"io"
	"sync"

	"github.com/maypok86/otter/v2"
)

// BlockSize is the fixed granularity blocks are cached at.
const BlockSize = 32 * 1024

// Source decompresses plaintext from the start; each call to the returned
// chunk reader returns the next bytes until it reports io.EOF.
type Source func() (chunkReader func() ([]byte, error))

// ReaderAt adapts a Source into random access, restarting decompression
// from scratch whenever a read seeks behind the point decompression has
// already reached.
type ReaderAt struct {
	uniq string
	new  Source

	mu       sync.Mutex
	pull     func() ([]byte, error)
	leftover []byte // unconsumed tail from a chunk that overshot a block boundary
	seek     int64  // bytes of plaintext produced so far
	eof      int64  // seek value at which the source ended, once known
	err      error  // the source's terminal error (io.EOF on a clean end)
}

// New builds a ReaderAt over new, identifying its cache entries with uniq
// (which must be unique across every concurrently live ReaderAt sharing the
// process-wide cache).
func New(uniq string, new Source) *ReaderAt {
	return &ReaderAt{uniq: uniq, new: new}
}

func (r *ReaderAt) cacheKey(offset int64) string {
	return fmt.Sprintf("%s@%#x", r.uniq, offset)
}

func (r *ReaderAt) restart() {
	r.pull = r.new()
	r.leftover = nil
	r.seek, r.eof, r.err = 0, 0, nil
}

// nextBlock pulls up to BlockSize bytes starting at the current seek
// position, caches it under that offset's key, and advances seek. A chunk
// that overshoots the block boundary has its tail held in r.leftover for
// the following call rather than discarded. Caller must hold r.mu.
func (r *ReaderAt) nextBlock() ([]byte, error) {
	start := r.seek
	buf := r.leftover
	r.leftover = nil
	var err error

	for int64(len(buf)) < BlockSize {
		var chunk []byte
		chunk, err = r.pull()
		buf = append(buf, chunk...)
		if err != nil {
			break
		}
	}
	if int64(len(buf)) > BlockSize {
		r.leftover = append([]byte(nil), buf[BlockSize:]...)
		buf = buf[:BlockSize]
	}
	r.seek = start + int64(len(buf))

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err != nil {
		r.eof, r.err = r.seek, err
	}

	cache.Set(r.cacheKey(start), buf)
	return buf, err
}

// ReadAt implements io.ReaderAt over the cached, lazily decompressed
// plaintext.
func (r *ReaderAt) ReadAt(buf []byte, off int64) (n int, reterr error) {
	for base := off / BlockSize * BlockSize; base < off+int64(len(buf)); base += BlockSize {
		key := r.cacheKey(base)

		var block []byte
		entry, ok := cache.GetEntry(key)
		if ok {
			block = entry.Value
			if base+int64(len(block)) == r.eof {
				reterr = r.err
			}
		} else {
			r.mu.Lock()
			if r.pull == nil || r.seek > base {
				r.restart()
			}
			start := int64(-1)
			for r.seek != base+BlockSize && reterr == nil {
				start = r.seek
				block, reterr = r.nextBlock()
			}
			if start != base {
				block = nil // the source ended before reaching base
			}
			r.mu.Unlock()
		}

		skip := 0
		if off > base {
			skip = int(off - base)
		}
		if skip > len(block) {
			skip = len(block)
		}
		src := block[skip:]
		dst := buf[n:]
		if len(src) > len(dst) {
			src = src[:len(dst)]
			reterr = nil // the error only attaches to the last byte of the block
		}
		n += copy(dst, src)

		if reterr != nil || n == len(buf) {
			break
		}
	}
	return n, reterr
}

// ClearCache drops every cached block across every ReaderAt.
func ClearCache() {
	cache.InvalidateAll()
}

var cache = otter.Must(&otter.Options[string, []byte]{
	MaximumSize: 1 << 15, // blocks; at 32 KiB each this caps around 1 GiB
})
