package picker

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"

	"github.com/elliotnunn/rezip/internal/codes"
)

// cachedPick is the memoized result of a Pick call: either a Ref, or a
// recorded miss (found=false), so a repeated miss also hits the cache.
type cachedPick struct {
	ref   codes.Ref
	found bool
}

// Cached wraps a Picker with a TinyLFU-admitted memo table, keyed by the
// caller-supplied key (normally the position being probed). Worthwhile
// only at the large chain caps the higher WAMS profiles allow
// (limit_count_of_distances up to 4096), where the Gzip and ThreeZip
// lookahead strategies re-probe neighbouring positions and would otherwise
// rescore largely the same candidate set repeatedly. Cached itself
// implements Picker, so it drops into Config.Picker in place of the
// picker it wraps.
type Cached struct {
	inner Picker
	cache *tinylfu.T[uint64, cachedPick]
}

// NewCached wraps inner with a TinyLFU cache sized for approximately
// capacity distinct keys.
func NewCached(inner Picker, capacity int) *Cached {
	return &Cached{
		inner: inner,
		cache: tinylfu.New[uint64, cachedPick](capacity, capacity*10, identityHash),
	}
}

func identityHash(k uint64) uint64 { return k }

// Pick implements Picker, memoizing by key: repeated lookahead probes of
// the same position under the same profile don't re-walk the candidate
// chain.
func (c *Cached) Pick(key string, next func() (codes.Ref, bool), cap uint16) (codes.Ref, bool) {
	h := xxhash.Sum64String(key)

	if cp, ok := c.cache.Get(h); ok {
		return cp.ref, cp.found
	}

	ref, found := c.inner.Pick(key, next, cap)
	c.cache.Add(h, cachedPick{ref: ref, found: found})
	return ref, found
}
