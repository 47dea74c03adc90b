// Package tracecache fronts the expensive encoder-emulation-and-diff pass
// with a process-local cache, so re-tracing the same (level, preroll, data,
// codes) tuple a second time is a cache hit rather than a full re-run.
// Grounded on decompressioncache.go's read-through-or-compute ReaderAt,
// generalized from caching sequential decompressed byte ranges under a
// debug-name-plus-offset key to caching a whole computed []codes.Trace
// under an xxhash digest of its inputs.
package tracecache

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"

	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/tracecodec"
)

// Compute performs the actual trace-and-validate pass. It only runs on a
// cache miss.
type Compute func() []codes.Trace

// Get returns the trace for the given (level, preroll, data, codeList)
// tuple, calling compute and storing the result on a miss.
func Get(level int, preroll, data []byte, codeList []codes.Code, compute Compute) []codes.Trace {
	key := fingerprint(level, preroll, data, codeList)

	if blob, err := cache.Get(key); err == nil {
		if traces, err := tracecodec.Read(bytes.NewReader(blob)); err == nil {
			slog.Debug("tracecache hit", "key", key, "level", level, "codes", len(codeList))
			return traces
		}
	}

	slog.Debug("tracecache miss", "key", key, "level", level, "codes", len(codeList))
	traces := compute()
	cache.Set(key, tracecodec.Write(traces))
	return traces
}

// ClearCache drops every cached trace.
func ClearCache() error {
	return cache.Reset()
}

func fingerprint(level int, preroll, data []byte, codeList []codes.Code) string {
	h := xxhash.New()
	var lenbuf [8]byte

	writeUint64 := func(n uint64) {
		binary.LittleEndian.PutUint64(lenbuf[:], n)
		h.Write(lenbuf[:])
	}

	writeUint64(uint64(level))

	writeUint64(uint64(len(preroll)))
	h.Write(preroll)

	writeUint64(uint64(len(data)))
	h.Write(data)

	writeUint64(uint64(len(codeList)))
	for _, c := range codeList {
		if lit, ok := c.AsLiteral(); ok {
			h.Write([]byte{0, lit})
			continue
		}
		ref, _ := c.AsReference()
		var b [5]byte
		b[0] = 1
		binary.LittleEndian.PutUint16(b[1:3], ref.Dist)
		binary.LittleEndian.PutUint16(b[3:5], ref.Run())
		h.Write(b[:])
	}

	return fmt.Sprintf("%016x", h.Sum64())
}

var cache *bigcache.BigCache

func init() {
	c, err := bigcache.New(context.Background(), bigcache.Config{
		HardMaxCacheSize: 512, // megabytes
		Shards:           1024,
	})
	if err != nil {
		panic(err)
	}
	cache = c
}
