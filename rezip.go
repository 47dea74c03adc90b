// Package rezip reconstructs the encoder decisions behind a DEFLATE
// compressed byte stream: for every back-reference-versus-literal choice a
// reference gzip encoder would have made, it records whether that guess
// agrees with the actual stream, producing a compact trace that a matching
// restore pass turns back into the identical code stream.
//
// The public surface re-exports the core value types from internal/codes
// and provides TryGzip, the one-shot entry point grounded on tracer.rs: run
// a gzip-level encoder emulation over a plaintext and its real code list,
// diff the two, and hand back the resulting trace.
package rezip

import (
	"github.com/elliotnunn/rezip/internal/allrefs"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/technique"
	"github.com/elliotnunn/rezip/internal/tracecache"
	"github.com/elliotnunn/rezip/internal/tracing"
)

// Code is a single DEFLATE literal or back-reference.
type Code = codes.Code

// Ref is a back-reference: copy Run() bytes from Dist bytes earlier.
type Ref = codes.Ref

// Block is one parsed DEFLATE block.
type Block = codes.Block

// Trace is one disagreement-or-agreement entry between an encoder
// emulation's guess and the real code stream at a position.
type Trace = codes.Trace

// ParseError is the typed error surfaced by every DEFLATE-level parse
// failure.
type ParseError = codes.ParseError

// Literal builds a literal-byte code.
func Literal(b byte) Code { return codes.Literal(b) }

// Reference builds a back-reference code.
func Reference(r Ref) Code { return codes.Reference(r) }

// NewRef builds a Ref, panicking if dist or run fall outside the ranges
// DEFLATE allows.
func NewRef(dist, run uint16) Ref { return codes.NewRef(dist, run) }

const (
	Correct         = codes.Correct
	ActuallyLiteral = codes.ActuallyLiteral
	Actually        = codes.Actually
)

// TryGzip builds a Technique matching gzip -level, runs it against
// plaintext (with preroll as leading context for cross-block
// back-references), and validates actualCodes against the emulation's
// guesses, returning the resulting trace. It is a one-shot convenience
// wrapper over internal/technique and internal/tracing for callers that
// don't need to reuse the AllRefs index across multiple calls.
//
// Repeated calls with identical inputs are served from a process-local
// cache (internal/tracecache) rather than re-running the emulation.
func TryGzip(level int, preroll, plaintext []byte, actualCodes []Code) []Trace {
	return tracecache.Get(level, preroll, plaintext, actualCodes, func() []codes.Trace {
		config := technique.GzipConfig(level)
		refs := allrefs.New(preroll, plaintext, config.Wams.LimitCountOfDistances)
		t := technique.New(config, refs)

		return tracing.Validate(actualCodes, func() tracing.Scanner {
			return t.NewScanner()
		})
	})
}

// Restore replays trace against a fresh Technique scan for the given gzip
// level, reproducing the original code stream. level and preroll/plaintext must
// match whatever produced trace (normally via TryGzip or a direct
// tracing.Validate call).
func Restore(level int, preroll, plaintext []byte, trace []Trace) []Code {
	config := technique.GzipConfig(level)
	refs := allrefs.New(preroll, plaintext, config.Wams.LimitCountOfDistances)
	t := technique.New(config, refs)
	return tracing.Restore(trace, t.NewScanner())
}
