// Package codes holds the core value types shared by every package in the
// DEFLATE-trace pipeline. It exists separately from the root package so
// that internal packages can depend on the types without importing the
// public facade (which in turn depends on them).
package codes

import "fmt"

// Ref is a back-reference: copy Run() bytes from Dist bytes before the
// current position.
type Ref struct {
	Dist      uint16
	runMinus3 uint8
}

// NewRef builds a Ref, panicking if dist or run fall outside the ranges
// DEFLATE allows. Both bounds are invariants established upstream (the
// block parser and the candidate enumerator), never user input, so a
// panic here signals a bug rather than bad data.
func NewRef(dist, run uint16) Ref {
	if run < 3 || run > 258 {
		panic(fmt.Sprintf("invalid run length %d", run))
	}
	if dist < 1 || dist > 32768 {
		panic(fmt.Sprintf("invalid distance %d", dist))
	}
	return Ref{Dist: dist, runMinus3: uint8(run - 3)}
}

// Run returns the copy length, always in [3, 258].
func (r Ref) Run() uint16 { return uint16(r.runMinus3) + 3 }

func (r Ref) String() string { return fmt.Sprintf("R[%d, %d]", r.Dist, r.Run()) }

// Code is a literal byte or a back-reference. Go has no tagged union, so
// Code is a small flat struct rather than an interface, avoiding an
// allocation/boxing per code in the hot decode loop.
type Code struct {
	isRef bool
	lit   byte
	ref   Ref
}

// Literal builds a literal-byte code.
func Literal(b byte) Code { return Code{lit: b} }

// Reference builds a back-reference code.
func Reference(r Ref) Code { return Code{isRef: true, ref: r} }

// IsReference reports whether c carries a Ref rather than a literal byte.
func (c Code) IsReference() bool { return c.isRef }

// AsLiteral returns the literal byte and true, or 0 and false if c is a reference.
func (c Code) AsLiteral() (byte, bool) {
	if c.isRef {
		return 0, false
	}
	return c.lit, true
}

// AsReference returns the Ref and true, or the zero Ref and false if c is a literal.
func (c Code) AsReference() (Ref, bool) {
	if !c.isRef {
		return Ref{}, false
	}
	return c.ref, true
}

// EmittedBytes is the number of plaintext bytes c produces: 1 for a
// literal, Run() for a reference.
func (c Code) EmittedBytes() uint16 {
	if c.isRef {
		return c.ref.Run()
	}
	return 1
}

func (c Code) String() string {
	if c.isRef {
		return fmt.Sprintf("R(-%d, %d)", c.ref.Dist, c.ref.Run())
	}
	return fmt.Sprintf("L(0x%02x %q)", c.lit, rune(c.lit))
}

// Equal reports whether c and other encode the same literal or reference.
func (c Code) Equal(other Code) bool {
	if c.isRef != other.isRef {
		return false
	}
	if c.isRef {
		return c.ref == other.ref
	}
	return c.lit == other.lit
}

// BlockKind tags the variant carried by a Block.
type BlockKind int

const (
	Uncompressed BlockKind = iota
	FixedHuffman
	DynamicHuffman
)

// Block is one DEFLATE block: a raw uncompressed payload, or a code list
// decoded under the fixed or a dynamic Huffman tree pair. TreeBits is only
// meaningful for DynamicHuffman and carries the verbatim bits between the
// block-type field and the first symbol, so recompression can replay them
// unmodified instead of reconstructing an equivalent tree.
type Block struct {
	Kind     BlockKind
	Raw      []byte
	Codes    []Code
	TreeBits []bool
}

// Obscure is an interval (start, start+Run) of positions the encoder used
// in a match but did not insert into the hash chain.
type Obscure struct {
	Start int
	Run   uint16
}

// Trace is one disagreement-or-agreement entry between an emulated guess
// and the real code stream at a position.
type Trace struct {
	Kind TraceKind
	Ref  Ref // only meaningful when Kind == Actually
}

type TraceKind int

const (
	Correct TraceKind = iota
	ActuallyLiteral
	Actually
)

func (t Trace) String() string {
	switch t.Kind {
	case Correct:
		return "✓"
	case ActuallyLiteral:
		return "L"
	default:
		return t.Ref.String()
	}
}

// ParseErrorKind enumerates the distinct failure modes a DEFLATE stream can
// trigger, per the error handling design: callers match on Kind rather than
// the message text.
type ParseErrorKind int

const (
	InvalidMagic ParseErrorKind = iota
	UnsupportedCompressionMethod
	ReservedBlockType
	MalformedHuffmanTree
	ReservedSymbol
	InvalidDistance
	InvalidRun
	LengthPrefixMismatch
	NonZeroPadding
	UnexpectedEndOfInput
)

func (k ParseErrorKind) String() string {
	switch k {
	case InvalidMagic:
		return "invalid magic"
	case UnsupportedCompressionMethod:
		return "unsupported compression method"
	case ReservedBlockType:
		return "reserved block type"
	case MalformedHuffmanTree:
		return "malformed huffman tree"
	case ReservedSymbol:
		return "reserved symbol"
	case InvalidDistance:
		return "invalid distance"
	case InvalidRun:
		return "invalid run"
	case LengthPrefixMismatch:
		return "length prefix mismatch"
	case NonZeroPadding:
		return "non-zero padding"
	case UnexpectedEndOfInput:
		return "unexpected end of input"
	default:
		return "unknown parse error"
	}
}

// ParseError is the typed error surfaced by every DEFLATE-level parse
// failure in the pipeline.
type ParseError struct {
	Kind ParseErrorKind
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// NewParseError builds a ParseError with a formatted message.
func NewParseError(kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
