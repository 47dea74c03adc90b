// Package tracecodec serializes and deserializes a trace as a compact
// little-endian byte stream. Grounded on serialise_trace.rs.
package tracecodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/elliotnunn/rezip/internal/codes"
)

const (
	representationOffset = 32768
	maxRepresentable      = 0xffff - representationOffset // largest single-word Correct run count
)

// Write encodes traces as a byte stream: a literal word of 0 for
// ActuallyLiteral, a word in [1, 32768] carrying the distance followed by a
// run-minus-3 byte for Actually(Ref), and a word above 32768 for a run of
// consecutive Correct entries (chunked at 32767 entries per word).
func Write(traces []codes.Trace) []byte {
	var buf bytes.Buffer
	buf.Grow(len(traces) * 2)

	i := 0
	var word [2]byte
	for i < len(traces) {
		switch traces[i].Kind {
		case codes.ActuallyLiteral:
			binary.LittleEndian.PutUint16(word[:], 0)
			buf.Write(word[:])
			i++

		case codes.Actually:
			r := traces[i].Ref
			binary.LittleEndian.PutUint16(word[:], r.Dist)
			buf.Write(word[:])
			buf.WriteByte(byte(r.Run() - 3))
			i++

		case codes.Correct:
			corrects := 0
			for i+corrects < len(traces) && traces[i+corrects].Kind == codes.Correct {
				corrects++
			}
			i += corrects

			for corrects > maxRepresentable {
				binary.LittleEndian.PutUint16(word[:], representationOffset+maxRepresentable)
				buf.Write(word[:])
				corrects -= maxRepresentable
			}
			binary.LittleEndian.PutUint16(word[:], representationOffset+uint16(corrects))
			buf.Write(word[:])
		}
	}

	return buf.Bytes()
}

// Read decodes a byte stream written by Write.
func Read(r io.Reader) ([]codes.Trace, error) {
	var ret []codes.Trace
	var word [2]byte

	for {
		if _, err := io.ReadFull(r, word[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("tracecodec: reading word: %w", err)
		}
		first := binary.LittleEndian.Uint16(word[:])

		switch {
		case first == 0:
			ret = append(ret, codes.Trace{Kind: codes.ActuallyLiteral})

		case first <= representationOffset:
			var runMinus3 [1]byte
			if _, err := io.ReadFull(r, runMinus3[:]); err != nil {
				return nil, fmt.Errorf("tracecodec: reading run byte: %w", err)
			}
			ref := codes.NewRef(first, uint16(runMinus3[0])+3)
			ret = append(ret, codes.Trace{Kind: codes.Actually, Ref: ref})

		default:
			count := first - representationOffset
			for j := uint16(0); j < count; j++ {
				ret = append(ret, codes.Trace{Kind: codes.Correct})
			}
		}
	}

	return ret, nil
}

// Verify writes traces, reads the result back, and panics if the round trip
// doesn't reproduce traces exactly. Grounded on serialise_trace.rs's verify,
// a self-check the reference implementation runs as part of every trace
// write rather than leaving the codec unverified at its boundary.
func Verify(traces []codes.Trace) []byte {
	data := Write(traces)
	readBack, err := Read(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("tracecodec: round trip failed to read back: %v", err))
	}
	if len(readBack) != len(traces) {
		panic("tracecodec: round trip produced a different number of entries")
	}
	for i := range traces {
		if traces[i] != readBack[i] {
			panic(fmt.Sprintf("tracecodec: round trip mismatch at entry %d", i))
		}
	}
	return data
}
