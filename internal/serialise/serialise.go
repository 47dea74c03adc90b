// Package serialise turns parsed DEFLATE blocks back into plaintext or
// re-encoded bits, and estimates the encoded bit length of a code under a
// given tree pair. Grounded on serialise.rs.
package serialise

import (
	"fmt"
	"io"

	"github.com/elliotnunn/rezip/internal/bitio"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/codetree"
	"github.com/elliotnunn/rezip/internal/huffman"
	"github.com/elliotnunn/rezip/internal/window"
)

// DecompressBlock replays block against dictionary, writing the resulting
// plaintext to into.
func DecompressBlock(into io.Writer, dictionary *window.CircularBuffer, block codes.Block) error {
	switch block.Kind {
	case codes.Uncompressed:
		dictionary.Extend(block.Raw)
		_, err := into.Write(block.Raw)
		return err
	default:
		return DecompressCodes(into, dictionary, block.Codes)
	}
}

// DecompressCodes replays a code list against dictionary, writing the
// resulting plaintext to into.
func DecompressCodes(into io.Writer, dictionary *window.CircularBuffer, list []codes.Code) error {
	for _, c := range list {
		if lit, ok := c.AsLiteral(); ok {
			dictionary.Push(lit)
			if _, err := into.Write([]byte{lit}); err != nil {
				return err
			}
			continue
		}
		ref, _ := c.AsReference()
		if err := dictionary.Copy(ref.Dist, ref.Run(), into); err != nil {
			return err
		}
	}
	return nil
}

// CompressBlock re-emits block as bits on into: the block-type prefix, then
// either the raw length-prefixed payload, the fixed trees, or the captured
// dynamic-tree bits followed by the codes re-encoded under the tree those
// bits describe.
func CompressBlock(into *bitio.Writer, block codes.Block) error {
	switch block.Kind {
	case codes.Uncompressed:
		if err := into.WriteBitsVal(2, 0); err != nil {
			return err
		}
		return into.WriteLengthPrefixed(block.Raw)

	case codes.FixedHuffman:
		if err := into.WriteBitsVal(2, 1); err != nil {
			return err
		}
		return compressedCodes(into, huffman.FixedLengthTree(), huffman.FixedDistanceTree(), block.Codes)

	case codes.DynamicHuffman:
		if err := into.WriteBitsVal(2, 2); err != nil {
			return err
		}
		var v bitio.Vec
		for _, bit := range block.TreeBits {
			v.Push(bit)
		}
		if err := into.WriteVec(v); err != nil {
			return err
		}

		length, dist, err := huffman.ReadCodes(v.Iter())
		if err != nil {
			return err
		}
		return compressedCodes(into, length, dist, block.Codes)

	default:
		return fmt.Errorf("serialise: unknown block kind %v", block.Kind)
	}
}

// Lengths gives the per-symbol bit lengths a tree pair assigns, used to
// estimate the encoded size of a code without actually emitting bits.
type Lengths struct {
	length         [288]uint8
	hasLength      [288]bool
	distance       [32]uint8
	hasDistance    [32]bool
	MeanLiteralLen uint8
}

// NewLengths derives a Lengths from a literal/length tree and a distance
// tree (which may be nil, matching a block with no distance codes at all).
func NewLengths(lengthTree, distanceTree *codetree.Tree) Lengths {
	var l Lengths

	lenBits := lengthTree.Invert()
	var total, populated int
	for sym, v := range lenBits {
		if v == nil {
			continue
		}
		l.length[sym] = uint8(v.Len())
		l.hasLength[sym] = true
		if sym < 256 {
			total += v.Len()
			populated++
		}
	}
	populated++ // the end-of-block symbol itself, per serialise.rs's 1+count
	if populated > 0 {
		l.MeanLiteralLen = uint8((total + populated) / populated)
	}

	if distanceTree != nil {
		distBits := distanceTree.Invert()
		for sym, v := range distBits {
			if sym >= len(l.distance) || v == nil {
				continue
			}
			l.distance[sym] = uint8(v.Len())
			l.hasDistance[sym] = true
		}
	}

	return l
}

// Length returns the number of bits code would cost under this tree pair,
// or ok=false if code uses a symbol this tree pair cannot represent.
func (l Lengths) Length(code codes.Code) (bits uint8, ok bool) {
	if lit, isLit := code.AsLiteral(); isLit {
		if !l.hasLength[lit] {
			return 0, false
		}
		return l.length[lit], true
	}

	ref, _ := code.AsReference()
	runSymbol := huffman.EncodeRunLength(ref.Run())
	if !l.hasLength[runSymbol] {
		return 0, false
	}
	runLen := l.length[runSymbol]

	distCode, extraBits, _ := huffman.EncodeDistance(ref.Dist)
	if int(distCode) >= len(l.distance) || !l.hasDistance[distCode] {
		return 0, false
	}
	distLen := l.distance[distCode]

	return runLen + distLen + extraBits, true
}

func compressedCodes(into *bitio.Writer, lengthTree, distanceTree *codetree.Tree, list []codes.Code) error {
	lengthBits := lengthTree.Invert()
	var distanceBits [288]*bitio.Vec
	if distanceTree != nil {
		distanceBits = distanceTree.Invert()
	}

	if lengthBits[256] == nil {
		return fmt.Errorf("serialise: length tree has no end-of-block symbol")
	}

	for _, c := range list {
		if lit, ok := c.AsLiteral(); ok {
			v := lengthBits[lit]
			if v == nil {
				return fmt.Errorf("serialise: invalid literal %#02x for this tree", lit)
			}
			if err := into.WriteVec(*v); err != nil {
				return err
			}
			continue
		}

		ref, _ := c.AsReference()
		if err := encodeRun(into, lengthBits, ref.Run()); err != nil {
			return err
		}
		if err := encodeDistance(into, distanceBits, ref.Dist); err != nil {
			return err
		}
	}

	return into.WriteVec(*lengthBits[256])
}

func encodeRun(into *bitio.Writer, lengthBits [288]*bitio.Vec, run uint16) error {
	sym := huffman.EncodeRunLength(run)
	v := lengthBits[sym]
	if v == nil {
		return fmt.Errorf("serialise: invalid run-length symbol %d for this tree", sym)
	}
	if err := into.WriteVec(*v); err != nil {
		return err
	}
	if bits, val, ok := huffman.ExtraRunLength(run); ok {
		return into.WriteBitsVal(bits, val)
	}
	return nil
}

func encodeDistance(into *bitio.Writer, distanceBits [288]*bitio.Vec, dist uint16) error {
	code, bits, val := huffman.EncodeDistance(dist)
	v := distanceBits[code]
	if v == nil {
		return fmt.Errorf("serialise: reference but no distance tree entry for symbol %d", code)
	}
	if err := into.WriteVec(*v); err != nil {
		return err
	}
	if bits > 0 {
		return into.WriteBitsVal(bits, val)
	}
	return nil
}
