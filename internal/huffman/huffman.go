// Package huffman provides the fixed DEFLATE Huffman tables, the dynamic
// tree header decoder, and the run-length/distance symbol <-> extra-bits
// arithmetic.
package huffman

import (
	"sync"

	"github.com/elliotnunn/rezip/internal/bitio"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/codetree"
)

var (
	fixedOnce         sync.Once
	fixedLengthTree   *codetree.Tree
	fixedDistanceTree *codetree.Tree
	fixedTreesInitErr error
)

func initFixedTrees() {
	fixedOnce.Do(func() {
		lens := make([]uint8, 288)
		for i := 0; i < 144; i++ {
			lens[i] = 8
		}
		for i := 144; i < 256; i++ {
			lens[i] = 9
		}
		for i := 256; i < 280; i++ {
			lens[i] = 7
		}
		for i := 280; i < 288; i++ {
			lens[i] = 8
		}

		fixedLengthTree, fixedTreesInitErr = codetree.New(lens)
		if fixedTreesInitErr != nil {
			return
		}

		distLens := make([]uint8, 32)
		for i := range distLens {
			distLens[i] = 5
		}
		fixedDistanceTree, fixedTreesInitErr = codetree.New(distLens)
	})
}

// FixedLengthTree returns the process-wide fixed literal/length tree,
// building it on first use.
func FixedLengthTree() *codetree.Tree {
	initFixedTrees()
	if fixedTreesInitErr != nil {
		panic(fixedTreesInitErr)
	}
	return fixedLengthTree
}

// FixedDistanceTree returns the process-wide fixed distance tree.
func FixedDistanceTree() *codetree.Tree {
	initFixedTrees()
	if fixedTreesInitErr != nil {
		panic(fixedTreesInitErr)
	}
	return fixedDistanceTree
}

// codeLengthOrder is the order code-length-alphabet lengths are transmitted in.
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// ReadCodes decodes a dynamic Huffman header: HLIT/HDIST/HCLEN, the
// code-length alphabet, then the literal/length and distance code lengths
// (run-length compressed via symbols 16/17/18). Returns the built trees;
// dist is nil if the stream declared zero distance codes.
func ReadCodes(src bitio.Source) (lit, dist *codetree.Tree, err error) {
	numLitLen, err := bitio.ReadPart(src, 5)
	if err != nil {
		return nil, nil, err
	}
	numLitLen += 257

	numDist, err := bitio.ReadPart(src, 5)
	if err != nil {
		return nil, nil, err
	}
	numDist++

	numCodeLen, err := bitio.ReadPart(src, 4)
	if err != nil {
		return nil, nil, err
	}
	numCodeLen += 4

	var codeLenLens [19]uint8
	for i := 0; i < int(numCodeLen); i++ {
		v, err := bitio.ReadPart(src, 3)
		if err != nil {
			return nil, nil, err
		}
		codeLenLens[codeLengthOrder[i]] = uint8(v)
	}

	codeLenTree, err := codetree.New(codeLenLens[:])
	if err != nil {
		return nil, nil, err
	}

	totalLens := int(numLitLen) + int(numDist)
	codeLens := make([]uint8, totalLens)

	var runVal uint8
	haveRunVal := false
	runLen := 0

	i := 0
	for {
		if runLen > 0 {
			if !haveRunVal {
				return nil, nil, codes.NewParseError(codes.MalformedHuffmanTree, "run with no preceding value")
			}
			codeLens[i] = runVal
			runLen--
			i++
		} else {
			sym, err := codeLenTree.DecodeSymbol(src)
			if err != nil {
				return nil, nil, err
			}
			switch {
			case sym <= 15:
				codeLens[i] = uint8(sym)
				runVal = uint8(sym)
				haveRunVal = true
				i++
			case sym == 16:
				if !haveRunVal {
					return nil, nil, codes.NewParseError(codes.MalformedHuffmanTree, "no value to copy")
				}
				extra, err := bitio.ReadPart(src, 2)
				if err != nil {
					return nil, nil, err
				}
				runLen = int(extra) + 3
			case sym == 17:
				runVal = 0
				haveRunVal = true
				extra, err := bitio.ReadPart(src, 3)
				if err != nil {
					return nil, nil, err
				}
				runLen = int(extra) + 3
			case sym == 18:
				runVal = 0
				haveRunVal = true
				extra, err := bitio.ReadPart(src, 7)
				if err != nil {
					return nil, nil, err
				}
				runLen = int(extra) + 11
			default:
				return nil, nil, codes.NewParseError(codes.ReservedSymbol, "code-length symbol %d out of range", sym)
			}
		}

		if i >= totalLens {
			break
		}
	}
	if runLen != 0 {
		return nil, nil, codes.NewParseError(codes.MalformedHuffmanTree, "run exceeds number of codes")
	}

	litLenTree, err := codetree.New(codeLens[:numLitLen])
	if err != nil {
		return nil, nil, err
	}

	distCodeLens := codeLens[numLitLen:]

	if len(distCodeLens) == 1 && distCodeLens[0] == 0 {
		return litLenTree, nil, nil
	}

	onePositive, otherPositive := 0, 0
	for _, x := range distCodeLens {
		switch {
		case x == 1:
			onePositive++
		case x > 1:
			otherPositive++
		}
	}

	var distTree *codetree.Tree
	if onePositive == 1 && otherPositive == 0 {
		// Exactly one distance code is legal DEFLATE but not a buildable
		// tree on its own; pad a dummy second leaf (spec 4.2).
		var padded [32]uint8
		toCopy := len(distCodeLens)
		if toCopy > 31 {
			toCopy = 31
		}
		copy(padded[:toCopy], distCodeLens[:toCopy])
		padded[31] = 1

		distTree, err = codetree.New(padded[:])
		if err != nil {
			return nil, nil, err
		}
	} else {
		distTree, err = codetree.New(distCodeLens)
		if err != nil {
			return nil, nil, err
		}
	}

	return litLenTree, distTree, nil
}

// EncodeRunLength maps a run length (3..258) to its length symbol (257..285).
func EncodeRunLength(length uint16) uint16 {
	switch {
	case length >= 3 && length <= 10:
		return 257 + length - 3
	case length <= 18:
		return 265 + (length-11)/2
	case length <= 34:
		return 269 + (length-19)/4
	case length <= 66:
		return 273 + (length-35)/8
	case length <= 130:
		return 277 + (length-67)/16
	case length <= 257:
		return 281 + (length-131)/32
	case length == 258:
		return 285
	default:
		panic("huffman: insane run length")
	}
}

// ExtraRunLength returns the extra-bit count and value for length, or
// ok=false if length's symbol carries no extra bits.
func ExtraRunLength(length uint16) (bits uint8, val uint16, ok bool) {
	switch {
	case length >= 3 && length <= 10:
		return 0, 0, false
	case length <= 18:
		return 1, (length - 11) % 2, true
	case length <= 34:
		return 2, (length - 19) % 4, true
	case length <= 66:
		return 3, (length - 35) % 8, true
	case length <= 130:
		return 4, (length - 67) % 16, true
	case length <= 257:
		return 5, (length - 131) % 32, true
	case length == 258:
		return 0, 0, false
	default:
		panic("huffman: insane run length")
	}
}

// DecodeRunLength decodes a length symbol (257..287) plus any extra bits
// into a run length of 3..258.
func DecodeRunLength(src bitio.Source, sym uint16) (uint16, error) {
	if sym < 257 || sym > 287 {
		return 0, codes.NewParseError(codes.ReservedSymbol, "length symbol %d out of range", sym)
	}
	if sym <= 264 {
		return sym - 254, nil
	}
	if sym <= 284 {
		extraBits := uint8((sym - 261) / 4)
		highPart := ((uint8(sym-265) % 4) + 4) << extraBits
		lowPart, err := bitio.ReadPart(src, extraBits)
		if err != nil {
			return 0, err
		}
		return uint16(highPart) + lowPart + 3, nil
	}
	if sym == 285 {
		return 258, nil
	}
	return 0, codes.NewParseError(codes.ReservedSymbol, "reserved run-length symbol %d", sym)
}

// EncodeDistance maps a distance (1..32768) to its symbol code, extra-bit
// count, and extra-bit value.
func EncodeDistance(distance uint16) (code uint8, bits uint8, val uint16) {
	if distance <= 4 {
		return uint8(distance - 1), 0, 0
	}

	extraBits := uint8(1)
	c := uint8(4)
	base := uint16(4)

	for base*2 < distance {
		extraBits++
		c += 2
		base *= 2
	}

	half := base / 2
	delta := distance - base - 1

	if distance <= base+half {
		return c, extraBits, delta % half
	}
	return c + 1, extraBits, delta % half
}

// DecodeDistance decodes a distance symbol (0..29) plus any extra bits into
// a distance of 1..32768.
func DecodeDistance(src bitio.Source, sym uint16) (uint16, error) {
	if sym > 31 {
		return 0, codes.NewParseError(codes.InvalidDistance, "distance symbol %d out of range", sym)
	}
	if sym <= 3 {
		return sym + 1, nil
	}
	if sym <= 29 {
		numExtraBits := uint8(sym/2 - 1)
		extra, err := bitio.ReadPart(src, numExtraBits)
		if err != nil {
			return 0, err
		}
		return (((sym % 2) + 2) << numExtraBits) + 1 + extra, nil
	}
	return 0, codes.NewParseError(codes.ReservedSymbol, "reserved distance symbol %d", sym)
}
