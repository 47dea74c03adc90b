// Package blockparser walks a raw DEFLATE bitstream block by block,
// producing the parsed codes.Block sequence the rest of the pipeline
// operates on. Grounded on parse.rs, fixing a latent off-by-one in the
// distance upper bound (the reference source accepted dist <= 32786; the
// DEFLATE maximum window is 32768).
package blockparser

import (
	"github.com/elliotnunn/rezip/internal/bitio"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/codetree"
	"github.com/elliotnunn/rezip/internal/huffman"
)

// Parser yields one codes.Block per call to Next until the stream's final
// block has been consumed.
type Parser struct {
	r    *bitio.Reader
	end  bool
	done bool
}

// New wraps r for block-at-a-time parsing.
func New(r *bitio.Reader) *Parser {
	return &Parser{r: r}
}

// Next returns the next block, ok=false once every block (including the one
// with BFINAL set) has been returned, or an error on a malformed stream.
func (p *Parser) Next() (block codes.Block, ok bool, err error) {
	if p.done {
		return codes.Block{}, false, nil
	}
	if p.end {
		if err := p.r.Align(); err != nil {
			return codes.Block{}, false, err
		}
		p.done = true
		return codes.Block{}, false, nil
	}

	final, err := p.r.ReadBit()
	if err != nil {
		return codes.Block{}, false, err
	}
	p.end = final

	b, err := readBlock(p.r)
	if err != nil {
		return codes.Block{}, false, err
	}
	return b, true, nil
}

func readBlock(r *bitio.Reader) (codes.Block, error) {
	typ, err := bitio.ReadPart(r, 2)
	if err != nil {
		return codes.Block{}, err
	}

	switch typ {
	case 0:
		if err := r.Align(); err != nil {
			return codes.Block{}, err
		}
		raw, err := r.ReadLengthPrefixed()
		if err != nil {
			return codes.Block{}, err
		}
		return codes.Block{Kind: codes.Uncompressed, Raw: raw}, nil

	case 1:
		list, err := scanHuffmanData(r, huffman.FixedLengthTree(), huffman.FixedDistanceTree())
		if err != nil {
			return codes.Block{}, err
		}
		return codes.Block{Kind: codes.FixedHuffman, Codes: list}, nil

	case 2:
		r.StartTracking()
		length, distance, err := huffman.ReadCodes(r)
		if err != nil {
			r.StopTracking()
			return codes.Block{}, err
		}
		treeBits := r.StopTracking()

		list, err := scanHuffmanData(r, length, distance)
		if err != nil {
			return codes.Block{}, err
		}

		bits := make([]bool, treeBits.Len())
		for i := range bits {
			bits[i] = treeBits.Get(i)
		}
		return codes.Block{Kind: codes.DynamicHuffman, Codes: list, TreeBits: bits}, nil

	case 3:
		return codes.Block{}, codes.NewParseError(codes.ReservedBlockType, "block type 3")

	default:
		panic("blockparser: read_part(2) returned a value outside 0..3")
	}
}

func scanHuffmanData(r *bitio.Reader, length, distance *codetree.Tree) ([]codes.Code, error) {
	var ret []codes.Code

	for {
		sym, err := length.DecodeSymbol(r)
		if err != nil {
			return nil, err
		}

		if sym == 256 {
			break
		}
		if sym < 256 {
			ret = append(ret, codes.Literal(byte(sym)))
			continue
		}

		run, err := huffman.DecodeRunLength(r, sym)
		if err != nil {
			return nil, err
		}

		if distance == nil {
			return nil, codes.NewParseError(codes.MalformedHuffmanTree, "length symbol encountered but no distance table")
		}
		distSym, err := distance.DecodeSymbol(r)
		if err != nil {
			return nil, err
		}

		dist, err := huffman.DecodeDistance(r, distSym)
		if err != nil {
			return nil, err
		}

		if dist < 1 || dist > 32768 {
			return nil, codes.NewParseError(codes.InvalidDistance, "distance %d out of range", dist)
		}

		ret = append(ret, codes.Reference(codes.NewRef(dist, run)))
	}

	return ret, nil
}
