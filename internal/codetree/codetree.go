// Package codetree builds canonical Huffman decode trees from a per-symbol
// code-length array, and can invert a built tree back into a symbol-to-bits
// table for re-encoding.
package codetree

import (
	"github.com/elliotnunn/rezip/internal/bitio"
	"github.com/elliotnunn/rezip/internal/codes"
)

// node is either a leaf carrying a symbol, or an internal fork.
type node struct {
	leaf        bool
	symbol      uint16
	left, right *node
}

// Tree is a canonical Huffman decode tree over up to 288 symbols.
type Tree struct {
	left, right *node
}

// New builds the canonical tree for lengths, where lengths[sym] is the
// code length of sym (0 meaning the symbol is absent). Construction
// materializes leaves from length 15 down to 1, pairing up accumulated
// nodes at each level, exactly as canonical Huffman assignment requires.
func New(lengths []uint8) (*Tree, error) {
	if len(lengths) < 2 {
		return nil, codes.NewParseError(codes.MalformedHuffmanTree, "too few lengths (%d)", len(lengths))
	}

	var nodes []*node

	for length := 15; length >= 0; length-- {
		if len(nodes)%2 != 0 {
			return nil, codes.NewParseError(codes.MalformedHuffmanTree, "not a tree")
		}

		newNodes := make([]*node, 0, len(nodes)/2+len(lengths))

		if length > 0 {
			for sym, l := range lengths {
				if int(l) == length {
					newNodes = append(newNodes, &node{leaf: true, symbol: uint16(sym)})
				}
			}
		}

		for i := 0; i+1 < len(nodes); i += 2 {
			newNodes = append(newNodes, &node{left: nodes[i], right: nodes[i+1]})
		}

		nodes = newNodes
	}

	if len(nodes) != 1 {
		return nil, codes.NewParseError(codes.MalformedHuffmanTree, "non-canonical code (%d roots)", len(nodes))
	}
	root := nodes[0]
	if root.leaf {
		return nil, codes.NewParseError(codes.MalformedHuffmanTree, "root must be internal")
	}
	return &Tree{left: root.left, right: root.right}, nil
}

// DecodeSymbol walks src bit by bit (0 -> left, 1 -> right) until reaching
// a leaf, returning its symbol.
func (t *Tree) DecodeSymbol(src bitio.Source) (uint16, error) {
	left, right := t.left, t.right
	for {
		bit, err := src.ReadBit()
		if err != nil {
			return 0, err
		}
		n := left
		if bit {
			n = right
		}
		if n.leaf {
			return n.symbol, nil
		}
		left, right = n.left, n.right
	}
}

// Invert returns, for each of 288 symbol slots, the bit sequence that
// encodes it (nil if the symbol is unused in this tree). Used to re-emit
// codes under a tree whose bits were only captured, never reconstructed
// from scratch.
func (t *Tree) Invert() [288]*bitio.Vec {
	var into [288]*bitio.Vec

	var left bitio.Vec
	left.Push(false)
	storeCode(&into, left, t.left)

	var right bitio.Vec
	right.Push(true)
	storeCode(&into, right, t.right)

	return into
}

func storeCode(into *[288]*bitio.Vec, prefix bitio.Vec, n *node) {
	if n.leaf {
		if into[n.symbol] != nil {
			panic("codetree: duplicate code in tree")
		}
		v := prefix
		into[n.symbol] = &v
		return
	}

	left := cloneVec(prefix)
	left.Push(false)
	storeCode(into, left, n.left)

	right := cloneVec(prefix)
	right.Push(true)
	storeCode(into, right, n.right)
}

func cloneVec(v bitio.Vec) bitio.Vec {
	// Vec's zero value starts empty; rebuild bit-by-bit since its backing
	// array must not be shared between the two branches below a fork.
	var out bitio.Vec
	for i := 0; i < v.Len(); i++ {
		out.Push(v.Get(i))
	}
	return out
}
