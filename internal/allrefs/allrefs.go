// Package allrefs enumerates candidate back-references at any position in
// a plaintext buffer, combining a BackMap hash chain with the obscure-list
// filter and the run-length-at-distance computation.
package allrefs

import (
	"github.com/elliotnunn/rezip/internal/backmap"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/obscure"
)

// AllRefs indexes preroll+data once at construction and answers candidate
// queries against it. preroll is context bytes preceding data (e.g. the
// tail of a previous block), used to resolve cross-block back-references.
type AllRefs struct {
	preroll  []byte
	data     []byte
	combined []byte
	m        *backmap.BackMap
	limit    uint16
}

// New builds an AllRefs over preroll+data with a candidate chain cap of
// limit (normally the profile's limit_count_of_distances).
func New(preroll, data []byte, limit uint16) *AllRefs {
	combined := make([]byte, 0, len(preroll)+len(data))
	combined = append(combined, preroll...)
	combined = append(combined, data...)

	return &AllRefs{
		preroll:  preroll,
		data:     data,
		combined: combined,
		m:        backmap.New(preroll, data),
		limit:    limit,
	}
}

// DataLen is the length of data (not including preroll).
func (a *AllRefs) DataLen() int { return len(a.data) }

// ByteAt returns the plaintext byte at dataPos.
func (a *AllRefs) ByteAt(dataPos int) byte { return a.data[dataPos] }

func (a *AllRefs) key(dataPos int) (backmap.Key, bool) {
	if dataPos+2 < len(a.data) {
		return backmap.KeyAt(a.data[dataPos:]), true
	}
	return backmap.Key{}, false
}

// At enumerates candidate references at dataPos, applying obscured,
// capping at the configured chain limit, re-verifying the 3-byte key
// literally (hash collisions are real), and computing each candidate's
// achievable run length. ok is false once dataPos has run out of keys
// (within 2 bytes of the end of data).
func (a *AllRefs) At(dataPos int, obscured []codes.Obscure) (next func() (codes.Ref, bool), ok bool) {
	key, ok := a.key(dataPos)
	if !ok {
		return nil, false
	}

	pos := len(a.preroll) + dataPos

	if pos == 0 {
		// We can only find ourselves, which is invalid.
		return func() (codes.Ref, bool) { return codes.Ref{}, false }, true
	}

	chain := a.m.Get(key)
	raw := func() (int, bool) {
		for {
			p, ok := chain.Next()
			if !ok {
				return 0, false
			}
			if p < pos {
				return p, true
			}
		}
	}

	filtered := obscure.Filter(raw, shiftObscured(obscured, len(a.preroll)))

	taken := uint16(0)
	keyBytes := [3]byte{key.B0, key.B1, key.B2}

	return func() (codes.Ref, bool) {
		for {
			if taken >= a.limit {
				return codes.Ref{}, false
			}
			off, ok := filtered()
			if !ok {
				return codes.Ref{}, false
			}
			taken++

			if off+3 > len(a.combined) {
				continue
			}
			if a.combined[off] != keyBytes[0] || a.combined[off+1] != keyBytes[1] || a.combined[off+2] != keyBytes[2] {
				continue
			}

			dist := uint16(pos - off)
			run := a.PossibleRunLengthAt(dataPos, dist)
			return codes.NewRef(dist, run), true
		}
	}, true
}

// shiftObscured translates obscured, whose Start values are 0-based into
// data (matching Scanner.Feedback's bookkeeping), into combined-space
// (preroll+data) positions, which is the space the backmap chain and the
// off values passed to obscure.Filter are in.
func shiftObscured(obscured []codes.Obscure, prerollLen int) []codes.Obscure {
	if prerollLen == 0 || len(obscured) == 0 {
		return obscured
	}
	shifted := make([]codes.Obscure, len(obscured))
	for i, o := range obscured {
		shifted[i] = codes.Obscure{Start: o.Start + prerollLen, Run: o.Run}
	}
	return shifted
}

func (a *AllRefs) getAtDist(dataPos int, dist uint16) byte {
	d := int(dist)
	if d <= dataPos {
		return a.data[dataPos-d]
	}
	return a.preroll[len(a.preroll)-(d-dataPos)]
}

// PossibleRunLengthAt computes the longest match achievable at dataPos
// against a reference dist bytes earlier, including self-overlap when
// run > dist. The first loop, which compares against the bytes dist back
// before the match starts overlapping itself, starts at 3 (not 0): the
// first three bytes are not compared. The overlap loop then continues from
// dist.
func (a *AllRefs) PossibleRunLengthAt(dataPos int, dist uint16) uint16 {
	upcoming := a.data[dataPos:]
	max := len(upcoming)
	if max > 258 {
		max = 258
	}
	upcoming = upcoming[:max]

	limit := dist
	if uint16(len(upcoming)) < limit {
		limit = uint16(len(upcoming))
	}
	for cur := uint16(3); cur < limit; cur++ {
		if upcoming[cur] != a.getAtDist(dataPos, dist-cur) {
			return cur
		}
	}

	for cur := dist; cur < uint16(len(upcoming)); cur++ {
		if upcoming[cur%dist] != upcoming[cur] {
			return cur
		}
	}

	return uint16(len(upcoming))
}
