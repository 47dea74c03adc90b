// Package gzipheader reads past a gzip member header without inflating it,
// returning the raw header bytes verbatim so the caller can recompose an
// identical member later. Grounded on gzip.rs.
package gzipheader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/elliotnunn/rezip/internal/codes"
)

const (
	flagFHCRC    = 1 << 1
	flagFEXTRA   = 1 << 2
	flagFNAME    = 1 << 3
	flagFCOMMENT = 1 << 4
	reservedMask = 0b1110_0000
)

// DiscardHeader reads and validates a gzip member header from r, returning
// every byte it consumed (fixed header, optional extra/name/comment/CRC16
// fields) so the caller can reproduce it byte-for-byte ahead of the
// recompressed DEFLATE stream.
func DiscardHeader(r io.Reader) ([]byte, error) {
	var whole []byte

	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("gzipheader: reading fixed header: %w", err)
	}
	whole = append(whole, header[:]...)

	if header[0] != 0x1f || header[1] != 0x8b {
		return nil, codes.NewParseError(codes.InvalidMagic, "got %#02x %#02x", header[0], header[1])
	}
	if header[2] != 0x08 {
		return nil, codes.NewParseError(codes.UnsupportedCompressionMethod, "method %d", header[2])
	}

	flags := header[3]
	if flags&reservedMask != 0 {
		return nil, fmt.Errorf("gzipheader: reserved flag bits set (%#08b)", flags)
	}

	if flags&flagFEXTRA != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("gzipheader: reading FEXTRA length: %w", err)
		}
		whole = append(whole, lenBuf[:]...)
		extraLen := binary.LittleEndian.Uint16(lenBuf[:])
		extra := make([]byte, extraLen)
		if _, err := io.ReadFull(r, extra); err != nil {
			return nil, fmt.Errorf("gzipheader: reading FEXTRA field: %w", err)
		}
		whole = append(whole, extra...)
	}

	if flags&flagFNAME != 0 {
		b, err := readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("gzipheader: reading FNAME: %w", err)
		}
		whole = append(whole, b...)
	}

	if flags&flagFCOMMENT != 0 {
		b, err := readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("gzipheader: reading FCOMMENT: %w", err)
		}
		whole = append(whole, b...)
	}

	if flags&flagFHCRC != 0 {
		var crc [2]byte
		if _, err := io.ReadFull(r, crc[:]); err != nil {
			return nil, fmt.Errorf("gzipheader: reading FHCRC: %w", err)
		}
		whole = append(whole, crc[:]...)
	}

	return whole, nil
}

func readNullTerminated(r io.Reader) ([]byte, error) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		out = append(out, b[0])
		if b[0] == 0 {
			return out, nil
		}
	}
}
