// Package consensus implements the chain-level data structures and the
// lightweight consensus checks (proof-of-work, merkle) an SPV node needs
// without running a script interpreter or validating transaction inputs.
package consensus

import (
	"encoding/binary"
	"fmt"
)

// CompactSize is Bitcoin's canonical variable-length integer encoding.
//
//	< 0xFD          -> 1 byte
//	<= 0xFFFF        -> 0xFD + 2 LE bytes
//	<= 0xFFFF_FFFF   -> 0xFE + 4 LE bytes
//	else             -> 0xFF + 8 LE bytes
//
// Writers must use the shortest encoding; readers accept any valid one.
type CompactSize uint64

// Encode returns the minimal CompactSize encoding of n.
func (n CompactSize) Encode() []byte {
	switch {
	case n < 0xFD:
		return []byte{byte(n)}
	case n <= 0xFFFF:
		out := make([]byte, 3)
		out[0] = 0xFD
		binary.LittleEndian.PutUint16(out[1:], uint16(n))
		return out
	case n <= 0xFFFFFFFF:
		out := make([]byte, 5)
		out[0] = 0xFE
		binary.LittleEndian.PutUint32(out[1:], uint32(n))
		return out
	default:
		out := make([]byte, 9)
		out[0] = 0xFF
		binary.LittleEndian.PutUint64(out[1:], uint64(n))
		return out
	}
}

// DecodeCompactSize reads a CompactSize from the front of b, returning the
// value, the number of bytes consumed, and an error for truncated input.
// Any valid prefix-tagged encoding is accepted, not only minimal ones.
func DecodeCompactSize(b []byte) (CompactSize, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("consensus: compactsize: empty input")
	}
	switch tag := b[0]; {
	case tag < 0xFD:
		return CompactSize(tag), 1, nil
	case tag == 0xFD:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("consensus: compactsize: truncated 0xFD")
		}
		return CompactSize(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case tag == 0xFE:
		if len(b) < 5 {
			return 0, 0, fmt.Errorf("consensus: compactsize: truncated 0xFE")
		}
		return CompactSize(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	default: // 0xFF
		if len(b) < 9 {
			return 0, 0, fmt.Errorf("consensus: compactsize: truncated 0xFF")
		}
		return CompactSize(binary.LittleEndian.Uint64(b[1:9])), 9, nil
	}
}

// DecodeCompactSizeStrict is like DecodeCompactSize but rejects
// non-minimal encodings, as required by spec testable properties (§8).
func DecodeCompactSizeStrict(b []byte) (CompactSize, int, error) {
	n, used, err := DecodeCompactSize(b)
	if err != nil {
		return 0, 0, err
	}
	if !encodingIsMinimal(n, used) {
		return 0, 0, fmt.Errorf("consensus: compactsize: non-minimal encoding")
	}
	return n, used, nil
}

func encodingIsMinimal(n CompactSize, used int) bool {
	switch used {
	case 1:
		return n < 0xFD
	case 3:
		return n >= 0xFD && n <= 0xFFFF
	case 5:
		return n > 0xFFFF && n <= 0xFFFFFFFF
	case 9:
		return n > 0xFFFFFFFF
	default:
		return false
	}
}
