package consensus

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HeaderBytes is the canonical 80-byte serialized block header size.
const HeaderBytes = 80

// HeaderRecordBytes is the on-disk record size: the 80-byte header plus
// its precomputed 32-byte hash (spec §3, §6).
const HeaderRecordBytes = HeaderBytes + chainhash.HashSize

// BlockHeader is the 80-byte canonical Bitcoin block header, plus its
// derived hash (double-SHA-256 of the serialized form, little-endian).
type BlockHeader struct {
	Version       int32
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// Serialize returns the canonical 80-byte wire encoding of h.
func (h BlockHeader) Serialize() []byte {
	out := make([]byte, HeaderBytes)
	binary.LittleEndian.PutUint32(out[0:4], uint32(h.Version))
	copy(out[4:36], h.PrevBlockHash[:])
	copy(out[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(out[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(out[72:76], h.Bits)
	binary.LittleEndian.PutUint32(out[76:80], h.Nonce)
	return out
}

// ParseHeader parses the canonical 80-byte wire encoding of a BlockHeader.
func ParseHeader(b []byte) (BlockHeader, error) {
	var h BlockHeader
	if len(b) != HeaderBytes {
		return h, fmt.Errorf("consensus: header: expected %d bytes, got %d", HeaderBytes, len(b))
	}
	h.Version = int32(binary.LittleEndian.Uint32(b[0:4]))
	copy(h.PrevBlockHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(b[68:72])
	h.Bits = binary.LittleEndian.Uint32(b[72:76])
	h.Nonce = binary.LittleEndian.Uint32(b[76:80])
	return h, nil
}

// Hash returns the double-SHA-256 hash of the header's canonical
// serialization (Bitcoin's block identifier, displayed byte-reversed).
func (h BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Serialize())
}

// SerializeRecord returns the 112-byte on-disk record: header || hash.
func (h BlockHeader) SerializeRecord() []byte {
	out := make([]byte, 0, HeaderRecordBytes)
	out = append(out, h.Serialize()...)
	hash := h.Hash()
	out = append(out, hash[:]...)
	return out
}

// ParseHeaderRecord parses a 112-byte on-disk record and verifies the
// precomputed hash matches the header bytes.
func ParseHeaderRecord(b []byte) (BlockHeader, error) {
	var h BlockHeader
	if len(b) != HeaderRecordBytes {
		return h, fmt.Errorf("consensus: header record: expected %d bytes, got %d", HeaderRecordBytes, len(b))
	}
	h, err := ParseHeader(b[:HeaderBytes])
	if err != nil {
		return h, err
	}
	var storedHash chainhash.Hash
	copy(storedHash[:], b[HeaderBytes:])
	if h.Hash() != storedHash {
		return h, fmt.Errorf("consensus: header record: stored hash mismatch")
	}
	return h, nil
}
