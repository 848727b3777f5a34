package consensus

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// OutPointBytes is the canonical serialized size of an OutPoint: a
// 32-byte transaction hash plus a 4-byte little-endian output index.
const OutPointBytes = chainhash.HashSize + 4

// OutPoint references a specific output of a specific transaction. It
// keys the UTXO map and is totally ordered by byte-comparison of the
// tuple (hash first, then index).
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Serialize returns the canonical 36-byte encoding of o.
func (o OutPoint) Serialize() []byte {
	out := make([]byte, OutPointBytes)
	copy(out[0:chainhash.HashSize], o.Hash[:])
	binary.LittleEndian.PutUint32(out[chainhash.HashSize:], o.Index)
	return out
}

// ParseOutPoint parses the canonical 36-byte encoding of an OutPoint.
func ParseOutPoint(b []byte) (OutPoint, error) {
	var o OutPoint
	if len(b) != OutPointBytes {
		return o, fmt.Errorf("consensus: outpoint: expected %d bytes, got %d", OutPointBytes, len(b))
	}
	copy(o.Hash[:], b[0:chainhash.HashSize])
	o.Index = binary.LittleEndian.Uint32(b[chainhash.HashSize:])
	return o, nil
}

// Less reports whether o sorts before other: by hash bytes, then index.
func (o OutPoint) Less(other OutPoint) bool {
	if c := bytes.Compare(o.Hash[:], other.Hash[:]); c != 0 {
		return c < 0
	}
	return o.Index < other.Index
}

// IsCoinbase reports whether o is the null outpoint coinbase inputs use.
func (o OutPoint) IsCoinbase() bool {
	return o.Index == 0xFFFFFFFF && o.Hash == (chainhash.Hash{})
}

// String renders the outpoint as "<hash>:<index>" for logging.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}
