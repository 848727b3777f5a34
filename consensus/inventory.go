package consensus

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// InventoryType identifies what an Inventory's hash refers to. The
// source the spec was distilled from carried two incompatible codings
// for this type; the richer seven-value table below is the one spec.md
// §9 calls authoritative.
type InventoryType uint32

const (
	InvTx                   InventoryType = 1
	InvBlock                InventoryType = 2
	InvFilteredBlock        InventoryType = 3
	InvCompactBlock         InventoryType = 4
	InvWitnessTx            InventoryType = 0x40000001
	InvWitnessBlock         InventoryType = 0x40000002
	InvFilteredWitnessBlock InventoryType = 0x40000003
)

func (k InventoryType) String() string {
	switch k {
	case InvTx:
		return "Tx"
	case InvBlock:
		return "Block"
	case InvFilteredBlock:
		return "FilteredBlock"
	case InvCompactBlock:
		return "CompactBlock"
	case InvWitnessTx:
		return "WitnessTx"
	case InvWitnessBlock:
		return "WitnessBlock"
	case InvFilteredWitnessBlock:
		return "FilteredWitnessBlock"
	default:
		return fmt.Sprintf("InventoryType(%d)", uint32(k))
	}
}

// InventoryBytes is the canonical serialized size of an Inventory: a
// 4-byte little-endian type tag plus a 32-byte hash.
const InventoryBytes = 4 + chainhash.HashSize

// Inventory is a typed reference used in inv/getdata/notfound messages.
type Inventory struct {
	Kind InventoryType
	Hash chainhash.Hash
}

// Serialize returns the canonical 36-byte encoding of inv.
func (inv Inventory) Serialize() []byte {
	out := make([]byte, InventoryBytes)
	binary.LittleEndian.PutUint32(out[0:4], uint32(inv.Kind))
	copy(out[4:], inv.Hash[:])
	return out
}

// ParseInventory parses the canonical 36-byte encoding of an Inventory.
func ParseInventory(b []byte) (Inventory, error) {
	var inv Inventory
	if len(b) != InventoryBytes {
		return inv, fmt.Errorf("consensus: inventory: expected %d bytes, got %d", InventoryBytes, len(b))
	}
	inv.Kind = InventoryType(binary.LittleEndian.Uint32(b[0:4]))
	copy(inv.Hash[:], b[4:])
	return inv, nil
}
