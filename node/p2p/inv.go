package p2p

import (
	"fmt"

	"github.com/btcspv/spvnode/consensus"
)

const (
	commandInv      = "inv"
	commandGetData  = "getdata"
	commandNotFound = "notfound"
)

func serializeInventories(invs []consensus.Inventory) []byte {
	buf := make([]byte, 0, 4+len(invs)*consensus.InventoryBytes)
	buf = append(buf, consensus.CompactSize(len(invs)).Encode()...)
	for _, inv := range invs {
		buf = append(buf, inv.Serialize()...)
	}
	return buf
}

func parseInventories(b []byte, what string) ([]consensus.Inventory, error) {
	n, used, err := consensus.DecodeCompactSize(b)
	if err != nil {
		return nil, fmt.Errorf("p2p: %s: count: %w", what, err)
	}
	off := used

	invs := make([]consensus.Inventory, n)
	for i := range invs {
		if len(b) < off+consensus.InventoryBytes {
			return nil, fmt.Errorf("p2p: %s: truncated entry %d", what, i)
		}
		inv, err := consensus.ParseInventory(b[off : off+consensus.InventoryBytes])
		if err != nil {
			return nil, fmt.Errorf("p2p: %s: entry %d: %w", what, i, err)
		}
		invs[i] = inv
		off += consensus.InventoryBytes
	}
	return invs, nil
}

// InvMessage announces available objects (spec §4.7: Tx entries get an
// inline getdata; Block entries are ignored).
type InvMessage struct {
	Inventories []consensus.Inventory
}

func (InvMessage) Command() string        { return commandInv }
func (m InvMessage) Serialize() []byte    { return serializeInventories(m.Inventories) }
func ParseInvMessage(b []byte) (InvMessage, error) {
	invs, err := parseInventories(b, "inv")
	return InvMessage{Inventories: invs}, err
}

// GetDataMessage requests the full objects named by its inventories.
type GetDataMessage struct {
	Inventories []consensus.Inventory
}

func (GetDataMessage) Command() string     { return commandGetData }
func (m GetDataMessage) Serialize() []byte { return serializeInventories(m.Inventories) }
func ParseGetDataMessage(b []byte) (GetDataMessage, error) {
	invs, err := parseInventories(b, "getdata")
	return GetDataMessage{Inventories: invs}, err
}

// NotFoundMessage answers a GetData for objects the peer doesn't have.
type NotFoundMessage struct {
	Inventories []consensus.Inventory
}

func (NotFoundMessage) Command() string     { return commandNotFound }
func (m NotFoundMessage) Serialize() []byte { return serializeInventories(m.Inventories) }
func ParseNotFoundMessage(b []byte) (NotFoundMessage, error) {
	invs, err := parseInventories(b, "notfound")
	return NotFoundMessage{Inventories: invs}, err
}
