package p2p

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// WorkItem is one unit of outbound work an idle peer's outbound loop
// can claim from the shared work queue (spec §4.7/§5: "any free peer
// can claim the next job").
type WorkItem interface {
	isWorkItem()
}

// GetHeadersWork asks a peer to request headers following LastHash (or
// the genesis locator if LastHash is the zero value).
type GetHeadersWork struct {
	LastHash chainhash.Hash
}

func (GetHeadersWork) isWorkItem() {}

// GetDataWork asks a peer to request the named inventories.
type GetDataWork struct {
	Inventories []consensus.Inventory
}

func (GetDataWork) isWorkItem() {}

// SendTransactionWork asks a peer to broadcast tx.
type SendTransactionWork struct {
	Transaction consensus.Transaction
}

func (SendTransactionWork) isWorkItem() {}

// WorkQueue is the MPMC channel every peer's outbound loop drains and
// the controller/node-state feed (spec §5: "single reader wins each
// message — classic worker-pool fan-out").
type WorkQueue chan WorkItem

// NewWorkQueue creates a buffered work queue; capacity bounds how much
// outstanding work can accumulate before a producer blocks.
func NewWorkQueue(capacity int) WorkQueue {
	return make(WorkQueue, capacity)
}
