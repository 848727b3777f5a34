package p2p

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// NodeAction is one event the controller's action-handler loop
// serializes against node state (spec §4.8). Peers emit these from
// their inbound loops; the front-end's MakeTransaction request is the
// one action not sourced from a peer.
type NodeAction interface {
	isNodeAction()
}

// ActionQueue is the single-reader queue the controller drains; it is
// the node's sole write authority (spec §5).
type ActionQueue chan NodeAction

// NewActionQueue creates a buffered action queue.
func NewActionQueue(capacity int) ActionQueue {
	return make(ActionQueue, capacity)
}

// ActionNewHeaders carries a freshly received headers batch.
type ActionNewHeaders struct {
	From    *Peer
	Headers []consensus.BlockHeader
}

func (ActionNewHeaders) isNodeAction() {}

// ActionBlock carries a freshly received, merkle-verified block.
type ActionBlock struct {
	Hash  chainhash.Hash
	Block consensus.Block
}

func (ActionBlock) isNodeAction() {}

// ActionPendingTransaction carries an unconfirmed transaction seen on
// the wire.
type ActionPendingTransaction struct {
	Tx consensus.Transaction
}

func (ActionPendingTransaction) isNodeAction() {}

// ActionMakeTransaction requests construction, signing, and broadcast
// of a new outgoing payment from the active wallet (spec §4.9).
// Outputs maps a Base58 recipient pubkey to a satoshi value.
type ActionMakeTransaction struct {
	Outputs map[string]uint64
	Fee     uint64
	Result  chan<- error
}

func (ActionMakeTransaction) isNodeAction() {}

// ActionGetHeadersError signals a getheaders request failed (send
// error or stale peer); another peer should retry it.
type ActionGetHeadersError struct {
	LastHash chainhash.Hash
}

func (ActionGetHeadersError) isNodeAction() {}

// ActionGetDataError signals a getdata request failed or was answered
// with notfound; it should be retried.
type ActionGetDataError struct {
	Inventories []consensus.Inventory
}

func (ActionGetDataError) isNodeAction() {}

// ActionSendHeaders records that a peer opted into header
// announcements.
type ActionSendHeaders struct {
	From *Peer
}

func (ActionSendHeaders) isNodeAction() {}

// ActionServeGetHeaders asks the controller to answer a peer's
// getheaders request from the in-memory header chain (spec §4.3
// serve, §9 resolved open question).
type ActionServeGetHeaders struct {
	From    *Peer
	Request GetHeadersMessage
}

func (ActionServeGetHeaders) isNodeAction() {}
