package node

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/btcspv/spvnode/consensus"
	"github.com/btcspv/spvnode/node/p2p"
)

// GetDataChunkSize is how many inventories the controller groups per
// getdata message when requesting newly announced blocks (spec §4.8).
const GetDataChunkSize = 5

// Controller holds the peer set, the shared work queue, the
// node-action queue, and the node state, and runs the action-handler
// loop, the pending-block reaper, and the inbound connection acceptor
// (spec §4.8).
type Controller struct {
	state *State

	magic      uint32
	ourVersion func() p2p.VersionMessage

	work    p2p.WorkQueue
	actions p2p.ActionQueue

	peersMu     sync.Mutex
	peers       []*p2p.Peer
	sendHeaders map[*p2p.Peer]bool
}

// NewController assembles a Controller around state, ready to dial or
// accept peers and process its action queue.
func NewController(state *State, magic uint32, ourVersion func() p2p.VersionMessage, workCapacity, actionCapacity int) *Controller {
	return &Controller{
		state:       state,
		magic:       magic,
		ourVersion:  ourVersion,
		work:        p2p.NewWorkQueue(workCapacity),
		actions:     p2p.NewActionQueue(actionCapacity),
		sendHeaders: make(map[*p2p.Peer]bool),
	}
}

// ConnectPeer dials address (supplied by the out-of-scope address-book
// / DNS seed resolver), completes the handshake, and starts its loops.
func (c *Controller) ConnectPeer(address string) (*p2p.Peer, error) {
	peer, err := p2p.Dial(address, c.magic, c.ourVersion(), c.work, c.actions)
	if err != nil {
		return nil, err
	}
	c.registerPeer(peer)
	return peer, nil
}

func (c *Controller) registerPeer(peer *p2p.Peer) {
	c.peersMu.Lock()
	c.peers = append(c.peers, peer)
	c.peersMu.Unlock()

	go peer.RunOutbound()
	go peer.RunInbound()
}

func (c *Controller) peerCount() int {
	c.peersMu.Lock()
	defer c.peersMu.Unlock()
	return len(c.peers)
}

// ListenAndAccept binds addr and accepts inbound peers forever,
// symmetric-handshaking and registering each (spec §4.8 inbound
// listener; treats accepted and dialed peers identically).
func (c *Controller) ListenAndAccept(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("node: controller: listen %s: %w", addr, err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				log.Warnf("controller: accept: %v", err)
				return
			}
			peer, err := p2p.AcceptHandshake(conn, c.magic, c.ourVersion(), c.work, c.actions)
			if err != nil {
				log.Warnf("controller: inbound handshake: %v", err)
				continue
			}
			c.registerPeer(peer)
		}
	}()
	return nil
}

// RunActionHandler drains the action queue forever, single-threaded,
// serializing every state mutation (spec §4.8, §5).
func (c *Controller) RunActionHandler() {
	for action := range c.actions {
		c.handleAction(action)
	}
}

func (c *Controller) handleAction(action p2p.NodeAction) {
	switch a := action.(type) {
	case p2p.ActionNewHeaders:
		c.handleNewHeaders(a)
	case p2p.ActionBlock:
		c.handleBlock(a)
	case p2p.ActionPendingTransaction:
		c.handlePendingTransaction(a)
	case p2p.ActionMakeTransaction:
		c.handleMakeTransaction(a)
	case p2p.ActionGetHeadersError:
		c.work <- p2p.GetHeadersWork{LastHash: a.LastHash}
	case p2p.ActionGetDataError:
		c.work <- p2p.GetDataWork{Inventories: a.Inventories}
	case p2p.ActionSendHeaders:
		c.peersMu.Lock()
		c.sendHeaders[a.From] = true
		c.peersMu.Unlock()
	case p2p.ActionServeGetHeaders:
		headers := c.state.Headers.Serve(a.Request.Locator, a.Request.HashStop)
		if err := a.From.SendHeaders(headers); err != nil {
			log.Warnf("controller: serve getheaders to %s: %v", a.From.Addr(), err)
		}
	default:
		log.Warnf("controller: unknown action %T", action)
	}
}

func (c *Controller) handleNewHeaders(a p2p.ActionNewHeaders) {
	var toFetch []consensus.Inventory
	for _, h := range a.Headers {
		if int64(h.Timestamp) > c.state.Checkpoint {
			hash := h.Hash()
			toFetch = append(toFetch, consensus.Inventory{Kind: consensus.InvBlock, Hash: hash})
			c.state.PendingBlocks.Append(hash)
		}
	}
	for i := 0; i < len(toFetch); i += GetDataChunkSize {
		end := i + GetDataChunkSize
		if end > len(toFetch) {
			end = len(toFetch)
		}
		c.work <- p2p.GetDataWork{Inventories: toFetch[i:end]}
	}

	if err := c.state.Headers.Append(a.Headers); err != nil {
		c.state.Events.Emit(EventLog{Message: "header append failed", Err: err})
		return
	}
	c.state.Events.Emit(EventNewHeaders{Count: len(a.Headers)})

	if c.state.Headers.IsSynced() {
		c.state.Advance(HeadersSynced)
		c.state.Advance(BlocksSyncing)
	}
}

func (c *Controller) handleBlock(a p2p.ActionBlock) {
	if !c.state.PendingBlocks.Contains(a.Hash) {
		return
	}
	if err := c.state.Blocks.Put(a.Hash, a.Block); err != nil {
		c.state.Events.Emit(EventLog{Message: "block persist failed", Err: err})
		return
	}
	c.state.PendingBlocks.Remove(a.Hash)
	c.state.PendingTx.Reconcile(a.Block)

	if updated, err := c.state.Wallets.RecordBlock(a.Hash, a.Block, c.state.UTXO); err != nil {
		c.state.Events.Emit(EventLog{Message: "wallet record failed", Err: err})
	} else if updated {
		c.state.Events.Emit(EventWalletsUpdated{})
	}

	if c.state.InSteadyState() {
		if err := c.state.UTXO.ApplyBlock(a.Hash, a.Block); err != nil {
			c.state.Events.Emit(EventLog{Message: "utxo apply failed", Err: err})
		}
	}
	c.state.Events.Emit(EventNewBlock{Hash: a.Hash})

	if c.state.Phase() == BlocksSyncing && c.state.Headers.IsSynced() && c.state.PendingBlocks.IsEmpty() {
		c.state.Advance(BlocksSynced)
		c.buildUTXOColdStart()
	}
}

func (c *Controller) buildUTXOColdStart() {
	c.state.Advance(UTXOBuilding)
	if err := c.state.UTXO.GenerateColdStart(c.state.Headers, c.state.Blocks, c.state.Checkpoint); err != nil {
		c.state.Events.Emit(EventLog{Message: "utxo cold start failed", Err: err})
		return
	}
	c.state.UTXO.SetSteadyState(true)
	c.state.Advance(Ready)
}

func (c *Controller) handlePendingTransaction(a p2p.ActionPendingTransaction) {
	if !c.state.InSteadyState() {
		return
	}
	if !c.state.PendingTx.Append(a.Tx) {
		return
	}
	if _, ok := c.state.Wallets.Active(); ok {
		c.state.Events.Emit(EventNewPendingTx{TxHash: a.Tx.Hash()})
	}
}

func (c *Controller) handleMakeTransaction(a p2p.ActionMakeTransaction) {
	active, ok := c.state.Wallets.Active()
	if !ok {
		c.replyMakeTransaction(a, fmt.Errorf("node: controller: no active wallet"))
		return
	}
	tx, err := MakeTransaction(active, c.state.UTXO, a.Outputs, a.Fee)
	if err != nil {
		c.replyMakeTransaction(a, err)
		return
	}

	n := c.peerCount()
	for i := 0; i < n; i++ {
		c.work <- p2p.SendTransactionWork{Transaction: tx}
	}
	c.replyMakeTransaction(a, nil)
}

func (c *Controller) replyMakeTransaction(a p2p.ActionMakeTransaction, err error) {
	if a.Result == nil {
		return
	}
	select {
	case a.Result <- err:
	default:
	}
}

// RunPendingBlocksReaper wakes every interval and, on each wake, reissues GetData for every stale request (spec §4.5).
func (c *Controller) RunPendingBlocksReaper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		for _, hash := range c.state.PendingBlocks.StaleRequests() {
			c.state.PendingBlocks.Append(hash)
			c.work <- p2p.GetDataWork{Inventories: []consensus.Inventory{{Kind: consensus.InvBlock, Hash: hash}}}
		}
	}
}

// EnqueueGetHeaders pushes a GetHeaders work item for the current tip;
// used at startup to kick off IBD.
func (c *Controller) EnqueueGetHeaders() {
	c.work <- p2p.GetHeadersWork{LastHash: c.state.Headers.TipHash()}
}

// RequestTransaction submits a MakeTransaction action and blocks for
// its result, giving callers (CLI, tests) a synchronous API over the
// action queue (spec §4.9).
func (c *Controller) RequestTransaction(outputs map[string]uint64, fee uint64) error {
	result := make(chan error, 1)
	c.actions <- p2p.ActionMakeTransaction{Outputs: outputs, Fee: fee, Result: result}
	return <-result
}
