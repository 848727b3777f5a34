package node

import "sync"

// Phase is a step in the node's synchronization state machine (spec §3).
type Phase int

const (
	HeadersSyncing Phase = iota
	HeadersSynced
	BlocksSyncing
	BlocksSynced
	UTXOBuilding
	Ready
)

func (p Phase) String() string {
	switch p {
	case HeadersSyncing:
		return "HEADERS_SYNCING"
	case HeadersSynced:
		return "HEADERS_SYNCED"
	case BlocksSyncing:
		return "BLOCKS_SYNCING"
	case BlocksSynced:
		return "BLOCKS_SYNCED"
	case UTXOBuilding:
		return "UTXO_BUILDING"
	case Ready:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// State is the single coordinating object holding references to every
// domain store, enforcing the sync phases, and broadcasting front-end
// events (spec §3, §9 "shared mutable state behind a single lock").
// Its own mutex guards only the phase; each store locks itself, and
// there is no lock spanning several stores.
type State struct {
	mu sync.Mutex

	phase Phase

	Headers       *HeaderStore
	Blocks        *BlockStore
	UTXO          *UTXOEngine
	PendingBlocks *PendingBlocks
	PendingTx     *PendingTxPool
	Wallets       *WalletRegistry

	Events     EventChannel
	Checkpoint int64
}

// NewState assembles a State from already-opened stores.
func NewState(headers *HeaderStore, blocks *BlockStore, utxo *UTXOEngine, pendingBlocks *PendingBlocks, pendingTx *PendingTxPool, wallets *WalletRegistry, events EventChannel, checkpoint int64) *State {
	return &State{
		phase:         HeadersSyncing,
		Headers:       headers,
		Blocks:        blocks,
		UTXO:          utxo,
		PendingBlocks: pendingBlocks,
		PendingTx:     pendingTx,
		Wallets:       wallets,
		Events:        events,
		Checkpoint:    checkpoint,
	}
}

// Phase returns the current sync phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Advance moves the phase forward to next, emitting EventNodeStateReady
// when next is Ready (other phases emit nothing). Phases are monotonic except through an explicit
// reset, which this node never performs (spec §3).
func (s *State) Advance(next Phase) {
	s.mu.Lock()
	if next <= s.phase {
		s.mu.Unlock()
		return
	}
	s.phase = next
	s.mu.Unlock()

	if next == Ready {
		s.Events.Emit(EventNodeStateReady{})
	}
}

// InSteadyState reports whether the node has finished IBD and applies
// accepted blocks to the UTXO set incrementally rather than via replay
// (spec §4.8 "if steady-state, apply to UTXO incrementally").
func (s *State) InSteadyState() bool {
	return s.Phase() >= Ready
}
