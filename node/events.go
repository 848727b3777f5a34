package node

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Event is emitted from the core to whatever UI or test observer is
// attached (spec §6). The GUI itself is out of scope; this is the
// entire contract with it.
type Event interface {
	isEvent()
}

// EventNodeStateReady fires once the node reaches the READY phase.
type EventNodeStateReady struct{}

func (EventNodeStateReady) isEvent() {}

// EventNewHeaders fires when a headers batch is appended to the chain.
type EventNewHeaders struct {
	Count int
}

func (EventNewHeaders) isEvent() {}

// EventNewBlock fires when a block is accepted and persisted.
type EventNewBlock struct {
	Hash chainhash.Hash
}

func (EventNewBlock) isEvent() {}

// EventNewPendingTx fires when a previously unseen unconfirmed
// transaction arrives while a wallet is active.
type EventNewPendingTx struct {
	TxHash chainhash.Hash
}

func (EventNewPendingTx) isEvent() {}

// EventWalletsUpdated fires when the wallet registry's history changes.
type EventWalletsUpdated struct{}

func (EventWalletsUpdated) isEvent() {}

// EventWalletChanged carries the pubkey of a newly active wallet. Nothing
// in this package emits it: SetActive moves the pointer without
// publishing an event.
type EventWalletChanged struct {
	PubKey string
}

func (EventWalletChanged) isEvent() {}

// EventLog carries a log line for the front end, separate from the
// structured subsystem logger (spec §6).
type EventLog struct {
	Message string
	Err     error
}

func (EventLog) isEvent() {}

// EventChannel is the buffered channel events are published on.
type EventChannel chan Event

// NewEventChannel creates a buffered event channel.
func NewEventChannel(capacity int) EventChannel {
	return make(EventChannel, capacity)
}

// Emit sends ev without blocking the caller indefinitely if nobody is
// listening; a full channel drops the oldest pending event rather than
// stalling node-state mutation (the front end is a best-effort
// observer, not a backpressure source).
func (c EventChannel) Emit(ev Event) {
	select {
	case c <- ev:
	default:
		select {
		case <-c:
		default:
		}
		select {
		case c <- ev:
		default:
		}
	}
}
