package node

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// Movement is a signed, wallet-local record of value change induced by
// one transaction (spec §3 Glossary).
type Movement struct {
	TxHash    chainhash.Hash
	Value     int64
	BlockHash *chainhash.Hash
}

// PendingTxPool is the hash-indexed set of unconfirmed transactions
// (spec §4.6). A key here has not appeared in any accepted block.
type PendingTxPool struct {
	mu  sync.Mutex
	txs map[chainhash.Hash]consensus.Transaction
}

// NewPendingTxPool creates an empty pool.
func NewPendingTxPool() *PendingTxPool {
	return &PendingTxPool{txs: make(map[chainhash.Hash]consensus.Transaction)}
}

// Append inserts tx if its hash is not already present, returning
// whether it was inserted.
func (p *PendingTxPool) Append(tx consensus.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	hash := tx.Hash()
	if _, exists := p.txs[hash]; exists {
		return false
	}
	p.txs[hash] = tx
	return true
}

// Reconcile drops every pool entry whose hash appears among block's
// transactions.
func (p *PendingTxPool) Reconcile(block consensus.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range block.Transactions {
		delete(p.txs, tx.Hash())
	}
}

// All returns a snapshot of every pending transaction.
func (p *PendingTxPool) All() []consensus.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]consensus.Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		out = append(out, tx)
	}
	return out
}

// Len reports how many transactions are currently pending.
func (p *PendingTxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

// FilterForWallet returns the Movements wallet pubKeyHash would record
// if every currently-pending transaction were confirmed right now —
// used to display unconfirmed balance (spec §4.6).
func (p *PendingTxPool) FilterForWallet(pubKeyHash [consensus.PubKeyHashLen]byte, utxo *UTXOEngine) []Movement {
	p.mu.Lock()
	txs := make([]consensus.Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		txs = append(txs, tx)
	}
	p.mu.Unlock()

	var movements []Movement
	for _, tx := range txs {
		if net, ok := netMovement(tx, pubKeyHash, utxo); ok {
			movements = append(movements, Movement{TxHash: tx.Hash(), Value: net})
		}
	}
	return movements
}

// netMovement computes the signed value a transaction moves for a
// wallet identified by pubKeyHash: positive for received outputs,
// negative for consumed inputs that paid the wallet (spec §3
// "Movement").
func netMovement(tx consensus.Transaction, pubKeyHash [consensus.PubKeyHashLen]byte, utxo *UTXOEngine) (int64, bool) {
	var net int64
	moved := false

	for _, out := range tx.Outputs {
		if hash, ok := consensus.ExtractP2PKHPubKeyHash(out.Script); ok && hash == pubKeyHash {
			net += int64(out.Value)
			moved = true
		}
	}
	for _, in := range tx.Inputs {
		if in.PrevOut.IsCoinbase() {
			continue
		}
		if utxo == nil {
			continue
		}
		utxo.mu.RLock()
		val, ok := utxo.entries[in.PrevOut]
		utxo.mu.RUnlock()
		if !ok {
			continue
		}
		if hash, ok := consensus.ExtractP2PKHPubKeyHash(val.Output.Script); ok && hash == pubKeyHash {
			net -= int64(val.Output.Value)
			moved = true
		}
	}
	return net, moved
}
