package node

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// UTXOFileName is the on-disk name of the UTXO snapshot (spec §6).
const UTXOFileName = "utxo.bin"

// UTXOValue is the UTXO map's value: the output itself plus the
// containing block's hash and timestamp (spec §3).
type UTXOValue struct {
	Output                   consensus.TxOutput
	ContainingBlockHash      chainhash.Hash
	ContainingBlockTimestamp uint32
}

// UTXOEngine maintains the in-memory OutPoint -> UTXOValue map and its
// on-disk snapshot (spec §4.4).
type UTXOEngine struct {
	mu            sync.RWMutex
	path          string
	entries       map[consensus.OutPoint]UTXOValue
	lastBlockHash chainhash.Hash
	steadyState   bool
}

// NewUTXOEngine creates an empty engine backed by path.
func NewUTXOEngine(path string) *UTXOEngine {
	return &UTXOEngine{path: path, entries: make(map[consensus.OutPoint]UTXOValue)}
}

// SetSteadyState toggles whether ApplyBlock rewrites the snapshot
// immediately (steady state) or leaves that to an explicit SaveSnapshot
// call (cold-start replay) — spec §4.4 durability policy.
func (e *UTXOEngine) SetSteadyState(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steadyState = on
}

// LastBlockHash returns the hash of the last block folded into the set.
func (e *UTXOEngine) LastBlockHash() chainhash.Hash {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastBlockHash
}

// LoadSnapshot reads the snapshot file if present, populating the
// in-memory map. Returns found=false if the file does not exist yet.
func (e *UTXOEngine) LoadSnapshot() (bool, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("node: utxo: read snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(data) < chainhash.HashSize+8 {
		return false, fmt.Errorf("node: utxo: snapshot truncated")
	}
	copy(e.lastBlockHash[:], data[:chainhash.HashSize])
	off := chainhash.HashSize
	count := binary.LittleEndian.Uint64(data[off:])
	off += 8

	entries := make(map[consensus.OutPoint]UTXOValue, count)
	for i := uint64(0); i < count; i++ {
		op, n, err := parseUTXOOutPoint(data[off:])
		if err != nil {
			return false, fmt.Errorf("node: utxo: entry %d outpoint: %w", i, err)
		}
		off += n

		out, n, err := parseUTXOOutput(data[off:])
		if err != nil {
			return false, fmt.Errorf("node: utxo: entry %d output: %w", i, err)
		}
		off += n

		if len(data) < off+chainhash.HashSize+4 {
			return false, fmt.Errorf("node: utxo: entry %d truncated metadata", i)
		}
		var blockHash chainhash.Hash
		copy(blockHash[:], data[off:off+chainhash.HashSize])
		off += chainhash.HashSize
		ts := binary.LittleEndian.Uint32(data[off:])
		off += 4

		entries[op] = UTXOValue{Output: out, ContainingBlockHash: blockHash, ContainingBlockTimestamp: ts}
	}

	e.entries = entries
	return true, nil
}

func parseUTXOOutPoint(b []byte) (consensus.OutPoint, int, error) {
	if len(b) < consensus.OutPointBytes {
		return consensus.OutPoint{}, 0, fmt.Errorf("truncated")
	}
	op, err := consensus.ParseOutPoint(b[:consensus.OutPointBytes])
	return op, consensus.OutPointBytes, err
}

func parseUTXOOutput(b []byte) (consensus.TxOutput, int, error) {
	if len(b) < 8 {
		return consensus.TxOutput{}, 0, fmt.Errorf("truncated value")
	}
	value := binary.LittleEndian.Uint64(b)
	off := 8
	scriptLen, used, err := consensus.DecodeCompactSize(b[off:])
	if err != nil {
		return consensus.TxOutput{}, 0, err
	}
	off += used
	if len(b) < off+int(scriptLen) {
		return consensus.TxOutput{}, 0, fmt.Errorf("truncated script")
	}
	script := make([]byte, scriptLen)
	copy(script, b[off:off+int(scriptLen)])
	off += int(scriptLen)
	return consensus.TxOutput{Value: value, Script: script}, off, nil
}

// SaveSnapshot atomically rewrites the snapshot file.
func (e *UTXOEngine) SaveSnapshot() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.saveSnapshotLocked()
}

func (e *UTXOEngine) saveSnapshotLocked() error {
	buf := make([]byte, 0, chainhash.HashSize+8+len(e.entries)*64)
	buf = append(buf, e.lastBlockHash[:]...)
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(e.entries)))
	buf = append(buf, countBuf[:]...)

	for op, val := range e.entries {
		buf = append(buf, op.Serialize()...)
		var valueBuf [8]byte
		binary.LittleEndian.PutUint64(valueBuf[:], val.Output.Value)
		buf = append(buf, valueBuf[:]...)
		buf = append(buf, consensus.CompactSize(len(val.Output.Script)).Encode()...)
		buf = append(buf, val.Output.Script...)
		buf = append(buf, val.ContainingBlockHash[:]...)
		var tsBuf [4]byte
		binary.LittleEndian.PutUint32(tsBuf[:], val.ContainingBlockTimestamp)
		buf = append(buf, tsBuf[:]...)
	}

	if err := writeFileAtomic(e.path, buf, 0o644); err != nil {
		return fmt.Errorf("node: utxo: save snapshot: %w", err)
	}
	return nil
}

// ApplyBlock folds block (with hash blockHash) into the UTXO set: for
// each transaction, spent outpoints are removed (coinbase's null
// outpoint and any outpoint already absent are silently tolerated —
// SPV never validates inputs, spec §9) and new outputs are inserted.
// In steady state the snapshot is rewritten immediately; during
// cold-start replay the caller saves once at the end (spec §4.4).
func (e *UTXOEngine) ApplyBlock(blockHash chainhash.Hash, block consensus.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, tx := range block.Transactions {
		for _, in := range tx.Inputs {
			delete(e.entries, in.PrevOut)
		}
		txHash := tx.Hash()
		for idx, out := range tx.Outputs {
			op := consensus.OutPoint{Hash: txHash, Index: uint32(idx)}
			e.entries[op] = UTXOValue{
				Output:                   out,
				ContainingBlockHash:      blockHash,
				ContainingBlockTimestamp: block.Header.Timestamp,
			}
		}
	}
	e.lastBlockHash = blockHash

	if e.steadyState {
		return e.saveSnapshotLocked()
	}
	return nil
}

// WalletBalance sums the value of every unspent output paying pubKeyHash.
func (e *UTXOEngine) WalletBalance(pubKeyHash [consensus.PubKeyHashLen]byte) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var total uint64
	for _, val := range e.entries {
		if hash, ok := consensus.ExtractP2PKHPubKeyHash(val.Output.Script); ok && hash == pubKeyHash {
			total += val.Output.Value
		}
	}
	return total
}

// WalletUTXOs returns the subset of the UTXO set paying pubKeyHash.
func (e *UTXOEngine) WalletUTXOs(pubKeyHash [consensus.PubKeyHashLen]byte) map[consensus.OutPoint]UTXOValue {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[consensus.OutPoint]UTXOValue)
	for op, val := range e.entries {
		if hash, ok := consensus.ExtractP2PKHPubKeyHash(val.Output.Script); ok && hash == pubKeyHash {
			out[op] = val
		}
	}
	return out
}

// Has reports whether outpoint op is currently unspent.
func (e *UTXOEngine) Has(op consensus.OutPoint) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.entries[op]
	return ok
}

// GenerateColdStart restores the snapshot if present, locates its
// last_block_hash in the header chain, and replays every block file
// from there to the chain tip, skipping headers at or before
// checkpoint (spec §4.4). It saves one fresh snapshot at the end.
func (e *UTXOEngine) GenerateColdStart(headers *HeaderStore, blocks *BlockStore, checkpoint int64) error {
	found, err := e.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("node: utxo: cold start: %w", err)
	}

	all := headers.GetAll()
	startIdx := 0
	if found {
		last := e.LastBlockHash()
		for i, h := range all {
			if h.Hash() == last {
				startIdx = i + 1
				break
			}
		}
	}

	for i := startIdx; i < len(all); i++ {
		h := all[i]
		if int64(h.Timestamp) <= checkpoint {
			continue
		}
		hash := h.Hash()
		if !blocks.Has(hash) {
			continue
		}
		block, err := blocks.Get(hash)
		if err != nil {
			return fmt.Errorf("node: utxo: cold start: replay %s: %w", hash, err)
		}
		if err := e.applyBlockNoSnapshot(hash, block); err != nil {
			return err
		}
	}

	return e.SaveSnapshot()
}

func (e *UTXOEngine) applyBlockNoSnapshot(blockHash chainhash.Hash, block consensus.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tx := range block.Transactions {
		for _, in := range tx.Inputs {
			delete(e.entries, in.PrevOut)
		}
		txHash := tx.Hash()
		for idx, out := range tx.Outputs {
			op := consensus.OutPoint{Hash: txHash, Index: uint32(idx)}
			e.entries[op] = UTXOValue{
				Output:                   out,
				ContainingBlockHash:      blockHash,
				ContainingBlockTimestamp: block.Header.Timestamp,
			}
		}
	}
	e.lastBlockHash = blockHash
	return nil
}
