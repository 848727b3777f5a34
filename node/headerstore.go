package node

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
	"github.com/btcspv/spvnode/node/p2p"
)

// HeadersFileName is the on-disk name of the append-only header log
// (spec §6).
const HeadersFileName = "headers.bin"

// HeaderStore holds the in-memory ordered header chain and its
// append-only backing file (spec §4.3).
type HeaderStore struct {
	mu       sync.RWMutex
	path     string
	headers  []consensus.BlockHeader
	hashes   []chainhash.Hash
	isSynced bool

	// checkPoW gates Append; overridable in tests the way
	// PendingBlocks.now is, since mining a header that actually
	// satisfies a real target isn't something a test fixture can do.
	checkPoW func(consensus.BlockHeader) bool
}

// OpenHeaderStore loads path (creating it lazily on first Append if
// absent) into an in-memory chain. The file length must be a multiple
// of consensus.HeaderRecordBytes.
func OpenHeaderStore(path string) (*HeaderStore, error) {
	hs := &HeaderStore{path: path, checkPoW: consensus.CheckProofOfWork}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hs, nil
		}
		return nil, fmt.Errorf("node: headerstore: read %s: %w", path, err)
	}
	if len(data)%consensus.HeaderRecordBytes != 0 {
		return nil, fmt.Errorf("node: headerstore: %s length %d is not a multiple of %d", path, len(data), consensus.HeaderRecordBytes)
	}

	count := len(data) / consensus.HeaderRecordBytes
	hs.headers = make([]consensus.BlockHeader, 0, count)
	hs.hashes = make([]chainhash.Hash, 0, count)
	for i := 0; i < count; i++ {
		rec := data[i*consensus.HeaderRecordBytes : (i+1)*consensus.HeaderRecordBytes]
		h, err := consensus.ParseHeaderRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("node: headerstore: record %d: %w", i, err)
		}
		hs.headers = append(hs.headers, h)
		hs.hashes = append(hs.hashes, h.Hash())
	}
	return hs, nil
}

// TipHash returns the hash of the most recently appended header, or
// the Testnet genesis hash if the chain is empty.
func (hs *HeaderStore) TipHash() chainhash.Hash {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.tipHashLocked()
}

func (hs *HeaderStore) tipHashLocked() chainhash.Hash {
	if len(hs.hashes) == 0 {
		return consensus.TestnetGenesisHash()
	}
	return hs.hashes[len(hs.hashes)-1]
}

// Len returns the number of headers in the chain.
func (hs *HeaderStore) Len() int {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return len(hs.headers)
}

// IsSynced reports whether a short (< p2p.MaxHeadersPerMessage) batch
// has ever been accepted. Monotonic once set (spec §4.3).
func (hs *HeaderStore) IsSynced() bool {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.isSynced
}

// LastN returns the last n headers, or all of them if there are fewer.
func (hs *HeaderStore) LastN(n int) []consensus.BlockHeader {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	if n > len(hs.headers) {
		n = len(hs.headers)
	}
	out := make([]consensus.BlockHeader, n)
	copy(out, hs.headers[len(hs.headers)-n:])
	return out
}

// GetAll returns every header in the chain, in acceptance order.
func (hs *HeaderStore) GetAll() []consensus.BlockHeader {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	out := make([]consensus.BlockHeader, len(hs.headers))
	copy(out, hs.headers)
	return out
}

// HashAt returns the hash of the header at chain index i.
func (hs *HeaderStore) HashAt(i int) (chainhash.Hash, bool) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	if i < 0 || i >= len(hs.hashes) {
		return chainhash.Hash{}, false
	}
	return hs.hashes[i], true
}

// Append validates that every header satisfies its own proof-of-work
// target (spec.md §38, §251: a PoW failure rejects the artifact
// outright) and that headers[0].PrevBlockHash equals the current tip
// (genesis if the chain is empty) and, if so, persists and adopts the
// whole batch. Otherwise the batch is rejected wholesale — with
// consensus.ErrPowInvalid or ErrBlockChainBroken as appropriate — and
// the chain is left unchanged (spec §4.3, no reorgs per spec.md §1
// Non-goals).
func (hs *HeaderStore) Append(headers []consensus.BlockHeader) error {
	if len(headers) == 0 {
		return nil
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()

	for i, h := range headers {
		if !hs.checkPoW(h) {
			return fmt.Errorf("%w: header %d hash does not satisfy bits %08x", consensus.ErrPowInvalid, i, h.Bits)
		}
	}

	if headers[0].PrevBlockHash != hs.tipHashLocked() {
		return fmt.Errorf("%w: first header's prev_block_hash does not match tip", ErrBlockChainBroken)
	}

	records := make([]byte, 0, len(headers)*consensus.HeaderRecordBytes)
	newHashes := make([]chainhash.Hash, len(headers))
	for i, h := range headers {
		records = append(records, h.SerializeRecord()...)
		newHashes[i] = h.Hash()
	}

	if err := os.MkdirAll(filepath.Dir(hs.path), 0o755); err != nil {
		return fmt.Errorf("node: headerstore: mkdir: %w", err)
	}
	if err := appendFile(hs.path, records); err != nil {
		return fmt.Errorf("node: headerstore: %w", err)
	}

	hs.headers = append(hs.headers, headers...)
	hs.hashes = append(hs.hashes, newHashes...)
	if len(headers) < p2p.MaxHeadersPerMessage {
		hs.isSynced = true
	}
	return nil
}

// Serve answers a getheaders request: up to p2p.MaxHeadersPerMessage
// headers following the peer's locator (here always a singleton —
// spec Glossary), or the first batch after genesis if the locator
// hash is unknown, terminating early at hashStop (spec §4.3, §9
// resolved open question: always served from the in-memory chain).
func (hs *HeaderStore) Serve(locator []chainhash.Hash, hashStop chainhash.Hash) []consensus.BlockHeader {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	start := 0
	if len(locator) > 0 {
		for i, h := range hs.hashes {
			if h == locator[0] {
				start = i + 1
				break
			}
		}
	}

	var out []consensus.BlockHeader
	zero := chainhash.Hash{}
	for i := start; i < len(hs.headers) && len(out) < p2p.MaxHeadersPerMessage; i++ {
		out = append(out, hs.headers[i])
		if hashStop != zero && hs.hashes[i] == hashStop {
			break
		}
	}
	return out
}
