package node

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DefaultStaleInterval is the default age at which an outstanding
// block request is considered stale and re-requested (spec §4.5, §5).
const DefaultStaleInterval = 5 * time.Second

// PendingBlocks is the shared registry of outstanding GetData(Block)
// requests, keyed by block hash, valued by issuance time. A hash is
// present here iff a peer has been asked for it and the block has not
// yet been accepted (spec §3, §4.5).
type PendingBlocks struct {
	mu            sync.Mutex
	issued        map[chainhash.Hash]time.Time
	staleInterval time.Duration
	now           func() time.Time
}

// NewPendingBlocks creates an empty registry with the given stale
// interval.
func NewPendingBlocks(staleInterval time.Duration) *PendingBlocks {
	return &PendingBlocks{
		issued:        make(map[chainhash.Hash]time.Time),
		staleInterval: staleInterval,
		now:           time.Now,
	}
}

// Append records that hash was just requested.
func (pb *PendingBlocks) Append(hash chainhash.Hash) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.issued[hash] = pb.now()
}

// Remove clears hash from the registry (the block was accepted).
func (pb *PendingBlocks) Remove(hash chainhash.Hash) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	delete(pb.issued, hash)
}

// Contains reports whether hash is currently outstanding.
func (pb *PendingBlocks) Contains(hash chainhash.Hash) bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	_, ok := pb.issued[hash]
	return ok
}

// IsEmpty reports whether no requests are outstanding.
func (pb *PendingBlocks) IsEmpty() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return len(pb.issued) == 0
}

// Drain removes and returns every outstanding hash.
func (pb *PendingBlocks) Drain() []chainhash.Hash {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	out := make([]chainhash.Hash, 0, len(pb.issued))
	for h := range pb.issued {
		out = append(out, h)
	}
	pb.issued = make(map[chainhash.Hash]time.Time)
	return out
}

// StaleRequests removes and returns every hash whose issuance is older
// than the configured stale interval, re-inserting is left to the
// caller (the reaper re-issues GetData and re-Appends with a fresh
// timestamp — spec §4.5).
func (pb *PendingBlocks) StaleRequests() []chainhash.Hash {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	now := pb.now()
	var stale []chainhash.Hash
	for h, issuedAt := range pb.issued {
		if now.Sub(issuedAt) > pb.staleInterval {
			stale = append(stale, h)
			delete(pb.issued, h)
		}
	}
	return stale
}
