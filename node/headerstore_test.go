package node

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/consensus"
	"github.com/btcspv/spvnode/node/p2p"
)

// chainFrom builds n headers chained onto prev, each header's hash
// becoming the next one's prev_block_hash. Real bits/nonce combinations
// satisfying proof-of-work can't be mined by a test fixture, so callers
// that exercise Append must first disable the check via
// noPoWCheck(hs) — the same injected-hook idiom PendingBlocks.now uses.
func chainFrom(prev chainhash.Hash, n int) []consensus.BlockHeader {
	out := make([]consensus.BlockHeader, n)
	for i := 0; i < n; i++ {
		h := consensus.BlockHeader{
			Version:       1,
			PrevBlockHash: prev,
			MerkleRoot:    chainhash.Hash{byte(i + 1)},
			Timestamp:     uint32(1600000000 + i),
			Bits:          0x1d00ffff,
			Nonce:         uint32(i),
		}
		out[i] = h
		prev = h.Hash()
	}
	return out
}

// noPoWCheck disables hs's proof-of-work gate so tests can exercise
// Append's other invariants with hand-built, unmined header fixtures.
func noPoWCheck(hs *HeaderStore) {
	hs.checkPoW = func(consensus.BlockHeader) bool { return true }
}

func TestOpenHeaderStoreMissingFileIsEmpty(t *testing.T) {
	hs, err := OpenHeaderStore(filepath.Join(t.TempDir(), "headers.bin"))
	require.NoError(t, err)
	require.Equal(t, 0, hs.Len())
	require.Equal(t, consensus.TestnetGenesisHash(), hs.TipHash())
	require.False(t, hs.IsSynced())
}

func TestHeaderStoreAppendRejectsInvalidProofOfWork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)

	bad := chainFrom(consensus.TestnetGenesisHash(), 1) // hand-built, not mined
	err = hs.Append(bad)
	require.Error(t, err)
	require.ErrorIs(t, err, consensus.ErrPowInvalid)
	require.Equal(t, 0, hs.Len())
}

func TestHeaderStoreAppendAcceptsGenuineProofOfWork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)

	// The embedded testnet genesis header is real, mined data: its hash
	// genuinely satisfies its own bits, unlike chainFrom's fixtures.
	genesis := consensus.TestnetGenesisHeader()
	err = hs.Append([]consensus.BlockHeader{genesis})
	require.Error(t, err) // its prev_block_hash isn't the empty chain's tip
	require.ErrorIs(t, err, ErrBlockChainBroken)
	require.NotErrorIs(t, err, consensus.ErrPowInvalid)
}

func TestHeaderStoreAppendAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)
	noPoWCheck(hs)

	batch := chainFrom(consensus.TestnetGenesisHash(), 3)
	require.NoError(t, hs.Append(batch))
	require.Equal(t, 3, hs.Len())
	require.Equal(t, batch[2].Hash(), hs.TipHash())
	require.True(t, hs.IsSynced())

	reopened, err := OpenHeaderStore(path)
	require.NoError(t, err)
	require.Equal(t, 3, reopened.Len())
	require.Equal(t, batch, reopened.GetAll())
}

func TestHeaderStoreAppendRejectsDiscontinuity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)
	noPoWCheck(hs)

	batch := chainFrom(consensus.TestnetGenesisHash(), 2)
	require.NoError(t, hs.Append(batch))

	broken := chainFrom(chainhash.Hash{0xAB}, 1) // does not attach to tip
	err = hs.Append(broken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBlockChainBroken)

	// Chain must be left unchanged.
	require.Equal(t, 2, hs.Len())
	require.Equal(t, batch[1].Hash(), hs.TipHash())
}

func TestHeaderStoreIsSyncedOnlyOnShortBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)
	noPoWCheck(hs)

	full := chainFrom(consensus.TestnetGenesisHash(), p2p.MaxHeadersPerMessage)
	require.NoError(t, hs.Append(full))
	require.False(t, hs.IsSynced())

	tail := chainFrom(hs.TipHash(), 1)
	require.NoError(t, hs.Append(tail))
	require.True(t, hs.IsSynced())
}

func TestHeaderStoreServe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.bin")
	hs, err := OpenHeaderStore(path)
	require.NoError(t, err)
	noPoWCheck(hs)

	batch := chainFrom(consensus.TestnetGenesisHash(), 5)
	require.NoError(t, hs.Append(batch))

	// Unknown locator serves from the start of the chain.
	served := hs.Serve([]chainhash.Hash{{0xFF}}, p2p.ZeroHashStop)
	require.Equal(t, batch, served)

	// Known locator serves from the following header.
	served = hs.Serve([]chainhash.Hash{batch[1].Hash()}, p2p.ZeroHashStop)
	require.Equal(t, batch[2:], served)

	// hash_stop terminates the batch early, inclusive.
	served = hs.Serve([]chainhash.Hash{{0xFF}}, batch[2].Hash())
	require.Equal(t, batch[:3], served)
}
