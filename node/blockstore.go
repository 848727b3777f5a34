package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// BlocksDirName is the on-disk directory holding one file per accepted
// block (spec §6).
const BlocksDirName = "blocks"

// BlockStore persists one file per accepted block, named by the
// block's uppercase hex hash.
type BlockStore struct {
	dir string
}

// OpenBlockStore ensures dir exists and returns a BlockStore rooted there.
func OpenBlockStore(dir string) (*BlockStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("node: blockstore: mkdir %s: %w", dir, err)
	}
	return &BlockStore{dir: dir}, nil
}

func (bs *BlockStore) pathFor(hash chainhash.Hash) string {
	return filepath.Join(bs.dir, strings.ToUpper(hash.String())+".bin")
}

// Put writes block to its hash-named file, atomically.
func (bs *BlockStore) Put(hash chainhash.Hash, block consensus.Block) error {
	if err := writeFileAtomic(bs.pathFor(hash), block.Serialize(), 0o644); err != nil {
		return fmt.Errorf("node: blockstore: put %s: %w", hash, err)
	}
	return nil
}

// Get reads and parses the block stored under hash.
func (bs *BlockStore) Get(hash chainhash.Hash) (consensus.Block, error) {
	data, err := os.ReadFile(bs.pathFor(hash))
	if err != nil {
		return consensus.Block{}, fmt.Errorf("node: blockstore: get %s: %w", hash, err)
	}
	block, err := consensus.ParseBlock(data)
	if err != nil {
		return consensus.Block{}, fmt.Errorf("node: blockstore: parse %s: %w", hash, err)
	}
	return block, nil
}

// Has reports whether a block file exists for hash.
func (bs *BlockStore) Has(hash chainhash.Hash) bool {
	_, err := os.Stat(bs.pathFor(hash))
	return err == nil
}
