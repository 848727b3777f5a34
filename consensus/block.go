package consensus

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Block is a full block: its header plus the transactions it commits
// to via the header's merkle root.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// Serialize returns the canonical wire encoding of the block message
// body: header || CompactSize(tx count) || transactions.
func (b Block) Serialize() []byte {
	buf := make([]byte, 0, HeaderBytes+len(b.Transactions)*256)
	buf = append(buf, b.Header.Serialize()...)
	buf = append(buf, CompactSize(len(b.Transactions)).Encode()...)
	for _, tx := range b.Transactions {
		buf = append(buf, tx.Serialize()...)
	}
	return buf
}

// ParseBlock parses a block message body.
func ParseBlock(b []byte) (Block, error) {
	var block Block
	if len(b) < HeaderBytes {
		return block, fmt.Errorf("consensus: block: truncated header")
	}
	header, err := ParseHeader(b[:HeaderBytes])
	if err != nil {
		return block, fmt.Errorf("consensus: block: %w", err)
	}
	block.Header = header
	off := HeaderBytes

	nTx, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return block, fmt.Errorf("consensus: block: tx count: %w", err)
	}
	off += used

	block.Transactions = make([]Transaction, nTx)
	for i := range block.Transactions {
		tx, n, err := ParseTransaction(b[off:])
		if err != nil {
			return block, fmt.Errorf("consensus: block: tx %d: %w", i, err)
		}
		block.Transactions[i] = tx
		off += n
	}
	return block, nil
}

// ComputeMerkleRoot recomputes the merkle root from the block's
// transactions, for comparison against the header's declared root
// (spec §4.7 inbound block handling).
func (b Block) ComputeMerkleRoot() chainhash.Hash {
	hashes := make([]chainhash.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return MerkleRoot(hashes)
}
