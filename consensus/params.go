package consensus

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// TestnetMagic is the four-byte network magic prefixing every frame on
// the Bitcoin testnet (spec §4.1, §6).
const TestnetMagic uint32 = 0x0B110907

// TestnetProtocolVersionMin is the protocol version floor for testnet
// (spec §6: "typically >= 70015"). The handshake does not consult it: it
// records the lower of the two advertised versions and rejects none.
const TestnetProtocolVersionMin uint32 = 70015

// TestnetGenesisHeader returns the Testnet3 genesis block header. Its
// hash (computed, not hardcoded, so it can never drift from the fields
// below) is the sole valid prev_block_hash for the first header a bare
// chain accepts.
func TestnetGenesisHeader() BlockHeader {
	merkleRoot, _ := chainhash.NewHashFromStr("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")
	return BlockHeader{
		Version:       1,
		PrevBlockHash: chainhash.Hash{},
		MerkleRoot:    *merkleRoot,
		Timestamp:     1296688602,
		Bits:          0x1d00ffff,
		Nonce:         414098458,
	}
}

// TestnetGenesisHash returns the hash of the Testnet3 genesis header.
func TestnetGenesisHash() chainhash.Hash {
	return TestnetGenesisHeader().Hash()
}
