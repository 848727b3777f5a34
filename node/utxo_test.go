package node

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/consensus"
)

func TestUTXOEngineApplyBlockAndWalletBalance(t *testing.T) {
	engine := NewUTXOEngine(filepath.Join(t.TempDir(), "utxo.bin"))

	pkhOwned, err := consensus.PubKeyHashFromAddress(testAddrA)
	require.NoError(t, err)
	pkhOther, err := consensus.PubKeyHashFromAddress(testAddrB)
	require.NoError(t, err)

	tx := consensus.Transaction{
		Version: 1,
		Inputs:  []consensus.TxInput{{PrevOut: consensus.OutPoint{Index: 0xFFFFFFFF}, Sequence: 0xFFFFFFFF}},
		Outputs: []consensus.TxOutput{
			{Value: 100, Script: consensus.BuildP2PKHScript(pkhOwned)},
			{Value: 200, Script: consensus.BuildP2PKHScript(pkhOwned)},
			{Value: 300, Script: consensus.BuildP2PKHScript(pkhOther)},
		},
	}
	block := consensus.Block{Header: consensus.BlockHeader{Timestamp: 1600000000}, Transactions: []consensus.Transaction{tx}}

	require.NoError(t, engine.ApplyBlock(chainhash.Hash{0x01}, block))
	require.Equal(t, uint64(300), engine.WalletBalance(pkhOwned))
	require.Equal(t, uint64(300), engine.WalletBalance(pkhOther))
}

func TestUTXOEngineApplyBlockSpendsInputs(t *testing.T) {
	engine := NewUTXOEngine(filepath.Join(t.TempDir(), "utxo.bin"))
	pkh, err := consensus.PubKeyHashFromAddress(testAddrA)
	require.NoError(t, err)

	fundingTx := consensus.Transaction{
		Inputs:  []consensus.TxInput{{PrevOut: consensus.OutPoint{Index: 0xFFFFFFFF}, Sequence: 0xFFFFFFFF}},
		Outputs: []consensus.TxOutput{{Value: 1000, Script: consensus.BuildP2PKHScript(pkh)}},
	}
	block1 := consensus.Block{Transactions: []consensus.Transaction{fundingTx}}
	require.NoError(t, engine.ApplyBlock(chainhash.Hash{1}, block1))
	require.Equal(t, uint64(1000), engine.WalletBalance(pkh))

	spendTx := consensus.Transaction{
		Inputs: []consensus.TxInput{{
			PrevOut:  consensus.OutPoint{Hash: fundingTx.Hash(), Index: 0},
			Sequence: 0xFFFFFFFF,
		}},
		Outputs: []consensus.TxOutput{{Value: 1000, Script: []byte{0x51}}},
	}
	block2 := consensus.Block{Transactions: []consensus.Transaction{spendTx}}
	require.NoError(t, engine.ApplyBlock(chainhash.Hash{2}, block2))
	require.Equal(t, uint64(0), engine.WalletBalance(pkh))
}

func TestUTXOEngineSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utxo.bin")
	engine := NewUTXOEngine(path)
	pkh, err := consensus.PubKeyHashFromAddress(testAddrA)
	require.NoError(t, err)

	tx := consensus.Transaction{
		Inputs:  []consensus.TxInput{{PrevOut: consensus.OutPoint{Index: 0xFFFFFFFF}, Sequence: 0xFFFFFFFF}},
		Outputs: []consensus.TxOutput{{Value: 555, Script: consensus.BuildP2PKHScript(pkh)}},
	}
	block := consensus.Block{Transactions: []consensus.Transaction{tx}}
	require.NoError(t, engine.ApplyBlock(chainhash.Hash{0xAB}, block))
	require.NoError(t, engine.SaveSnapshot())

	reloaded := NewUTXOEngine(path)
	found, err := reloaded.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(555), reloaded.WalletBalance(pkh))
	require.Equal(t, chainhash.Hash{0xAB}, reloaded.LastBlockHash())
}

func TestUTXOEngineLoadSnapshotMissing(t *testing.T) {
	engine := NewUTXOEngine(filepath.Join(t.TempDir(), "utxo.bin"))
	found, err := engine.LoadSnapshot()
	require.NoError(t, err)
	require.False(t, found)
}

func TestUTXOEngineGenerateColdStart(t *testing.T) {
	dir := t.TempDir()
	headerPath := filepath.Join(dir, "headers.bin")
	hs, err := OpenHeaderStore(headerPath)
	require.NoError(t, err)
	noPoWCheck(hs) // cold-start replay logic, not mining, is under test

	blockStore, err := OpenBlockStore(filepath.Join(dir, "blocks"))
	require.NoError(t, err)

	pkh, err := consensus.PubKeyHashFromAddress(testAddrA)
	require.NoError(t, err)

	tx := consensus.Transaction{
		Inputs:  []consensus.TxInput{{PrevOut: consensus.OutPoint{Index: 0xFFFFFFFF}, Sequence: 0xFFFFFFFF}},
		Outputs: []consensus.TxOutput{{Value: 42, Script: consensus.BuildP2PKHScript(pkh)}},
	}
	prev := consensus.TestnetGenesisHash()
	header := consensus.BlockHeader{
		Version:       1,
		PrevBlockHash: prev,
		Timestamp:     2000000000,
		Bits:          0x1d00ffff,
	}
	block := consensus.Block{Header: header, Transactions: []consensus.Transaction{tx}}
	header.MerkleRoot = block.ComputeMerkleRoot()
	block.Header = header

	require.NoError(t, hs.Append([]consensus.BlockHeader{header}))
	require.NoError(t, blockStore.Put(header.Hash(), block))

	engine := NewUTXOEngine(filepath.Join(dir, "utxo.bin"))
	require.NoError(t, engine.GenerateColdStart(hs, blockStore, 0))
	require.Equal(t, uint64(42), engine.WalletBalance(pkh))
}
