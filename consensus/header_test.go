package consensus

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestHeaderSerializeParseRoundTrip(t *testing.T) {
	h := BlockHeader{
		Version:       2,
		PrevBlockHash: chainhash.Hash{1, 2, 3},
		MerkleRoot:    chainhash.Hash{4, 5, 6},
		Timestamp:     1347149007,
		Bits:          476726600,
		Nonce:         240236131,
	}
	enc := h.Serialize()
	require.Len(t, enc, HeaderBytes)

	got, err := ParseHeader(enc)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestHeaderRecordRoundTrip(t *testing.T) {
	h := TestnetGenesisHeader()
	record := h.SerializeRecord()
	require.Len(t, record, HeaderRecordBytes)

	got, err := ParseHeaderRecord(record)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestHeaderRecordRejectsTamperedHash(t *testing.T) {
	h := TestnetGenesisHeader()
	record := h.SerializeRecord()
	record[HeaderBytes] ^= 0xFF // corrupt the stored hash

	_, err := ParseHeaderRecord(record)
	require.Error(t, err)
}

func TestGenesisHashIsComputedNotHardcoded(t *testing.T) {
	h := TestnetGenesisHeader()
	require.Equal(t, h.Hash(), TestnetGenesisHash())
}
