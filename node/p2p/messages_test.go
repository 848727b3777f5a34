package p2p

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/consensus"
)

func TestGetHeadersMessageRoundTrip(t *testing.T) {
	m := GetHeadersMessage{
		ProtocolVersion: 70015,
		Locator:         []chainhash.Hash{consensus.TestnetGenesisHash()},
		HashStop:        ZeroHashStop,
	}
	got, err := ParseGetHeadersMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestHeadersMessageRoundTrip(t *testing.T) {
	m := HeadersMessage{Headers: []consensus.BlockHeader{
		consensus.TestnetGenesisHeader(),
		consensus.TestnetGenesisHeader(),
	}}
	got, err := ParseHeadersMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestHeadersMessageEmpty(t *testing.T) {
	m := HeadersMessage{}
	got, err := ParseHeadersMessage(m.Serialize())
	require.NoError(t, err)
	require.Len(t, got.Headers, 0)
}

func sampleInventories() []consensus.Inventory {
	return []consensus.Inventory{
		{Kind: consensus.InvTx, Hash: consensus.TestnetGenesisHash()},
		{Kind: consensus.InvBlock, Hash: consensus.TestnetGenesisHash()},
	}
}

func TestInvMessageRoundTrip(t *testing.T) {
	m := InvMessage{Inventories: sampleInventories()}
	got, err := ParseInvMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestGetDataMessageRoundTrip(t *testing.T) {
	m := GetDataMessage{Inventories: sampleInventories()}
	got, err := ParseGetDataMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestNotFoundMessageRoundTrip(t *testing.T) {
	m := NotFoundMessage{Inventories: sampleInventories()}
	got, err := ParseNotFoundMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestPingPongRoundTrip(t *testing.T) {
	ping := PingMessage{Nonce: 0x1122334455667788}
	gotPing, err := ParsePingMessage(ping.Serialize())
	require.NoError(t, err)
	require.Equal(t, ping, gotPing)

	pong := PongMessage{Nonce: ping.Nonce}
	gotPong, err := ParsePongMessage(pong.Serialize())
	require.NoError(t, err)
	require.Equal(t, pong, gotPong)
}

func TestTxMessageRoundTrip(t *testing.T) {
	tx := consensus.Transaction{
		Version: 1,
		Inputs: []consensus.TxInput{{
			PrevOut:  consensus.OutPoint{Index: 0xFFFFFFFF},
			Sequence: 0xFFFFFFFF,
		}},
		Outputs: []consensus.TxOutput{{Value: 5000000000, Script: []byte{0x51}}},
	}
	m := TxMessage{Transaction: tx}
	got, err := ParseTxMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, tx, got.Transaction)
}

func TestBlockMessageRoundTrip(t *testing.T) {
	header := consensus.TestnetGenesisHeader()
	m := BlockMessage{Block: consensus.Block{Header: header}}
	got, err := ParseBlockMessage(m.Serialize())
	require.NoError(t, err)
	require.Equal(t, m.Block.Header, got.Block.Header)
	require.Len(t, got.Block.Transactions, 0)
}

func TestVerackAndSendHeadersHaveEmptyPayload(t *testing.T) {
	require.Nil(t, VerackMessage{}.Serialize())
	require.Nil(t, SendHeadersMessage{}.Serialize())
}
