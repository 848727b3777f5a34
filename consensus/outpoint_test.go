package consensus

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestOutPointRoundTrip(t *testing.T) {
	o := OutPoint{Hash: hashFromByte(7), Index: 3}
	enc := o.Serialize()
	require.Len(t, enc, OutPointBytes)

	got, err := ParseOutPoint(enc)
	require.NoError(t, err)
	require.Equal(t, o, got)
}

func TestOutPointLess(t *testing.T) {
	a := OutPoint{Hash: hashFromByte(1), Index: 5}
	b := OutPoint{Hash: hashFromByte(2), Index: 0}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))

	c := OutPoint{Hash: hashFromByte(1), Index: 1}
	require.True(t, a.Less(c))
}

func TestOutPointIsCoinbase(t *testing.T) {
	cb := OutPoint{Hash: chainhash.Hash{}, Index: 0xFFFFFFFF}
	require.True(t, cb.IsCoinbase())

	notCb := OutPoint{Hash: hashFromByte(1), Index: 0xFFFFFFFF}
	require.False(t, notCb.IsCoinbase())
}

func TestParseOutPointWrongLength(t *testing.T) {
	_, err := ParseOutPoint([]byte{1, 2, 3})
	require.Error(t, err)
}
