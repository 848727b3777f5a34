package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInventoryRoundTrip(t *testing.T) {
	inv := Inventory{Kind: InvBlock, Hash: hashFromByte(9)}
	enc := inv.Serialize()
	require.Len(t, enc, InventoryBytes)

	got, err := ParseInventory(enc)
	require.NoError(t, err)
	require.Equal(t, inv, got)
}

func TestInventoryTypeString(t *testing.T) {
	require.Equal(t, "Tx", InvTx.String())
	require.Equal(t, "Block", InvBlock.String())
	require.Equal(t, "WitnessBlock", InvWitnessBlock.String())
	require.Contains(t, InventoryType(999).String(), "999")
}

func TestParseInventoryWrongLength(t *testing.T) {
	_, err := ParseInventory([]byte{1, 2, 3})
	require.Error(t, err)
}
