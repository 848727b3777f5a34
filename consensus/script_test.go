package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPubKeyHashFromAddress(t *testing.T) {
	got, err := PubKeyHashFromAddress("mfcHP2WMCVLsVZA8yrovmhMgxNFW8SRb2F")
	require.NoError(t, err)

	want := [PubKeyHashLen]byte{}
	for i := range want {
		want[i] = byte(i + 1)
	}
	require.Equal(t, want, got)
}

func TestPubKeyHashFromAddressInvalid(t *testing.T) {
	_, err := PubKeyHashFromAddress("not-base58!!!")
	require.Error(t, err)
}

func TestBuildAndExtractP2PKHScript(t *testing.T) {
	var hash [PubKeyHashLen]byte
	for i := range hash {
		hash[i] = byte(i)
	}
	script := BuildP2PKHScript(hash)
	require.Len(t, script, 25)

	got, ok := ExtractP2PKHPubKeyHash(script)
	require.True(t, ok)
	require.Equal(t, hash, got)
}

func TestExtractP2PKHRejectsOtherScripts(t *testing.T) {
	_, ok := ExtractP2PKHPubKeyHash([]byte{0x51}) // OP_TRUE
	require.False(t, ok)
}
