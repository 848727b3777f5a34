package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactSizeEncodeMinimal(t *testing.T) {
	cases := []struct {
		value    uint64
		wantLen  int
		wantTag  byte
		hasTag   bool
	}{
		{96, 1, 0, false},
		{253, 3, 0xFD, true},
		{65536, 5, 0xFE, true},
		{1 << 32, 9, 0xFF, true},
	}

	for _, c := range cases {
		enc := CompactSize(c.value).Encode()
		require.Len(t, enc, c.wantLen, "value %d", c.value)
		if c.hasTag {
			require.Equal(t, c.wantTag, enc[0], "value %d", c.value)
		}
	}
}

func TestCompactSizeRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000, 1 << 40}
	for _, v := range values {
		enc := CompactSize(v).Encode()
		got, used, err := DecodeCompactSize(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), used)
		require.Equal(t, CompactSize(v), got)
	}
}

func TestDecodeCompactSizeStrictRejectsNonMinimal(t *testing.T) {
	// 0xFD followed by a value that fits in one byte is non-minimal.
	nonMinimal := []byte{0xFD, 0x05, 0x00}
	_, _, err := DecodeCompactSizeStrict(nonMinimal)
	require.Error(t, err)

	// But lenient decoding accepts it.
	got, used, err := DecodeCompactSize(nonMinimal)
	require.NoError(t, err)
	require.Equal(t, 3, used)
	require.Equal(t, CompactSize(5), got)
}

func TestDecodeCompactSizeTruncated(t *testing.T) {
	_, _, err := DecodeCompactSize([]byte{0xFD, 0x01})
	require.Error(t, err)

	_, _, err = DecodeCompactSize(nil)
	require.Error(t, err)
}
