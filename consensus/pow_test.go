package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckProofOfWorkGenesisValid(t *testing.T) {
	require.True(t, CheckProofOfWork(TestnetGenesisHeader()))
}

func TestCheckProofOfWorkRejectsWrongNonce(t *testing.T) {
	h := TestnetGenesisHeader()
	h.Nonce++
	require.False(t, CheckProofOfWork(h))
}

func TestBitsToTargetLowExponent(t *testing.T) {
	// exponent <= 3 shifts the mantissa right.
	target := BitsToTarget(0x01123456)
	require.Equal(t, int64(0x12), target.Int64())
}

func TestBitsToTargetHighExponent(t *testing.T) {
	target := BitsToTarget(0x1d00ffff)
	require.True(t, target.Sign() > 0)
	// Testnet genesis difficulty-1 target is 2^208 * 0xffff.
	expectedBits := 208 + 16
	require.Equal(t, expectedBits, target.BitLen())
}
