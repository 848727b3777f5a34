package consensus

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BitsToTarget decodes a compact `bits` field into its full 256-bit
// target. The top byte is the exponent e, the low three bytes the
// mantissa c; the target is c * 256^(e-3) (spec §4.2).
func BitsToTarget(bits uint32) *big.Int {
	mantissa := int64(bits & 0x007fffff)
	exponent := bits >> 24

	target := big.NewInt(mantissa)
	switch {
	case exponent <= 3:
		shift := uint(8 * (3 - exponent))
		target.Rsh(target, shift)
	default:
		shift := uint(8 * (exponent - 3))
		target.Lsh(target, shift)
	}
	return target
}

// hashToBig interprets a hash's bytes as a little-endian integer by
// reversing them and reading the result big-endian, matching the
// convention a header hash's raw byte order (as produced by
// DoubleHashH) needs for numeric comparison against a target.
func hashToBig(h chainhash.Hash) *big.Int {
	var reversed chainhash.Hash
	for i, b := range h {
		reversed[chainhash.HashSize-1-i] = b
	}
	return new(big.Int).SetBytes(reversed[:])
}

// CheckProofOfWork reports whether header h's hash satisfies the
// compact target encoded in h.Bits: strictly less than the target.
func CheckProofOfWork(h BlockHeader) bool {
	target := BitsToTarget(h.Bits)
	if target.Sign() <= 0 {
		return false
	}
	hashNum := hashToBig(h.Hash())
	return hashNum.Cmp(target) < 0
}
