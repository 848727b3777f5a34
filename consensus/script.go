package consensus

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Opcodes used by the P2PKH script template this node builds and
// recognizes. SPV never executes scripts (Non-goal), so only the
// handful of opcodes needed to assemble/recognize P2PKH appear here.
const (
	OpDup         = 0x76
	OpHash160     = 0xA9
	OpData20      = 0x14
	OpEqualVerify = 0x88
	OpCheckSig    = 0xAC
)

// PubKeyHashLen is the length of a Hash160 pubkey hash.
const PubKeyHashLen = 20

// PubKeyHashFromAddress extracts the 20-byte pubkey hash from a
// Base58-encoded address: bytes 1..21 of the decoded form, skipping the
// one-byte version prefix and any trailing checksum (spec §4.1).
func PubKeyHashFromAddress(address string) ([PubKeyHashLen]byte, error) {
	var out [PubKeyHashLen]byte
	decoded, err := base58.Decode(address)
	if err != nil {
		return out, fmt.Errorf("consensus: script: base58 decode: %w", err)
	}
	if len(decoded) < 1+PubKeyHashLen {
		return out, fmt.Errorf("consensus: script: decoded address too short: %d bytes", len(decoded))
	}
	copy(out[:], decoded[1:1+PubKeyHashLen])
	return out, nil
}

// BuildP2PKHScript returns the standard P2PKH script_pubkey for a
// pubkey hash: OP_DUP OP_HASH160 <push 20> <hash> OP_EQUALVERIFY
// OP_CHECKSIG.
func BuildP2PKHScript(pubKeyHash [PubKeyHashLen]byte) []byte {
	out := make([]byte, 0, 25)
	out = append(out, OpDup, OpHash160, OpData20)
	out = append(out, pubKeyHash[:]...)
	out = append(out, OpEqualVerify, OpCheckSig)
	return out
}

// ExtractP2PKHPubKeyHash recognizes a standard P2PKH script and
// returns the embedded pubkey hash, or false if script isn't in that
// exact shape.
func ExtractP2PKHPubKeyHash(script []byte) ([PubKeyHashLen]byte, bool) {
	var out [PubKeyHashLen]byte
	if len(script) != 25 {
		return out, false
	}
	if script[0] != OpDup || script[1] != OpHash160 || script[2] != OpData20 {
		return out, false
	}
	if script[23] != OpEqualVerify || script[24] != OpCheckSig {
		return out, false
	}
	copy(out[:], script[3:23])
	return out, true
}
