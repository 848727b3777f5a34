package p2p

import (
	"fmt"

	"github.com/btcspv/spvnode/consensus"
)

// writeVarString appends a CompactSize-prefixed string to buf.
func writeVarString(buf []byte, s string) []byte {
	buf = append(buf, consensus.CompactSize(len(s)).Encode()...)
	buf = append(buf, s...)
	return buf
}

// readVarString reads a CompactSize-prefixed string from the front of
// b, returning the string and bytes consumed.
func readVarString(b []byte) (string, int, error) {
	n, used, err := consensus.DecodeCompactSize(b)
	if err != nil {
		return "", 0, fmt.Errorf("p2p: var_str length: %w", err)
	}
	if len(b) < used+int(n) {
		return "", 0, fmt.Errorf("p2p: var_str: truncated")
	}
	return string(b[used : used+int(n)]), used + int(n), nil
}
