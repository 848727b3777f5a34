package p2p

import (
	"fmt"

	"github.com/btcspv/spvnode/consensus"
)

const commandHeaders = "headers"

// MaxHeadersPerMessage is the protocol ceiling on headers per message
// (spec §4.3): a full message means "more to fetch".
const MaxHeadersPerMessage = 2000

// HeadersMessage carries a batch of block headers. Each wire header is
// followed by a transaction count that is always zero in this message
// (headers never carry transactions).
type HeadersMessage struct {
	Headers []consensus.BlockHeader
}

func (HeadersMessage) Command() string { return commandHeaders }

func (m HeadersMessage) Serialize() []byte {
	buf := make([]byte, 0, len(m.Headers)*(consensus.HeaderBytes+1))
	buf = append(buf, consensus.CompactSize(len(m.Headers)).Encode()...)
	for _, h := range m.Headers {
		buf = append(buf, h.Serialize()...)
		buf = append(buf, 0x00)
	}
	return buf
}

func ParseHeadersMessage(b []byte) (HeadersMessage, error) {
	var m HeadersMessage
	n, used, err := consensus.DecodeCompactSize(b)
	if err != nil {
		return m, fmt.Errorf("p2p: headers: count: %w", err)
	}
	off := used

	m.Headers = make([]consensus.BlockHeader, n)
	for i := range m.Headers {
		if len(b) < off+consensus.HeaderBytes+1 {
			return m, fmt.Errorf("p2p: headers: truncated header %d", i)
		}
		h, err := consensus.ParseHeader(b[off : off+consensus.HeaderBytes])
		if err != nil {
			return m, fmt.Errorf("p2p: headers: header %d: %w", i, err)
		}
		m.Headers[i] = h
		off += consensus.HeaderBytes + 1 // skip the trailing tx-count byte
	}
	return m, nil
}
