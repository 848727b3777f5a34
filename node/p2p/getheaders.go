package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

const commandGetHeaders = "getheaders"

// GetHeadersMessage requests headers following the locator. This node
// always sends a singleton locator (spec Glossary: "Locator").
type GetHeadersMessage struct {
	ProtocolVersion uint32
	Locator         []chainhash.Hash
	HashStop        chainhash.Hash
}

func (GetHeadersMessage) Command() string { return commandGetHeaders }

func (m GetHeadersMessage) Serialize() []byte {
	buf := make([]byte, 0, 4+9+len(m.Locator)*chainhash.HashSize+chainhash.HashSize)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], m.ProtocolVersion)
	buf = append(buf, tmp[:]...)
	buf = append(buf, consensus.CompactSize(len(m.Locator)).Encode()...)
	for _, h := range m.Locator {
		buf = append(buf, h[:]...)
	}
	buf = append(buf, m.HashStop[:]...)
	return buf
}

func ParseGetHeadersMessage(b []byte) (GetHeadersMessage, error) {
	var m GetHeadersMessage
	if len(b) < 4 {
		return m, fmt.Errorf("p2p: getheaders: truncated protocol_version")
	}
	m.ProtocolVersion = binary.LittleEndian.Uint32(b)
	off := 4

	n, used, err := consensus.DecodeCompactSize(b[off:])
	if err != nil {
		return m, fmt.Errorf("p2p: getheaders: locator count: %w", err)
	}
	off += used

	m.Locator = make([]chainhash.Hash, n)
	for i := range m.Locator {
		if len(b) < off+chainhash.HashSize {
			return m, fmt.Errorf("p2p: getheaders: truncated locator hash %d", i)
		}
		copy(m.Locator[i][:], b[off:off+chainhash.HashSize])
		off += chainhash.HashSize
	}

	if len(b) < off+chainhash.HashSize {
		return m, fmt.Errorf("p2p: getheaders: truncated hash_stop")
	}
	copy(m.HashStop[:], b[off:off+chainhash.HashSize])
	return m, nil
}

// ZeroHashStop is the all-zero hash_stop meaning "no early termination".
var ZeroHashStop = chainhash.Hash{}
