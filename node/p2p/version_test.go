package p2p

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleVersionMessage() VersionMessage {
	return VersionMessage{
		ProtocolVersion: 70015,
		Services:        1,
		Timestamp:       1609459200,
		AddrRecv:        NewNetAddr(0, net.ParseIP("1.2.3.4"), 18333),
		AddrFrom:        NewNetAddr(0, net.ParseIP("5.6.7.8"), 18333),
		Nonce:           0xDEADBEEFCAFEBABE,
		UserAgent:       "/spvnode:0.1.0/",
		StartHeight:     42,
		Relay:           true,
	}
}

func TestVersionMessageRoundTrip(t *testing.T) {
	m := sampleVersionMessage()
	enc := m.Serialize()

	got, err := ParseVersionMessage(enc)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestVersionMessageRejectsShortPayload(t *testing.T) {
	_, err := ParseVersionMessage(make([]byte, versionFixedPrefixBytes-1))
	require.Error(t, err)
}

func TestVersionMessageRoundTripWithEmptyUserAgent(t *testing.T) {
	m := sampleVersionMessage()
	m.UserAgent = ""
	m.Relay = false
	enc := m.Serialize()

	got, err := ParseVersionMessage(enc)
	require.NoError(t, err)
	require.Equal(t, m, got)
}
