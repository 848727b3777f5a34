package p2p

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func versionFor(protocolVersion int32, startHeight int32) VersionMessage {
	return VersionMessage{
		ProtocolVersion: protocolVersion,
		Services:        1,
		Timestamp:       1700000000,
		AddrRecv:        NewNetAddr(0, net.IPv4zero, 18333),
		AddrFrom:        NewNetAddr(0, net.IPv4zero, 18333),
		Nonce:           NewNonce(),
		UserAgent:       "/test:0.1.0/",
		StartHeight:     startHeight,
	}
}

func TestHandshakeOutboundInboundNegotiates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	serverConn, err := ln.Accept()
	require.NoError(t, err)

	clientWork := make(chan WorkItem)
	clientActions := make(chan NodeAction, 8)
	serverWork := make(chan WorkItem)
	serverActions := make(chan NodeAction, 8)

	clientPeer := &Peer{conn: clientConn, addr: "client", magic: 1, work: clientWork, actions: clientActions}
	serverPeer := &Peer{conn: serverConn, addr: "server", magic: 1, work: serverWork, actions: serverActions}

	clientErr := make(chan error, 1)
	serverErr := make(chan error, 1)

	go func() { clientErr <- clientPeer.handshakeOutbound(versionFor(70015, 100)) }()
	go func() { serverErr <- serverPeer.handshakeInbound(versionFor(70016, 50)) }()

	require.NoError(t, <-clientErr)
	require.NoError(t, <-serverErr)

	// Both sides negotiate down to the lower advertised version.
	require.Equal(t, uint32(70015), clientPeer.ProtocolVersion())
	require.Equal(t, uint32(70015), serverPeer.ProtocolVersion())
	require.Equal(t, int32(50), clientPeer.startHeight)
	require.Equal(t, int32(100), serverPeer.startHeight)
}

func TestHandshakeOutboundFailsOnUnexpectedCommand(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientPeer := &Peer{conn: clientConn, addr: "client", magic: 1}

	go func() {
		// Drain the client's version message, then reply with verack
		// where the client expects the peer's version.
		_, _ = ReadMessage(serverConn, 1)
		_ = WriteMessage(serverConn, 1, "verack", nil)
	}()

	err := clientPeer.handshakeOutbound(versionFor(70015, 0))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCannotHandshakeNode)
}
