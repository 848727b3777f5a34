package p2p

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrCannotHandshakeNode is returned when any step of the version
// handshake fails; the caller discards the peer (spec §4.7).
var ErrCannotHandshakeNode = errors.New("p2p: cannot handshake node")

// DialTimeout bounds a single dial attempt (spec §5).
const DialTimeout = 500 * time.Millisecond

// Dial connects to address and runs the handshake, returning a Peer
// ready to have its loops started. Failure at any step surfaces
// ErrCannotHandshakeNode and the connection is closed.
func Dial(address string, magic uint32, ours VersionMessage, work <-chan WorkItem, actions chan<- NodeAction) (*Peer, error) {
	conn, err := net.DialTimeout("tcp", address, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrCannotHandshakeNode, address, err)
	}

	p := &Peer{
		conn:    conn,
		addr:    address,
		magic:   magic,
		work:    work,
		actions: actions,
	}

	if err := p.handshakeOutbound(ours); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// AcceptHandshake completes the responder side of the handshake on an
// already-accepted inbound connection (spec §4.8 inbound listener).
func AcceptHandshake(conn net.Conn, magic uint32, ours VersionMessage, work <-chan WorkItem, actions chan<- NodeAction) (*Peer, error) {
	p := &Peer{
		conn:    conn,
		addr:    conn.RemoteAddr().String(),
		magic:   magic,
		work:    work,
		actions: actions,
	}
	if err := p.handshakeInbound(ours); err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// handshakeOutbound runs the five steps of spec §4.7 for a dialed peer.
func (p *Peer) handshakeOutbound(ours VersionMessage) error {
	if err := WriteMessage(p.conn, p.magic, commandVersion, ours.Serialize()); err != nil {
		return fmt.Errorf("%w: send version: %v", ErrCannotHandshakeNode, err)
	}

	env, err := ReadMessage(p.conn, p.magic)
	if err != nil {
		return fmt.Errorf("%w: read version: %v", ErrCannotHandshakeNode, err)
	}
	if env.Command != commandVersion {
		return fmt.Errorf("%w: expected version, got %s", ErrCannotHandshakeNode, env.Command)
	}
	theirs, err := ParseVersionMessage(env.Payload)
	if err != nil {
		return fmt.Errorf("%w: parse version: %v", ErrCannotHandshakeNode, err)
	}
	p.recordPeerVersion(ours, theirs)

	env, err = ReadMessage(p.conn, p.magic)
	if err != nil {
		return fmt.Errorf("%w: read verack: %v", ErrCannotHandshakeNode, err)
	}
	if env.Command != commandVerack {
		return fmt.Errorf("%w: expected verack, got %s", ErrCannotHandshakeNode, env.Command)
	}

	if err := WriteMessage(p.conn, p.magic, commandVerack, nil); err != nil {
		return fmt.Errorf("%w: send verack: %v", ErrCannotHandshakeNode, err)
	}
	if err := WriteMessage(p.conn, p.magic, commandSendHeaders, nil); err != nil {
		return fmt.Errorf("%w: send sendheaders: %v", ErrCannotHandshakeNode, err)
	}

	log.Infof("successful handshake with %s", p.addr)
	return nil
}

// handshakeInbound mirrors handshakeOutbound for the responder side:
// read version first, then send ours, then exchange verack.
func (p *Peer) handshakeInbound(ours VersionMessage) error {
	env, err := ReadMessage(p.conn, p.magic)
	if err != nil {
		return fmt.Errorf("%w: read version: %v", ErrCannotHandshakeNode, err)
	}
	if env.Command != commandVersion {
		return fmt.Errorf("%w: expected version, got %s", ErrCannotHandshakeNode, env.Command)
	}
	theirs, err := ParseVersionMessage(env.Payload)
	if err != nil {
		return fmt.Errorf("%w: parse version: %v", ErrCannotHandshakeNode, err)
	}
	p.recordPeerVersion(ours, theirs)

	if err := WriteMessage(p.conn, p.magic, commandVersion, ours.Serialize()); err != nil {
		return fmt.Errorf("%w: send version: %v", ErrCannotHandshakeNode, err)
	}
	if err := WriteMessage(p.conn, p.magic, commandVerack, nil); err != nil {
		return fmt.Errorf("%w: send verack: %v", ErrCannotHandshakeNode, err)
	}

	env, err = ReadMessage(p.conn, p.magic)
	if err != nil {
		return fmt.Errorf("%w: read verack: %v", ErrCannotHandshakeNode, err)
	}
	if env.Command != commandVerack {
		return fmt.Errorf("%w: expected verack, got %s", ErrCannotHandshakeNode, env.Command)
	}
	if err := WriteMessage(p.conn, p.magic, commandSendHeaders, nil); err != nil {
		return fmt.Errorf("%w: send sendheaders: %v", ErrCannotHandshakeNode, err)
	}

	log.Infof("successful handshake with %s", p.addr)
	return nil
}

func (p *Peer) recordPeerVersion(ours, theirs VersionMessage) {
	negotiated := uint32(ours.ProtocolVersion)
	if uint32(theirs.ProtocolVersion) < negotiated {
		negotiated = uint32(theirs.ProtocolVersion)
	}
	p.protocolVersion = negotiated
	p.services = theirs.Services
	p.startHeight = theirs.StartHeight
	p.userAgent = theirs.UserAgent
}
