package p2p

import (
	"encoding/binary"
	"fmt"
)

const (
	commandPing = "ping"
	commandPong = "pong"
)

// PingMessage carries a nonce the peer is expected to echo in a pong.
type PingMessage struct {
	Nonce uint64
}

func (PingMessage) Command() string { return commandPing }

func (m PingMessage) Serialize() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, m.Nonce)
	return out
}

func ParsePingMessage(b []byte) (PingMessage, error) {
	var m PingMessage
	if len(b) != 8 {
		return m, fmt.Errorf("p2p: ping: expected 8 bytes, got %d", len(b))
	}
	m.Nonce = binary.LittleEndian.Uint64(b)
	return m, nil
}

// PongMessage echoes the nonce from the ping it answers.
type PongMessage struct {
	Nonce uint64
}

func (PongMessage) Command() string { return commandPong }

func (m PongMessage) Serialize() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, m.Nonce)
	return out
}

func ParsePongMessage(b []byte) (PongMessage, error) {
	var m PongMessage
	if len(b) != 8 {
		return m, fmt.Errorf("p2p: pong: expected 8 bytes, got %d", len(b))
	}
	m.Nonce = binary.LittleEndian.Uint64(b)
	return m, nil
}
