// Package p2p implements the Bitcoin peer-to-peer wire protocol: the
// framed message envelope, the codec for each message body the node
// uses, and the per-peer connection that speaks them.
package p2p

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CommandSize is the fixed width of a message's ASCII, zero-padded
// command field.
const CommandSize = 12

// EnvelopeSize is the fixed header preceding every payload: magic(4) +
// command(12) + length(4) + checksum(4).
const EnvelopeSize = 4 + CommandSize + 4 + 4

// MaxPayloadSize bounds a single message's payload; frames claiming
// more are rejected outright (spec §4.1).
const MaxPayloadSize = 32 * 1024 * 1024

// ReadError classifies a frame-read failure so callers can tell a
// recoverable per-message problem (log and keep reading) from a fatal
// socket failure (tear down the peer) without string-matching.
type ReadError struct {
	Err   error
	Fatal bool
}

func (e *ReadError) Error() string { return e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

var (
	// ErrBadMagic means the frame's magic did not match the network.
	ErrBadMagic = errors.New("p2p: bad magic")
	// ErrOversizedPayload means the declared payload length exceeds MaxPayloadSize.
	ErrOversizedPayload = errors.New("p2p: oversized payload")
	// ErrChecksumMismatch means the payload's checksum did not match the frame.
	ErrChecksumMismatch = errors.New("p2p: checksum mismatch")
)

// Envelope is a parsed frame: command name and raw payload bytes, with
// the magic already checked against the expected network.
type Envelope struct {
	Command string
	Payload []byte
}

// checksum is the first four bytes of the double-SHA-256 of payload.
func checksum(payload []byte) [4]byte {
	sum := chainhash.DoubleHashB(payload)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// WriteMessage frames command/payload under magic and writes it to w.
func WriteMessage(w io.Writer, magic uint32, command string, payload []byte) error {
	if len(command) > CommandSize {
		return fmt.Errorf("p2p: command %q exceeds %d bytes", command, CommandSize)
	}
	buf := make([]byte, EnvelopeSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], magic)
	copy(buf[4:4+CommandSize], []byte(command))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(payload)))
	sum := checksum(payload)
	copy(buf[20:24], sum[:])
	copy(buf[EnvelopeSize:], payload)

	_, err := w.Write(buf)
	if err != nil {
		return &ReadError{Err: fmt.Errorf("p2p: write message: %w", err), Fatal: true}
	}
	return nil
}

// ReadMessage reads and validates one frame from r against magic,
// returning the parsed Envelope. A malformed frame (bad magic,
// oversized length, checksum mismatch) is a non-fatal ReadError; an
// underlying I/O error is fatal.
func ReadMessage(r io.Reader, magic uint32) (Envelope, error) {
	header := make([]byte, EnvelopeSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Envelope{}, &ReadError{Err: fmt.Errorf("p2p: read envelope: %w", err), Fatal: true}
	}

	gotMagic := binary.BigEndian.Uint32(header[0:4])
	if gotMagic != magic {
		return Envelope{}, &ReadError{Err: fmt.Errorf("%w: got %08x want %08x", ErrBadMagic, gotMagic, magic)}
	}

	command := trimCommand(header[4 : 4+CommandSize])
	length := binary.LittleEndian.Uint32(header[16:20])
	if length > MaxPayloadSize {
		return Envelope{}, &ReadError{Err: fmt.Errorf("%w: %d bytes", ErrOversizedPayload, length)}
	}
	var wantChecksum [4]byte
	copy(wantChecksum[:], header[20:24])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Envelope{}, &ReadError{Err: fmt.Errorf("p2p: read payload: %w", err), Fatal: true}
		}
	}

	if got := checksum(payload); got != wantChecksum {
		return Envelope{}, &ReadError{Err: fmt.Errorf("%w: command %s", ErrChecksumMismatch, command)}
	}

	return Envelope{Command: command, Payload: payload}, nil
}

func trimCommand(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
