package p2p

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello, testnet")
	require.NoError(t, WriteMessage(&buf, 0x0B110907, "ping", payload))

	env, err := ReadMessage(&buf, 0x0B110907)
	require.NoError(t, err)
	require.Equal(t, "ping", env.Command)
	require.Equal(t, payload, env.Payload)
}

func TestReadMessageBadMagicIsNonFatal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, 0xDEADBEEF, "ping", nil))

	_, err := ReadMessage(&buf, 0x0B110907)
	require.Error(t, err)
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	require.False(t, readErr.Fatal)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadMessageOversizedPayloadRejected(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, EnvelopeSize)
	buf.Write(header)
	// Hand-craft a frame claiming an oversized length so we don't
	// actually need to write 32MiB of payload bytes.
	frame := buf.Bytes()
	frame[16] = 0xFF
	frame[17] = 0xFF
	frame[18] = 0xFF
	frame[19] = 0xFF
	binEncodeMagic(frame, 0x0B110907)

	_, err := ReadMessage(bytes.NewReader(frame), 0x0B110907)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrOversizedPayload)
}

func binEncodeMagic(frame []byte, magic uint32) {
	frame[0] = byte(magic >> 24)
	frame[1] = byte(magic >> 16)
	frame[2] = byte(magic >> 8)
	frame[3] = byte(magic)
}

func TestReadMessageChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, 0x0B110907, "tx", []byte{1, 2, 3}))
	frame := buf.Bytes()
	frame[len(frame)-1] ^= 0xFF // corrupt payload without updating checksum

	_, err := ReadMessage(bytes.NewReader(frame), 0x0B110907)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestWriteMessageRejectsOverlongCommand(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, 0x0B110907, "this-command-name-is-too-long", nil)
	require.Error(t, err)
}
