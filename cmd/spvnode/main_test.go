package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/node"
)

func testLogger(out *bytes.Buffer) btclog.Logger {
	backend := btclog.NewBackend(out)
	logger := backend.Logger("TEST")
	logger.SetLevel(btclog.LevelTrace)
	return logger
}

func TestLogEventLogsErrorForFailedOperation(t *testing.T) {
	var out bytes.Buffer
	logEvent(testLogger(&out), node.EventLog{Message: "block persist failed", Err: errors.New("disk full")})
	require.Contains(t, out.String(), "disk full")
}

func TestLogEventLogsMessageWhenNoError(t *testing.T) {
	var out bytes.Buffer
	logEvent(testLogger(&out), node.EventLog{Message: "header append failed"})
	require.Contains(t, out.String(), "header append failed")
}

func TestLogEventCoversEveryKnownEventType(t *testing.T) {
	events := []node.Event{
		node.EventNodeStateReady{},
		node.EventNewHeaders{Count: 5},
		node.EventNewBlock{Hash: chainhash.Hash{0x1}},
		node.EventNewPendingTx{TxHash: chainhash.Hash{0x2}},
		node.EventWalletsUpdated{},
		node.EventWalletChanged{PubKey: "mfcHP2WMCVLsVZA8yrovmhMgxNFW8SRb2F"},
	}
	for _, ev := range events {
		var out bytes.Buffer
		logEvent(testLogger(&out), ev)
		require.NotEmpty(t, strings.TrimSpace(out.String()), "event %T produced no log line", ev)
	}
}
