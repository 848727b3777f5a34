// Command spvnode runs a Bitcoin testnet SPV node: it connects to
// peers, performs initial block download of headers and post-
// checkpoint blocks, maintains a UTXO set and wallet registry, and can
// construct and broadcast outgoing payments.
package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"

	"github.com/btcspv/spvnode/consensus"
	"github.com/btcspv/spvnode/node"
	"github.com/btcspv/spvnode/node/p2p"
)

const userAgent = "/spvnode:0.1.0/"

type options struct {
	Args struct {
		ConfigFile string `positional-arg-name:"config-file" description:"path to the node configuration file"`
	} `positional-args:"yes" required:"yes"`

	DataDir  string `long:"datadir" description:"override the configured store path"`
	LogLevel string `long:"loglevel" default:"info" description:"subsystem log level (trace, debug, info, warn, error, critical)"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return err
	}

	cfg, err := node.LoadConfig(opts.Args.ConfigFile)
	if err != nil {
		return fmt.Errorf("spvnode: %w", err)
	}
	if opts.DataDir != "" {
		cfg.StorePath = opts.DataDir
	}

	backend := btclog.NewBackend(os.Stdout)
	logger := backend.Logger("SPVN")
	level, ok := btclog.LevelFromString(opts.LogLevel)
	if !ok {
		level = btclog.LevelInfo
	}
	logger.SetLevel(level)
	node.UseLogger(logger)
	p2p.UseLogger(logger)

	headerStore, err := node.OpenHeaderStore(filepath.Join(cfg.StorePath, node.HeadersFileName))
	if err != nil {
		return fmt.Errorf("spvnode: %w", err)
	}
	blockStore, err := node.OpenBlockStore(filepath.Join(cfg.StorePath, node.BlocksDirName))
	if err != nil {
		return fmt.Errorf("spvnode: %w", err)
	}
	utxoEngine := node.NewUTXOEngine(filepath.Join(cfg.StorePath, node.UTXOFileName))
	wallets, err := node.LoadWalletRegistry(filepath.Join(cfg.StorePath, node.WalletsFileName))
	if err != nil {
		return fmt.Errorf("spvnode: %w", err)
	}
	pendingBlocks := node.NewPendingBlocks(node.DefaultStaleInterval)
	pendingTx := node.NewPendingTxPool()
	events := node.NewEventChannel(64)

	state := node.NewState(headerStore, blockStore, utxoEngine, pendingBlocks, pendingTx, wallets, events, cfg.StartDateIBD)

	versionTemplate := func() p2p.VersionMessage {
		return p2p.VersionMessage{
			ProtocolVersion: int32(cfg.ProtocolVersion),
			Services:        0,
			Timestamp:       time.Now().Unix(),
			AddrRecv:        p2p.NewNetAddr(0, net.IPv4zero, cfg.Port),
			AddrFrom:        p2p.NewNetAddr(0, net.IPv4zero, cfg.Port),
			Nonce:           p2p.NewNonce(),
			UserAgent:       userAgent,
			StartHeight:     int32(headerStore.Len()),
		}
	}

	ctrl := node.NewController(state, consensus.TestnetMagic, versionTemplate, 256, 256)

	if err := ctrl.ListenAndAccept(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		return fmt.Errorf("spvnode: %w", err)
	}

	go ctrl.RunActionHandler()
	go ctrl.RunPendingBlocksReaper(node.DefaultStaleInterval)

	addrs, err := net.LookupHost(cfg.Seed)
	if err != nil {
		logger.Warnf("seed lookup failed: %v", err)
	}
	for _, addr := range addrs {
		go func(addr string) {
			if _, err := ctrl.ConnectPeer(fmt.Sprintf("%s:%d", addr, cfg.Port)); err != nil {
				logger.Warnf("connect %s: %v", addr, err)
				return
			}
			ctrl.EnqueueGetHeaders()
		}(addr)
	}

	for ev := range events {
		logEvent(logger, ev)
	}
	return nil
}

func logEvent(logger btclog.Logger, ev node.Event) {
	switch e := ev.(type) {
	case node.EventLog:
		if e.Err != nil {
			logger.Errorf("%s: %v", e.Message, e.Err)
		} else {
			logger.Info(e.Message)
		}
	case node.EventNodeStateReady:
		logger.Info("node state ready")
	case node.EventNewHeaders:
		logger.Infof("appended %d headers", e.Count)
	case node.EventNewBlock:
		logger.Infof("accepted block %s", e.Hash)
	default:
		logger.Debugf("event: %+v", ev)
	}
}
