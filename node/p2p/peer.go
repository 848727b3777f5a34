package p2p

import (
	"fmt"
	"math/rand"
	"net"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// Peer owns one connection and, after a successful handshake, runs two
// sibling loops sharing it: an outbound loop draining the shared work
// queue and an inbound loop dispatching framed messages into
// node-actions (spec §4.7).
type Peer struct {
	conn  net.Conn
	addr  string
	magic uint32

	protocolVersion uint32
	services        uint64
	startHeight     int32
	userAgent       string

	work    <-chan WorkItem
	actions chan<- NodeAction

	writeMu       sync.Mutex
	sendHeadersOK bool
}

// Addr returns the peer's remote address as dialed or accepted.
func (p *Peer) Addr() string { return p.addr }

// ProtocolVersion returns the negotiated protocol version recorded
// during the handshake.
func (p *Peer) ProtocolVersion() uint32 { return p.protocolVersion }

// Close closes the underlying connection; both loops exit on their
// next blocking call.
func (p *Peer) Close() error { return p.conn.Close() }

func (p *Peer) writeMessage(command string, payload []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return WriteMessage(p.conn, p.magic, command, payload)
}

// RunOutbound drains the shared work queue and frames each item onto
// the wire until the queue is closed or a write fails.
func (p *Peer) RunOutbound() {
	for item := range p.work {
		if err := p.sendWork(item); err != nil {
			log.Warnf("%s: outbound send failed: %v", p.addr, err)
			p.reportSendFailure(item)
			return
		}
	}
}

func (p *Peer) sendWork(item WorkItem) error {
	switch w := item.(type) {
	case GetHeadersWork:
		last := w.LastHash
		if last == (chainhash.Hash{}) {
			last = consensus.TestnetGenesisHash()
		}
		msg := GetHeadersMessage{
			ProtocolVersion: p.protocolVersion,
			Locator:         []chainhash.Hash{last},
			HashStop:        ZeroHashStop,
		}
		return p.writeMessage(commandGetHeaders, msg.Serialize())
	case GetDataWork:
		msg := GetDataMessage{Inventories: w.Inventories}
		return p.writeMessage(commandGetData, msg.Serialize())
	case SendTransactionWork:
		msg := TxMessage{Transaction: w.Transaction}
		return p.writeMessage(commandTx, msg.Serialize())
	default:
		return fmt.Errorf("p2p: unknown work item %T", item)
	}
}

// reportSendFailure turns a failed outbound send into the matching
// retry action so another peer can pick up the work (spec §5).
func (p *Peer) reportSendFailure(item WorkItem) {
	switch w := item.(type) {
	case GetHeadersWork:
		p.actions <- ActionGetHeadersError{LastHash: w.LastHash}
	case GetDataWork:
		p.actions <- ActionGetDataError{Inventories: w.Inventories}
	}
}

// RunInbound reads frames forever, dispatching on command (spec §4.7).
// A parse error is logged and the loop continues; a socket read
// failure returns, terminating the peer.
func (p *Peer) RunInbound() {
	for {
		env, err := ReadMessage(p.conn, p.magic)
		if err != nil {
			if re, ok := err.(*ReadError); ok && !re.Fatal {
				log.Debugf("%s: dropping bad frame: %v", p.addr, err)
				continue
			}
			log.Infof("%s: inbound loop terminating: %v", p.addr, err)
			return
		}
		p.dispatch(env)
	}
}

func (p *Peer) dispatch(env Envelope) {
	switch env.Command {
	case commandHeaders:
		msg, err := ParseHeadersMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad headers: %v", p.addr, err)
			return
		}
		if len(msg.Headers) == MaxHeadersPerMessage {
			tip := msg.Headers[len(msg.Headers)-1].Hash()
			if err := p.writeMessage(commandGetHeaders, GetHeadersMessage{
				ProtocolVersion: p.protocolVersion,
				Locator:         []chainhash.Hash{tip},
				HashStop:        ZeroHashStop,
			}.Serialize()); err != nil {
				log.Warnf("%s: follow-up getheaders failed: %v", p.addr, err)
			}
		}
		p.actions <- ActionNewHeaders{From: p, Headers: msg.Headers}

	case commandBlock:
		msg, err := ParseBlockMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad block: %v", p.addr, err)
			return
		}
		hash := msg.Block.Header.Hash()
		got := msg.Block.ComputeMerkleRoot()
		if got != msg.Block.Header.MerkleRoot {
			p.actions <- ActionGetDataError{Inventories: []consensus.Inventory{{Kind: consensus.InvBlock, Hash: hash}}}
			return
		}
		p.actions <- ActionBlock{Hash: hash, Block: msg.Block}

	case commandPing:
		msg, err := ParsePingMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad ping: %v", p.addr, err)
			return
		}
		pong := PongMessage{Nonce: msg.Nonce}
		if err := p.writeMessage(commandPong, pong.Serialize()); err != nil {
			log.Warnf("%s: pong reply failed: %v", p.addr, err)
		}

	case commandInv:
		msg, err := ParseInvMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad inv: %v", p.addr, err)
			return
		}
		var txInvs []consensus.Inventory
		for _, inv := range msg.Inventories {
			if inv.Kind == consensus.InvTx {
				txInvs = append(txInvs, inv)
			}
		}
		if len(txInvs) > 0 {
			getdata := GetDataMessage{Inventories: txInvs}
			if err := p.writeMessage(commandGetData, getdata.Serialize()); err != nil {
				log.Warnf("%s: inline getdata failed: %v", p.addr, err)
			}
		}

	case commandTx:
		msg, err := ParseTxMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad tx: %v", p.addr, err)
			return
		}
		p.actions <- ActionPendingTransaction{Tx: msg.Transaction}

	case commandNotFound:
		msg, err := ParseNotFoundMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad notfound: %v", p.addr, err)
			return
		}
		p.actions <- ActionGetDataError{Inventories: msg.Inventories}

	case commandSendHeaders:
		p.sendHeadersOK = true
		p.actions <- ActionSendHeaders{From: p}

	case commandGetHeaders:
		msg, err := ParseGetHeadersMessage(env.Payload)
		if err != nil {
			log.Debugf("%s: bad getheaders: %v", p.addr, err)
			return
		}
		// Serving peer getheaders requests is handled by the controller,
		// which owns the header chain (spec §4.8, §9 resolved open question).
		p.actions <- ActionServeGetHeaders{From: p, Request: msg}

	default:
		log.Debugf("%s: ignoring unknown command %q", p.addr, env.Command)
	}
}

// SendHeaders writes a headers message directly to this peer, used by
// the controller to answer a getheaders request (spec §4.3 serve,
// §9 resolved open question) — a direct reply, not shared-queue work,
// since it must go back to the requester specifically.
func (p *Peer) SendHeaders(headers []consensus.BlockHeader) error {
	msg := HeadersMessage{Headers: headers}
	return p.writeMessage(commandHeaders, msg.Serialize())
}

// NewNonce returns a random session nonce for a version message.
func NewNonce() uint64 {
	return rand.Uint64()
}
