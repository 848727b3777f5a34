package p2p

import "github.com/btcspv/spvnode/consensus"

const commandTx = "tx"

// TxMessage carries one transaction, broadcast either by a peer
// (unconfirmed) or by this node (spec §4.7, §4.9).
type TxMessage struct {
	Transaction consensus.Transaction
}

func (TxMessage) Command() string     { return commandTx }
func (m TxMessage) Serialize() []byte { return m.Transaction.Serialize() }

func ParseTxMessage(b []byte) (TxMessage, error) {
	tx, _, err := consensus.ParseTransaction(b)
	return TxMessage{Transaction: tx}, err
}
