package p2p

import "github.com/btcspv/spvnode/consensus"

const commandBlock = "block"

// BlockMessage carries one full block, requested via getdata after a
// header announcement (spec §4.7).
type BlockMessage struct {
	Block consensus.Block
}

func (BlockMessage) Command() string     { return commandBlock }
func (m BlockMessage) Serialize() []byte { return m.Block.Serialize() }

func ParseBlockMessage(b []byte) (BlockMessage, error) {
	block, err := consensus.ParseBlock(b)
	return BlockMessage{Block: block}, err
}
