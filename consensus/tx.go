package consensus

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxInput spends a previous output. Coinbase inputs carry the null
// OutPoint (see OutPoint.IsCoinbase) and an arbitrary ScriptSig.
type TxInput struct {
	PrevOut  OutPoint
	ScriptSig []byte
	Sequence uint32
}

// TxOutput pays Value satoshis to whoever can satisfy Script.
type TxOutput struct {
	Value  uint64
	Script []byte
}

// Transaction is the canonical Bitcoin transaction shape this node
// needs: no witness data, since SPV never validates scripts and the
// node only ever builds legacy P2PKH spends (spec §4.9).
type Transaction struct {
	Version  uint32
	Inputs   []TxInput
	Outputs  []TxOutput
	LockTime uint32
}

// Serialize returns the canonical wire encoding of t.
func (t Transaction) Serialize() []byte {
	buf := make([]byte, 0, 256)
	var tmp [8]byte

	binary.LittleEndian.PutUint32(tmp[:4], t.Version)
	buf = append(buf, tmp[:4]...)

	buf = append(buf, CompactSize(len(t.Inputs)).Encode()...)
	for _, in := range t.Inputs {
		buf = append(buf, in.PrevOut.Serialize()...)
		buf = append(buf, CompactSize(len(in.ScriptSig)).Encode()...)
		buf = append(buf, in.ScriptSig...)
		binary.LittleEndian.PutUint32(tmp[:4], in.Sequence)
		buf = append(buf, tmp[:4]...)
	}

	buf = append(buf, CompactSize(len(t.Outputs)).Encode()...)
	for _, out := range t.Outputs {
		binary.LittleEndian.PutUint64(tmp[:8], out.Value)
		buf = append(buf, tmp[:8]...)
		buf = append(buf, CompactSize(len(out.Script)).Encode()...)
		buf = append(buf, out.Script...)
	}

	binary.LittleEndian.PutUint32(tmp[:4], t.LockTime)
	buf = append(buf, tmp[:4]...)
	return buf
}

// ParseTransaction parses a canonical-encoded transaction from the
// front of b, returning the transaction and the number of bytes
// consumed.
func ParseTransaction(b []byte) (Transaction, int, error) {
	var t Transaction
	off := 0

	if len(b) < off+4 {
		return t, 0, fmt.Errorf("consensus: tx: truncated version")
	}
	t.Version = binary.LittleEndian.Uint32(b[off:])
	off += 4

	nIn, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return t, 0, fmt.Errorf("consensus: tx: input count: %w", err)
	}
	off += used

	t.Inputs = make([]TxInput, nIn)
	for i := range t.Inputs {
		if len(b) < off+OutPointBytes {
			return t, 0, fmt.Errorf("consensus: tx: truncated input %d outpoint", i)
		}
		op, err := ParseOutPoint(b[off : off+OutPointBytes])
		if err != nil {
			return t, 0, fmt.Errorf("consensus: tx: input %d: %w", i, err)
		}
		off += OutPointBytes

		scriptLen, used, err := DecodeCompactSize(b[off:])
		if err != nil {
			return t, 0, fmt.Errorf("consensus: tx: input %d script length: %w", i, err)
		}
		off += used
		if len(b) < off+int(scriptLen) {
			return t, 0, fmt.Errorf("consensus: tx: truncated input %d script", i)
		}
		script := make([]byte, scriptLen)
		copy(script, b[off:off+int(scriptLen)])
		off += int(scriptLen)

		if len(b) < off+4 {
			return t, 0, fmt.Errorf("consensus: tx: truncated input %d sequence", i)
		}
		seq := binary.LittleEndian.Uint32(b[off:])
		off += 4

		t.Inputs[i] = TxInput{PrevOut: op, ScriptSig: script, Sequence: seq}
	}

	nOut, used, err := DecodeCompactSize(b[off:])
	if err != nil {
		return t, 0, fmt.Errorf("consensus: tx: output count: %w", err)
	}
	off += used

	t.Outputs = make([]TxOutput, nOut)
	for i := range t.Outputs {
		if len(b) < off+8 {
			return t, 0, fmt.Errorf("consensus: tx: truncated output %d value", i)
		}
		value := binary.LittleEndian.Uint64(b[off:])
		off += 8

		scriptLen, used, err := DecodeCompactSize(b[off:])
		if err != nil {
			return t, 0, fmt.Errorf("consensus: tx: output %d script length: %w", i, err)
		}
		off += used
		if len(b) < off+int(scriptLen) {
			return t, 0, fmt.Errorf("consensus: tx: truncated output %d script", i)
		}
		script := make([]byte, scriptLen)
		copy(script, b[off:off+int(scriptLen)])
		off += int(scriptLen)

		t.Outputs[i] = TxOutput{Value: value, Script: script}
	}

	if len(b) < off+4 {
		return t, 0, fmt.Errorf("consensus: tx: truncated lock_time")
	}
	t.LockTime = binary.LittleEndian.Uint32(b[off:])
	off += 4

	return t, off, nil
}

// Hash returns the double-SHA-256 of t's canonical serialization.
func (t Transaction) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(t.Serialize())
}

// IsCoinbase reports whether t is a coinbase transaction: exactly one
// input spending the null outpoint.
func (t Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PrevOut.IsCoinbase()
}
