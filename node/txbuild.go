package node

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
)

// SighashAll is the only sighash type this node ever produces — a
// single-key sign-all shortcut (spec §4.9 step 5).
const SighashAll uint32 = 1

// MakeTransaction builds, signs, and returns an outgoing payment from
// wallet w spending its own UTXOs (spec §4.9).
func MakeTransaction(w *Wallet, utxo *UTXOEngine, outputs map[string]uint64, fee uint64) (consensus.Transaction, error) {
	if fee == 0 {
		return consensus.Transaction{}, fmt.Errorf("%w: fee must be a positive amount", ErrInvalidFee)
	}
	for pubkey, value := range outputs {
		if len(pubkey) != 34 {
			return consensus.Transaction{}, fmt.Errorf("%w: receiver pubkey must be 34 characters", ErrInvalidTransferFields)
		}
		if value == 0 {
			return consensus.Transaction{}, fmt.Errorf("%w: output value must be a positive amount", ErrInvalidTransferFields)
		}
	}

	payerHash, err := w.PubKeyHash()
	if err != nil {
		return consensus.Transaction{}, fmt.Errorf("node: txbuild: %w", err)
	}

	var requested uint64
	for _, v := range outputs {
		requested += v
	}
	required := fee + requested

	balance := utxo.WalletBalance(payerHash)
	if required > balance {
		return consensus.Transaction{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, required, balance)
	}

	type candidate struct {
		op  consensus.OutPoint
		val UTXOValue
	}
	available := utxo.WalletUTXOs(payerHash)
	candidates := make([]candidate, 0, len(available))
	for op, val := range available {
		candidates = append(candidates, candidate{op: op, val: val})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].val.Output.Value > candidates[j].val.Output.Value
	})

	var selected []candidate
	var sum uint64
	for _, c := range candidates {
		if sum >= required {
			break
		}
		selected = append(selected, c)
		sum += c.val.Output.Value
	}

	payerScript := consensus.BuildP2PKHScript(payerHash)

	tx := consensus.Transaction{
		Version:  1,
		LockTime: 0,
	}
	for _, c := range selected {
		tx.Inputs = append(tx.Inputs, consensus.TxInput{
			PrevOut:   c.op,
			ScriptSig: payerScript,
			Sequence:  0xFFFFFFFF,
		})
	}

	for pubkey, value := range outputs {
		hash, err := consensus.PubKeyHashFromAddress(pubkey)
		if err != nil {
			return consensus.Transaction{}, fmt.Errorf("%w: %v", ErrInvalidTransferFields, err)
		}
		tx.Outputs = append(tx.Outputs, consensus.TxOutput{
			Value:  value,
			Script: consensus.BuildP2PKHScript(hash),
		})
	}
	if sum > required {
		tx.Outputs = append(tx.Outputs, consensus.TxOutput{
			Value:  sum - required,
			Script: payerScript,
		})
	}

	signed, err := signTransaction(tx, w)
	if err != nil {
		return consensus.Transaction{}, fmt.Errorf("node: txbuild: sign: %w", err)
	}
	return signed, nil
}

// signTransaction computes the SIGHASH_ALL preimage hash and replaces
// every input's script_sig with <sig><SIGHASH_ALL><pubkey> (spec §4.9
// steps 5-7).
func signTransaction(tx consensus.Transaction, w *Wallet) (consensus.Transaction, error) {
	privKeyBytes, err := w.PrivKeyHash()
	if err != nil {
		return tx, err
	}
	priv, pub := btcec.PrivKeyFromBytes(privKeyBytes[:])

	preimage := tx.Serialize()
	var sighashSuffix [4]byte
	binary.LittleEndian.PutUint32(sighashSuffix[:], SighashAll)
	preimage = append(preimage, sighashSuffix[:]...)
	z := chainhash.DoubleHashB(preimage)

	sig := ecdsa.Sign(priv, z)
	der := sig.Serialize()
	pubBytes := pub.SerializeCompressed()

	scriptSig := make([]byte, 0, 1+len(der)+1+1+len(pubBytes))
	scriptSig = append(scriptSig, byte(len(der)+1))
	scriptSig = append(scriptSig, der...)
	scriptSig = append(scriptSig, byte(SighashAll))
	scriptSig = append(scriptSig, byte(len(pubBytes)))
	scriptSig = append(scriptSig, pubBytes...)

	for i := range tx.Inputs {
		tx.Inputs[i].ScriptSig = scriptSig
	}
	return tx, nil
}
