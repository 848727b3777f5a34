package node

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcspv/spvnode/consensus"
	"github.com/mr-tron/base58"
)

// WalletsFileName is the on-disk name of the wallet registry (spec §6).
const WalletsFileName = "wallets.bin"

// PrivKeyHashLen is the length of the raw secp256k1 private key scalar
// extracted from a wallet's Base58 privkey string.
const PrivKeyHashLen = 32

// Wallet holds one tracked key pair's identity and movement history
// (spec §3).
type Wallet struct {
	Name    string
	PubKey  string
	PrivKey string
	History []Movement
}

// PubKeyHash returns pubkey_hash = Base58-decode(pubkey)[1..21].
func (w *Wallet) PubKeyHash() ([consensus.PubKeyHashLen]byte, error) {
	return consensus.PubKeyHashFromAddress(w.PubKey)
}

// PrivKeyHash returns privkey_hash = Base58-decode(privkey)[1..33].
func (w *Wallet) PrivKeyHash() ([PrivKeyHashLen]byte, error) {
	var out [PrivKeyHashLen]byte
	decoded, err := base58.Decode(w.PrivKey)
	if err != nil {
		return out, fmt.Errorf("node: wallet: base58 decode privkey: %w", err)
	}
	if len(decoded) < 1+PrivKeyHashLen {
		return out, fmt.Errorf("node: wallet: decoded privkey too short: %d bytes", len(decoded))
	}
	copy(out[:], decoded[1:1+PrivKeyHashLen])
	return out, nil
}

// WalletRegistry is the set of tracked wallets plus an active-wallet
// pointer distinct from the set (spec §4.10; active pointer per
// SPEC_FULL §4, grounded on the original source's wallets_state).
type WalletRegistry struct {
	mu      sync.Mutex
	path    string
	wallets []*Wallet
	active  int // index into wallets, or -1
}

// NewWalletRegistry creates an empty registry backed by path.
func NewWalletRegistry(path string) *WalletRegistry {
	return &WalletRegistry{path: path, active: -1}
}

// AppendWallet validates and adds w, then rewrites the wallets file.
// name/pubkey/privkey must be non-empty, pubkey must be exactly 34
// characters, and no two wallets may share a pubkey (spec §4.10).
func (r *WalletRegistry) AppendWallet(w Wallet) error {
	if w.Name == "" || w.PubKey == "" || w.PrivKey == "" {
		return fmt.Errorf("%w: name/pubkey/privkey must be non-empty", ErrInvalidWalletFields)
	}
	if len(w.PubKey) != 34 {
		return fmt.Errorf("%w: pubkey must be 34 characters, got %d", ErrInvalidWalletFields, len(w.PubKey))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.wallets {
		if existing.PubKey == w.PubKey {
			return fmt.Errorf("%w: %s", ErrDuplicateWallet, w.PubKey)
		}
	}

	wallet := w
	r.wallets = append(r.wallets, &wallet)
	if r.active == -1 {
		r.active = len(r.wallets) - 1
	}
	return r.persistLocked()
}

// SetActive marks the wallet with the given pubkey as active.
func (r *WalletRegistry) SetActive(pubkey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.wallets {
		if w.PubKey == pubkey {
			r.active = i
			return nil
		}
	}
	return fmt.Errorf("node: wallet: no wallet with pubkey %s", pubkey)
}

// Active returns the currently active wallet, if any.
func (r *WalletRegistry) Active() (*Wallet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 || r.active >= len(r.wallets) {
		return nil, false
	}
	return r.wallets[r.active], true
}

// All returns every tracked wallet.
func (r *WalletRegistry) All() []*Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Wallet, len(r.wallets))
	copy(out, r.wallets)
	return out
}

// RecordBlock visits every transaction in block against every tracked
// wallet, appending at most one Movement per (wallet, transaction)
// (spec §3 invariant, SPEC_FULL §4 dedup-by-tx_hash). Returns whether
// any wallet was updated, after rewriting the file itself in that case.
func (r *WalletRegistry) RecordBlock(blockHash chainhash.Hash, block consensus.Block, utxo *UTXOEngine) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := false
	for _, w := range r.wallets {
		pkh, err := w.PubKeyHash()
		if err != nil {
			continue
		}
		for _, tx := range block.Transactions {
			txHash := tx.Hash()
			if r.hasMovement(w, txHash) {
				continue
			}
			net, moved := netMovement(tx, pkh, utxo)
			if !moved {
				continue
			}
			bh := blockHash
			w.History = append(w.History, Movement{TxHash: txHash, Value: net, BlockHash: &bh})
			updated = true
		}
	}

	if updated {
		if err := r.persistLocked(); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

func (r *WalletRegistry) hasMovement(w *Wallet, txHash chainhash.Hash) bool {
	for _, m := range w.History {
		if m.TxHash == txHash {
			return true
		}
	}
	return false
}

// LoadWalletRegistry reads path (if present) into a populated registry.
func LoadWalletRegistry(path string) (*WalletRegistry, error) {
	r := NewWalletRegistry(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("node: wallet: read %s: %w", path, err)
	}

	off := 0
	if len(data) < 4 {
		return r, nil
	}
	count := binary.LittleEndian.Uint32(data[off:])
	off += 4

	for i := uint32(0); i < count; i++ {
		w, n, err := parseWallet(data[off:])
		if err != nil {
			return nil, fmt.Errorf("node: wallet: entry %d: %w", i, err)
		}
		r.wallets = append(r.wallets, w)
		off += n
	}
	if len(r.wallets) > 0 {
		r.active = 0
	}
	return r, nil
}

func (r *WalletRegistry) persistLocked() error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(r.wallets)))
	for _, w := range r.wallets {
		buf = append(buf, serializeWallet(w)...)
	}
	if err := writeFileAtomic(r.path, buf, 0o600); err != nil {
		return fmt.Errorf("node: wallet: persist: %w", err)
	}
	return nil
}

func writeLenPrefixed(buf []byte, s string) []byte {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)
	return buf
}

func readLenPrefixed(b []byte) (string, int, error) {
	if len(b) < 2 {
		return "", 0, fmt.Errorf("truncated length prefix")
	}
	n := binary.LittleEndian.Uint16(b)
	if len(b) < 2+int(n) {
		return "", 0, fmt.Errorf("truncated field")
	}
	return string(b[2 : 2+int(n)]), 2 + int(n), nil
}

func serializeWallet(w *Wallet) []byte {
	buf := writeLenPrefixed(nil, w.Name)
	buf = writeLenPrefixed(buf, w.PubKey)
	buf = writeLenPrefixed(buf, w.PrivKey)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(w.History)))
	buf = append(buf, countBuf[:]...)
	for _, m := range w.History {
		buf = append(buf, serializeMovement(m)...)
	}
	return buf
}

func parseWallet(b []byte) (*Wallet, int, error) {
	w := &Wallet{}
	off := 0

	name, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("name: %w", err)
	}
	w.Name = name
	off += n

	pubkey, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("pubkey: %w", err)
	}
	w.PubKey = pubkey
	off += n

	privkey, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("privkey: %w", err)
	}
	w.PrivKey = privkey
	off += n

	if len(b) < off+4 {
		return nil, 0, fmt.Errorf("truncated movement count")
	}
	count := binary.LittleEndian.Uint32(b[off:])
	off += 4

	w.History = make([]Movement, count)
	for i := range w.History {
		m, n, err := parseMovement(b[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("movement %d: %w", i, err)
		}
		w.History[i] = m
		off += n
	}
	return w, off, nil
}

// serializeMovement encodes a Movement as: len(tx_hash):u8, tx_hash,
// value:i64_le, present:u8, (len(block_hash):u8, block_hash)? (spec §4.10).
func serializeMovement(m Movement) []byte {
	buf := []byte{byte(chainhash.HashSize)}
	buf = append(buf, m.TxHash[:]...)

	var valueBuf [8]byte
	binary.LittleEndian.PutUint64(valueBuf[:], uint64(m.Value))
	buf = append(buf, valueBuf[:]...)

	if m.BlockHash != nil {
		buf = append(buf, 1, byte(chainhash.HashSize))
		buf = append(buf, m.BlockHash[:]...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func parseMovement(b []byte) (Movement, int, error) {
	var m Movement
	if len(b) < 1 {
		return m, 0, fmt.Errorf("truncated")
	}
	hashLen := int(b[0])
	off := 1
	if len(b) < off+hashLen+8+1 {
		return m, 0, fmt.Errorf("truncated")
	}
	copy(m.TxHash[:], b[off:off+hashLen])
	off += hashLen

	m.Value = int64(binary.LittleEndian.Uint64(b[off:]))
	off += 8

	present := b[off]
	off += 1
	if present != 0 {
		if len(b) < off+1 {
			return m, 0, fmt.Errorf("truncated block_hash length")
		}
		blockHashLen := int(b[off])
		off += 1
		if len(b) < off+blockHashLen {
			return m, 0, fmt.Errorf("truncated block_hash")
		}
		var bh chainhash.Hash
		copy(bh[:], b[off:off+blockHashLen])
		off += blockHashLen
		m.BlockHash = &bh
	}
	return m, off, nil
}
