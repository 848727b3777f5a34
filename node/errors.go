// Package node implements the node-state machine, its persistent
// stores, the UTXO and wallet engines, transaction construction, and
// the controller that ties peers, the shared work queue, and the
// action queue together (spec §3, §4.3-§4.10, §4.8).
package node

import "errors"

// Sentinel errors for the behavioral partitions of spec.md §7 that
// this package owns.
var (
	ErrConfigInvalid         = errors.New("node: config: invalid value")
	ErrConfigMissingValue    = errors.New("node: config: missing required key")
	ErrBlockChainBroken      = errors.New("node: headers batch does not attach to chain tip")
	ErrInsufficientFunds     = errors.New("node: insufficient funds")
	ErrInvalidTransferFields = errors.New("node: invalid transfer fields")
	ErrInvalidFee            = errors.New("node: invalid fee")
	ErrCannotLockGuard       = errors.New("node: cannot lock guard")
	ErrDuplicateWallet       = errors.New("node: wallet: duplicate pubkey")
	ErrInvalidWalletFields   = errors.New("node: wallet: invalid fields")
)
