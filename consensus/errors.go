package consensus

import "errors"

// Sentinel errors for the consensus-lite partition of spec.md §7:
// proof-of-work failure and merkle-root mismatch. Both mean "reject
// the artifact, request it again" to the caller.
var (
	ErrPowInvalid     = errors.New("consensus: header hash does not satisfy its target")
	ErrMerkleMismatch = errors.New("consensus: computed merkle root does not match header")
)
