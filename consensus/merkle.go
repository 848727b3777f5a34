package consensus

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MerkleRoot computes the Bitcoin merkle root of an ordered list of
// transaction hashes: pairs are combined as dSHA256(left||right),
// repeated until one hash remains; an odd level duplicates its last
// element (spec §4.2).
func MerkleRoot(hashes []chainhash.Hash) chainhash.Hash {
	if len(hashes) == 0 {
		return chainhash.Hash{}
	}
	level := make([]chainhash.Hash, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	buf := make([]byte, 2*chainhash.HashSize)
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf)
}

// MerkleProof is an inclusion proof for one transaction: the sibling
// hash at each level from leaf to root, and a flag per level recording
// whether the proven node is the right-hand child at that level (so a
// verifier knows whether to combine as sibling||node or node||sibling)
// — a single-leaf specialization of Bitcoin's merkle-block flag
// encoding (spec §4.2).
type MerkleProof struct {
	TxHash   chainhash.Hash
	Siblings []chainhash.Hash
	Flags    []bool
}

// BuildMerkleProof builds the inclusion proof for hashes[index].
func BuildMerkleProof(hashes []chainhash.Hash, index int) (MerkleProof, error) {
	if index < 0 || index >= len(hashes) {
		return MerkleProof{}, fmt.Errorf("consensus: merkle: index %d out of range for %d hashes", index, len(hashes))
	}

	proof := MerkleProof{TxHash: hashes[index]}
	level := make([]chainhash.Hash, len(hashes))
	copy(level, hashes)
	pos := index

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		isRight := pos%2 == 1
		var siblingIdx int
		if isRight {
			siblingIdx = pos - 1
		} else {
			siblingIdx = pos + 1
		}
		proof.Siblings = append(proof.Siblings, level[siblingIdx])
		proof.Flags = append(proof.Flags, isRight)

		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
		pos /= 2
	}
	return proof, nil
}

// Verify reconstructs the root from the proof and reports whether it
// matches root.
func (p MerkleProof) Verify(root chainhash.Hash) bool {
	if len(p.Siblings) != len(p.Flags) {
		return false
	}
	current := p.TxHash
	for i, sibling := range p.Siblings {
		if p.Flags[i] {
			current = hashPair(sibling, current)
		} else {
			current = hashPair(current, sibling)
		}
	}
	return current == root
}
