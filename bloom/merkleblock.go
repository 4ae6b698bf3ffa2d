// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bloom

import (
	"errors"

	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"
)

// ErrTreeMismatch is returned when a merkle block's encoded partial tree
// is internally inconsistent (too few hashes, leftover flag bits, or an
// out-of-range bit count).
var ErrTreeMismatch = errors.New("bloom: malformed partial merkle tree")

func treeDepth(numTx uint32) uint32 {
	depth := uint32(0)
	for calcTreeWidth(depth, numTx) > 1 {
		depth++
	}
	return depth
}

func calcTreeWidth(height, numTx uint32) uint32 {
	return (numTx + (1 << height) - 1) >> height
}

// NewMerkleBlock builds a wire.MsgMerkleBlock from blk's transactions,
// flagging and including the hashes of every transaction matched by
// matchFn when it is non-nil, otherwise by filter (or every transaction,
// if both are nil), plus the minimal set
// of interior hashes required to reconstruct the spanning merkle root.
// It also returns the list of transaction hashes flagged as matches.
func NewMerkleBlock(header wire.BlockHeader, txIDs []chainhash.Hash, filter *Filter, matchFn func(chainhash.Hash) bool) (*wire.MsgMerkleBlock, []chainhash.Hash) {
	numTx := uint32(len(txIDs))
	depth := treeDepth(numTx)

	matches := make([]bool, numTx)
	var matched []chainhash.Hash
	for i, id := range txIDs {
		var isMatch bool
		if matchFn != nil {
			isMatch = matchFn(id)
		} else if filter != nil {
			isMatch = filter.MatchesHash(&id)
		} else {
			isMatch = true
		}
		matches[i] = isMatch
		if isMatch {
			matched = append(matched, id)
		}
	}

	var bits []bool
	var hashes []chainhash.Hash

	var traverse func(height, pos uint32) chainhash.Hash
	traverse = func(height, pos uint32) chainhash.Hash {
		var parentOfMatch bool
		from := pos << height
		to := from + (1 << height)
		if to > numTx {
			to = numTx
		}
		for i := from; i < to && i-from < (1<<height); i++ {
			if i < numTx && matches[i] {
				parentOfMatch = true
				break
			}
		}
		bits = append(bits, parentOfMatch)

		if height == 0 || !parentOfMatch {
			h := calcMerkleNode(txIDs, height, pos, numTx)
			hashes = append(hashes, h)
			return h
		}

		left := traverse(height-1, pos*2)
		var right chainhash.Hash
		if pos*2+1 < calcTreeWidth(height-1, numTx) {
			right = traverse(height-1, pos*2+1)
		} else {
			right = left
		}
		return hashPair(left, right)
	}
	traverse(depth, 0)

	flags := packBits(bits)

	return &wire.MsgMerkleBlock{
		Header:       header,
		Transactions: numTx,
		Hashes:       hashes,
		Flags:        flags,
	}, matched
}

// calcMerkleNode returns the hash of the node at (height, pos) by
// recomputing up from the leaves. It is only used during construction,
// where the full transaction list is available.
func calcMerkleNode(txIDs []chainhash.Hash, height, pos, numTx uint32) chainhash.Hash {
	if height == 0 {
		if pos < numTx {
			return txIDs[pos]
		}
		// Odd numbered leaf count: the standard rule duplicates the
		// last hash.
		return txIDs[numTx-1]
	}
	width := calcTreeWidth(height-1, numTx)
	left := calcMerkleNode(txIDs, height-1, pos*2, numTx)
	var right chainhash.Hash
	if pos*2+1 < width {
		right = calcMerkleNode(txIDs, height-1, pos*2+1, numTx)
	} else {
		right = left
	}
	return hashPair(left, right)
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	buf := make([]byte, chainhash.HashSize*2)
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.HashH(buf)
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

func unpackBits(flags []byte) []bool {
	bits := make([]bool, len(flags)*8)
	for i := range bits {
		bits[i] = flags[i/8]&(1<<(uint(i)%8)) != 0
	}
	return bits
}

// Verification result for one reconstructed merkleblock.
type VerifyResult struct {
	MatchedTxIDs []chainhash.Hash
	MerkleRoot   chainhash.Hash
}

// Verify reconstructs the partial merkle tree described by msg and
// returns the set of matched transaction ids together with the computed
// merkle root. The caller (the Sync Controller) is responsible for
// rejecting the block when MerkleRoot does not equal msg.Header.MerkleRoot.
func Verify(msg *wire.MsgMerkleBlock) (*VerifyResult, error) {
	numTx := msg.Transactions
	if numTx == 0 {
		return &VerifyResult{MerkleRoot: msg.Header.MerkleRoot}, nil
	}

	bits := unpackBits(msg.Flags)
	hashes := msg.Hashes

	hashIdx := 0
	bitIdx := 0
	var matched []chainhash.Hash

	depth := treeDepth(numTx)

	var traverse func(height, pos uint32) (chainhash.Hash, error)
	traverse = func(height, pos uint32) (chainhash.Hash, error) {
		if bitIdx >= len(bits) {
			return chainhash.Hash{}, ErrTreeMismatch
		}
		bit := bits[bitIdx]
		bitIdx++

		if height == 0 || !bit {
			if hashIdx >= len(hashes) {
				return chainhash.Hash{}, ErrTreeMismatch
			}
			h := hashes[hashIdx]
			hashIdx++
			if height == 0 && bit {
				matched = append(matched, h)
			}
			return h, nil
		}

		left, err := traverse(height-1, pos*2)
		if err != nil {
			return chainhash.Hash{}, err
		}
		width := calcTreeWidth(height-1, numTx)
		var right chainhash.Hash
		if pos*2+1 < width {
			right, err = traverse(height-1, pos*2+1)
			if err != nil {
				return chainhash.Hash{}, err
			}
		} else {
			right = left
		}
		return hashPair(left, right), nil
	}

	root, err := traverse(depth, 0)
	if err != nil {
		return nil, err
	}
	if hashIdx != len(hashes) {
		return nil, ErrTreeMismatch
	}
	if (bitIdx+7)/8 != len(msg.Flags) {
		return nil, ErrTreeMismatch
	}

	return &VerifyResult{MatchedTxIDs: matched, MerkleRoot: root}, nil
}
