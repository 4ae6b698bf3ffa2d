// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// maxFlagsPerMerkleBlock bounds the flag bitstring so a peer can't force
// an unbounded allocation.
const maxFlagsPerMerkleBlock = MaxBlockHeadersPerMsg

// MsgMerkleBlock implements the Message interface and represents a
// partial, filtered view of a block as constructed by BIP37: the header,
// the total transaction count committed to by the full block, the
// interior/leaf hashes needed to rebuild the spanning branches, and the
// flag bits describing the partial tree's shape.
type MsgMerkleBlock struct {
	Header       BlockHeader
	Transactions uint32
	Hashes       []chainhash.Hash
	Flags        []byte
}

func (msg *MsgMerkleBlock) BtcDecode(r io.Reader, pver uint32) error {
	if err := readBlockHeader(r, &msg.Header); err != nil {
		return err
	}

	numTx, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.Transactions = numTx

	hashCount, err := readVarInt(r)
	if err != nil {
		return err
	}
	if hashCount > maxFlagsPerMerkleBlock*2 {
		return fmt.Errorf("wire: too many merkleblock hashes: %d", hashCount)
	}
	hashes := make([]chainhash.Hash, 0, hashCount)
	for i := uint64(0); i < hashCount; i++ {
		h, err := readHash(r)
		if err != nil {
			return err
		}
		hashes = append(hashes, h)
	}
	msg.Hashes = hashes

	flags, err := readVarBytes(r, maxFlagsPerMerkleBlock, "merkleblock flags")
	if err != nil {
		return err
	}
	msg.Flags = flags
	return nil
}

func (msg *MsgMerkleBlock) BtcEncode(w io.Writer, pver uint32) error {
	if err := writeBlockHeader(w, &msg.Header); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, msg.Transactions); err != nil {
		return err
	}
	if err := writeVarInt(w, uint64(len(msg.Hashes))); err != nil {
		return err
	}
	for _, h := range msg.Hashes {
		if err := writeHash(w, h); err != nil {
			return err
		}
	}
	return writeVarBytes(w, msg.Flags)
}

func (msg *MsgMerkleBlock) Command() string { return CmdMerkleBlock }

func (msg *MsgMerkleBlock) MaxPayloadLength(pver uint32) uint32 {
	return uint32(MaxBlockHeaderPayload + 4 +
		varIntSerializeSize(maxFlagsPerMerkleBlock*2) + maxFlagsPerMerkleBlock*2*chainhash.HashSize +
		varIntSerializeSize(maxFlagsPerMerkleBlock) + maxFlagsPerMerkleBlock)
}
