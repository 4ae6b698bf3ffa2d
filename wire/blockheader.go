// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/EXCCoin/exccspv/chainhash"
)

// MaxBlockHeaderPayload is version(4) + prevBlock(32) + merkleRoot(32) +
// timestamp(4) + bits(4) + nonce(4).
const MaxBlockHeaderPayload = 4 + (chainhash.HashSize * 2) + 4 + 4 + 4

// BlockHeader defines information about a block and is used in headers
// and merkleblock messages.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the block identifier: the double-SHA-256 of the
// serialized header, in natural (little-endian) byte order.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = writeBlockHeader(&buf, h)
	return chainhash.HashH(buf.Bytes())
}

func readBlockHeader(r io.Reader, h *BlockHeader) error {
	ver, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	h.Version = int32(ver)

	prev, err := readHash(r)
	if err != nil {
		return err
	}
	h.PrevBlock = prev

	root, err := readHash(r)
	if err != nil {
		return err
	}
	h.MerkleRoot = root

	ts, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(ts), 0)

	bits, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	h.Bits = bits

	nonce, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	h.Nonce = nonce
	return nil
}

func writeBlockHeader(w io.Writer, h *BlockHeader) error {
	if err := bufFreeList.PutUint32(w, uint32(h.Version)); err != nil {
		return err
	}
	if err := writeHash(w, h.PrevBlock); err != nil {
		return err
	}
	if err := writeHash(w, h.MerkleRoot); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, h.Bits); err != nil {
		return err
	}
	return bufFreeList.PutUint32(w, h.Nonce)
}

// Deserialize decodes a header from its raw serialized form, without the
// transaction-count field that precedes a header inside a headers message.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize encodes the header to its raw form.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}
