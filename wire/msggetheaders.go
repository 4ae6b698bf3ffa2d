// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// maxBlockLocatorsPerMsg is the maximum number of block locator hashes
// allowed per message.
const maxBlockLocatorsPerMsg = 500

func readBlockLocator(r io.Reader) ([]chainhash.Hash, error) {
	count, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxBlockLocatorsPerMsg {
		return nil, fmt.Errorf("wire: too many block locator hashes: %d", count)
	}
	locator := make([]chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		h, err := readHash(r)
		if err != nil {
			return nil, err
		}
		locator = append(locator, h)
	}
	return locator, nil
}

func writeBlockLocator(w io.Writer, locator []chainhash.Hash) error {
	if err := writeVarInt(w, uint64(len(locator))); err != nil {
		return err
	}
	for _, h := range locator {
		if err := writeHash(w, h); err != nil {
			return err
		}
	}
	return nil
}

// MsgGetHeaders implements the Message interface and requests a headers
// message containing up to 2000 block headers, starting just after the
// first hash in BlockLocatorHashes found on the recipient's chain, ending
// with HashStop (or the recipient's tip, if HashStop is the zero hash).
type MsgGetHeaders struct {
	ProtocolVersion     uint32
	BlockLocatorHashes  []chainhash.Hash
	HashStop            chainhash.Hash
}

func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{ProtocolVersion: ProtocolVersion}
}

func (msg *MsgGetHeaders) AddBlockLocatorHash(h chainhash.Hash) {
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, h)
}

func (msg *MsgGetHeaders) BtcDecode(r io.Reader, pver uint32) error {
	pv, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = pv

	locator, err := readBlockLocator(r)
	if err != nil {
		return err
	}
	msg.BlockLocatorHashes = locator

	stop, err := readHash(r)
	if err != nil {
		return err
	}
	msg.HashStop = stop
	return nil
}

func (msg *MsgGetHeaders) BtcEncode(w io.Writer, pver uint32) error {
	if err := bufFreeList.PutUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := writeBlockLocator(w, msg.BlockLocatorHashes); err != nil {
		return err
	}
	return writeHash(w, msg.HashStop)
}

func (msg *MsgGetHeaders) Command() string { return CmdGetHeaders }

func (msg *MsgGetHeaders) MaxPayloadLength(pver uint32) uint32 {
	return uint32(4 + varIntSerializeSize(maxBlockLocatorsPerMsg) + maxBlockLocatorsPerMsg*chainhash.HashSize + chainhash.HashSize)
}

// MsgGetBlocks implements the Message interface and requests an inv
// message containing up to 500 full block hashes, in the same locator
// shape as MsgGetHeaders. This engine only ever issues MsgGetHeaders for
// the actual sync path; MsgGetBlocks is implemented for wire completeness
// and for hosts that want classic (non-headers-first) block discovery.
type MsgGetBlocks struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []chainhash.Hash
	HashStop           chainhash.Hash
}

func (msg *MsgGetBlocks) AddBlockLocatorHash(h chainhash.Hash) {
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, h)
}

func (msg *MsgGetBlocks) BtcDecode(r io.Reader, pver uint32) error {
	pv, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = pv

	locator, err := readBlockLocator(r)
	if err != nil {
		return err
	}
	msg.BlockLocatorHashes = locator

	stop, err := readHash(r)
	if err != nil {
		return err
	}
	msg.HashStop = stop
	return nil
}

func (msg *MsgGetBlocks) BtcEncode(w io.Writer, pver uint32) error {
	if err := bufFreeList.PutUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := writeBlockLocator(w, msg.BlockLocatorHashes); err != nil {
		return err
	}
	return writeHash(w, msg.HashStop)
}

func (msg *MsgGetBlocks) Command() string { return CmdGetBlocks }

func (msg *MsgGetBlocks) MaxPayloadLength(pver uint32) uint32 {
	return uint32(4 + varIntSerializeSize(maxBlockLocatorsPerMsg) + maxBlockLocatorsPerMsg*chainhash.HashSize + chainhash.HashSize)
}
