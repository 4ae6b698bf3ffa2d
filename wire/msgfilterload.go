// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// maxFilterLoadHashFuncs and maxFilterLoadFilterSize bound a BIP37 filter so a
// malicious peer's filterload can't force excessive hashing or memory.
const (
	maxFilterLoadHashFuncs = 50
	maxFilterLoadFilterSize = 36000
)

// MsgFilterLoad implements the Message interface and installs a bloom
// filter on the receiving peer so that it only relays transactions
// matching the filter.
type MsgFilterLoad struct {
	Filter         []byte
	HashFuncs      uint32
	Tweak          uint32
	Flags          BloomUpdateType
}

func (msg *MsgFilterLoad) BtcDecode(r io.Reader, pver uint32) error {
	filter, err := readVarBytes(r, maxFilterLoadFilterSize, "filterload filter")
	if err != nil {
		return err
	}
	msg.Filter = filter

	hashFuncs, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	if hashFuncs > maxFilterLoadHashFuncs {
		return fmt.Errorf("filterload: %d hash functions exceeds max %d", hashFuncs, maxFilterLoadHashFuncs)
	}
	msg.HashFuncs = hashFuncs

	tweak, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.Tweak = tweak

	flags, err := bufFreeList.Uint8(r)
	if err != nil {
		return err
	}
	msg.Flags = BloomUpdateType(flags)
	return nil
}

func (msg *MsgFilterLoad) BtcEncode(w io.Writer, pver uint32) error {
	if err := writeVarBytes(w, msg.Filter); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, msg.HashFuncs); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, msg.Tweak); err != nil {
		return err
	}
	return bufFreeList.PutUint8(w, uint8(msg.Flags))
}

func (msg *MsgFilterLoad) Command() string { return CmdFilterLoad }

func (msg *MsgFilterLoad) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(maxFilterLoadFilterSize) + maxFilterLoadFilterSize + 4 + 4 + 1)
}

// MsgMemPool implements the Message interface and requests the contents
// of a peer's mempool announced as an inv. It carries no payload. This
// engine does not track the mempool itself; the message exists so a
// consumer can opt into relay-only transaction discovery if desired.
type MsgMemPool struct{}

func (msg *MsgMemPool) BtcDecode(r io.Reader, pver uint32) error { return nil }
func (msg *MsgMemPool) BtcEncode(w io.Writer, pver uint32) error { return nil }
func (msg *MsgMemPool) Command() string                         { return CmdMemPool }
func (msg *MsgMemPool) MaxPayloadLength(pver uint32) uint32      { return 0 }
