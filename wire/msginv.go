// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// maxInvPerMsg is the maximum number of inventory vectors a single inv
// or getdata message may carry.
const maxInvPerMsg = 50000

// InvVect defines a bitcoin inventory vector, used to describe data, as
// specified by InvType, that a peer has or wants.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

func readInvVect(r io.Reader, iv *InvVect) error {
	t, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	iv.Type = InvType(t)
	h, err := readHash(r)
	if err != nil {
		return err
	}
	iv.Hash = h
	return nil
}

func writeInvVect(w io.Writer, iv *InvVect) error {
	if err := bufFreeList.PutUint32(w, uint32(iv.Type)); err != nil {
		return err
	}
	return writeHash(w, iv.Hash)
}

func readInvList(r io.Reader) ([]*InvVect, error) {
	count, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxInvPerMsg {
		return nil, fmt.Errorf("wire: too many inventory vectors: %d", count)
	}
	list := make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := &InvVect{}
		if err := readInvVect(r, iv); err != nil {
			return nil, err
		}
		list = append(list, iv)
	}
	return list, nil
}

func writeInvList(w io.Writer, list []*InvVect) error {
	if err := writeVarInt(w, uint64(len(list))); err != nil {
		return err
	}
	for _, iv := range list {
		if err := writeInvVect(w, iv); err != nil {
			return err
		}
	}
	return nil
}

// MsgInv implements the Message interface and is used to advertise
// objects a peer has available.
type MsgInv struct {
	InvList []*InvVect
}

func (msg *MsgInv) AddInvVect(iv *InvVect) {
	msg.InvList = append(msg.InvList, iv)
}

func (msg *MsgInv) BtcDecode(r io.Reader, pver uint32) error {
	list, err := readInvList(r)
	if err != nil {
		return err
	}
	msg.InvList = list
	return nil
}

func (msg *MsgInv) BtcEncode(w io.Writer, pver uint32) error {
	return writeInvList(w, msg.InvList)
}

func (msg *MsgInv) Command() string { return CmdInv }

func (msg *MsgInv) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(maxInvPerMsg) + maxInvPerMsg*(4+chainhash.HashSize))
}

// MsgGetData implements the Message interface and is used to request one
// or more objects (transactions or filtered blocks) by inventory vector.
type MsgGetData struct {
	InvList []*InvVect
}

func NewMsgGetData() *MsgGetData { return &MsgGetData{} }

func (msg *MsgGetData) AddInvVect(iv *InvVect) {
	msg.InvList = append(msg.InvList, iv)
}

func (msg *MsgGetData) BtcDecode(r io.Reader, pver uint32) error {
	list, err := readInvList(r)
	if err != nil {
		return err
	}
	msg.InvList = list
	return nil
}

func (msg *MsgGetData) BtcEncode(w io.Writer, pver uint32) error {
	return writeInvList(w, msg.InvList)
}

func (msg *MsgGetData) Command() string { return CmdGetData }

func (msg *MsgGetData) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(maxInvPerMsg) + maxInvPerMsg*(4+chainhash.HashSize))
}
