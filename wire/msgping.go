// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing implements the Message interface and is used to periodically
// confirm a connected peer is still responding.
type MsgPing struct {
	Nonce uint64
}

func (msg *MsgPing) BtcDecode(r io.Reader, pver uint32) error {
	nonce, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

func (msg *MsgPing) BtcEncode(w io.Writer, pver uint32) error {
	return bufFreeList.PutUint64(w, msg.Nonce)
}

func (msg *MsgPing) Command() string                    { return CmdPing }
func (msg *MsgPing) MaxPayloadLength(pver uint32) uint32 { return 8 }

// MsgPong implements the Message interface and is the reply to a MsgPing,
// echoing its nonce.
type MsgPong struct {
	Nonce uint64
}

func (msg *MsgPong) BtcDecode(r io.Reader, pver uint32) error {
	nonce, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

func (msg *MsgPong) BtcEncode(w io.Writer, pver uint32) error {
	return bufFreeList.PutUint64(w, msg.Nonce)
}

func (msg *MsgPong) Command() string                    { return CmdPong }
func (msg *MsgPong) MaxPayloadLength(pver uint32) uint32 { return 8 }
