// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// maxAddrPerMsg is the maximum number of addresses a single addr message
// may carry.
const maxAddrPerMsg = 1000

// MsgAddr implements the Message interface and is used to relay
// addresses of known peers on the network, consumed by PeerGroup to
// grow its candidate pool beyond the configured DNS seeds.
type MsgAddr struct {
	AddrList []*NetAddress
}

func NewMsgAddr() *MsgAddr { return &MsgAddr{} }

func (msg *MsgAddr) AddAddress(na *NetAddress) {
	msg.AddrList = append(msg.AddrList, na)
}

func (msg *MsgAddr) BtcDecode(r io.Reader, pver uint32) error {
	count, err := readVarInt(r)
	if err != nil {
		return err
	}
	if count > maxAddrPerMsg {
		return fmt.Errorf("wire: too many addresses: %d", count)
	}
	addrs := make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		na := &NetAddress{}
		if err := readNetAddress(r, na, true); err != nil {
			return err
		}
		addrs = append(addrs, na)
	}
	msg.AddrList = addrs
	return nil
}

func (msg *MsgAddr) BtcEncode(w io.Writer, pver uint32) error {
	if err := writeVarInt(w, uint64(len(msg.AddrList))); err != nil {
		return err
	}
	for _, na := range msg.AddrList {
		if err := writeNetAddress(w, na, true); err != nil {
			return err
		}
	}
	return nil
}

func (msg *MsgAddr) Command() string { return CmdAddr }

func (msg *MsgAddr) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(maxAddrPerMsg) + maxAddrPerMsg*(4+maxNetAddressPayload))
}

// MsgUnknown implements the Message interface as an opaque, never-fatal
// stand-in for any command name this package does not otherwise
// recognize.
type MsgUnknown struct {
	CommandName string
	Payload     []byte
}

func (msg *MsgUnknown) BtcDecode(r io.Reader, pver uint32) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	msg.Payload = buf
	return nil
}

func (msg *MsgUnknown) BtcEncode(w io.Writer, pver uint32) error {
	_, err := w.Write(msg.Payload)
	return err
}

func (msg *MsgUnknown) Command() string { return msg.CommandName }

func (msg *MsgUnknown) MaxPayloadLength(pver uint32) uint32 { return MaxMessagePayload }
