// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
	"time"
)

// MsgVersion implements the Message interface and represents a version
// message. It is the first message exchanged and is used to negotiate
// the initial connection between peers.
type MsgVersion struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       time.Time
	AddrYou         NetAddress
	AddrMe          NetAddress
	Nonce           uint64
	UserAgent       string
	LastBlock       int32
	DisableRelayTx  bool
}

// NewMsgVersion returns a new version message.
func NewMsgVersion(me, you NetAddress, nonce uint64, lastBlock int32) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: int32(ProtocolVersion),
		Services:        0,
		Timestamp:       time.Now(),
		AddrYou:         you,
		AddrMe:          me,
		Nonce:           nonce,
		UserAgent:       "",
		LastBlock:       lastBlock,
		DisableRelayTx:  false,
	}
}

func (msg *MsgVersion) BtcDecode(r io.Reader, pver uint32) error {
	pv, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.ProtocolVersion = int32(pv)

	svc, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	msg.Services = svc

	ts, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	msg.Timestamp = time.Unix(int64(ts), 0)

	if err := readNetAddress(r, &msg.AddrYou, false); err != nil {
		return err
	}
	if err := readNetAddress(r, &msg.AddrMe, false); err != nil {
		return err
	}

	nonce, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce

	ua, err := readVarString(r)
	if err != nil {
		return err
	}
	msg.UserAgent = ua

	lastBlock, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.LastBlock = int32(lastBlock)

	relay, err := bufFreeList.Uint8(r)
	if err == nil {
		msg.DisableRelayTx = relay == 0
	} else if err != io.EOF {
		return err
	}
	return nil
}

func (msg *MsgVersion) BtcEncode(w io.Writer, pver uint32) error {
	if err := bufFreeList.PutUint32(w, uint32(msg.ProtocolVersion)); err != nil {
		return err
	}
	if err := bufFreeList.PutUint64(w, msg.Services); err != nil {
		return err
	}
	if err := bufFreeList.PutUint64(w, uint64(msg.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrYou, false); err != nil {
		return err
	}
	if err := writeNetAddress(w, &msg.AddrMe, false); err != nil {
		return err
	}
	if err := bufFreeList.PutUint64(w, msg.Nonce); err != nil {
		return err
	}
	if err := writeVarString(w, msg.UserAgent); err != nil {
		return err
	}
	if err := bufFreeList.PutUint32(w, uint32(msg.LastBlock)); err != nil {
		return err
	}
	relay := uint8(1)
	if msg.DisableRelayTx {
		relay = 0
	}
	return bufFreeList.PutUint8(w, relay)
}

func (msg *MsgVersion) Command() string { return CmdVersion }

func (msg *MsgVersion) MaxPayloadLength(pver uint32) uint32 {
	return uint32(4 + 8 + 8 + maxNetAddressPayload + maxNetAddressPayload + 8 + maxVarStrLen + varIntSerializeSize(maxVarStrLen) + 4 + 1)
}

// MsgVerAck implements the Message interface and acknowledges a version
// message. It carries no payload.
type MsgVerAck struct{}

func (msg *MsgVerAck) BtcDecode(r io.Reader, pver uint32) error { return nil }
func (msg *MsgVerAck) BtcEncode(w io.Writer, pver uint32) error { return nil }
func (msg *MsgVerAck) Command() string                         { return CmdVerAck }
func (msg *MsgVerAck) MaxPayloadLength(pver uint32) uint32      { return 0 }

// String renders a compact identity for logging.
func (msg *MsgVersion) String() string {
	return fmt.Sprintf("version(pver=%d, ua=%q, height=%d)", msg.ProtocolVersion, msg.UserAgent, msg.LastBlock)
}
