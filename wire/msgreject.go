// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// Reject codes recognized by this package. Unrecognized codes from a
// peer still decode; they're simply not named.
const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

// MsgReject implements the Message interface and represents a reject
// message, sent by a peer in response to a message it could not process.
type MsgReject struct {
	Cmd    string
	Code   RejectCode
	Reason string
	Hash   chainhash.Hash
}

func (msg *MsgReject) BtcDecode(r io.Reader, pver uint32) error {
	cmd, err := readVarString(r)
	if err != nil {
		return err
	}
	msg.Cmd = cmd

	code, err := bufFreeList.Uint8(r)
	if err != nil {
		return err
	}
	msg.Code = RejectCode(code)

	reason, err := readVarString(r)
	if err != nil {
		return err
	}
	msg.Reason = reason

	switch cmd {
	case CmdTx, CmdMerkleBlock:
		h, err := readHash(r)
		if err != nil {
			return err
		}
		msg.Hash = h
	}
	return nil
}

func (msg *MsgReject) BtcEncode(w io.Writer, pver uint32) error {
	if err := writeVarString(w, msg.Cmd); err != nil {
		return err
	}
	if err := bufFreeList.PutUint8(w, uint8(msg.Code)); err != nil {
		return err
	}
	if err := writeVarString(w, msg.Reason); err != nil {
		return err
	}
	switch msg.Cmd {
	case CmdTx, CmdMerkleBlock:
		return writeHash(w, msg.Hash)
	}
	return nil
}

func (msg *MsgReject) Command() string { return CmdReject }

func (msg *MsgReject) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(maxVarStrLen) + maxVarStrLen + 1 +
		varIntSerializeSize(maxVarStrLen) + maxVarStrLen + chainhash.HashSize)
}
