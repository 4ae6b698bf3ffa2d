// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// maxTxInPerMessage / maxTxOutPerMessage bound how many inputs/outputs a
// single transaction may carry, sized against MaxMessagePayload so a
// hostile peer can't force an unbounded allocation from a short frame.
const (
	minTxInPayload     = 32 + 4 + 1 + 4
	minTxOutPayload    = 8 + 1
	maxTxInPerMessage  = (MaxMessagePayload / minTxInPayload) + 1
	maxTxOutPerMessage = (MaxMessagePayload / minTxOutPayload) + 1
	maxScriptSize      = 10000
)

// OutPoint defines a bitcoin data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value        int64
	PkScript     []byte
}

// MsgTx implements the Message interface and represents a bitcoin
// transaction.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// TxHash computes the transaction identifier: the double-SHA-256 of the
// canonical serialization.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = msg.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}

func (msg *MsgTx) AddTxIn(ti *TxIn)   { msg.TxIn = append(msg.TxIn, ti) }
func (msg *MsgTx) AddTxOut(to *TxOut) { msg.TxOut = append(msg.TxOut, to) }

func readOutPoint(r io.Reader, op *OutPoint) error {
	h, err := readHash(r)
	if err != nil {
		return err
	}
	op.Hash = h
	idx, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	op.Index = idx
	return nil
}

func writeOutPoint(w io.Writer, op *OutPoint) error {
	if err := writeHash(w, op.Hash); err != nil {
		return err
	}
	return bufFreeList.PutUint32(w, op.Index)
}

func readTxIn(r io.Reader, ti *TxIn) error {
	if err := readOutPoint(r, &ti.PreviousOutPoint); err != nil {
		return err
	}
	script, err := readVarBytes(r, maxScriptSize, "signature script")
	if err != nil {
		return err
	}
	ti.SignatureScript = script
	seq, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	ti.Sequence = seq
	return nil
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	if err := writeOutPoint(w, &ti.PreviousOutPoint); err != nil {
		return err
	}
	if err := writeVarBytes(w, ti.SignatureScript); err != nil {
		return err
	}
	return bufFreeList.PutUint32(w, ti.Sequence)
}

func readTxOut(r io.Reader, to *TxOut) error {
	val, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	to.Value = int64(val)
	script, err := readVarBytes(r, maxScriptSize, "pk script")
	if err != nil {
		return err
	}
	to.PkScript = script
	return nil
}

func writeTxOut(w io.Writer, to *TxOut) error {
	if err := bufFreeList.PutUint64(w, uint64(to.Value)); err != nil {
		return err
	}
	return writeVarBytes(w, to.PkScript)
}

func (msg *MsgTx) BtcDecode(r io.Reader, pver uint32) error {
	return msg.Deserialize(r)
}

func (msg *MsgTx) BtcEncode(w io.Writer, pver uint32) error {
	return msg.Serialize(w)
}

// Deserialize decodes a transaction from its canonical wire form.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	ver, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.Version = int32(ver)

	inCount, err := readVarInt(r)
	if err != nil {
		return err
	}
	if inCount > maxTxInPerMessage {
		return fmt.Errorf("wire: too many transaction inputs: %d", inCount)
	}
	msg.TxIn = make([]*TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		ti := &TxIn{}
		if err := readTxIn(r, ti); err != nil {
			return err
		}
		msg.TxIn = append(msg.TxIn, ti)
	}

	outCount, err := readVarInt(r)
	if err != nil {
		return err
	}
	if outCount > maxTxOutPerMessage {
		return fmt.Errorf("wire: too many transaction outputs: %d", outCount)
	}
	msg.TxOut = make([]*TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		to := &TxOut{}
		if err := readTxOut(r, to); err != nil {
			return err
		}
		msg.TxOut = append(msg.TxOut, to)
	}

	lockTime, err := bufFreeList.Uint32(r)
	if err != nil {
		return err
	}
	msg.LockTime = lockTime
	return nil
}

// Serialize encodes the transaction to its canonical wire form.
func (msg *MsgTx) Serialize(w io.Writer) error {
	if err := bufFreeList.PutUint32(w, uint32(msg.Version)); err != nil {
		return err
	}
	if err := writeVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}
	if err := writeVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}
	return bufFreeList.PutUint32(w, msg.LockTime)
}

func (msg *MsgTx) Command() string { return CmdTx }

func (msg *MsgTx) MaxPayloadLength(pver uint32) uint32 {
	return MaxMessagePayload
}
