// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// Message is implemented by every message type this package can encode
// and decode.
type Message interface {
	BtcDecode(r io.Reader, pver uint32) error
	BtcEncode(w io.Writer, pver uint32) error
	Command() string
	MaxPayloadLength(pver uint32) uint32
}

// MessageHeader holds the decoded fields of a message's 24-byte frame
// header.
type MessageHeader struct {
	Magic    BitcoinNet
	Command  string
	Length   uint32
	Checksum [4]byte
}

func checksum(payload []byte) [4]byte {
	h := chainhash.HashB(payload)
	var c [4]byte
	copy(c[:], h[:4])
	return c
}

// WriteMessage serializes msg for the given network and writes the
// framed bytes (magic + command + length + checksum + payload) to w.
func WriteMessage(w io.Writer, msg Message, pver uint32, net BitcoinNet) error {
	var payloadBuf bytes.Buffer
	if err := msg.BtcEncode(&payloadBuf, pver); err != nil {
		return err
	}
	payload := payloadBuf.Bytes()
	lenp := uint32(len(payload))
	if lenp > msg.MaxPayloadLength(pver) {
		return fmt.Errorf("message payload of %d bytes exceeds max allowed %d for %q",
			lenp, msg.MaxPayloadLength(pver), msg.Command())
	}

	var header [MessageHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(net))
	copy(header[4:16], commandBytes(msg.Command()))
	binary.LittleEndian.PutUint32(header[16:20], lenp)
	cksum := checksum(payload)
	copy(header[20:24], cksum[:])

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func commandBytes(command string) []byte {
	var buf [CommandSize]byte
	copy(buf[:], command)
	return buf[:]
}

// DecodeResult is the outcome of attempting to parse one message frame
// from a stream.
type DecodeResult int

const (
	// DecodeOK means msg was fully decoded.
	DecodeOK DecodeResult = iota
	// DecodeNeedMore means the stream did not yet contain a full frame;
	// the caller should buffer more bytes and retry.
	DecodeNeedMore
	// DecodeInvalid means the frame failed a structural check (bad
	// magic or checksum); the caller should sever the connection.
	DecodeInvalid
)

// ReadMessageHeader parses the fixed 24-byte header from r.
func ReadMessageHeader(r io.Reader) (*MessageHeader, error) {
	var buf [MessageHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	hdr := &MessageHeader{
		Magic:  BitcoinNet(binary.LittleEndian.Uint32(buf[0:4])),
		Length: binary.LittleEndian.Uint32(buf[16:20]),
	}
	copy(hdr.Checksum[:], buf[20:24])
	hdr.Command = commandString(buf[4:16])
	return hdr, nil
}

func commandString(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		i = len(b)
	}
	return string(b[:i])
}

// ReadMessage reads one complete framed message from r, verifying magic
// and checksum and rejecting oversized payloads. Unknown command names
// decode to a *MsgUnknown carrying the raw payload rather than failing.
// It is a convenience wrapper over ReadMessageN for callers that only
// care whether decoding succeeded.
func ReadMessage(r io.Reader, pver uint32, net BitcoinNet) (Message, error) {
	msg, _, err := ReadMessageN(r, pver, net)
	return msg, err
}

// ReadMessageN reads one complete framed message from r, classifying the
// outcome per the decode(stream) -> msg | NeedMore | Invalid contract:
// DecodeOK on success, DecodeNeedMore if the stream ended before a full
// frame arrived (the caller should retry once more bytes are available),
// and DecodeInvalid for any structural violation (bad magic, oversized
// or truncated-by-protocol payload, checksum mismatch, or a malformed
// payload for a known command) — callers should sever the connection on
// DecodeInvalid.
func ReadMessageN(r io.Reader, pver uint32, net BitcoinNet) (Message, DecodeResult, error) {
	hdr, err := ReadMessageHeader(r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, DecodeNeedMore, err
		}
		return nil, DecodeInvalid, err
	}
	if hdr.Magic != net {
		return nil, DecodeInvalid, fmt.Errorf("wire: invalid magic %08x, want %08x", hdr.Magic, net)
	}
	if hdr.Length > MaxMessagePayload {
		return nil, DecodeInvalid, fmt.Errorf("wire: payload length %d exceeds max %d", hdr.Length, MaxMessagePayload)
	}

	payload := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, DecodeNeedMore, err
		}
		return nil, DecodeInvalid, err
	}
	if got := checksum(payload); got != hdr.Checksum {
		return nil, DecodeInvalid, fmt.Errorf("wire: checksum mismatch for command %q", hdr.Command)
	}

	msg, err := makeEmptyMessage(hdr.Command)
	if err != nil {
		return nil, DecodeInvalid, err
	}
	if err := msg.BtcDecode(bytes.NewReader(payload), pver); err != nil {
		return nil, DecodeInvalid, err
	}
	return msg, DecodeOK, nil
}

// makeEmptyMessage returns a zero-value message for the given command,
// or an opaque MsgUnknown carrying the command name if it is not one of
// the types this package implements.
func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdGetBlocks:
		return &MsgGetBlocks{}, nil
	case CmdMerkleBlock:
		return &MsgMerkleBlock{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdFilterLoad:
		return &MsgFilterLoad{}, nil
	case CmdMemPool:
		return &MsgMemPool{}, nil
	case CmdReject:
		return &MsgReject{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	default:
		return &MsgUnknown{CommandName: command}, nil
	}
}
