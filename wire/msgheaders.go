// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxBlockHeadersPerMsg is the maximum number of headers carried by a
// single headers message, per the Bitcoin protocol.
const MaxBlockHeadersPerMsg = 2000

// MsgHeaders implements the Message interface and represents a response
// to a getheaders message, carrying up to 2000 block headers.
type MsgHeaders struct {
	Headers []*BlockHeader
}

func NewMsgHeaders() *MsgHeaders { return &MsgHeaders{} }

func (msg *MsgHeaders) AddBlockHeader(h *BlockHeader) {
	msg.Headers = append(msg.Headers, h)
}

func (msg *MsgHeaders) BtcDecode(r io.Reader, pver uint32) error {
	count, err := readVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockHeadersPerMsg {
		return fmt.Errorf("wire: too many headers: %d", count)
	}
	headers := make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		h := &BlockHeader{}
		if err := readBlockHeader(r, h); err != nil {
			return err
		}
		// Every header in a headers message is followed by a
		// transaction count, always zero for this use case.
		txCount, err := readVarInt(r)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return fmt.Errorf("wire: headers message header carries %d transactions, want 0", txCount)
		}
		headers = append(headers, h)
	}
	msg.Headers = headers
	return nil
}

func (msg *MsgHeaders) BtcEncode(w io.Writer, pver uint32) error {
	if err := writeVarInt(w, uint64(len(msg.Headers))); err != nil {
		return err
	}
	for _, h := range msg.Headers {
		if err := writeBlockHeader(w, h); err != nil {
			return err
		}
		if err := writeVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

func (msg *MsgHeaders) Command() string { return CmdHeaders }

func (msg *MsgHeaders) MaxPayloadLength(pver uint32) uint32 {
	return uint32(varIntSerializeSize(MaxBlockHeadersPerMsg) +
		MaxBlockHeadersPerMsg*(MaxBlockHeaderPayload+1))
}
