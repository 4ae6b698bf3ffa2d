// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the Bitcoin-family peer-to-peer wire protocol:
// variable-length integers, little-endian field order, message framing
// (magic + command + length + checksum), and the specific message types
// an SPV client needs to speak.
package wire

// ProtocolVersion is the latest protocol version this package understands
// and advertises in outgoing version messages.
const ProtocolVersion uint32 = 70015

// BitcoinNet represents which Bitcoin-family network a message belongs
// to by its magic number.
type BitcoinNet uint32

// MaxMessagePayload is the maximum bytes a message payload can be.
// Messages larger than this are rejected at decode time.
const MaxMessagePayload = 32 * 1024 * 1024 // 32 MiB

// MessageHeaderSize is magic (4) + command (12) + length (4) + checksum (4).
const MessageHeaderSize = 24

// CommandSize is the fixed width, NUL-padded, of a message command name.
const CommandSize = 12

// Command names for the messages this package implements.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdGetHeaders  = "getheaders"
	CmdHeaders     = "headers"
	CmdGetBlocks   = "getblocks"
	CmdMerkleBlock = "merkleblock"
	CmdTx          = "tx"
	CmdFilterLoad  = "filterload"
	CmdMemPool     = "mempool"
	CmdReject      = "reject"
	CmdAddr        = "addr"
)

// InvType represents the type of an inventory vector.
type InvType uint32

// Inventory vector types relevant to SPV filtered sync.
const (
	InvTypeError            InvType = 0
	InvTypeTx               InvType = 1
	InvTypeBlock            InvType = 2
	InvTypeFilteredBlock    InvType = 3
)

// RejectCode represents a reject message's numeric reason code.
type RejectCode uint8

// BloomUpdateType describes how matched outputs feed back into a peer's
// installed bloom filter, per BIP37.
type BloomUpdateType uint8

const (
	// BloomUpdateNone never updates the filter on a match.
	BloomUpdateNone BloomUpdateType = 0
	// BloomUpdateAll adds every matched output to the filter.
	BloomUpdateAll BloomUpdateType = 1
	// BloomUpdateP2PubkeyOnly only adds outpoints of matched pay-to-pubkey
	// or multisig outputs.
	BloomUpdateP2PubkeyOnly BloomUpdateType = 2
)
