// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the immutable per-network configuration
// consumed by Peer, PeerGroup, and the address extractor: magic bytes,
// default port, address version bytes, DNS seeds, the genesis hash, and
// the hard-coded checkpoints.
package chaincfg

import (
	"fmt"

	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"
)

// Checkpoint identifies a block by (height, hash) that is built into the
// client as a trust anchor. CheckpointSyncer starts its header walk at
// the latest checkpoint. The full-sync Controller does not: it starts
// from the Index's stored tip, or from the zero hash when the Index is
// empty, and uses checkpoints only to pin header hashes at their heights.
type Checkpoint struct {
	Height uint32
	Hash   chainhash.Hash
}

// DNSSeed identifies a single DNS seed host PeerGroup can resolve to
// discover candidate peers.
type DNSSeed struct {
	Host string
}

// Params is the immutable configuration record for one Bitcoin-family
// network. Two or more Params may share a Name suffix (e.g. "mainnet")
// but differ in Net, address versions, and seeds when they describe
// sibling chains such as BTC and BCH.
type Params struct {
	// Name is a human-readable identifier, e.g. "btc-mainnet".
	Name string

	// Net is the magic four bytes prefixed to every wire message on
	// this network.
	Net wire.BitcoinNet

	// DefaultPort is the TCP port peers on this network listen on.
	DefaultPort string

	// PubKeyHashAddrID is the version byte prepended to a P2PKH
	// address's hash160 before base58check encoding.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the version byte prepended to a P2SH (and
	// P2WPKH-SH) address's hash160 before base58check encoding.
	ScriptHashAddrID byte

	// DNSSeeds lists the seed hostnames PeerGroup draws candidate
	// peers from.
	DNSSeeds []DNSSeed

	// GenesisHash is the block id of network genesis.
	GenesisHash chainhash.Hash

	// CheckpointInterval is the height cadence ("every N blocks") used
	// by the checkpoint-only sync mode, typically 2016.
	CheckpointInterval uint32

	// PowLimitBits is the compact difficulty representation of the
	// network's minimum allowed difficulty (its proof-of-work floor).
	// A header claiming an easier target than this is never valid and
	// is grounds for dropping whatever peer sent it.
	PowLimitBits uint32

	// Checkpoints is ordered from oldest to newest. LatestCheckpoint
	// reads only the tail; CheckpointByHeight searches the full list,
	// which the Sync Controller uses to validate header batches at any
	// checkpoint height.
	Checkpoints []Checkpoint
}

// LatestCheckpoint returns the highest checkpoint known for the network,
// or ok=false if none are configured.
func (p *Params) LatestCheckpoint() (Checkpoint, bool) {
	if len(p.Checkpoints) == 0 {
		return Checkpoint{}, false
	}
	return p.Checkpoints[len(p.Checkpoints)-1], true
}

// CheckpointByHeight returns the checkpoint at exactly height, if one is
// configured.
func (p *Params) CheckpointByHeight(height uint32) (Checkpoint, bool) {
	for _, c := range p.Checkpoints {
		if c.Height == height {
			return c, true
		}
	}
	return Checkpoint{}, false
}

func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(fmt.Sprintf("chaincfg: invalid hash literal %q: %v", s, err))
	}
	return *h
}
