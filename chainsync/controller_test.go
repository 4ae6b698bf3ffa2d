// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainsync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/EXCCoin/exccspv/chaincfg"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/store"
	"github.com/EXCCoin/exccspv/wire"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"), "")
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testParams(checkpoints ...chaincfg.Checkpoint) *chaincfg.Params {
	return &chaincfg.Params{
		Name:               "test",
		CheckpointInterval: 2016,
		PowLimitBits:       0x1d00ffff,
		Checkpoints:        checkpoints,
	}
}

func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func testPeer() *peer.Peer {
	return peer.NewOutboundPeer("127.0.0.1:0", &peer.Config{ChainParams: testParams()})
}

// TestValidateHeaderRejectsBelowDifficultyFloor covers §4.2's "work bits
// decrement toward known checkpoints" requirement: a header claiming a
// target easier than the network's PowLimitBits must be rejected.
func TestValidateHeaderRejectsBelowDifficultyFloor(t *testing.T) {
	c := New(openTestStore(t), testParams())
	err := c.validateHeaderLocked(wire.BlockHeader{Bits: 0x20ffffff})
	if err == nil {
		t.Fatal("expected an error for a below-floor difficulty target")
	}
}

func TestValidateHeaderAcceptsFloorDifficulty(t *testing.T) {
	params := testParams()
	c := New(openTestStore(t), params)
	err := c.validateHeaderLocked(wire.BlockHeader{Bits: params.PowLimitBits})
	if err != nil {
		t.Fatalf("unexpected error at the exact difficulty floor: %v", err)
	}
}

func TestValidateHeaderRejectsCheckpointMismatch(t *testing.T) {
	const checkpointHeight = 11111
	cp := chaincfg.Checkpoint{Height: checkpointHeight, Hash: testHash(0xaa)}
	params := testParams(cp)
	c := New(openTestStore(t), params)
	c.headerHeight = checkpointHeight

	err := c.validateHeaderLocked(wire.BlockHeader{Bits: params.PowLimitBits, Nonce: 1})
	if err == nil {
		t.Fatal("expected an error for a header hash that does not match the pinned checkpoint")
	}
}

func TestValidateHeaderAcceptsCheckpointMatch(t *testing.T) {
	const checkpointHeight = 11111
	// Build a header first so we can pin the checkpoint to its actual hash.
	h := wire.BlockHeader{Bits: 0x1d00ffff, Timestamp: time.Unix(1231006505, 0)}
	cp := chaincfg.Checkpoint{Height: checkpointHeight, Hash: h.BlockHash()}
	params := testParams(cp)
	c := New(openTestStore(t), params)
	c.headerHeight = checkpointHeight

	if err := c.validateHeaderLocked(h); err != nil {
		t.Fatalf("unexpected error for a header matching its pinned checkpoint: %v", err)
	}
}

// TestHandleMerkleBlockRejectsRootMismatch covers the merkle-root mismatch
// seed scenario: a merkleblock whose claimed header root does not match
// the root recomputed from its partial tree must never be committed, and
// its sender dropped.
func TestHandleMerkleBlockRejectsRootMismatch(t *testing.T) {
	s := openTestStore(t)
	c := New(s, testParams())
	p := testPeer()

	txID := testHash(0x01)
	mb := &wire.MsgMerkleBlock{
		Header: wire.BlockHeader{
			MerkleRoot: testHash(0xff), // deliberately wrong: doesn't match txID
		},
		Transactions: 1,
		Hashes:       []chainhash.Hash{txID},
		Flags:        []byte{0x01},
	}

	c.HandleMerkleBlock(p, mb)

	if _, ok, err := s.LatestBlockHash(); err != nil || ok {
		t.Fatalf("a root-mismatched block must never be committed, got ok=%v err=%v", ok, err)
	}
	if len(c.pending) != 0 {
		t.Fatalf("a root-mismatched block must not remain pending, got %d entries", len(c.pending))
	}
}

// TestHandleMerkleBlockCommitsZeroTxBlockImmediately covers the common
// no-match case: a block with no matching transactions commits on receipt
// instead of waiting on the quiescence window.
func TestHandleMerkleBlockCommitsZeroTxBlockImmediately(t *testing.T) {
	s := openTestStore(t)
	c := New(s, testParams())
	p := testPeer()

	mb := &wire.MsgMerkleBlock{
		Header:       wire.BlockHeader{MerkleRoot: chainhash.Hash{}},
		Transactions: 0,
	}
	c.HandleMerkleBlock(p, mb)

	height, err := s.LatestBlockHeight()
	if err != nil {
		t.Fatalf("LatestBlockHeight failed: %v", err)
	}
	if height != 1 {
		t.Fatalf("got height %d, want 1 (first committed block)", height)
	}
	if len(c.pending) != 0 {
		t.Fatalf("got %d pending entries after immediate commit, want 0", len(c.pending))
	}
}

// TestHandleHeadersRealignsOnDiscontinuity covers the chain-continuity
// guard: a headers batch that does not extend the stored tip marks the
// sending peer as realigning and does not advance anything.
func TestHandleHeadersRealignsOnDiscontinuity(t *testing.T) {
	s := openTestStore(t)
	params := testParams()
	c := New(s, params)
	p := testPeer()

	tip := testHash(0x10)
	if err := s.AddMerkleBlock(store.MerkleBlock{
		BlockHeader: store.BlockHeader{Hash: tip},
		Height:      5,
	}); err != nil {
		t.Fatalf("AddMerkleBlock failed: %v", err)
	}

	unrelated := wire.BlockHeader{PrevBlock: testHash(0x99), Bits: params.PowLimitBits}
	c.HandleHeaders(p, []wire.BlockHeader{unrelated})

	if !c.realigning[p.Addr()] {
		t.Fatal("expected peer to be marked realigning after a discontinuous headers batch")
	}
}

func TestHandleHeadersClearsRealigningOnContiguousBatch(t *testing.T) {
	s := openTestStore(t)
	params := testParams()
	c := New(s, params)
	p := testPeer()
	c.realigning[p.Addr()] = true

	tip := testHash(0x10)
	if err := s.AddMerkleBlock(store.MerkleBlock{
		BlockHeader: store.BlockHeader{Hash: tip},
		Height:      5,
	}); err != nil {
		t.Fatalf("AddMerkleBlock failed: %v", err)
	}

	h := wire.BlockHeader{PrevBlock: tip, Bits: params.PowLimitBits}
	c.HandleHeaders(p, []wire.BlockHeader{h})

	if c.realigning[p.Addr()] {
		t.Fatal("expected realigning to be cleared after a contiguous headers batch")
	}
}
