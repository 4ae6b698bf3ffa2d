// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"testing"
	"time"

	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"
)

// recordingEvents implements Events, recording every callback invocation
// for assertions. Safe for sequential use from a single test goroutine.
type recordingEvents struct {
	readyCount int
	headers    [][]wire.BlockHeader
	dropped    []error
}

func (r *recordingEvents) OnReady(p *Peer) { r.readyCount++ }
func (r *recordingEvents) OnHeaders(p *Peer, headers []wire.BlockHeader) {
	r.headers = append(r.headers, headers)
}
func (r *recordingEvents) OnMerkleBlock(p *Peer, mb *wire.MsgMerkleBlock) {}
func (r *recordingEvents) OnTx(p *Peer, tx *wire.MsgTx)                   {}
func (r *recordingEvents) OnAddr(p *Peer, addrs []*wire.NetAddress)       {}
func (r *recordingEvents) OnReject(p *Peer, msg *wire.MsgReject)          {}
func (r *recordingEvents) OnDropped(p *Peer, err error)                   { r.dropped = append(r.dropped, err) }

func newTestPeer(events Events) *Peer {
	return NewOutboundPeer("127.0.0.1:0", &Config{
		ChainParams: nil,
		UserAgent:   "/exccspv:test/",
		Events:      events,
	})
}

// TestHandleVersionDropsKnownBadUserAgent exercises the bad-peer
// handshake path: a version message advertising a known-misbehaving
// client is never verack'd, and the peer is dropped instead of
// promoted to Ready.
func TestHandleVersionDropsKnownBadUserAgent(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)
	p.setState(StateVersionSent)

	p.handleVersion(&wire.MsgVersion{UserAgent: badUserAgentPrefixes[0] + " extra", LastBlock: 500})

	if p.State() != StateDropped {
		t.Fatalf("got state %s, want %s", p.State(), StateDropped)
	}
	if len(events.dropped) != 1 {
		t.Fatalf("got %d OnDropped calls, want 1", len(events.dropped))
	}
	if events.readyCount != 0 {
		t.Fatalf("got %d OnReady calls, want 0", events.readyCount)
	}
}

func TestHandleVersionRecordsPeerHeight(t *testing.T) {
	p := newTestPeer(&recordingEvents{})
	p.handleVersion(&wire.MsgVersion{UserAgent: "/satoshi:25.0/", LastBlock: 812345})
	if got := p.PeerHeight(); got != 812345 {
		t.Fatalf("got PeerHeight %d, want 812345", got)
	}
	if got := p.UserAgent(); got != "/satoshi:25.0/" {
		t.Fatalf("got UserAgent %q, want /satoshi:25.0/", got)
	}
}

// TestHandleVerAckPromotesToReady covers the rest of the handshake: once
// a version has been accepted and a verack arrives, the peer reaches
// Ready and fires OnReady exactly once.
func TestHandleVerAckPromotesToReady(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)
	p.setState(StateVersionSent)

	p.handleVerAck()

	if p.State() != StateReady {
		t.Fatalf("got state %s, want %s", p.State(), StateReady)
	}
	if events.readyCount != 1 {
		t.Fatalf("got %d OnReady calls, want 1", events.readyCount)
	}
}

func TestHandleVerAckIgnoredOutsideVersionSent(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)
	// state defaults to Disconnected; a verack arriving here is spurious.
	p.handleVerAck()
	if p.State() != StateDisconnected {
		t.Fatalf("got state %s, want %s", p.State(), StateDisconnected)
	}
	if events.readyCount != 0 {
		t.Fatalf("got %d OnReady calls, want 0", events.readyCount)
	}
}

// TestHandleHeadersEmptyBatchSignalsTip covers the "reached tip" contract:
// an empty headers response must still reach Events.OnHeaders so a
// controller waiting on it (e.g. CheckpointSyncer.onFinish) can fire.
func TestHandleHeadersEmptyBatchSignalsTip(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)
	p.onlyCheckpoints = true
	p.setState(StateSyncing)

	p.handleHeaders(&wire.MsgHeaders{})

	if len(events.headers) != 1 {
		t.Fatalf("got %d OnHeaders calls, want 1", len(events.headers))
	}
	if events.headers[0] != nil {
		t.Fatalf("got non-nil headers for an empty batch: %v", events.headers[0])
	}
	if p.State() != StateReady {
		t.Fatalf("got state %s, want %s after reaching tip in checkpoint-only mode", p.State(), StateReady)
	}
}

func mustHash(t *testing.T, s string) chainhash.Hash {
	t.Helper()
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		t.Fatalf("NewHashFromStr(%q): %v", s, err)
	}
	return *h
}

func TestHandleHeadersForwardsContiguousBatch(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)

	h1 := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: mustHash(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda333"),
		Timestamp:  time.Unix(1231006505, 0),
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	}
	h2 := &wire.BlockHeader{
		Version:    1,
		PrevBlock:  h1.BlockHash(),
		MerkleRoot: mustHash(t, "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098"),
		Timestamp:  time.Unix(1231469665, 0),
		Bits:       0x1d00ffff,
		Nonce:      2573394689,
	}
	p.handleHeaders(&wire.MsgHeaders{Headers: []*wire.BlockHeader{h1, h2}})

	if len(events.headers) != 1 || len(events.headers[0]) != 2 {
		t.Fatalf("got %v, want one batch of 2 headers", events.headers)
	}
	if p.lastHeaderHash != h2.BlockHash() {
		t.Fatalf("lastHeaderHash not advanced to the batch tail")
	}
	// Two getdata requests should have been queued, one per header.
	if len(p.outQueue) != 2 {
		t.Fatalf("got %d queued outbound messages, want 2", len(p.outQueue))
	}
}

func TestHandleHeadersDiscontinuousBatchIsDropped(t *testing.T) {
	events := &recordingEvents{}
	p := newTestPeer(events)
	known := mustHash(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda333")
	p.lastHeaderHash = known

	unrelated := &wire.BlockHeader{
		PrevBlock: mustHash(t, "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098"),
	}
	p.handleHeaders(&wire.MsgHeaders{Headers: []*wire.BlockHeader{unrelated}})

	if len(events.headers) != 0 {
		t.Fatalf("got %d OnHeaders calls for a discontinuous batch, want 0", len(events.headers))
	}
	if p.lastHeaderHash != known {
		t.Fatalf("lastHeaderHash advanced despite a discontinuous batch")
	}
	// A re-request rooted at the last known-good hash should have been
	// queued instead.
	if len(p.outQueue) != 1 {
		t.Fatalf("got %d queued outbound messages, want 1 (the re-request)", len(p.outQueue))
	}
}
