// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peergroup

import (
	"testing"

	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/wire"
)

// recordingDelegate implements Delegate, recording every SyncState it is
// handed for assertions.
type recordingDelegate struct {
	states []SyncState
}

func (d *recordingDelegate) OnStarted()                          {}
func (d *recordingDelegate) OnStopped()                           {}
func (d *recordingDelegate) OnTransactionReceived(tx *wire.MsgTx) {}
func (d *recordingDelegate) OnSyncStateChanged(s SyncState)       { d.states = append(d.states, s) }

// fakeSync is a minimal SyncController stub reporting a fixed local height.
type fakeSync struct {
	height uint32
}

func (f *fakeSync) HandleHeaders(p *peer.Peer, headers []wire.BlockHeader)  {}
func (f *fakeSync) HandleMerkleBlock(p *peer.Peer, mb *wire.MsgMerkleBlock) {}
func (f *fakeSync) HandleTx(p *peer.Peer, tx *wire.MsgTx)                   {}
func (f *fakeSync) FilterElements() [][]byte                               { return nil }
func (f *fakeSync) LatestBlockHash() (chainhash.Hash, bool)                { return chainhash.Hash{}, false }
func (f *fakeSync) LatestBlockHeight() uint32                              { return f.height }

func newTestGroup(d Delegate, sync SyncController) *PeerGroup {
	return New(Config{Delegate: d, Sync: sync, MaxConnections: 8})
}

func TestReportSyncedEmitsFullProgress(t *testing.T) {
	d := &recordingDelegate{}
	g := newTestGroup(d, &fakeSync{})

	g.reportSynced()

	if len(d.states) != 1 {
		t.Fatalf("got %d states, want 1", len(d.states))
	}
	if d.states[0].Status != Synced || d.states[0].Progress != 1 {
		t.Fatalf("got %+v, want {Synced 1}", d.states[0])
	}
}

func TestReportNotSyncedEmitsZeroValueState(t *testing.T) {
	d := &recordingDelegate{}
	g := newTestGroup(d, &fakeSync{})

	g.reportNotSynced()

	if len(d.states) != 1 || d.states[0].Status != NotSynced {
		t.Fatalf("got %+v, want a single NotSynced state", d.states)
	}
}

// TestReportProgressWithoutPeerHeightReportsZero covers the §6 contract
// before a peer's self-advertised height is known: progress must never be
// reported as complete or negative.
func TestReportProgressWithoutPeerHeightReportsZero(t *testing.T) {
	d := &recordingDelegate{}
	g := newTestGroup(d, &fakeSync{height: 100})
	p := peer.NewOutboundPeer("127.0.0.1:0", &peer.Config{})

	g.reportProgress(p)

	if len(d.states) != 1 {
		t.Fatalf("got %d states, want 1", len(d.states))
	}
	if d.states[0].Status != SyncingState || d.states[0].Progress != 0 {
		t.Fatalf("got %+v, want {SyncingState 0} when the peer's height is unknown", d.states[0])
	}
}

func TestReportProgressNilDelegateDoesNotPanic(t *testing.T) {
	g := newTestGroup(nil, &fakeSync{})
	p := peer.NewOutboundPeer("127.0.0.1:0", &peer.Config{})
	g.reportProgress(p)
	g.reportSynced()
	g.reportNotSynced()
}

// TestHandleDroppedRemovesNonSyncerWithoutReassigningSync covers the
// common case: a non-syncing peer drops, the pool loses it, and no sync
// state is reported since the elected syncer is untouched.
func TestHandleDroppedRemovesNonSyncerWithoutReassigningSync(t *testing.T) {
	d := &recordingDelegate{}
	g := newTestGroup(d, &fakeSync{})
	syncer := peer.NewOutboundPeer("10.0.0.1:8333", &peer.Config{})
	dropped := peer.NewOutboundPeer("10.0.0.2:8333", &peer.Config{})
	g.syncPeer = syncer
	g.peers[syncer.Addr()] = syncer
	g.peers[dropped.Addr()] = dropped
	g.started = true

	g.handleDropped(dropped, nil)

	if _, ok := g.peers[dropped.Addr()]; ok {
		t.Fatal("dropped peer was not removed from the pool")
	}
	if g.syncPeer != syncer {
		t.Fatal("syncPeer should be unaffected by a non-syncer drop")
	}
	if len(d.states) != 0 {
		t.Fatalf("got %d sync state reports, want 0", len(d.states))
	}
}

// TestHandleDroppedSyncerWithNoReadyPeerReportsNotSynced covers losing the
// elected syncer with nobody else to promote.
func TestHandleDroppedSyncerWithNoReadyPeerReportsNotSynced(t *testing.T) {
	d := &recordingDelegate{}
	g := newTestGroup(d, &fakeSync{})
	syncer := peer.NewOutboundPeer("10.0.0.1:8333", &peer.Config{})
	g.syncPeer = syncer
	g.peers[syncer.Addr()] = syncer

	g.handleDropped(syncer, nil)

	if g.syncPeer != nil {
		t.Fatal("syncPeer should be cleared once its connection drops")
	}
	if len(d.states) != 1 || d.states[0].Status != NotSynced {
		t.Fatalf("got %+v, want a single NotSynced report", d.states)
	}
}
