// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainsync

import (
	"sync"

	"github.com/EXCCoin/exccspv/chaincfg"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/peergroup"
	"github.com/EXCCoin/exccspv/wire"
)

// CheckpointSyncer is a degenerate PeerGroup (§6, §9) that requests only
// headers and never touches the Index. It counts headers up from its
// newest built-in checkpoint and logs the ones at checkpoint-interval
// heights. What onFinish receives is the height and hash of the last
// header walked, which is not necessarily at a checkpoint-interval height.
// It shares the header-walk code with full sync: both rely on Peer's
// single handleHeaders path, gated by the onlyCheckpoints flag passed to
// StartSync, rather than a second state machine.
type CheckpointSyncer struct {
	params *chaincfg.Params
	group  *peergroup.PeerGroup

	mu          sync.Mutex
	height      uint32
	hash        chainhash.Hash
	onFinish    func(height uint32, hash chainhash.Hash)
	lastAdvance bool
}

// NewCheckpointSyncer constructs a CheckpointSyncer for params, starting
// from its newest built-in checkpoint. onFinish is invoked once a
// connected peer's header walk reaches tip (an empty headers response).
func NewCheckpointSyncer(params *chaincfg.Params, maxConnections int, userAgent string, onFinish func(height uint32, hash chainhash.Hash)) *CheckpointSyncer {
	cs := &CheckpointSyncer{params: params, onFinish: onFinish}
	if cp, ok := params.LatestCheckpoint(); ok {
		cs.height, cs.hash = cp.Height, cp.Hash
	} else {
		cs.hash = params.GenesisHash
	}
	cs.group = peergroup.New(peergroup.Config{
		ChainParams:     params,
		MaxConnections:  maxConnections,
		UserAgent:       userAgent,
		Sync:            cs,
		OnlyCheckpoints: true,
	})
	return cs
}

// Start begins connecting peers and walking headers.
func (cs *CheckpointSyncer) Start() { cs.group.Start() }

// Stop tears down the underlying PeerGroup.
func (cs *CheckpointSyncer) Stop() { cs.group.Stop() }

// FilterElements implements peergroup.SyncController. A checkpoint-only
// walk never installs a bloom filter.
func (cs *CheckpointSyncer) FilterElements() [][]byte { return nil }

// LatestBlockHash implements peergroup.SyncController.
func (cs *CheckpointSyncer) LatestBlockHash() (chainhash.Hash, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.hash, true
}

// LatestBlockHeight implements peergroup.SyncController.
func (cs *CheckpointSyncer) LatestBlockHeight() uint32 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.height
}

// HandleHeaders implements peergroup.SyncController: it advances the
// local (height, hash) counter by len(headers) and reports whenever that
// counter lands on a checkpoint-interval height. An empty batch means
// the peer has reached its tip, firing onFinish.
func (cs *CheckpointSyncer) HandleHeaders(p *peer.Peer, headers []wire.BlockHeader) {
	cs.mu.Lock()
	if len(headers) == 0 {
		height, hash := cs.height, cs.hash
		cs.mu.Unlock()
		if cs.onFinish != nil {
			cs.onFinish(height, hash)
		}
		return
	}
	for _, h := range headers {
		cs.height++
		cs.hash = h.BlockHash()
		if cs.params.CheckpointInterval > 0 && cs.height%cs.params.CheckpointInterval == 0 {
			log.Infof("checkpoint sync: reached height %d, hash %s", cs.height, cs.hash)
		}
	}
	cs.mu.Unlock()
}

// HandleMerkleBlock implements peergroup.SyncController. CheckpointSyncer
// never requests merkle-blocks (onlyCheckpoints=true suppresses the
// getdata fan-out in Peer), so this is never called in practice.
func (cs *CheckpointSyncer) HandleMerkleBlock(p *peer.Peer, mb *wire.MsgMerkleBlock) {}

// HandleTx implements peergroup.SyncController; see HandleMerkleBlock.
func (cs *CheckpointSyncer) HandleTx(p *peer.Peer, tx *wire.MsgTx) {}
