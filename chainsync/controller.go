// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainsync is the Sync Controller (§4.4): it consumes the
// merkleblock/tx event stream from whichever peer PeerGroup has elected
// as syncer, verifies each block's partial merkle tree, buffers its
// matching transactions until all are seen (or a quiescence window
// elapses), and commits the result to the Index with an explicitly
// assigned height. It also tracks chain-continuity against the Index's
// stored tip and forces a headers realignment when a peer drifts.
package chainsync

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/EXCCoin/exccspv/addr"
	"github.com/EXCCoin/exccspv/bloom"
	"github.com/EXCCoin/exccspv/chaincfg"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/store"
	"github.com/EXCCoin/exccspv/wire"
)

// QuiescenceWindow is how long the controller waits for a merkle-block's
// remaining matched transactions before committing what arrived anyway.
const QuiescenceWindow = 10 * time.Second

// pendingBlock tracks one accepted-but-not-yet-committed merkle-block
// while its matching transactions trickle in.
type pendingBlock struct {
	header   wire.BlockHeader
	height   uint32
	total    uint32
	expected map[chainhash.Hash]bool
	received int
	timer    *time.Timer
}

// Controller is the Sync Controller. It is safe for concurrent use; all
// mutable state is guarded by mu. A PeerGroup drives one Controller
// wrapping one store; CheckpointSyncer is a separate SyncController and
// does not use a Controller.
type Controller struct {
	store  *store.Store
	params *chaincfg.Params

	mu               sync.Mutex
	elements         [][]byte
	pending          map[chainhash.Hash]*pendingBlock
	realigning       map[string]bool
	headerHeight     uint32
	haveHeaderHeight bool
	powLimit         *big.Int
}

// New constructs a Controller persisting accepted blocks and
// transactions to s, using params for the network's address version
// bytes.
func New(s *store.Store, params *chaincfg.Params) *Controller {
	return &Controller{
		store:      s,
		params:     params,
		pending:    make(map[chainhash.Hash]*pendingBlock),
		realigning: make(map[string]bool),
		powLimit:   chaincfg.CompactToBig(params.PowLimitBits),
	}
}

// AddElement registers a raw filter element (a hash160, a script, or a
// serialized outpoint) to be included in the bloom filter installed on
// the next sync start.
func (c *Controller) AddElement(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elements = append(c.elements, append([]byte(nil), data...))
}

// AddAddress decodes a base58check address and registers its payload
// hash160 as a filter element.
func (c *Controller) AddAddress(address string) error {
	_, payload, err := addr.DecodeBase58Check(address)
	if err != nil {
		return err
	}
	c.AddElement(payload)
	return nil
}

// FilterElements implements peergroup.SyncController.
func (c *Controller) FilterElements() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.elements))
	copy(out, c.elements)
	return out
}

// LatestBlockHash implements peergroup.SyncController.
func (c *Controller) LatestBlockHash() (chainhash.Hash, bool) {
	hash, ok, err := c.store.LatestBlockHash()
	if err != nil {
		log.Errorf("chainsync: reading latest block hash: %v", err)
		return chainhash.Hash{}, false
	}
	return hash, ok
}

// LatestBlockHeight implements peergroup.SyncController.
func (c *Controller) LatestBlockHeight() uint32 {
	height, err := c.store.LatestBlockHeight()
	if err != nil {
		log.Errorf("chainsync: reading latest block height: %v", err)
		return 0
	}
	return height
}

// HandleHeaders implements peergroup.SyncController. Besides guarding
// against chain discontinuity, it validates every header's work bits
// against the network's difficulty floor and, at configured checkpoint
// heights, pins the header's hash to the known-good checkpoint value —
// a peer offering an easier-than-allowed target or a hash mismatched at
// a checkpoint is dropped. The headers themselves otherwise carry no new
// indexable information until their merkle-blocks arrive. Continuity is
// checked only once the Index holds a merkle-block to serve as the tip.
func (c *Controller) HandleHeaders(p *peer.Peer, headers []wire.BlockHeader) {
	if len(headers) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tip, haveTip := c.storedTipLocked()
	if haveTip && headers[0].PrevBlock != tip && headers[0].BlockHash() != tip {
		if !c.realigning[p.Addr()] {
			log.Infof("chainsync: %s: headers discontinuous with stored tip %s, realigning", p.Addr(), tip)
			c.realigning[p.Addr()] = true
			p.RequestHeaders(tip)
		}
		return
	}
	delete(c.realigning, p.Addr())

	if !c.haveHeaderHeight {
		c.headerHeight = c.LatestBlockHeight()
		c.haveHeaderHeight = true
	}
	for _, h := range headers {
		c.headerHeight++
		if err := c.validateHeaderLocked(h); err != nil {
			log.Warnf("chainsync: %s: %v, dropping peer", p.Addr(), err)
			p.Disconnect()
			return
		}
	}
}

// validateHeaderLocked checks h against the network's minimum difficulty
// and, if height is a configured checkpoint, against that checkpoint's
// pinned hash. Called with c.mu held.
func (c *Controller) validateHeaderLocked(h wire.BlockHeader) error {
	target := chaincfg.CompactToBig(h.Bits)
	if target.Sign() <= 0 {
		return fmt.Errorf("bits %08x encode a non-positive target", h.Bits)
	}
	if target.Cmp(c.powLimit) > 0 {
		return fmt.Errorf("bits %08x claim a target easier than the network minimum", h.Bits)
	}
	if cp, ok := c.params.CheckpointByHeight(c.headerHeight); ok {
		if h.BlockHash() != cp.Hash {
			return fmt.Errorf("header at height %d does not match checkpoint %s", c.headerHeight, cp.Hash)
		}
	}
	return nil
}

func (c *Controller) storedTipLocked() (chainhash.Hash, bool) {
	hash, ok, err := c.store.LatestBlockHash()
	if err != nil || !ok {
		return chainhash.Hash{}, false
	}
	return hash, true
}

// HandleMerkleBlock implements peergroup.SyncController. It verifies the
// partial merkle tree, rejects the block (and its sender) on a root
// mismatch, and otherwise buffers it pending its matching transactions.
func (c *Controller) HandleMerkleBlock(p *peer.Peer, mb *wire.MsgMerkleBlock) {
	c.mu.Lock()
	if c.realigning[p.Addr()] {
		c.mu.Unlock()
		log.Debugf("chainsync: %s: discarding merkle-block while realigning", p.Addr())
		return
	}
	c.mu.Unlock()

	result, err := bloom.Verify(mb)
	if err != nil {
		log.Warnf("chainsync: %s: malformed partial merkle tree: %v", p.Addr(), err)
		p.Disconnect()
		return
	}
	if result.MerkleRoot != mb.Header.MerkleRoot {
		log.Warnf("chainsync: %s: merkle root mismatch, dropping peer", p.Addr())
		p.Disconnect()
		return
	}

	blockHash := mb.Header.BlockHash()

	c.mu.Lock()
	height := c.LatestBlockHeight() + 1
	if mb.Transactions == 0 {
		c.mu.Unlock()
		c.commit(blockHash, mb.Header, height, mb.Transactions)
		return
	}

	expected := make(map[chainhash.Hash]bool, len(result.MatchedTxIDs))
	for _, id := range result.MatchedTxIDs {
		expected[id] = true
	}
	pb := &pendingBlock{header: mb.Header, height: height, total: mb.Transactions, expected: expected}
	pb.timer = time.AfterFunc(QuiescenceWindow, func() {
		c.mu.Lock()
		_, stillPending := c.pending[blockHash]
		c.mu.Unlock()
		if stillPending {
			log.Debugf("chainsync: %s: quiescence window elapsed, committing partial block", blockHash)
			c.commit(blockHash, pb.header, pb.height, pb.total)
		}
	})
	c.pending[blockHash] = pb
	c.mu.Unlock()

	if len(expected) == 0 {
		c.commit(blockHash, mb.Header, height, mb.Transactions)
	}
}

// HandleTx implements peergroup.SyncController: it indexes tx against
// whichever pending block expects it, committing that block once every
// expected hash has arrived.
func (c *Controller) HandleTx(p *peer.Peer, tx *wire.MsgTx) {
	txID := tx.TxHash()

	c.mu.Lock()
	var owner chainhash.Hash
	var pb *pendingBlock
	for hash, candidate := range c.pending {
		if candidate.expected[txID] {
			owner = hash
			pb = candidate
			break
		}
	}
	if pb == nil {
		c.mu.Unlock()
		// A transaction not tied to any pending block (e.g. a mempool
		// relay of our own outbound tx): index it unconfirmed.
		c.indexTx(tx, nil)
		return
	}
	pb.received++
	done := pb.received >= len(pb.expected)
	c.mu.Unlock()

	c.indexTx(tx, &owner)

	if done {
		pb.timer.Stop()
		c.commit(owner, pb.header, pb.height, pb.total)
	}
}

func (c *Controller) indexTx(tx *wire.MsgTx, blockHash *chainhash.Hash) {
	record := store.FromWireTx(tx, blockHash, c.params.PubKeyHashAddrID, c.params.ScriptHashAddrID)
	if err := c.store.AddTransaction(record); err != nil {
		log.Errorf("chainsync: indexing tx %s: %v", tx.TxHash(), err)
	}
}

// commit persists the merkle-block row itself and clears its pending
// entry. Its matching transactions have already been written by
// HandleTx, satisfying ordering guarantee 2 in §5 (transactions before
// the merkle-block row).
func (c *Controller) commit(hash chainhash.Hash, header wire.BlockHeader, height, total uint32) {
	c.mu.Lock()
	delete(c.pending, hash)
	c.mu.Unlock()

	mb := store.MerkleBlock{
		BlockHeader: store.BlockHeader{
			Hash:       hash,
			Version:    header.Version,
			PrevHash:   header.PrevBlock,
			MerkleRoot: header.MerkleRoot,
			Timestamp:  header.Timestamp.Unix(),
			Bits:       header.Bits,
			Nonce:      header.Nonce,
		},
		Height:            height,
		TotalTransactions: total,
	}
	if err := c.store.AddMerkleBlock(mb); err != nil {
		log.Errorf("chainsync: committing merkle-block %s: %v", hash, err)
	}
}
