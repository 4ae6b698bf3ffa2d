// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peergroup manages a small pool of peer connections drawn from
// a network's DNS seeds, elects exactly one of them to drive
// synchronization at any moment, and fans outbound transactions out to
// every connected peer. All pool bookkeeping runs on a single serialized
// command queue so the peer map never needs its own lock.
package peergroup

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/EXCCoin/exccspv/chaincfg"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/wire"
)

// SyncState describes the PeerGroup's overall synchronization progress,
// delivered to Delegate.OnSyncStateChanged.
type SyncState struct {
	// Status is one of NotSynced, SyncingState, or Synced.
	Status   SyncStatus
	Progress float64 // meaningful only when Status == SyncingState
}

type SyncStatus int

const (
	NotSynced SyncStatus = iota
	SyncingState
	Synced
)

// SyncController is the consumer of a syncing peer's headers/merkle-block/
// tx event stream — the Sync Controller component (§4.4). PeerGroup
// depends on this narrow interface rather than importing chainsync
// directly, so the two packages can evolve independently.
type SyncController interface {
	HandleHeaders(p *peer.Peer, headers []wire.BlockHeader)
	HandleMerkleBlock(p *peer.Peer, mb *wire.MsgMerkleBlock)
	HandleTx(p *peer.Peer, tx *wire.MsgTx)
	FilterElements() [][]byte
	LatestBlockHash() (chainhash.Hash, bool)
	LatestBlockHeight() uint32
}

// Delegate receives PeerGroup lifecycle notifications.
type Delegate interface {
	OnStarted()
	OnStopped()
	OnTransactionReceived(tx *wire.MsgTx)
	OnSyncStateChanged(state SyncState)
}

// Config configures a PeerGroup.
type Config struct {
	ChainParams     *chaincfg.Params
	MaxConnections  int
	UserAgent       string
	Sync            SyncController
	Delegate        Delegate
	OnlyCheckpoints bool

	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration
	PongTimeout      time.Duration
}

type cmdFunc func()

// PeerGroup owns the pool of connections for one network. Exported
// methods enqueue work onto the internal command queue and return
// immediately; pool state is only ever touched from that queue's single
// goroutine.
type PeerGroup struct {
	cfg Config

	cmds chan cmdFunc
	quit chan struct{}
	wg   sync.WaitGroup

	peers      map[string]*peer.Peer
	syncPeer   *peer.Peer
	seedIdx    int
	seedHosts  []string
	started    bool
	pendingTxs []*wire.MsgTx
}

// New constructs a PeerGroup. Call Start to begin connecting.
func New(cfg Config) *PeerGroup {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 8
	}
	return &PeerGroup{
		cfg:   cfg,
		cmds:  make(chan cmdFunc, 64),
		quit:  make(chan struct{}),
		peers: make(map[string]*peer.Peer),
	}
}

// Start resolves the network's DNS seeds and begins connecting peers, up
// to MaxConnections, round-robin over the resolved host set.
func (g *PeerGroup) Start() {
	g.wg.Add(1)
	go g.run()
	g.cmds <- func() {
		g.started = true
		g.seedHosts = g.resolveSeeds()
		if g.cfg.Delegate != nil {
			g.cfg.Delegate.OnStarted()
		}
		for i := 0; i < g.cfg.MaxConnections && i < len(g.seedHosts)*4; i++ {
			g.connectNext()
		}
	}
}

// Stop disconnects every peer, closing its socket; peers' event
// callbacks are not detached beforehand. In-flight writes may be dropped; in-flight reads unblock with a
// disconnect error. Stop is idempotent.
func (g *PeerGroup) Stop() {
	select {
	case <-g.quit:
		return
	default:
	}
	g.cmds <- func() {
		for _, p := range g.peers {
			p.Disconnect()
		}
		g.peers = make(map[string]*peer.Peer)
		g.syncPeer = nil
		g.started = false
		if g.cfg.Delegate != nil {
			g.cfg.Delegate.OnStopped()
		}
	}
	close(g.quit)
	g.wg.Wait()
}

// AddFilter adds one element (an address hash160, a script, or an
// outpoint) to the set the next start_sync call installs on the syncing
// peer. Elements are sourced from cfg.Sync.FilterElements at sync start,
// so the element is handed to cfg.Sync's AddElement method when it has
// one (chainsync.Controller does); a SyncController without AddElement
// does not receive it.
func (g *PeerGroup) AddFilter(element []byte) {
	// Filter membership is owned by the SyncController implementation;
	// PeerGroup passes the element on and triggers a resync so it takes
	// effect.
	g.cmds <- func() {
		if a, ok := g.cfg.Sync.(interface{ AddElement([]byte) }); ok {
			a.AddElement(element)
		}
		if g.syncPeer != nil && g.syncPeer.State() == peer.StateSyncing {
			g.startSyncOn(g.syncPeer)
		}
	}
}

// SendTransaction relays tx to every connected (Ready or Syncing) peer,
// queueing it if none are connected yet and flushing on the first Ready
// transition.
func (g *PeerGroup) SendTransaction(tx *wire.MsgTx) {
	g.cmds <- func() {
		sent := false
		for _, p := range g.peers {
			if p.State() == peer.StateReady || p.State() == peer.StateSyncing {
				_ = p.SendTransaction(tx)
				sent = true
			}
		}
		if !sent {
			g.pendingTxs = append(g.pendingTxs, tx)
		}
	}
}

func (g *PeerGroup) run() {
	defer g.wg.Done()
	for {
		select {
		case cmd := <-g.cmds:
			cmd()
		case <-g.quit:
			return
		}
	}
}

func (g *PeerGroup) resolveSeeds() []string {
	var hosts []string
	for _, seed := range g.cfg.ChainParams.DNSSeeds {
		ips, err := net.LookupHost(seed.Host)
		if err != nil {
			log.Warnf("peergroup: dns lookup %s: %v", seed.Host, err)
			continue
		}
		for _, ip := range ips {
			hosts = append(hosts, net.JoinHostPort(ip, g.cfg.ChainParams.DefaultPort))
		}
	}
	return hosts
}

// connectNext dials the next candidate address round-robin over the
// resolved seed host set. Must run on the command queue.
func (g *PeerGroup) connectNext() {
	if len(g.seedHosts) == 0 {
		return
	}
	for attempts := 0; attempts < len(g.seedHosts); attempts++ {
		addr := g.seedHosts[g.seedIdx%len(g.seedHosts)]
		g.seedIdx++
		if _, ok := g.peers[addr]; ok {
			continue
		}
		g.dial(addr)
		return
	}
}

func (g *PeerGroup) dial(addr string) {
	p := peer.NewOutboundPeer(addr, &peer.Config{
		ChainParams:      g.cfg.ChainParams,
		UserAgent:        g.cfg.UserAgent,
		HandshakeTimeout: g.cfg.HandshakeTimeout,
		IdleTimeout:      g.cfg.IdleTimeout,
		PongTimeout:      g.cfg.PongTimeout,
		Events:           &events{g: g},
	})
	g.peers[addr] = p
	if err := p.Connect(); err != nil {
		log.Debugf("peergroup: %s: %v", addr, err)
		delete(g.peers, addr)
		return
	}
}

// events adapts peer.Events callbacks onto the PeerGroup command queue so
// all pool bookkeeping still runs single-threaded.
type events struct {
	g *PeerGroup
}

func (e *events) OnReady(p *peer.Peer) {
	e.g.cmds <- func() { e.g.handleReady(p) }
}

func (e *events) OnHeaders(p *peer.Peer, headers []wire.BlockHeader) {
	e.g.cmds <- func() {
		if p != e.g.syncPeer || e.g.cfg.Sync == nil {
			return
		}
		e.g.cfg.Sync.HandleHeaders(p, headers)
		if len(headers) == 0 {
			e.g.reportSynced()
		} else {
			e.g.reportProgress(p)
		}
	}
}

func (e *events) OnMerkleBlock(p *peer.Peer, mb *wire.MsgMerkleBlock) {
	e.g.cmds <- func() {
		if p == e.g.syncPeer && e.g.cfg.Sync != nil {
			e.g.cfg.Sync.HandleMerkleBlock(p, mb)
		}
	}
}

func (e *events) OnTx(p *peer.Peer, tx *wire.MsgTx) {
	e.g.cmds <- func() {
		if e.g.cfg.Sync != nil {
			e.g.cfg.Sync.HandleTx(p, tx)
		}
		if e.g.cfg.Delegate != nil {
			e.g.cfg.Delegate.OnTransactionReceived(tx)
		}
	}
}

func (e *events) OnAddr(p *peer.Peer, addrs []*wire.NetAddress) {
	e.g.cmds <- func() {
		for _, a := range addrs {
			host := net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
			e.g.seedHosts = append(e.g.seedHosts, host)
		}
	}
}

func (e *events) OnReject(p *peer.Peer, msg *wire.MsgReject) {
	log.Debugf("peergroup: %s: rejected %s: %s", p.Addr(), msg.Cmd, msg.Reason)
}

func (e *events) OnDropped(p *peer.Peer, err error) {
	e.g.cmds <- func() { e.g.handleDropped(p, err) }
}

// handleReady promotes p to syncer iff none is currently syncing, and
// flushes any transactions queued while the group had no peers. Must run
// on the command queue.
func (g *PeerGroup) handleReady(p *peer.Peer) {
	if len(g.pendingTxs) > 0 {
		for _, tx := range g.pendingTxs {
			_ = p.SendTransaction(tx)
		}
		g.pendingTxs = nil
	}
	if g.syncPeer == nil {
		g.syncPeer = p
		g.startSyncOn(p)
	}
}

func (g *PeerGroup) startSyncOn(p *peer.Peer) {
	if g.cfg.Sync == nil {
		return
	}
	latestHash, _ := g.cfg.Sync.LatestBlockHash()
	latestHeight := g.cfg.Sync.LatestBlockHeight()
	elements := g.cfg.Sync.FilterElements()
	if err := p.StartSync(elements, latestHash, latestHeight, g.cfg.OnlyCheckpoints); err != nil {
		log.Warnf("peergroup: %s: start sync: %v", p.Addr(), err)
		return
	}
	g.reportSyncing(0)
}

// handleDropped removes p from the pool, promoting a new syncer if p was
// one and another Ready peer exists, then tops the pool back up with a
// fresh outbound connection. Must run on the command queue. Overlap
// between the old and new syncer's in-flight requests is absorbed by
// the Index's idempotent inserts (§4.3).
func (g *PeerGroup) handleDropped(p *peer.Peer, err error) {
	delete(g.peers, p.Addr())
	wasSyncer := p == g.syncPeer
	if wasSyncer {
		g.syncPeer = nil
		for _, other := range g.peers {
			if other.State() == peer.StateReady {
				g.syncPeer = other
				g.startSyncOn(other)
				break
			}
		}
		if g.syncPeer == nil {
			g.reportNotSynced()
		}
	}
	if !g.started {
		return
	}
	if len(g.peers) < g.cfg.MaxConnections {
		g.connectNext()
	}
}

// reportProgress estimates sync progress as the local store's height over
// p's self-advertised chain height (the only notion of "network tip" this
// client has) and reports it as SyncingState. Must run on the command
// queue.
func (g *PeerGroup) reportProgress(p *peer.Peer) {
	if g.cfg.Delegate == nil || g.cfg.Sync == nil {
		return
	}
	peerHeight := p.PeerHeight()
	progress := 0.0
	if peerHeight > 0 {
		progress = float64(g.cfg.Sync.LatestBlockHeight()) / float64(peerHeight)
		if progress > 1 {
			progress = 1
		} else if progress < 0 {
			progress = 0
		}
	}
	g.reportSyncing(progress)
}

func (g *PeerGroup) reportSyncing(progress float64) {
	if g.cfg.Delegate == nil {
		return
	}
	g.cfg.Delegate.OnSyncStateChanged(SyncState{Status: SyncingState, Progress: progress})
}

// reportSynced reports that the syncing peer's header walk has reached its
// tip (an empty headers response). Must run on the command queue.
func (g *PeerGroup) reportSynced() {
	if g.cfg.Delegate == nil {
		return
	}
	g.cfg.Delegate.OnSyncStateChanged(SyncState{Status: Synced, Progress: 1})
}

func (g *PeerGroup) reportNotSynced() {
	if g.cfg.Delegate == nil {
		return
	}
	g.cfg.Delegate.OnSyncStateChanged(SyncState{Status: NotSynced})
}

// PeerCount returns the number of currently connected peers. It is safe
// to call from any goroutine; the result reflects the pool state at some
// point during the call.
func (g *PeerGroup) PeerCount() int {
	done := make(chan int, 1)
	select {
	case g.cmds <- func() { done <- len(g.peers) }:
		return <-done
	case <-g.quit:
		return 0
	}
}
