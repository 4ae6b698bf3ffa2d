// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer owns a single TCP connection to a Bitcoin-family node: it
// drives the version/verack handshake, the idle/ping/pong liveness
// timers, and (once a controller calls StartSync) the headers-first
// synchronization request/response cycle. It never interprets what it
// receives beyond what is needed to keep the connection and the sync
// cycle moving; everything else is handed to the Events callback
// surface for the controller (PeerGroup / Sync Controller) to act on.
package peer

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EXCCoin/exccspv/bloom"
	"github.com/EXCCoin/exccspv/chaincfg"
	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"
)

// State is one position in the peer connection's lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateVersionSent
	StateVersionAcked
	StateReady
	StateSyncing
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateVersionSent:
		return "version-sent"
	case StateVersionAcked:
		return "version-acked"
	case StateReady:
		return "ready"
	case StateSyncing:
		return "syncing"
	case StateDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// badUserAgentPrefixes lists user agents known to misbehave badly enough
// that a connection to them is not worth keeping.
var badUserAgentPrefixes = []string{
	"Bitcoin ABC:0.16",
}

// Events is the callback surface a controller (PeerGroup or a direct
// caller) implements to observe a Peer's lifecycle and message traffic.
// Every method is invoked from the peer's own inHandler goroutine, in
// the order messages were read off the socket.
type Events interface {
	// OnReady fires once the version/verack handshake completes.
	OnReady(p *Peer)
	// OnHeaders fires for each validated headers batch.
	OnHeaders(p *Peer, headers []wire.BlockHeader)
	// OnMerkleBlock fires for each filtered block the peer forwards.
	OnMerkleBlock(p *Peer, mb *wire.MsgMerkleBlock)
	// OnTx fires for each transaction the peer forwards.
	OnTx(p *Peer, tx *wire.MsgTx)
	// OnAddr fires when the peer advertises other nodes.
	OnAddr(p *Peer, addrs []*wire.NetAddress)
	// OnReject fires when the peer rejects something we sent it.
	OnReject(p *Peer, msg *wire.MsgReject)
	// OnDropped fires exactly once, when the peer transitions to
	// Dropped, with the reason (nil for a caller-requested disconnect).
	OnDropped(p *Peer, err error)
}

// Config carries the parameters a Peer needs for the lifetime of one
// connection. All timeouts are controller-configurable per §5.
type Config struct {
	ChainParams      *chaincfg.Params
	UserAgent        string
	Services         uint64
	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration
	PongTimeout      time.Duration
	Events           Events
}

func (cfg *Config) handshakeTimeout() time.Duration {
	if cfg.HandshakeTimeout > 0 {
		return cfg.HandshakeTimeout
	}
	return 15 * time.Second
}

func (cfg *Config) idleTimeout() time.Duration {
	if cfg.IdleTimeout > 0 {
		return cfg.IdleTimeout
	}
	return 60 * time.Second
}

func (cfg *Config) pongTimeout() time.Duration {
	if cfg.PongTimeout > 0 {
		return cfg.PongTimeout
	}
	return 30 * time.Second
}

// outMsg is one queued outbound message.
type outMsg struct {
	msg  wire.Message
	done chan struct{}
}

// Peer drives one TCP connection's handshake, liveness, and sync
// request/response cycle. The zero value is not usable; construct one
// with NewOutboundPeer.
type Peer struct {
	addr string
	cfg  *Config
	conn net.Conn

	state atomic.Int32

	userAgent  string
	nonce      uint64
	peerHeight atomic.Int32

	outQueue chan outMsg
	quit     chan struct{}
	quitOnce sync.Once

	// sync cycle state, touched only from inHandler so it needs no lock.
	syncing         bool
	onlyCheckpoints bool
	lastHeaderHash  chainhash.Hash
	lastHeaderSeen  time.Time

	lastRecv atomic.Int64 // unix nanos of last inbound message
}

// NewOutboundPeer constructs a Peer for an outbound connection to addr
// ("host:port"). Call Connect to actually dial and begin the handshake.
func NewOutboundPeer(addr string, cfg *Config) *Peer {
	p := &Peer{
		addr:     addr,
		cfg:      cfg,
		outQueue: make(chan outMsg, 64),
		quit:     make(chan struct{}),
	}
	p.state.Store(int32(StateDisconnected))
	return p
}

// Addr returns the "host:port" this peer connects (or connected) to.
func (p *Peer) Addr() string { return p.addr }

// State returns the peer's current lifecycle state.
func (p *Peer) State() State { return State(p.state.Load()) }

// UserAgent returns the remote peer's advertised user agent, valid once
// past StateVersionAcked.
func (p *Peer) UserAgent() string { return p.userAgent }

// PeerHeight returns the chain height the remote peer advertised in its
// version message, valid once past StateVersionAcked. It is the basis
// for a controller's sync progress estimate, since this client never
// independently knows the network's true tip height.
func (p *Peer) PeerHeight() int32 { return p.peerHeight.Load() }

func (p *Peer) setState(s State) { p.state.Store(int32(s)) }

// Connect dials addr, sends our version message, and starts the
// read/write/ping goroutines. It returns once the TCP connection is
// established; the handshake continues asynchronously and completes
// (or times out) before OnReady/OnDropped fires.
func (p *Peer) Connect() error {
	p.setState(StateConnecting)
	conn, err := net.DialTimeout("tcp", p.addr, p.cfg.handshakeTimeout())
	if err != nil {
		p.setState(StateDisconnected)
		return fmt.Errorf("peer: dial %s: %w", p.addr, err)
	}
	p.conn = conn

	var nonce [8]byte
	_, _ = rand.Read(nonce[:])
	p.nonce = uint64(nonce[0]) | uint64(nonce[1])<<8 | uint64(nonce[2])<<16 | uint64(nonce[3])<<24 |
		uint64(nonce[4])<<32 | uint64(nonce[5])<<40 | uint64(nonce[6])<<48 | uint64(nonce[7])<<56

	go p.outHandler()
	go p.pingHandler()
	go p.inHandler()

	me := wire.NetAddress{Services: p.cfg.Services}
	you := wire.NetAddress{Services: 0}
	version := wire.NewMsgVersion(me, you, p.nonce, 0)
	version.Services = p.cfg.Services
	version.UserAgent = p.cfg.UserAgent
	p.queueMessage(version)
	p.setState(StateVersionSent)

	time.AfterFunc(p.cfg.handshakeTimeout(), func() {
		if p.State() != StateReady && p.State() != StateSyncing {
			p.drop(errTimeout("handshake"))
		}
	})
	return nil
}

type errTimeout string

func (e errTimeout) Error() string { return fmt.Sprintf("peer: %s timeout", string(e)) }

// Disconnect closes the connection and transitions to Dropped with a
// nil reason, matching PeerGroup.stop's idempotent-detach contract.
func (p *Peer) Disconnect() {
	p.drop(nil)
}

func (p *Peer) drop(reason error) {
	if p.State() == StateDropped || p.State() == StateDisconnected {
		return
	}
	p.setState(StateDropped)
	p.quitOnce.Do(func() { close(p.quit) })
	if p.conn != nil {
		p.conn.Close()
	}
	if p.cfg.Events != nil {
		p.cfg.Events.OnDropped(p, reason)
	}
}

// queueMessage enqueues msg for the outHandler goroutine. It never
// blocks the caller's goroutine for long: a full queue indicates a
// stalled connection, which the caller should treat as a drop.
func (p *Peer) queueMessage(msg wire.Message) {
	select {
	case p.outQueue <- outMsg{msg: msg}:
	case <-p.quit:
	default:
		log.Warnf("%s: outbound queue full, dropping peer", p.addr)
		p.drop(errors.New("peer: outbound queue full"))
	}
}

func (p *Peer) outHandler() {
	for {
		select {
		case out := <-p.outQueue:
			if err := wire.WriteMessage(p.conn, out.msg, wire.ProtocolVersion, p.cfg.ChainParams.Net); err != nil {
				p.drop(fmt.Errorf("peer: write: %w", err))
				return
			}
		case <-p.quit:
			return
		}
	}
}

func (p *Peer) pingHandler() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			idleFor := time.Since(time.Unix(0, p.lastRecv.Load()))
			if p.lastRecv.Load() == 0 {
				continue
			}
			if idleFor < p.cfg.idleTimeout() {
				continue
			}
			var nonce [8]byte
			_, _ = rand.Read(nonce[:])
			pingNonce := uint64(nonce[0]) | uint64(nonce[1])<<8 | uint64(nonce[2])<<16 | uint64(nonce[3])<<24
			p.queueMessage(&wire.MsgPing{Nonce: pingNonce})
			deadline := time.Now()
			time.AfterFunc(p.cfg.pongTimeout(), func() {
				if p.lastRecv.Load() < deadline.UnixNano() {
					p.drop(errTimeout("pong"))
				}
			})
		case <-p.quit:
			return
		}
	}
}

func (p *Peer) inHandler() {
	for {
		msg, err := wire.ReadMessage(p.conn, wire.ProtocolVersion, p.cfg.ChainParams.Net)
		if err != nil {
			if err == io.EOF {
				p.drop(errors.New("peer: connection closed"))
			} else {
				p.drop(fmt.Errorf("peer: read: %w", err))
			}
			return
		}
		p.lastRecv.Store(time.Now().UnixNano())

		switch m := msg.(type) {
		case *wire.MsgVersion:
			p.handleVersion(m)
		case *wire.MsgVerAck:
			p.handleVerAck()
		case *wire.MsgPing:
			p.queueMessage(&wire.MsgPong{Nonce: m.Nonce})
		case *wire.MsgPong:
			// lastRecv update above is sufficient to clear the pong
			// deadline check in pingHandler.
		case *wire.MsgHeaders:
			p.handleHeaders(m)
		case *wire.MsgMerkleBlock:
			if p.cfg.Events != nil {
				p.cfg.Events.OnMerkleBlock(p, m)
			}
		case *wire.MsgTx:
			if p.cfg.Events != nil {
				p.cfg.Events.OnTx(p, m)
			}
		case *wire.MsgAddr:
			if p.cfg.Events != nil {
				p.cfg.Events.OnAddr(p, m.AddrList)
			}
		case *wire.MsgReject:
			if p.cfg.Events != nil {
				p.cfg.Events.OnReject(p, m)
			}
		case *wire.MsgUnknown:
			log.Debugf("%s: ignoring unknown command %q", p.addr, m.CommandName)
		default:
			// Known but uninteresting to a client (e.g. getheaders,
			// getdata, inv from the remote side): nothing to do.
		}

		if p.State() == StateDropped {
			return
		}
	}
}

func (p *Peer) handleVersion(v *wire.MsgVersion) {
	p.userAgent = v.UserAgent
	p.peerHeight.Store(v.LastBlock)
	for _, bad := range badUserAgentPrefixes {
		if strings.HasPrefix(v.UserAgent, bad) {
			log.Infof("%s: disconnecting known-bad user agent %q", p.addr, v.UserAgent)
			p.drop(fmt.Errorf("peer: bad user agent %q", v.UserAgent))
			return
		}
	}
	p.queueMessage(&wire.MsgVerAck{})
}

func (p *Peer) handleVerAck() {
	if p.State() != StateVersionSent {
		return
	}
	p.setState(StateVersionAcked)
	p.setState(StateReady)
	if p.cfg.Events != nil {
		p.cfg.Events.OnReady(p)
	}
}

// StartSync installs a bloom filter built from elements, then begins a
// headers-first synchronization walk starting just after latestHash.
// onlyCheckpoints suppresses merkle-block requests, per §4.2. It does
// not filter headers: every batch is still passed to OnHeaders, and
// picking out checkpoint-interval heights happens in the receiver
// (CheckpointSyncer.HandleHeaders).
func (p *Peer) StartSync(elements [][]byte, latestHash chainhash.Hash, latestHeight uint32, onlyCheckpoints bool) error {
	if p.State() != StateReady {
		return fmt.Errorf("peer: cannot start sync from state %s", p.State())
	}
	p.syncing = true
	p.onlyCheckpoints = onlyCheckpoints
	p.lastHeaderHash = latestHash
	p.setState(StateSyncing)

	if len(elements) > 0 {
		filter := bloom.NewFilter(uint32(len(elements)), randomTweak(), 0.00005, wire.BloomUpdateAll)
		for _, e := range elements {
			filter.Add(e)
		}
		p.queueMessage(filter.MsgFilterLoad())
	}

	p.requestHeaders(latestHash)
	return nil
}

func randomTweak() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (p *Peer) requestHeaders(locator chainhash.Hash) {
	gh := wire.NewMsgGetHeaders()
	gh.AddBlockLocatorHash(locator)
	p.queueMessage(gh)
}

// RequestHeaders issues a getheaders request rooted at locator. It is
// exported so a Sync Controller can force a realignment when it detects
// a headers batch that does not extend its own stored tip,
// independent of this peer's own (purely syntactic) continuity check.
func (p *Peer) RequestHeaders(locator chainhash.Hash) {
	p.requestHeaders(locator)
}

// handleHeaders validates a headers batch's prev_hash linkage against
// the last header this peer has seen, reports it to the controller, and
// (unless in checkpoint-only mode) requests a filtered merkle-block for
// every header in the batch. A discontinuous batch is dropped and the
// peer re-requests from its last known-good hash instead of advancing.
func (p *Peer) handleHeaders(m *wire.MsgHeaders) {
	if len(m.Headers) == 0 {
		// Tip reached: nothing more to request. Still forward the empty
		// batch to the controller — it is the "caught up" signal a Sync
		// Controller (and CheckpointSyncer.onFinish) listens for.
		if p.cfg.Events != nil {
			p.cfg.Events.OnHeaders(p, nil)
		}
		if p.onlyCheckpoints {
			p.setState(StateReady)
		}
		return
	}

	prev := p.lastHeaderHash
	for i, h := range m.Headers {
		if i == 0 && prev != (chainhash.Hash{}) && h.PrevBlock != prev {
			log.Warnf("%s: headers batch discontinuous at %s, re-requesting from %s",
				p.addr, h.PrevBlock, prev)
			p.requestHeaders(prev)
			return
		}
		if i > 0 && h.PrevBlock != m.Headers[i-1].BlockHash() {
			log.Warnf("%s: headers batch internally discontinuous, re-requesting from %s",
				p.addr, prev)
			p.requestHeaders(prev)
			return
		}
	}

	last := m.Headers[len(m.Headers)-1]
	p.lastHeaderHash = last.BlockHash()
	p.lastHeaderSeen = time.Now()

	if p.cfg.Events != nil {
		hdrs := make([]wire.BlockHeader, len(m.Headers))
		for i, h := range m.Headers {
			hdrs[i] = *h
		}
		p.cfg.Events.OnHeaders(p, hdrs)
	}

	if !p.onlyCheckpoints {
		for _, h := range m.Headers {
			gd := wire.NewMsgGetData()
			gd.AddInvVect(&wire.InvVect{Type: wire.InvTypeFilteredBlock, Hash: h.BlockHash()})
			p.queueMessage(gd)
		}
	}

	if len(m.Headers) == wire.MaxBlockHeadersPerMsg {
		p.requestHeaders(p.lastHeaderHash)
	} else if p.onlyCheckpoints {
		p.setState(StateReady)
	}
}

// SendTransaction relays tx to this peer.
func (p *Peer) SendTransaction(tx *wire.MsgTx) error {
	if p.State() == StateDropped || p.State() == StateDisconnected {
		return errors.New("peer: not connected")
	}
	p.queueMessage(tx)
	return nil
}
