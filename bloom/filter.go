// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bloom implements the BIP37 bloom filter a peer installs to
// limit itself to transactions of interest, and the companion partial
// merkle tree used to prove a matched transaction's inclusion in a
// block without downloading the block in full.
package bloom

import (
	"math"

	"github.com/EXCCoin/exccspv/chainhash"
	"github.com/EXCCoin/exccspv/wire"
	"github.com/spaolacci/murmur3"
)

const (
	// ln2Squared is used in the standard BIP37 sizing formula.
	ln2Squared = 0.4804530139182014246671025263266649717305529515945455

	// ln2 is used in the standard BIP37 sizing formula.
	ln2 = 0.6931471805599453094172321214581765680755001343602552

	// maxFilterBits is the largest a filter's bit array is allowed to
	// grow to, matching the wire-level maxFilterLoadFilterSize (in
	// bytes) times 8.
	maxFilterBits = 36000 * 8

	// maxHashFuncs bounds the number of hash rounds a filter may use.
	maxHashFuncs = 50
)

// Filter defines a bloom filter that is used to only relay transactions
// to a peer that match the entries registered with the filter. It
// implements the probabilistic filter described by BIP0037.
type Filter struct {
	bits      []byte
	hashFuncs uint32
	tweak     uint32
	flags     wire.BloomUpdateType
}

// NewFilter creates a new bloom filter sized for n elements with false
// positive rate p, per the standard BIP37 formulas:
//
//	m = -1/ln(2)^2 * n * ln(p)   (bits)
//	k = m/n * ln(2)              (hash functions)
func NewFilter(n uint32, tweak uint32, p float64, flags wire.BloomUpdateType) *Filter {
	if p > 1.0 {
		p = 1.0
	}
	if p < 1e-9 {
		p = 1e-9
	}

	bitsCount := uint32(-1 * float64(n) * math.Log(p) / ln2Squared)
	if bitsCount > maxFilterBits {
		bitsCount = maxFilterBits
	}
	if bitsCount == 0 {
		bitsCount = 8
	}
	// Round up to a whole number of bytes.
	byteCount := (bitsCount + 7) / 8
	bitsCount = byteCount * 8

	hashFuncs := uint32(float64(byteCount*8) / float64(n) * ln2)
	if hashFuncs > maxHashFuncs {
		hashFuncs = maxHashFuncs
	}
	if hashFuncs == 0 {
		hashFuncs = 1
	}

	return &Filter{
		bits:      make([]byte, byteCount),
		hashFuncs: hashFuncs,
		tweak:     tweak,
		flags:     flags,
	}
}

// LoadFilter reconstructs a Filter from the fields of a received
// filterload message.
func LoadFilter(msg *wire.MsgFilterLoad) *Filter {
	return &Filter{
		bits:      append([]byte(nil), msg.Filter...),
		hashFuncs: msg.HashFuncs,
		tweak:     msg.Tweak,
		flags:     msg.Flags,
	}
}

// hash computes the BIP37 murmur3 hash for the hashNum'th round.
func (f *Filter) hash(hashNum uint32, data []byte) uint32 {
	seed := hashNum*0xfba4c795 + f.tweak
	return murmur3.Sum32WithSeed(data, seed)
}

func (f *Filter) setBit(idx uint32) {
	f.bits[idx>>3] |= 1 << (idx & 7)
}

func (f *Filter) isBitSet(idx uint32) bool {
	return f.bits[idx>>3]&(1<<(idx&7)) != 0
}

// Add inserts data into the filter.
func (f *Filter) Add(data []byte) {
	if len(f.bits) == 0 {
		return
	}
	bitsLen := uint32(len(f.bits)) * 8
	for i := uint32(0); i < f.hashFuncs; i++ {
		idx := f.hash(i, data) % bitsLen
		f.setBit(idx)
	}
}

// AddHash inserts a chainhash.Hash into the filter, in its natural byte
// order.
func (f *Filter) AddHash(hash *chainhash.Hash) {
	f.Add(hash[:])
}

// AddOutPoint inserts a serialized outpoint (tx hash || index) into the
// filter, used to match spends of a previously-seen output.
func (f *Filter) AddOutPoint(op *wire.OutPoint) {
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, op.Hash[:])
	buf[32] = byte(op.Index)
	buf[33] = byte(op.Index >> 8)
	buf[34] = byte(op.Index >> 16)
	buf[35] = byte(op.Index >> 24)
	f.Add(buf)
}

// Matches reports whether data is (probabilistically) a member of the
// filter. An empty filter matches nothing.
func (f *Filter) Matches(data []byte) bool {
	if len(f.bits) == 0 {
		return false
	}
	bitsLen := uint32(len(f.bits)) * 8
	for i := uint32(0); i < f.hashFuncs; i++ {
		idx := f.hash(i, data) % bitsLen
		if !f.isBitSet(idx) {
			return false
		}
	}
	return true
}

// MatchesHash is a convenience wrapper around Matches for a chainhash.Hash.
func (f *Filter) MatchesHash(hash *chainhash.Hash) bool {
	return f.Matches(hash[:])
}

// UpdateType reports the filter's configured BloomUpdateType.
func (f *Filter) UpdateType() wire.BloomUpdateType {
	return f.flags
}

// MsgFilterLoad renders the filter as a wire filterload message.
func (f *Filter) MsgFilterLoad() *wire.MsgFilterLoad {
	return &wire.MsgFilterLoad{
		Filter:    append([]byte(nil), f.bits...),
		HashFuncs: f.hashFuncs,
		Tweak:     f.tweak,
		Flags:     f.flags,
	}
}

// IsEmpty reports whether the filter has no bits allocated, matching
// nothing by construction.
func (f *Filter) IsEmpty() bool {
	return len(f.bits) == 0
}
