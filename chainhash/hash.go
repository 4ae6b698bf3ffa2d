// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the 32-byte double-SHA-256 identifier used
// throughout the wire protocol and the index to name blocks and
// transactions.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes in the array used to store a hash.
const HashSize = 32

// ErrHashStrSize describes an error that indicates the caller specified a
// hash string that does not have the right number of characters.
type ErrHashStrSize struct {
	got int
}

func (e ErrHashStrSize) Error() string {
	return fmt.Sprintf("hash string has invalid length %d, want %d", e.got, HashSize*2)
}

// Hash is used in several of the bitcoin messages and common structures. It
// typically represents the double sha256 of data.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash, matching the display convention used by block explorers and RPC
// interfaces.
func (h Hash) String() string {
	var reversed Hash
	for i := 0; i < HashSize/2; i++ {
		reversed[i], reversed[HashSize-1-i] = h[HashSize-1-i], h[i]
	}
	return hex.EncodeToString(reversed[:])
}

// CloneBytes returns a newly allocated copy of the bytes, in the natural
// (non-reversed) byte order used for on-disk and wire representation.
func (h Hash) CloneBytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// IsEqual returns true if target is the same as the hash.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// SetBytes sets the bytes which represent the hash. An error is returned if
// the number of bytes passed in is not HashSize.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("invalid hash length of %d, want %d", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// NewHash returns a new Hash from a byte slice in natural byte order.
func NewHash(newHash []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewHashFromStr creates a Hash from a hash string. The string should be
// the reversed hex-encoded bytes as produced by String.
func NewHashFromStr(hash string) (*Hash, error) {
	if len(hash) != HashSize*2 {
		return nil, ErrHashStrSize{got: len(hash)}
	}
	buf, err := hex.DecodeString(hash)
	if err != nil {
		return nil, err
	}
	var h Hash
	for i := 0; i < HashSize; i++ {
		h[i] = buf[HashSize-1-i]
	}
	return &h, nil
}

// HashB calculates the double sha256 hash of the passed byte slice and
// returns it as a byte slice.
func HashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// HashH calculates the double sha256 hash of the passed byte slice and
// returns it as a Hash.
func HashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}
