// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addr recovers payer/payee addresses from the script shapes the
// indexer actually needs to understand. It is never used for script
// validation; an unrecognized shape simply yields no address.
package addr

import (
	"crypto/sha256"
	"errors"

	"github.com/EXCCoin/base58"
	"golang.org/x/crypto/ripemd160"
)

// ErrChecksumMismatch is returned by DecodeBase58Check when the trailing
// four checksum bytes don't match the payload.
var ErrChecksumMismatch = errors.New("addr: base58check checksum mismatch")

// ErrInvalidFormat is returned when a decoded base58check string is too
// short to contain a version byte, payload, and checksum.
var ErrInvalidFormat = errors.New("addr: invalid base58check format")

// Hash160 returns ripemd160(sha256(b)), the payload committed to by a
// P2PKH or P2SH address.
func Hash160(b []byte) []byte {
	first := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(first[:])
	return h.Sum(nil)
}

func checksum(b []byte) [4]byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	var cksum [4]byte
	copy(cksum[:], second[:4])
	return cksum
}

// EncodeBase58Check prepends version to payload, appends a double-SHA-256
// checksum, and base58-encodes the result.
func EncodeBase58Check(version byte, payload []byte) string {
	b := make([]byte, 0, 1+len(payload)+4)
	b = append(b, version)
	b = append(b, payload...)
	cksum := checksum(b)
	b = append(b, cksum[:]...)
	return base58.Encode(b)
}

// DecodeBase58Check reverses EncodeBase58Check, validating the checksum.
func DecodeBase58Check(encoded string) (version byte, payload []byte, err error) {
	decoded := base58.Decode(encoded)
	if len(decoded) < 5 {
		return 0, nil, ErrInvalidFormat
	}
	body := decoded[:len(decoded)-4]
	want := checksum(body)
	var got [4]byte
	copy(got[:], decoded[len(decoded)-4:])
	if got != want {
		return 0, nil, ErrChecksumMismatch
	}
	return body[0], body[1:], nil
}
