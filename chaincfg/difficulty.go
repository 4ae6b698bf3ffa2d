// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "math/big"

// CompactToBig decodes a block header's compact "bits" difficulty
// representation into the full target it represents, using the same
// base-256 mantissa/exponent encoding the teacher's own
// blockchain/difficulty.go consumes via its standalone package. That
// package's source was not available to copy from directly, so the
// decode is reimplemented here, the one place this library needs it.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := uint(bits >> 24)

	var target big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target.SetInt64(int64(mantissa))
	} else {
		target.SetInt64(int64(mantissa))
		target.Lsh(&target, 8*(exponent-3))
	}

	if mantissa != 0 && bits&0x00800000 != 0 {
		target.Neg(&target)
	}
	return &target
}
