// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peergroup

import "github.com/decred/slog"

var log = slog.Disabled

// UseLogger sets the logger used by the peergroup package.
func UseLogger(logger slog.Logger) {
	log = logger
}
