// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import "github.com/decred/slog"

// log is the package-level logger used by Peer. It is a no-op sink until
// the consuming application calls UseLogger.
var log = slog.Disabled

// UseLogger sets the logger used by the peer package. Calling it after
// any Peer has been started is safe but only affects subsequent log
// statements.
func UseLogger(logger slog.Logger) {
	log = logger
}
