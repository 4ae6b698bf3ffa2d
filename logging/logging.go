// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logging wires a single rotating log file to every package's
// slog.Logger in one call, for embedding applications that want file
// output without hand-rolling their own slog.Backend. Using it is
// optional: every package defaults to slog.Disabled and accepts its own
// UseLogger call directly, exactly as the rest of the library's
// packages do.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/EXCCoin/exccspv/chainsync"
	"github.com/EXCCoin/exccspv/peer"
	"github.com/EXCCoin/exccspv/peergroup"
	"github.com/EXCCoin/exccspv/store"
	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// subsystems lists the package-level loggers this module knows how to
// set, keyed by the short tag used in log lines.
type subsystem struct {
	tag string
	use func(slog.Logger)
}

var subsystems = []subsystem{
	{"PEER", peer.UseLogger},
	{"PGRP", peergroup.UseLogger},
	{"SYNC", chainsync.UseLogger},
	{"STOR", store.UseLogger},
}

// InitLogRotator creates (or appends to) a rotating log file at path and
// points every package's logger at it, at the given level. It returns a
// closer that should be called on shutdown to flush and close the file.
func InitLogRotator(path string, level slog.Level) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	r, err := rotator.New(path, 10*1024, false, 8)
	if err != nil {
		return nil, fmt.Errorf("logging: init log rotator: %w", err)
	}

	backend := slog.NewBackend(r)
	for _, s := range subsystems {
		logger := backend.Logger(s.tag)
		logger.SetLevel(level)
		s.use(logger)
	}

	return r.Close, nil
}
