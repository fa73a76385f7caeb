// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package logging wires the leveled, structured logger used across the
// light client. It wraps cometbft's libs/log the way the wider example
// corpus does: a TMLogger over a sync writer, filtered to a configured
// level.
package logging

import (
	"fmt"
	"os"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// New builds a Logger writing to stdout, filtered to level (one of
// "debug", "info", "error", or "none"). An unrecognized level falls back
// to "info" rather than failing startup over a typo in an env var.
func New(level string) cmtlog.Logger {
	base := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	opt, err := cmtlog.AllowLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: unrecognized level %q, defaulting to info\n", level)
		opt, _ = cmtlog.AllowLevel("info")
	}
	return cmtlog.NewFilter(base, opt)
}
