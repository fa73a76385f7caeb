// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

import (
	"errors"

	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
)

// ErrRatchetMismatch is pipeline.errors' name for trustedstate's ratchet
// failure, re-exported so callers only need to import this package's
// error taxonomy (spec.md §7 RatchetMismatch).
var ErrRatchetMismatch = trustedstate.ErrRatchetMismatch

// ErrTransport wraps a network or framing failure talking to the Aptos
// node or proof server. Policy: log, abort the current task, release
// its token, let the next poll retry.
var ErrTransport = errors.New("pipeline: transport failure")

// ErrDecode wraps a malformed response payload. Same policy as
// ErrTransport.
var ErrDecode = errors.New("pipeline: decode failure")

// ErrVerifierRejected is returned when the proof server's Verify*
// response is the failure byte.
var ErrVerifierRejected = errors.New("pipeline: proof server rejected proof")

// ErrCommitteeHashMismatch is returned when a proof's leading
// committee-hash public value does not match the verifier's trusted
// committee hash. The task is dropped; no state is mutated.
var ErrCommitteeHashMismatch = errors.New("pipeline: committee hash mismatch")

// ErrInvariantBroken marks a condition the pipeline's design assumes
// can never happen in a correctly-running process: a trusted state with
// no epoch, or a verification performed out of the order §4.6 requires.
// It is fatal: the caller of Run is expected to exit the process.
var ErrInvariantBroken = errors.New("pipeline: invariant broken")

// ErrJoin marks a background task that failed to complete due to an
// unrecovered panic. It is fatal, same as ErrInvariantBroken.
var ErrJoin = errors.New("pipeline: background task failed")
