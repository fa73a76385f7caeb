// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

import (
	"github.com/google/uuid"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
)

// TaskKind tags the two task classes the pipeline schedules.
type TaskKind int

const (
	TaskEpochChange TaskKind = iota
	TaskInclusion
)

func (k TaskKind) String() string {
	switch k {
	case TaskEpochChange:
		return "epoch-change"
	case TaskInclusion:
		return "inclusion"
	default:
		return "unknown"
	}
}

// epochChangeResult is what an epoch-change proving task resolves to.
// Ratcheted and PriorCommitteeHash are precomputed locally (spec.md
// §4.5 "Proving task internals") so the verifier never has to re-derive
// the next trusted state from proof outputs.
type epochChangeResult struct {
	Ratcheted          trustedstate.TrustedState
	PriorCommitteeHash hashvalue.HashValue
	Proof              *protocol.Proof
	Err                error
}

// inclusionResult is what an inclusion proving task resolves to.
type inclusionResult struct {
	Proof *protocol.Proof
	Err   error
}

// task is the message carried on the pipeline's queue: a class tag, the
// admission token acquired to produce it, and a channel the matching
// proving goroutine will deliver exactly one result on. Exactly one of
// epochDone/inclusionDone is non-nil, matching Kind.
type task struct {
	id            string
	kind          TaskKind
	token         *Semaphore
	epochDone     chan epochChangeResult
	inclusionDone chan inclusionResult
}

// newTaskID generates a correlation id logged alongside every stage of
// a task's lifetime, from admission through verification.
func newTaskID() string {
	return uuid.NewString()
}
