// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

import (
	"sync"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
)

// ClientState is the mutable, singleton trusted state (spec.md §3). The
// verifier task is its sole writer; the polling task only reads it, to
// compare epochs, so the guarded section never spans a suspension point
// that can block on the network (spec.md §5).
type ClientState struct {
	mu    sync.Mutex
	state trustedstate.TrustedState
}

// NewClientState seeds a ClientState with the state installed during
// initialization (spec.md §4.6).
func NewClientState(initial trustedstate.TrustedState) *ClientState {
	return &ClientState{state: initial}
}

// Epoch reads the current epoch number. ok is false only if the
// underlying trusted state carries no epoch at all, which the pipeline
// treats as ErrInvariantBroken — it must never happen once
// initialization has completed.
func (c *ClientState) Epoch() (epoch uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Epoch()
}

// Get returns a copy of the current trusted state.
func (c *ClientState) Get() trustedstate.TrustedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Set installs a new trusted state. Only the verifier task calls this,
// and only after a successful epoch-change verification.
func (c *ClientState) Set(s trustedstate.TrustedState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// VerifierState is the mutable, singleton pair (committee_hash,
// state_root) (spec.md §3). It is owned exclusively by the verifier
// task's goroutine and carries no lock: nothing else ever touches it.
type VerifierState struct {
	CommitteeHash hashvalue.HashValue
	StateRoot     hashvalue.HashValue
}
