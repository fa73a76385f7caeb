// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

// Semaphore is a single-slot admission token (spec.md §4.5, §5, §9): a
// capacity-1 counting primitive that the polling loop tries to acquire
// without blocking, and that travels with a task through the queue
// until the verifier releases it on every completion path — success,
// rejection, or error.
type Semaphore struct {
	slot chan struct{}
}

// NewSemaphore returns a Semaphore with its single slot available.
func NewSemaphore() *Semaphore {
	s := &Semaphore{slot: make(chan struct{}, 1)}
	s.slot <- struct{}{}
	return s
}

// TryAcquire attempts to take the slot, returning false immediately if
// it is already held. The polling loop never blocks on this call.
func (s *Semaphore) TryAcquire() bool {
	select {
	case <-s.slot:
		return true
	default:
		return false
	}
}

// Release returns the slot. It is safe to call even if the slot is
// already free (defensive against double-release on unusual error
// paths); it will not block or panic.
func (s *Semaphore) Release() {
	select {
	case s.slot <- struct{}{}:
	default:
	}
}
