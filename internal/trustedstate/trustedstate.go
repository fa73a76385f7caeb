// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package trustedstate implements the client's trusted-state ratchet
// discipline (spec.md §4.4): a tagged union over "anchored at an epoch
// boundary" and "anchored mid-epoch", plus the deterministic ratchet
// operation that advances it across an epoch-change witness.
//
// Ratcheting here is intentionally cheap and non-cryptographic: the
// remote zk proof is what actually attests that the ratchet holds (its
// public values are the prev/new committee hashes); this package just
// recomputes the resulting state locally so the verifier task doesn't
// have to decode a full state back out of the proof (see spec.md §4.4
// rationale).
package trustedstate

import (
	"errors"
	"fmt"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
)

// Kind tags the TrustedState variants.
type Kind int

const (
	// KindEpochState anchors trust at an epoch boundary: the client
	// knows the committee authoritative for Epoch.
	KindEpochState Kind = iota
	// KindLedgerInfo anchors trust at an arbitrary ledger info mid
	// epoch. The core never ratchets across this variant directly, and
	// the pipeline never constructs it: its bootstrap state is a
	// KindEpochState value with a zero committee hash.
	KindLedgerInfo
)

// Waypoint is a compact digest of a reconfiguration ledger info, used as
// a starting anchor (GLOSSARY).
type Waypoint struct {
	Version uint64
	Value   hashvalue.HashValue
}

// NewWaypoint derives a waypoint from a ledger info the way
// Waypoint::new_any does in the upstream core: it commits to the
// version and a hash of the ledger info's identifying fields.
func NewWaypoint(li ledgerinfo.LedgerInfo) Waypoint {
	value := hashvalue.HashDomain("Waypoint",
		uint64Bytes(li.Epoch),
		uint64Bytes(li.Version),
		li.AccumulatorRoot[:],
	)
	return Waypoint{Version: li.Version, Value: value}
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// TrustedState is the tagged union described in spec.md §3.
type TrustedState struct {
	kind       Kind
	waypoint   Waypoint
	epochState ledgerinfo.EpochState
	ledger     ledgerinfo.LedgerInfo
}

// NewEpochState constructs the EpochState variant.
func NewEpochState(waypoint Waypoint, epochState ledgerinfo.EpochState) TrustedState {
	return TrustedState{kind: KindEpochState, waypoint: waypoint, epochState: epochState}
}

// NewLedgerInfoState constructs the mid-epoch variant.
func NewLedgerInfoState(li ledgerinfo.LedgerInfo) TrustedState {
	return TrustedState{kind: KindLedgerInfo, ledger: li}
}

// Kind reports which variant ts holds.
func (ts TrustedState) Kind() Kind {
	return ts.kind
}

// Epoch returns the current epoch number, or ok=false if this state
// carries no epoch. The core treats ok=false for its own ClientState as
// a fatal invariant break (spec.md §4.4, §7 InvariantBroken) — it is
// exposed as a bool here rather than panicking so callers can choose how
// to react.
func (ts TrustedState) Epoch() (epoch uint64, ok bool) {
	switch ts.kind {
	case KindEpochState:
		return ts.epochState.Epoch, true
	case KindLedgerInfo:
		return ts.ledger.Epoch, true
	default:
		return 0, false
	}
}

// EpochState returns the committee snapshot for the EpochState variant.
// It panics if called on a different variant; callers must check Kind()
// first, mirroring the upstream Rust match-or-panic discipline.
func (ts TrustedState) EpochState() ledgerinfo.EpochState {
	if ts.kind != KindEpochState {
		panic("trustedstate: EpochState called on non-epoch variant")
	}
	return ts.epochState
}

// Waypoint returns the waypoint anchoring this state.
func (ts TrustedState) Waypoint() Waypoint {
	return ts.waypoint
}

// ChangeKind tags the TrustedStateChange variants.
type ChangeKind int

const (
	// ChangeEpoch is the only variant the core accepts: the witness
	// ratcheted across (at least) one epoch boundary.
	ChangeEpoch ChangeKind = iota
	// ChangeNone means the witness did not advance the epoch at all
	// (empty proof, or the proof's tail is not a reconfiguration
	// block). The core treats this as a ratchet failure.
	ChangeNone
)

// TrustedStateChange is the result of ratcheting a TrustedState with a
// witness (spec.md §3).
type TrustedStateChange struct {
	Kind     ChangeKind
	NewState TrustedState
}

// ErrRatchetMismatch is returned when Ratchet cannot produce an Epoch
// change (spec.md §7 RatchetMismatch).
var ErrRatchetMismatch = errors.New("trustedstate: ratchet did not produce an epoch change")

// ErrEpochDiscontinuity is returned when the witness's ledger infos do
// not chain contiguous epochs starting at ts's own epoch.
var ErrEpochDiscontinuity = errors.New("trustedstate: epoch-change proof is not contiguous with trusted state")

// Ratchet applies an epoch-change witness to ts, returning the new
// trusted state. Only a witness whose final entry carries a
// NextEpochState produces ChangeEpoch; anything else is a ratchet
// failure the core logs and drops (spec.md §4.5 step 2a-b).
func (ts TrustedState) Ratchet(witness ledgerinfo.EpochChangeProof) (TrustedStateChange, error) {
	curEpoch, ok := ts.Epoch()
	if !ok {
		return TrustedStateChange{}, fmt.Errorf("trustedstate: ratchet: %w", ErrRatchetMismatch)
	}

	if len(witness.LedgerInfos) == 0 {
		return TrustedStateChange{Kind: ChangeNone}, ErrRatchetMismatch
	}

	expectedEpoch := curEpoch
	for _, li := range witness.LedgerInfos {
		if li.Info.Epoch != expectedEpoch {
			return TrustedStateChange{}, fmt.Errorf("%w: expected epoch %d, got %d", ErrEpochDiscontinuity, expectedEpoch, li.Info.Epoch)
		}
		expectedEpoch++
	}

	last := witness.LedgerInfos[len(witness.LedgerInfos)-1]
	if !last.Info.HasNextEpochState() {
		return TrustedStateChange{Kind: ChangeNone}, ErrRatchetMismatch
	}

	newWaypoint := NewWaypoint(last.Info)
	newState := NewEpochState(newWaypoint, *last.Info.NextEpochState)

	return TrustedStateChange{Kind: ChangeEpoch, NewState: newState}, nil
}
