// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package oracle defines the proof-server facade the pipeline proves and
// verifies against (spec.md §2, §6): an opaque backend that can produce
// a Proof for an epoch-change or inclusion witness, and check a
// previously-produced Proof. Two implementations live in subpackages:
// rpcoracle dials a remote proof server over the framed transport, and
// localgroth16 is an in-process reference oracle for running the client
// without one.
package oracle

import (
	"context"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
)

// ProofOracle is the facade the pipeline's proving and verifying tasks
// call through. Every method may block on network I/O or proof
// computation; callers are expected to run them on their own goroutine
// and respect ctx cancellation.
type ProofOracle interface {
	// ProveEpochChange produces a proof that witness ratchets the
	// committee starting at prev forward, with public values
	// (prev_committee_hash, new_committee_hash). prev is the client's
	// current trusted committee, needed because the signer set a
	// ledger info's aggregate signature attests to is implicit context,
	// not part of the canonical ledger info bytes themselves.
	ProveEpochChange(ctx context.Context, prev ledgerinfo.EpochState, witness ledgerinfo.EpochChangeProof) (*protocol.Proof, error)

	// VerifyEpochChange checks a proof previously returned by
	// ProveEpochChange.
	VerifyEpochChange(ctx context.Context, proof *protocol.Proof) error

	// ProveInclusion produces a proof that witness's account is included
	// in the state tree rooted by its ledger info, under the committee
	// committee, with public values (committee_hash, state_root, ...).
	ProveInclusion(ctx context.Context, committee ledgerinfo.EpochState, witness ledgerinfo.InclusionWitness) (*protocol.Proof, error)

	// VerifyInclusion checks a proof previously returned by
	// ProveInclusion.
	VerifyInclusion(ctx context.Context, proof *protocol.Proof) error
}
