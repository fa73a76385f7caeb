// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package pipeline implements the client's concurrent proof pipeline
// (spec.md §4.5): a polling loop that dispatches admission-controlled
// proving tasks, and a single verifier task that drains them in strict
// submission order, ratcheting the trusted state across epoch
// boundaries as epoch-change proofs verify.
package pipeline

import (
	"context"
	"fmt"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"golang.org/x/sync/errgroup"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/metrics"
	"github.com/samuelburnham/zk-light-clients/internal/oracle"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
)

// LedgerFetcher is the subset of aptosclient.Client the pipeline
// depends on. Defined here, implemented there, so tests can substitute
// a fake Aptos node without a network.
type LedgerFetcher interface {
	FetchLedgerInfo(ctx context.Context) (ledgerinfo.LedgerInfoWithSignatures, error)
	FetchEpochChangeProof(ctx context.Context, fromEpoch uint64) (ledgerinfo.EpochChangeProof, error)
	FetchInclusionWitness(ctx context.Context, addr [32]byte) (ledgerinfo.InclusionWitness, error)
}

// Pipeline owns the polling loop, the verifier task, and the shared
// state and admission tokens between them.
type Pipeline struct {
	fetcher      LedgerFetcher
	oracle       oracle.ProofOracle
	account      [32]byte
	pollInterval time.Duration
	log          cmtlog.Logger
	metrics      *metrics.Metrics

	clientState    *ClientState
	verifierState  VerifierState
	epochToken     *Semaphore
	inclusionToken *Semaphore
	queue          chan *task
}

// New builds a Pipeline. Call Init before Run; Run assumes
// initialization (spec.md §4.6) has already installed a ClientState.
func New(fetcher LedgerFetcher, oc oracle.ProofOracle, account [32]byte, pollInterval time.Duration, queueCapacity int, logger cmtlog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:        fetcher,
		oracle:         oc,
		account:        account,
		pollInterval:   pollInterval,
		log:            logger,
		metrics:        m,
		epochToken:     NewSemaphore(),
		inclusionToken: NewSemaphore(),
		queue:          make(chan *task, queueCapacity),
	}
}

// Init performs the bootstrap sequence (spec.md §4.6): fetch the
// node's current epoch, prove an epoch-change witness and an inclusion
// witness in parallel, verify the two proofs one after the other (epoch
// change first), and install the resulting ClientState and
// VerifierState. There is no prior trusted committee to check the
// epoch-change proof's prev_committee_hash against on cold start, so
// that check is skipped here only; every later verification performs it
// (the open question in spec.md §9 about out-of-order init is resolved
// by this method owning the *entire* bootstrap sequence, so no
// inclusion proof can ever verify before the epoch-change proof has).
func (p *Pipeline) Init(ctx context.Context) error {
	li, err := p.fetcher.FetchLedgerInfo(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: init: fetch ledger info: %w", err)
	}
	nodeEpoch := li.Info.Epoch
	if nodeEpoch == 0 {
		return fmt.Errorf("%w: node reports epoch 0, nothing to bootstrap from", ErrInvariantBroken)
	}

	priorEpochState := ledgerinfo.EpochState{Epoch: nodeEpoch - 1, VerifierHash: hashvalue.Zero}
	bootstrap := trustedstate.NewEpochState(trustedstate.Waypoint{}, priorEpochState)

	epochWitness, err := p.fetcher.FetchEpochChangeProof(ctx, nodeEpoch-1)
	if err != nil {
		return fmt.Errorf("pipeline: init: fetch epoch-change witness: %w", err)
	}
	change, err := bootstrap.Ratchet(epochWitness)
	if err != nil {
		return fmt.Errorf("%w: init ratchet: %v", ErrInvariantBroken, err)
	}
	ratchetedState := change.NewState
	// The new committee's hash is public in the witness itself (it is
	// whatever the witness's closing ledger info names as
	// NextEpochState), not something only the epoch-change proof
	// reveals, so the inclusion proof can be produced against it in
	// parallel with the epoch-change proof rather than waiting on it.
	newCommittee := ratchetedState.EpochState()

	var epochProof, inclusionProof *protocol.Proof

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		proof, err := p.oracle.ProveEpochChange(gctx, priorEpochState, epochWitness)
		if err != nil {
			return fmt.Errorf("pipeline: init: prove epoch change: %w", err)
		}
		epochProof = proof
		return nil
	})
	g.Go(func() error {
		witness, err := p.fetcher.FetchInclusionWitness(gctx, p.account)
		if err != nil {
			return fmt.Errorf("pipeline: init: fetch inclusion witness: %w", err)
		}
		proof, err := p.oracle.ProveInclusion(gctx, newCommittee, witness)
		if err != nil {
			return fmt.Errorf("pipeline: init: prove inclusion: %w", err)
		}
		inclusionProof = proof
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	prevHash, err := epochProof.ReadHash()
	if err != nil {
		return fmt.Errorf("%w: init: reading prev committee hash: %v", ErrDecode, err)
	}
	newHash, err := epochProof.ReadHash()
	if err != nil {
		return fmt.Errorf("%w: init: reading new committee hash: %v", ErrDecode, err)
	}
	p.verifierState = VerifierState{CommitteeHash: prevHash, StateRoot: hashvalue.Zero}

	if err := p.oracle.VerifyEpochChange(ctx, epochProof); err != nil {
		return fmt.Errorf("%w: init: epoch-change proof rejected: %v", ErrVerifierRejected, err)
	}
	p.verifierState.CommitteeHash = newHash

	if err := p.oracle.VerifyInclusion(ctx, inclusionProof); err != nil {
		return fmt.Errorf("%w: init: inclusion proof rejected: %v", ErrVerifierRejected, err)
	}
	committeeHash, err := inclusionProof.ReadHash()
	if err != nil {
		return fmt.Errorf("%w: init: reading inclusion committee hash: %v", ErrDecode, err)
	}
	if !committeeHash.Equal(p.verifierState.CommitteeHash) {
		return fmt.Errorf("%w: init: inclusion proof committee hash does not match bootstrap epoch-change proof", ErrCommitteeHashMismatch)
	}
	stateRoot, err := inclusionProof.ReadHash()
	if err != nil {
		return fmt.Errorf("%w: init: reading state root: %v", ErrDecode, err)
	}
	p.verifierState.StateRoot = stateRoot

	p.clientState = NewClientState(ratchetedState)
	if p.metrics != nil {
		p.metrics.CurrentEpoch.Set(float64(nodeEpoch))
	}
	p.log.Info("pipeline initialized", "epoch", nodeEpoch, "committee_hash", p.verifierState.CommitteeHash)
	return nil
}

// Run starts the polling loop and the verifier task and blocks until
// ctx is cancelled or one of them returns a fatal error
// (ErrInvariantBroken, ErrJoin).
func (p *Pipeline) Run(ctx context.Context) error {
	if p.clientState == nil {
		return fmt.Errorf("%w: Run called before Init", ErrInvariantBroken)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.pollLoop(gctx) })
	g.Go(func() error { return p.verifyLoop(gctx) })
	return g.Wait()
}
