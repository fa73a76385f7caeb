// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
)

// pollLoop is the single producer (spec.md §4.5): on every tick it
// checks the Aptos node's epoch against the client's trusted epoch and
// tries to admit a proving task per class. Admission failures (the
// token already held) are silent; the next tick retries.
func (p *Pipeline) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) pollOnce(ctx context.Context) error {
	li, err := p.fetcher.FetchLedgerInfo(ctx)
	if err != nil {
		p.log.Error("poll: fetch ledger info failed", "err", fmt.Errorf("%w: %v", ErrTransport, err))
		return nil
	}
	nodeEpoch := li.Info.Epoch

	current := p.clientState.Get()
	clientEpoch, ok := current.Epoch()
	if !ok {
		return fmt.Errorf("%w: client state carries no epoch", ErrInvariantBroken)
	}

	if nodeEpoch != clientEpoch && p.epochToken.TryAcquire() {
		prior := current.EpochState()
		t := &task{id: newTaskID(), kind: TaskEpochChange, token: p.epochToken, epochDone: make(chan epochChangeResult, 1)}
		p.log.Debug("admitted epoch-change proving task", "task_id", t.id, "node_epoch", nodeEpoch)
		go p.proveEpochChange(ctx, prior, t)
		if err := p.enqueue(ctx, t); err != nil {
			return err
		}
	}

	if p.inclusionToken.TryAcquire() {
		committee := current.EpochState()
		t := &task{id: newTaskID(), kind: TaskInclusion, token: p.inclusionToken, inclusionDone: make(chan inclusionResult, 1)}
		p.log.Debug("admitted inclusion proving task", "task_id", t.id)
		go p.proveInclusion(ctx, committee, t)
		if err := p.enqueue(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) enqueue(ctx context.Context, t *task) error {
	select {
	case p.queue <- t:
		if p.metrics != nil {
			p.metrics.QueueDepth.Set(float64(len(p.queue)))
			p.metrics.AdmissionHeld.WithLabelValues(t.kind.String()).Set(1)
		}
		return nil
	case <-ctx.Done():
		t.token.Release()
		return nil
	}
}

// proveEpochChange fetches the next epoch-change witness and produces a
// proof, precomputing the ratcheted trusted state locally (spec.md §4.5
// "Proving task internals"). It has no return value: its result is
// always delivered on t.epochDone, even on panic.
func (p *Pipeline) proveEpochChange(ctx context.Context, prior ledgerinfo.EpochState, t *task) {
	var result epochChangeResult
	defer func() {
		if r := recover(); r != nil {
			result = epochChangeResult{Err: fmt.Errorf("%w: %v", ErrJoin, r)}
		}
		t.epochDone <- result
	}()

	witness, err := p.fetcher.FetchEpochChangeProof(ctx, prior.Epoch)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}

	ts := trustedstate.NewEpochState(trustedstate.Waypoint{}, prior)
	change, err := ts.Ratchet(witness)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrRatchetMismatch, err)
		return
	}

	proof, err := p.oracle.ProveEpochChange(ctx, prior, witness)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}

	result = epochChangeResult{
		Ratcheted:          change.NewState,
		PriorCommitteeHash: prior.VerifierHash,
		Proof:              proof,
	}
}

// proveInclusion fetches the current inclusion witness for the
// configured account and produces a proof against committee.
func (p *Pipeline) proveInclusion(ctx context.Context, committee ledgerinfo.EpochState, t *task) {
	var result inclusionResult
	defer func() {
		if r := recover(); r != nil {
			result = inclusionResult{Err: fmt.Errorf("%w: %v", ErrJoin, r)}
		}
		t.inclusionDone <- result
	}()

	witness, err := p.fetcher.FetchInclusionWitness(ctx, p.account)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}

	proof, err := p.oracle.ProveInclusion(ctx, committee, witness)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrTransport, err)
		return
	}

	result = inclusionResult{Proof: proof}
}
