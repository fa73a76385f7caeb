// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// verifyLoop is the single consumer (spec.md §4.5): it drains the queue
// in arrival order, which equals submission order since there is only
// one producer, and owns the only write path to both ClientState and
// VerifierState.
func (p *Pipeline) verifyLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-p.queue:
			if p.metrics != nil {
				p.metrics.QueueDepth.Set(float64(len(p.queue)))
			}
			if err := p.verifyTask(ctx, t); err != nil {
				return err
			}
		}
	}
}

func (p *Pipeline) verifyTask(ctx context.Context, t *task) error {
	switch t.kind {
	case TaskEpochChange:
		var res epochChangeResult
		select {
		case res = <-t.epochDone:
		case <-ctx.Done():
			return nil
		}
		return p.handleEpochChange(ctx, res, t)
	case TaskInclusion:
		var res inclusionResult
		select {
		case res = <-t.inclusionDone:
		case <-ctx.Done():
			return nil
		}
		return p.handleInclusion(ctx, res, t)
	default:
		return fmt.Errorf("%w: unknown task kind %v", ErrInvariantBroken, t.kind)
	}
}

// handleEpochChange implements spec.md §4.5 step 2: it always releases
// the token before returning, on every path. A nil return means "local
// recovery" (logged and dropped); a non-nil return is fatal and
// propagates out of Run.
func (p *Pipeline) handleEpochChange(ctx context.Context, res epochChangeResult, t *task) error {
	defer func() {
		t.token.Release()
		if p.metrics != nil {
			p.metrics.AdmissionHeld.WithLabelValues(TaskEpochChange.String()).Set(0)
		}
	}()

	if res.Err != nil {
		if errors.Is(res.Err, ErrJoin) {
			p.log.Error("epoch-change proving task panicked", "task_id", t.id, "err", res.Err)
			return res.Err
		}
		p.log.Error("epoch-change proving task failed", "task_id", t.id, "err", res.Err)
		p.recordRejection("proving_failed")
		return nil
	}

	if err := p.oracle.VerifyEpochChange(ctx, res.Proof); err != nil {
		p.log.Error("epoch-change proof rejected by verifier", "task_id", t.id, "err", err)
		p.recordRejection("verifier_rejected")
		return nil
	}

	prevHash, err := res.Proof.ReadHash()
	if err != nil {
		p.log.Error("epoch-change proof: malformed public values", "err", err)
		p.recordRejection("decode")
		return nil
	}
	newHash, err := res.Proof.ReadHash()
	if err != nil {
		p.log.Error("epoch-change proof: malformed public values", "err", err)
		p.recordRejection("decode")
		return nil
	}

	if !prevHash.Equal(p.verifierState.CommitteeHash) {
		p.log.Error("epoch-change proof: committee hash mismatch", "proof_prev", prevHash, "trusted", p.verifierState.CommitteeHash)
		p.recordRejection("committee_hash_mismatch")
		return nil
	}

	p.verifierState.CommitteeHash = newHash
	p.clientState.Set(res.Ratcheted)
	if p.metrics != nil {
		p.metrics.ProofsVerified.WithLabelValues(TaskEpochChange.String()).Inc()
		if epoch, ok := res.Ratcheted.Epoch(); ok {
			p.metrics.CurrentEpoch.Set(float64(epoch))
		}
	}
	p.log.Info("epoch-change verified", "task_id", t.id, "new_committee_hash", newHash)
	return nil
}

// handleInclusion implements spec.md §4.5 step 3, with the same
// always-release-the-token discipline.
func (p *Pipeline) handleInclusion(ctx context.Context, res inclusionResult, t *task) error {
	defer func() {
		t.token.Release()
		if p.metrics != nil {
			p.metrics.AdmissionHeld.WithLabelValues(TaskInclusion.String()).Set(0)
		}
	}()

	if res.Err != nil {
		if errors.Is(res.Err, ErrJoin) {
			p.log.Error("inclusion proving task panicked", "task_id", t.id, "err", res.Err)
			return res.Err
		}
		p.log.Error("inclusion proving task failed", "task_id", t.id, "err", res.Err)
		p.recordRejection("proving_failed")
		return nil
	}

	if err := p.oracle.VerifyInclusion(ctx, res.Proof); err != nil {
		p.log.Error("inclusion proof rejected by verifier", "task_id", t.id, "err", err)
		p.recordRejection("verifier_rejected")
		return nil
	}

	committeeHash, err := res.Proof.ReadHash()
	if err != nil {
		p.log.Error("inclusion proof: malformed public values", "err", err)
		p.recordRejection("decode")
		return nil
	}
	stateRoot, err := res.Proof.ReadHash()
	if err != nil {
		p.log.Error("inclusion proof: malformed public values", "err", err)
		p.recordRejection("decode")
		return nil
	}

	if !committeeHash.Equal(p.verifierState.CommitteeHash) {
		p.log.Error("inclusion proof: committee hash mismatch", "proof", committeeHash, "trusted", p.verifierState.CommitteeHash)
		p.recordRejection("committee_hash_mismatch")
		return nil
	}

	p.verifierState.StateRoot = stateRoot
	if p.metrics != nil {
		p.metrics.ProofsVerified.WithLabelValues(TaskInclusion.String()).Inc()
	}
	p.log.Info("inclusion verified", "task_id", t.id, "state_root", stateRoot)
	return nil
}

func (p *Pipeline) recordRejection(reason string) {
	if p.metrics != nil {
		p.metrics.ProofsRejected.WithLabelValues(reason).Inc()
	}
}
