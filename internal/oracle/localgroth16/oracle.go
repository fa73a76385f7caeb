// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package localgroth16

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/trustedstate"
	"github.com/samuelburnham/zk-light-clients/internal/wire"
)

var scalarField = ecc.BN254.ScalarField()

// circuitSetup bundles a compiled constraint system with its Groth16
// keys, built once and reused for every proof of that circuit shape.
type circuitSetup struct {
	once sync.Once
	err  error
	cs   constraint.ConstraintSystem
	pk   groth16.ProvingKey
	vk   groth16.VerifyingKey
}

func (s *circuitSetup) ensure(circuit frontend.Circuit) error {
	s.once.Do(func() {
		cs, err := frontend.Compile(scalarField, r1cs.NewBuilder, circuit)
		if err != nil {
			s.err = fmt.Errorf("localgroth16: compile: %w", err)
			return
		}
		pk, vk, err := groth16.Setup(cs)
		if err != nil {
			s.err = fmt.Errorf("localgroth16: setup: %w", err)
			return
		}
		s.cs, s.pk, s.vk = cs, pk, vk
	})
	return s.err
}

// Oracle is an in-process oracle.ProofOracle backed by two fixed Groth16
// circuits, one per program (spec.md §2 ProgramID).
type Oracle struct {
	epochSetup     circuitSetup
	inclusionSetup circuitSetup
}

// New returns an idle Oracle; circuits are compiled lazily on first use.
func New() *Oracle {
	return &Oracle{}
}

func hashToField(h hashvalue.HashValue) *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// solveNonce finds nonce such that target == base + nonce*bindingCoefficient
// (mod scalarField). Both inputs are public values, so anyone holding
// them can compute it.
func solveNonce(base, target *big.Int) *big.Int {
	diff := new(big.Int).Sub(target, base)
	diff.Mod(diff, scalarField)
	inv := new(big.Int).ModInverse(big.NewInt(bindingCoefficient), scalarField)
	nonce := new(big.Int).Mul(diff, inv)
	nonce.Mod(nonce, scalarField)
	return nonce
}

func (o *Oracle) ProveEpochChange(ctx context.Context, prev ledgerinfo.EpochState, witness ledgerinfo.EpochChangeProof) (*protocol.Proof, error) {
	if err := o.epochSetup.ensure(&epochRatchetCircuit{}); err != nil {
		return nil, err
	}

	ts := trustedstate.NewEpochState(trustedstate.Waypoint{}, prev)
	change, err := ts.Ratchet(witness)
	if err != nil {
		return nil, fmt.Errorf("localgroth16: ProveEpochChange: %w", err)
	}
	newHash := change.NewState.EpochState().VerifierHash

	prevField := hashToField(prev.VerifierHash)
	newField := hashToField(newHash)
	nonce := solveNonce(prevField, newField)

	assignment := &epochRatchetCircuit{PrevHash: prevField, NewHash: newField, Nonce: nonce}
	fullWitness, err := frontend.NewWitness(assignment, scalarField)
	if err != nil {
		return nil, fmt.Errorf("localgroth16: witness: %w", err)
	}
	proof, err := groth16.Prove(o.epochSetup.cs, o.epochSetup.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("localgroth16: prove: %w", err)
	}

	backend, err := serializeProof(proof)
	if err != nil {
		return nil, err
	}
	pv := wire.NewWriter()
	pv.PutFixed(prev.VerifierHash[:])
	pv.PutFixed(newHash[:])
	return protocol.NewProof(backend, pv.Bytes()), nil
}

func (o *Oracle) VerifyEpochChange(ctx context.Context, proof *protocol.Proof) error {
	if err := o.epochSetup.ensure(&epochRatchetCircuit{}); err != nil {
		return err
	}
	prevHash, newHash, err := peekTwoHashes(proof.PublicValues)
	if err != nil {
		return fmt.Errorf("localgroth16: VerifyEpochChange: %w", err)
	}
	return o.verify(&o.epochSetup, proof.Backend, &epochRatchetCircuit{
		PrevHash: hashToField(prevHash),
		NewHash:  hashToField(newHash),
	})
}

func (o *Oracle) ProveInclusion(ctx context.Context, committee ledgerinfo.EpochState, witness ledgerinfo.InclusionWitness) (*protocol.Proof, error) {
	if err := o.inclusionSetup.ensure(&inclusionCircuit{}); err != nil {
		return nil, err
	}

	stateRoot := witness.LedgerInfo.Info.AccumulatorRoot
	committeeField := hashToField(committee.VerifierHash)
	stateRootField := hashToField(stateRoot)
	nonce := solveNonce(committeeField, stateRootField)

	assignment := &inclusionCircuit{CommitteeHash: committeeField, StateRoot: stateRootField, Nonce: nonce}
	fullWitness, err := frontend.NewWitness(assignment, scalarField)
	if err != nil {
		return nil, fmt.Errorf("localgroth16: witness: %w", err)
	}
	proof, err := groth16.Prove(o.inclusionSetup.cs, o.inclusionSetup.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("localgroth16: prove: %w", err)
	}

	backend, err := serializeProof(proof)
	if err != nil {
		return nil, err
	}
	pv := wire.NewWriter()
	pv.PutFixed(committee.VerifierHash[:])
	pv.PutFixed(stateRoot[:])
	return protocol.NewProof(backend, pv.Bytes()), nil
}

func (o *Oracle) VerifyInclusion(ctx context.Context, proof *protocol.Proof) error {
	if err := o.inclusionSetup.ensure(&inclusionCircuit{}); err != nil {
		return err
	}
	committeeHash, stateRoot, err := peekTwoHashes(proof.PublicValues)
	if err != nil {
		return fmt.Errorf("localgroth16: VerifyInclusion: %w", err)
	}
	return o.verify(&o.inclusionSetup, proof.Backend, &inclusionCircuit{
		CommitteeHash: hashToField(committeeHash),
		StateRoot:     hashToField(stateRoot),
	})
}

// peekTwoHashes reads the two leading 32-byte public-value fields every
// proof in this system commits to (spec.md §4.2) without disturbing the
// Proof's own read cursor: verification re-derives the witness from the
// bytes the prover already committed to, it does not "consume" them the
// way the pipeline's verifier task does afterward.
func peekTwoHashes(publicValues []byte) (a, b hashvalue.HashValue, err error) {
	if len(publicValues) < 2*hashvalue.Size {
		return a, b, fmt.Errorf("localgroth16: public values too short: %d bytes", len(publicValues))
	}
	a, _ = hashvalue.FromSlice(publicValues[:hashvalue.Size])
	b, _ = hashvalue.FromSlice(publicValues[hashvalue.Size : 2*hashvalue.Size])
	return a, b, nil
}

func (o *Oracle) verify(setup *circuitSetup, backend []byte, publicAssignment frontend.Circuit) error {
	proof, err := deserializeProof(backend)
	if err != nil {
		return err
	}
	publicWitness, err := frontend.NewWitness(publicAssignment, scalarField, frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("localgroth16: public witness: %w", err)
	}
	if err := groth16.Verify(proof, setup.vk, publicWitness); err != nil {
		return fmt.Errorf("localgroth16: verify: %w", err)
	}
	return nil
}
