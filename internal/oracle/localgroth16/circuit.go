// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package localgroth16 implements oracle.ProofOracle as an in-process
// Groth16 prover/verifier over the BN254 curve, standing in for a real
// remote proof server. It is a reference/test double: its circuits bind
// the public values the protocol contract requires (spec.md §4.2) with
// a simple linear commitment rather than the real recursive
// BLS-pairing/Merkle-path verification the actual zk programs perform,
// which is out of scope here (spec.md §1, §6 ProvingBackend).
package localgroth16

import (
	"github.com/consensys/gnark/frontend"
)

// bindingCoefficient is the fixed multiplier used to bind a nonce to the
// hash pair a circuit attests to, mirroring the SimpleBLSCircuit
// commitment style (x + y*7) rather than a real hash function.
const bindingCoefficient = 7

// epochRatchetCircuit proves knowledge of a nonce with
// NewHash == PrevHash + Nonce*7. The nonce follows from the two public
// hashes alone, so the proof does not attest that any ratchet check ran.
type epochRatchetCircuit struct {
	PrevHash frontend.Variable `gnark:",public"`
	NewHash  frontend.Variable `gnark:",public"`
	Nonce    frontend.Variable
}

func (c *epochRatchetCircuit) Define(api frontend.API) error {
	computed := api.Add(c.PrevHash, api.Mul(c.Nonce, bindingCoefficient))
	api.AssertIsEqual(c.NewHash, computed)
	return nil
}

// inclusionCircuit proves knowledge of a nonce with
// StateRoot == CommitteeHash + Nonce*7, in the same simplified style as
// epochRatchetCircuit. The account's sparse-Merkle witness does not enter
// the circuit.
type inclusionCircuit struct {
	CommitteeHash frontend.Variable `gnark:",public"`
	StateRoot     frontend.Variable `gnark:",public"`
	Nonce         frontend.Variable
}

func (c *inclusionCircuit) Define(api frontend.API) error {
	computed := api.Add(c.CommitteeHash, api.Mul(c.Nonce, bindingCoefficient))
	api.AssertIsEqual(c.StateRoot, computed)
	return nil
}
