// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

package localgroth16

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// serializeProof encodes a Groth16 proof into the opaque backend blob
// carried in a protocol.Proof.
func serializeProof(proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("localgroth16: serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

// deserializeProof decodes a backend blob previously produced by
// serializeProof.
func deserializeProof(b []byte) (groth16.Proof, error) {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("localgroth16: deserialize proof: %w", err)
	}
	return proof, nil
}
