// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package protocol defines the proof-server wire protocol (spec.md
// §4.1-4.2): the four request variants, and the Proof value returned by
// the oracle, whose public values are read by the verifier task as an
// ordered byte cursor rather than a parsed struct.
package protocol

import (
	"errors"
	"fmt"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/wire"
)

// RequestKind tags the four proof-server operations.
type RequestKind uint8

const (
	KindProveEpochChange RequestKind = iota
	KindVerifyEpochChange
	KindProveInclusion
	KindVerifyInclusion
)

func (k RequestKind) String() string {
	switch k {
	case KindProveEpochChange:
		return "ProveEpochChange"
	case KindVerifyEpochChange:
		return "VerifyEpochChange"
	case KindProveInclusion:
		return "ProveInclusion"
	case KindVerifyInclusion:
		return "VerifyInclusion"
	default:
		return fmt.Sprintf("RequestKind(%d)", uint8(k))
	}
}

// ErrDecode is returned when a request or proof cannot be parsed.
var ErrDecode = errors.New("protocol: malformed message")

// ErrUnknownKind is returned when a message carries an unrecognized
// RequestKind byte.
var ErrUnknownKind = errors.New("protocol: unknown request kind")

// Request is a single frame sent to the proof server: a kind tag plus
// its canonically-encoded payload. For the Prove* kinds the payload is a
// length-prefixed EpochState (the prior or current committee) followed
// by the length-prefixed EpochChangeProof or InclusionWitness; for the
// Verify* kinds it is a previously-returned Proof.
type Request struct {
	Kind    RequestKind
	Payload []byte
}

// EncodeRequest canonically encodes a request.
func EncodeRequest(req Request) []byte {
	w := wire.NewWriter()
	w.PutUint8(uint8(req.Kind))
	w.PutBytes(req.Payload)
	return w.Bytes()
}

// DecodeRequest decodes a request previously produced by EncodeRequest.
func DecodeRequest(b []byte) (Request, error) {
	r := wire.NewReader(b)
	kb, err := r.Uint8()
	if err != nil {
		return Request{}, fmt.Errorf("%w: kind: %v", ErrDecode, err)
	}
	kind := RequestKind(kb)
	if kind > KindVerifyInclusion {
		return Request{}, fmt.Errorf("%w: %d", ErrUnknownKind, kb)
	}
	payload, err := r.Bytes()
	if err != nil {
		return Request{}, fmt.Errorf("%w: payload: %v", ErrDecode, err)
	}
	return Request{Kind: kind, Payload: payload}, nil
}

// Proof is the artifact a Prove* call returns and a Verify* call
// consumes: an opaque proving-backend blob plus its public values.
// Public values are read in the fixed order the circuit committed them
// in (spec.md §4.2, §9): callers advance a cursor over them rather than
// unmarshalling a struct, since the number and meaning of trailing
// fields is a property of the circuit, not of this client.
type Proof struct {
	Backend      []byte
	PublicValues []byte

	cursor int
}

// NewProof wraps a backend blob and its public-values byte string for
// reading.
func NewProof(backend, publicValues []byte) *Proof {
	return &Proof{Backend: backend, PublicValues: publicValues}
}

// ErrPublicValuesExhausted is returned when a read advances past the end
// of the public-values stream.
var ErrPublicValuesExhausted = errors.New("protocol: public values exhausted")

// ReadHash consumes the next 32 bytes of the public-values cursor as a
// HashValue. This is how the verifier task reads prev_committee_hash,
// new_committee_hash, committee_hash and state_root in turn (spec.md
// §4.2).
func (p *Proof) ReadHash() (hashvalue.HashValue, error) {
	end := p.cursor + hashvalue.Size
	if end > len(p.PublicValues) {
		return hashvalue.HashValue{}, ErrPublicValuesExhausted
	}
	h, err := hashvalue.FromSlice(p.PublicValues[p.cursor:end])
	if err != nil {
		return hashvalue.HashValue{}, err
	}
	p.cursor = end
	return h, nil
}

// Remaining reports how many public-value bytes have not yet been read.
// The core does not require this to be zero: spec.md §9 leaves it
// implementation-defined whether unconsumed trailing bytes in an
// inclusion proof's public values are significant (see DESIGN.md).
func (p *Proof) Remaining() int {
	return len(p.PublicValues) - p.cursor
}

// MarshalCanonical encodes the proof for transport.
func (p *Proof) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutBytes(p.Backend)
	w.PutBytes(p.PublicValues)
	return w.Bytes()
}

// DecodeProof decodes a Proof previously produced by MarshalCanonical.
func DecodeProof(b []byte) (*Proof, error) {
	r := wire.NewReader(b)
	backend, err := r.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: backend: %v", ErrDecode, err)
	}
	pv, err := r.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: public values: %v", ErrDecode, err)
	}
	return NewProof(backend, pv), nil
}

// ProgramID identifies one of the two embedded zk programs the oracle
// can prove/verify against (spec.md §2, §6 ProvingBackend).
type ProgramID uint8

const (
	ProgramEpochChange ProgramID = iota
	ProgramInclusion
)

func (p ProgramID) String() string {
	switch p {
	case ProgramEpochChange:
		return "epoch-change"
	case ProgramInclusion:
		return "inclusion"
	default:
		return fmt.Sprintf("ProgramID(%d)", uint8(p))
	}
}
