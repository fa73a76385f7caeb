// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package rpcoracle implements oracle.ProofOracle over a fresh TCP
// connection per request (spec.md §4.1): dial, write one framed
// Request, read one framed response, close.
package rpcoracle

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/transport"
	"github.com/samuelburnham/zk-light-clients/internal/wire"
)

// verifyByteOK is the single-byte Verify* response value signaling
// success (spec.md §4.2); anything else is a rejection.
const verifyByteOK = 0x01

// ErrRejected is returned when a Verify* response byte is not
// verifyByteOK. The pipeline treats any error from VerifyEpochChange /
// VerifyInclusion identically (log, drop, release token), so this is
// not exported as part of the oracle.ProofOracle contract.
var ErrRejected = errors.New("rpcoracle: proof server rejected proof")

// Oracle dials addr for every request.
type Oracle struct {
	addr     string
	dialer   net.Dialer
	maxFrame uint32
}

// New returns an Oracle dialing addr ("host:port").
func New(addr string) *Oracle {
	return &Oracle{addr: addr}
}

// WithMaxFrameSize overrides the transport's frame-size cap, mostly for
// tests exercising the oversize path.
func (o *Oracle) WithMaxFrameSize(n uint32) *Oracle {
	o.maxFrame = n
	return o
}

func (o *Oracle) roundTrip(ctx context.Context, req protocol.Request) ([]byte, error) {
	conn, err := o.dialer.DialContext(ctx, "tcp", o.addr)
	if err != nil {
		return nil, fmt.Errorf("rpcoracle: dial %s: %w", o.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := transport.WriteFrame(conn, protocol.EncodeRequest(req)); err != nil {
		return nil, fmt.Errorf("rpcoracle: write request: %w", err)
	}
	resp, err := transport.ReadFrame(conn, o.maxFrame)
	if err != nil {
		return nil, fmt.Errorf("rpcoracle: read response: %w", err)
	}
	return resp, nil
}

func (o *Oracle) ProveEpochChange(ctx context.Context, prev ledgerinfo.EpochState, witness ledgerinfo.EpochChangeProof) (*protocol.Proof, error) {
	w := wire.NewWriter()
	w.PutBytes(prev.MarshalCanonical())
	w.PutBytes(witness.MarshalCanonical())
	resp, err := o.roundTrip(ctx, protocol.Request{
		Kind:    protocol.KindProveEpochChange,
		Payload: w.Bytes(),
	})
	if err != nil {
		return nil, err
	}
	return protocol.DecodeProof(resp)
}

func (o *Oracle) VerifyEpochChange(ctx context.Context, proof *protocol.Proof) error {
	resp, err := o.roundTrip(ctx, protocol.Request{
		Kind:    protocol.KindVerifyEpochChange,
		Payload: proof.MarshalCanonical(),
	})
	if err != nil {
		return err
	}
	return decodeVerifyResponse(resp)
}

func (o *Oracle) ProveInclusion(ctx context.Context, committee ledgerinfo.EpochState, witness ledgerinfo.InclusionWitness) (*protocol.Proof, error) {
	w := wire.NewWriter()
	w.PutBytes(committee.MarshalCanonical())
	w.PutBytes(witness.MarshalCanonical())
	resp, err := o.roundTrip(ctx, protocol.Request{
		Kind:    protocol.KindProveInclusion,
		Payload: w.Bytes(),
	})
	if err != nil {
		return nil, err
	}
	return protocol.DecodeProof(resp)
}

func (o *Oracle) VerifyInclusion(ctx context.Context, proof *protocol.Proof) error {
	resp, err := o.roundTrip(ctx, protocol.Request{
		Kind:    protocol.KindVerifyInclusion,
		Payload: proof.MarshalCanonical(),
	})
	if err != nil {
		return err
	}
	return decodeVerifyResponse(resp)
}

// decodeVerifyResponse interprets a Verify* response as the single-byte
// success/failure flag spec.md §4.2 defines.
func decodeVerifyResponse(resp []byte) error {
	if len(resp) != 1 {
		return fmt.Errorf("rpcoracle: malformed verify response: expected 1 byte, got %d", len(resp))
	}
	if resp[0] != verifyByteOK {
		return ErrRejected
	}
	return nil
}
