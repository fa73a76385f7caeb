// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package proofserver implements the remote proof-server side of the
// framed TCP protocol rpcoracle speaks (spec.md §4.1-4.2): accept a
// connection, read one framed Request, dispatch it to a ProofOracle,
// write one framed response, close. The oracle's proving backend is an
// external collaborator per spec.md §1; this package only owns framing,
// dispatch, and the single-byte Verify* response encoding.
package proofserver

import (
	"context"
	"errors"
	"fmt"
	"net"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/google/uuid"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/oracle"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/transport"
	"github.com/samuelburnham/zk-light-clients/internal/wire"
)

const (
	verifyByteOK   byte = 0x01
	verifyByteFail byte = 0x00
)

// Server dispatches decoded requests to an oracle.ProofOracle over
// accepted TCP connections.
type Server struct {
	oracle   oracle.ProofOracle
	log      cmtlog.Logger
	maxFrame uint32
}

// New returns a Server backed by oc.
func New(oc oracle.ProofOracle, logger cmtlog.Logger) *Server {
	return &Server{oracle: oc, log: logger}
}

// WithMaxFrameSize overrides the transport's frame-size cap.
func (s *Server) WithMaxFrameSize(n uint32) *Server {
	s.maxFrame = n
	return s
}

// ListenAndServe accepts connections on addr until ctx is cancelled or
// Accept returns an error; Accept errors are not retried.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("proofserver: listen %s: %w", addr, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("proof server listening", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("proofserver: accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	id := uuid.NewString()

	reqBytes, err := transport.ReadFrame(conn, s.maxFrame)
	if err != nil {
		s.log.Error("proof server read failed", "conn", id, "err", err)
		return
	}
	req, err := protocol.DecodeRequest(reqBytes)
	if err != nil {
		s.log.Error("proof server decode failed", "conn", id, "err", err)
		return
	}

	resp, err := s.dispatch(ctx, req)
	if err != nil {
		s.log.Error("proof server request failed", "conn", id, "kind", req.Kind, "err", err)
		return
	}
	if err := transport.WriteFrame(conn, resp); err != nil {
		s.log.Error("proof server write failed", "conn", id, "err", err)
	}
}

// ErrUnknownKind is returned for a syntactically valid request carrying
// a RequestKind this server does not know how to dispatch. protocol's
// own decoder rejects kind bytes outside the defined range, so in
// practice this only fires if a future RequestKind is added to the
// wire format before this server's dispatch table.
var ErrUnknownKind = errors.New("proofserver: unhandled request kind")

func (s *Server) dispatch(ctx context.Context, req protocol.Request) ([]byte, error) {
	switch req.Kind {
	case protocol.KindProveEpochChange:
		prev, witness, err := decodeEpochChangeRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		proof, err := s.oracle.ProveEpochChange(ctx, prev, witness)
		if err != nil {
			return nil, fmt.Errorf("prove epoch change: %w", err)
		}
		return proof.MarshalCanonical(), nil

	case protocol.KindVerifyEpochChange:
		proof, err := protocol.DecodeProof(req.Payload)
		if err != nil {
			return nil, err
		}
		return encodeVerifyResponse(s.oracle.VerifyEpochChange(ctx, proof)), nil

	case protocol.KindProveInclusion:
		committee, witness, err := decodeInclusionRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		proof, err := s.oracle.ProveInclusion(ctx, committee, witness)
		if err != nil {
			return nil, fmt.Errorf("prove inclusion: %w", err)
		}
		return proof.MarshalCanonical(), nil

	case protocol.KindVerifyInclusion:
		proof, err := protocol.DecodeProof(req.Payload)
		if err != nil {
			return nil, err
		}
		return encodeVerifyResponse(s.oracle.VerifyInclusion(ctx, proof)), nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, req.Kind)
	}
}

func decodeEpochChangeRequest(payload []byte) (ledgerinfo.EpochState, ledgerinfo.EpochChangeProof, error) {
	r := wire.NewReader(payload)
	prevBytes, err := r.Bytes()
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{}, fmt.Errorf("%w: prev epoch state: %v", protocol.ErrDecode, err)
	}
	prev, err := ledgerinfo.UnmarshalEpochState(prevBytes)
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{}, err
	}
	witnessBytes, err := r.Bytes()
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{}, fmt.Errorf("%w: epoch change witness: %v", protocol.ErrDecode, err)
	}
	witness, err := ledgerinfo.UnmarshalEpochChangeProof(witnessBytes)
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{}, err
	}
	return prev, witness, nil
}

func decodeInclusionRequest(payload []byte) (ledgerinfo.EpochState, ledgerinfo.InclusionWitness, error) {
	r := wire.NewReader(payload)
	committeeBytes, err := r.Bytes()
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.InclusionWitness{}, fmt.Errorf("%w: committee: %v", protocol.ErrDecode, err)
	}
	committee, err := ledgerinfo.UnmarshalEpochState(committeeBytes)
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.InclusionWitness{}, err
	}
	witnessBytes, err := r.Bytes()
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.InclusionWitness{}, fmt.Errorf("%w: inclusion witness: %v", protocol.ErrDecode, err)
	}
	witness, err := ledgerinfo.UnmarshalInclusionWitness(witnessBytes)
	if err != nil {
		return ledgerinfo.EpochState{}, ledgerinfo.InclusionWitness{}, err
	}
	return committee, witness, nil
}

// encodeVerifyResponse maps a Verify* call's outcome onto the
// single-byte response spec.md §4.2 defines. A non-nil error from the
// oracle is a proof rejection, not a transport fault: the connection
// still completes normally with a 0x00 payload.
func encodeVerifyResponse(err error) []byte {
	if err != nil {
		return []byte{verifyByteFail}
	}
	return []byte{verifyByteOK}
}
