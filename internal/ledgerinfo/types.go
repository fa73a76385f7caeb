// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package ledgerinfo models the slice of the Aptos ledger-info data
// model this client needs. The full data structures (validator sets,
// signature schemes, accumulator internals) are an external collaborator
// per spec.md §1 ("Aptos ledger data structures ... out of scope. The
// core consumes their canonical byte encodings and a small set of
// accessors"); this package implements exactly that small set of
// accessors on top of the shared canonical codec.
package ledgerinfo

import (
	"errors"
	"fmt"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/wire"
)

// Version is an unsigned 64-bit monotonic ledger position.
type Version = uint64

// ErrDecode is the sentinel wrapped by every canonical-decode failure in
// this package.
var ErrDecode = errors.New("ledgerinfo: malformed canonical bytes")

// EpochState is a committee snapshot: an epoch number and the canonical
// hash of the validator verifier that is authoritative for it. The
// verifier's internal structure (public keys, voting power) is never
// inspected by the core, only its hash.
type EpochState struct {
	Epoch        uint64
	VerifierHash hashvalue.HashValue
}

// MarshalCanonical encodes the epoch state.
func (e EpochState) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutUint64(e.Epoch)
	w.PutFixed(e.VerifierHash[:])
	return w.Bytes()
}

// UnmarshalEpochState decodes an EpochState previously produced by
// MarshalCanonical.
func UnmarshalEpochState(b []byte) (EpochState, error) {
	r := wire.NewReader(b)
	epoch, err := r.Uint64()
	if err != nil {
		return EpochState{}, fmt.Errorf("%w: epoch: %v", ErrDecode, err)
	}
	hb, err := r.Fixed(hashvalue.Size)
	if err != nil {
		return EpochState{}, fmt.Errorf("%w: verifier hash: %v", ErrDecode, err)
	}
	hv, _ := hashvalue.FromSlice(hb)
	return EpochState{Epoch: epoch, VerifierHash: hv}, nil
}

// LedgerInfo is a record of (epoch, version, timestamp, accumulator
// root, optional next-epoch-state). When NextEpochState is non-nil the
// ledger info is the last block of its epoch.
type LedgerInfo struct {
	Epoch              uint64
	Version            Version
	TimestampUsecs     uint64
	AccumulatorRoot    hashvalue.HashValue
	NextEpochState     *EpochState
}

// HasNextEpochState reports whether this ledger info closes out its
// epoch.
func (l LedgerInfo) HasNextEpochState() bool {
	return l.NextEpochState != nil
}

// MarshalCanonical encodes the ledger info.
func (l LedgerInfo) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutUint64(l.Epoch)
	w.PutUint64(l.Version)
	w.PutUint64(l.TimestampUsecs)
	w.PutFixed(l.AccumulatorRoot[:])
	if l.NextEpochState == nil {
		w.PutUint8(0)
	} else {
		w.PutUint8(1)
		w.PutBytes(l.NextEpochState.MarshalCanonical())
	}
	return w.Bytes()
}

// UnmarshalLedgerInfo decodes a LedgerInfo previously produced by
// MarshalCanonical.
func UnmarshalLedgerInfo(b []byte) (LedgerInfo, error) {
	r := wire.NewReader(b)
	var li LedgerInfo
	var err error
	if li.Epoch, err = r.Uint64(); err != nil {
		return li, fmt.Errorf("%w: epoch: %v", ErrDecode, err)
	}
	if li.Version, err = r.Uint64(); err != nil {
		return li, fmt.Errorf("%w: version: %v", ErrDecode, err)
	}
	if li.TimestampUsecs, err = r.Uint64(); err != nil {
		return li, fmt.Errorf("%w: timestamp: %v", ErrDecode, err)
	}
	rootB, err := r.Fixed(hashvalue.Size)
	if err != nil {
		return li, fmt.Errorf("%w: accumulator root: %v", ErrDecode, err)
	}
	li.AccumulatorRoot, _ = hashvalue.FromSlice(rootB)
	hasNext, err := r.Uint8()
	if err != nil {
		return li, fmt.Errorf("%w: next epoch state flag: %v", ErrDecode, err)
	}
	if hasNext == 1 {
		nb, err := r.Bytes()
		if err != nil {
			return li, fmt.Errorf("%w: next epoch state: %v", ErrDecode, err)
		}
		next, err := UnmarshalEpochState(nb)
		if err != nil {
			return li, err
		}
		li.NextEpochState = &next
	}
	return li, nil
}

// LedgerInfoWithSignatures pairs a LedgerInfo with the aggregate
// multi-signature of the committee that was current at that epoch. The
// signature scheme itself is out of scope (§1): this client never
// inspects AggregateSignature bytes, it only forwards them as part of
// the witness the remote oracle proves over.
type LedgerInfoWithSignatures struct {
	Info               LedgerInfo
	AggregateSignature []byte
}

// MarshalCanonical encodes the signed ledger info.
func (l LedgerInfoWithSignatures) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutBytes(l.Info.MarshalCanonical())
	w.PutBytes(l.AggregateSignature)
	return w.Bytes()
}

// UnmarshalLedgerInfoWithSignatures decodes a LedgerInfoWithSignatures.
func UnmarshalLedgerInfoWithSignatures(b []byte) (LedgerInfoWithSignatures, error) {
	r := wire.NewReader(b)
	infoBytes, err := r.Bytes()
	if err != nil {
		return LedgerInfoWithSignatures{}, fmt.Errorf("%w: info: %v", ErrDecode, err)
	}
	info, err := UnmarshalLedgerInfo(infoBytes)
	if err != nil {
		return LedgerInfoWithSignatures{}, err
	}
	sig, err := r.Bytes()
	if err != nil {
		return LedgerInfoWithSignatures{}, fmt.Errorf("%w: signature: %v", ErrDecode, err)
	}
	return LedgerInfoWithSignatures{Info: info, AggregateSignature: sig}, nil
}

// EpochChangeProof is an ordered list of LedgerInfoWithSignatures, each
// signing the next committee.
type EpochChangeProof struct {
	LedgerInfos []LedgerInfoWithSignatures
}

// MarshalCanonical encodes the proof.
func (p EpochChangeProof) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutUint32(uint32(len(p.LedgerInfos)))
	for _, li := range p.LedgerInfos {
		w.PutBytes(li.MarshalCanonical())
	}
	return w.Bytes()
}

// UnmarshalEpochChangeProof decodes an EpochChangeProof.
func UnmarshalEpochChangeProof(b []byte) (EpochChangeProof, error) {
	r := wire.NewReader(b)
	n, err := r.Uint32()
	if err != nil {
		return EpochChangeProof{}, fmt.Errorf("%w: count: %v", ErrDecode, err)
	}
	out := EpochChangeProof{LedgerInfos: make([]LedgerInfoWithSignatures, 0, n)}
	for i := uint32(0); i < n; i++ {
		lb, err := r.Bytes()
		if err != nil {
			return EpochChangeProof{}, fmt.Errorf("%w: entry %d: %v", ErrDecode, i, err)
		}
		li, err := UnmarshalLedgerInfoWithSignatures(lb)
		if err != nil {
			return EpochChangeProof{}, err
		}
		out.LedgerInfos = append(out.LedgerInfos, li)
	}
	return out, nil
}

// InclusionWitness is an account address, a sparse Merkle proof, a leaf
// value, the ledger info that roots the state tree, and supporting
// signatures. The sparse-Merkle-proof bytes are opaque to this client:
// they are forwarded to the remote oracle, which verifies them inside
// the zk circuit (§1, §9).
type InclusionWitness struct {
	Address           [32]byte
	SparseMerkleProof []byte
	LeafValue         []byte
	LedgerInfo        LedgerInfoWithSignatures
}

// MarshalCanonical encodes the inclusion witness.
func (w2 InclusionWitness) MarshalCanonical() []byte {
	w := wire.NewWriter()
	w.PutFixed(w2.Address[:])
	w.PutBytes(w2.SparseMerkleProof)
	w.PutBytes(w2.LeafValue)
	w.PutBytes(w2.LedgerInfo.MarshalCanonical())
	return w.Bytes()
}

// UnmarshalInclusionWitness decodes an InclusionWitness.
func UnmarshalInclusionWitness(b []byte) (InclusionWitness, error) {
	r := wire.NewReader(b)
	var iw InclusionWitness
	addr, err := r.Fixed(32)
	if err != nil {
		return iw, fmt.Errorf("%w: address: %v", ErrDecode, err)
	}
	copy(iw.Address[:], addr)
	if iw.SparseMerkleProof, err = r.Bytes(); err != nil {
		return iw, fmt.Errorf("%w: smt proof: %v", ErrDecode, err)
	}
	if iw.LeafValue, err = r.Bytes(); err != nil {
		return iw, fmt.Errorf("%w: leaf value: %v", ErrDecode, err)
	}
	liBytes, err := r.Bytes()
	if err != nil {
		return iw, fmt.Errorf("%w: ledger info: %v", ErrDecode, err)
	}
	if iw.LedgerInfo, err = UnmarshalLedgerInfoWithSignatures(liBytes); err != nil {
		return iw, err
	}
	return iw, nil
}
