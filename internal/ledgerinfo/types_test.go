package ledgerinfo

import (
	"testing"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
)

func TestEpochStateRoundTrip(t *testing.T) {
	want := EpochState{Epoch: 42, VerifierHash: hashvalue.HashDomain("committee-42")}
	got, err := UnmarshalEpochState(want.MarshalCanonical())
	if err != nil {
		t.Fatalf("UnmarshalEpochState: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLedgerInfoRoundTripWithNextEpochState(t *testing.T) {
	next := EpochState{Epoch: 6, VerifierHash: hashvalue.HashDomain("committee-6")}
	want := LedgerInfo{
		Epoch:           5,
		Version:         1000,
		TimestampUsecs:  123456,
		AccumulatorRoot: hashvalue.HashDomain("root-5"),
		NextEpochState:  &next,
	}
	got, err := UnmarshalLedgerInfo(want.MarshalCanonical())
	if err != nil {
		t.Fatalf("UnmarshalLedgerInfo: %v", err)
	}
	if got.Epoch != want.Epoch || got.Version != want.Version || got.TimestampUsecs != want.TimestampUsecs {
		t.Fatalf("scalar fields mismatch: got %+v want %+v", got, want)
	}
	if !got.AccumulatorRoot.Equal(want.AccumulatorRoot) {
		t.Fatal("accumulator root mismatch")
	}
	if got.NextEpochState == nil || *got.NextEpochState != next {
		t.Fatalf("next epoch state mismatch: got %+v", got.NextEpochState)
	}
}

func TestLedgerInfoRoundTripWithoutNextEpochState(t *testing.T) {
	want := LedgerInfo{Epoch: 5, Version: 1000, AccumulatorRoot: hashvalue.HashDomain("root-5")}
	got, err := UnmarshalLedgerInfo(want.MarshalCanonical())
	if err != nil {
		t.Fatalf("UnmarshalLedgerInfo: %v", err)
	}
	if got.HasNextEpochState() {
		t.Fatal("expected no next epoch state")
	}
}

func TestEpochChangeProofRoundTrip(t *testing.T) {
	next := EpochState{Epoch: 6, VerifierHash: hashvalue.HashDomain("committee-6")}
	want := EpochChangeProof{LedgerInfos: []LedgerInfoWithSignatures{
		{
			Info:               LedgerInfo{Epoch: 5, Version: 1000, AccumulatorRoot: hashvalue.HashDomain("root-5"), NextEpochState: &next},
			AggregateSignature: []byte("sig-bytes"),
		},
	}}
	got, err := UnmarshalEpochChangeProof(want.MarshalCanonical())
	if err != nil {
		t.Fatalf("UnmarshalEpochChangeProof: %v", err)
	}
	if len(got.LedgerInfos) != 1 {
		t.Fatalf("expected 1 ledger info, got %d", len(got.LedgerInfos))
	}
	if string(got.LedgerInfos[0].AggregateSignature) != "sig-bytes" {
		t.Fatalf("unexpected signature: %q", got.LedgerInfos[0].AggregateSignature)
	}
}

func TestInclusionWitnessRoundTrip(t *testing.T) {
	want := InclusionWitness{
		Address:           [32]byte{0x01, 0x02},
		SparseMerkleProof: []byte("smt-proof"),
		LeafValue:         []byte("leaf"),
		LedgerInfo: LedgerInfoWithSignatures{
			Info:               LedgerInfo{Epoch: 5, AccumulatorRoot: hashvalue.HashDomain("root-5")},
			AggregateSignature: []byte("sig"),
		},
	}
	got, err := UnmarshalInclusionWitness(want.MarshalCanonical())
	if err != nil {
		t.Fatalf("UnmarshalInclusionWitness: %v", err)
	}
	if got.Address != want.Address {
		t.Fatalf("address mismatch: got %x want %x", got.Address, want.Address)
	}
	if string(got.SparseMerkleProof) != "smt-proof" || string(got.LeafValue) != "leaf" {
		t.Fatalf("witness payload mismatch: %+v", got)
	}
}
