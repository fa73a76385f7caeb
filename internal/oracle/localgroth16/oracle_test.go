package localgroth16

import (
	"context"
	"testing"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
)

func epochState(epoch uint64, seed byte) ledgerinfo.EpochState {
	var h hashvalue.HashValue
	h[0] = seed
	return ledgerinfo.EpochState{Epoch: epoch, VerifierHash: h}
}

func TestProveAndVerifyEpochChange(t *testing.T) {
	o := New()
	prev := epochState(5, 0xAA)
	next := epochState(6, 0xBB)

	witness := ledgerinfo.EpochChangeProof{
		LedgerInfos: []ledgerinfo.LedgerInfoWithSignatures{
			{
				Info: ledgerinfo.LedgerInfo{
					Epoch:           5,
					Version:         100,
					AccumulatorRoot: hashvalue.HashValue{0x01},
					NextEpochState:  &next,
				},
				AggregateSignature: []byte("sig"),
			},
		},
	}

	proof, err := o.ProveEpochChange(context.Background(), prev, witness)
	if err != nil {
		t.Fatalf("ProveEpochChange: %v", err)
	}
	if err := o.VerifyEpochChange(context.Background(), proof); err != nil {
		t.Fatalf("VerifyEpochChange: %v", err)
	}
}

func TestProveAndVerifyInclusion(t *testing.T) {
	o := New()
	committee := epochState(7, 0xCC)
	witness := ledgerinfo.InclusionWitness{
		Address:           [32]byte{0x02},
		SparseMerkleProof: []byte("proof-bytes"),
		LeafValue:         []byte("leaf"),
		LedgerInfo: ledgerinfo.LedgerInfoWithSignatures{
			Info: ledgerinfo.LedgerInfo{
				Epoch:           7,
				Version:         200,
				AccumulatorRoot: hashvalue.HashValue{0x03},
			},
			AggregateSignature: []byte("sig"),
		},
	}

	proof, err := o.ProveInclusion(context.Background(), committee, witness)
	if err != nil {
		t.Fatalf("ProveInclusion: %v", err)
	}
	if err := o.VerifyInclusion(context.Background(), proof); err != nil {
		t.Fatalf("VerifyInclusion: %v", err)
	}
}

func TestVerifyEpochChangeRejectsTamperedPublicValues(t *testing.T) {
	o := New()
	prev := epochState(1, 0x10)
	next := epochState(2, 0x20)
	witness := ledgerinfo.EpochChangeProof{
		LedgerInfos: []ledgerinfo.LedgerInfoWithSignatures{
			{
				Info: ledgerinfo.LedgerInfo{
					Epoch:          1,
					NextEpochState: &next,
				},
			},
		},
	}
	proof, err := o.ProveEpochChange(context.Background(), prev, witness)
	if err != nil {
		t.Fatalf("ProveEpochChange: %v", err)
	}
	proof.PublicValues[0] ^= 0xFF
	if err := o.VerifyEpochChange(context.Background(), proof); err == nil {
		t.Fatal("expected verification to fail on tampered public values")
	}
}
