package protocol

import (
	"errors"
	"testing"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
)

func TestRequestRoundTrip(t *testing.T) {
	want := Request{Kind: KindProveInclusion, Payload: []byte("payload-bytes")}
	got, err := DecodeRequest(EncodeRequest(want))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if got.Kind != want.Kind || string(got.Payload) != string(want.Payload) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeRequestRejectsUnknownKind(t *testing.T) {
	_, err := DecodeRequest([]byte{0xFF, 0, 0, 0, 0})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestProofRoundTripAndReadHashOrder(t *testing.T) {
	prev := hashvalue.HashDomain("prev-committee")
	next := hashvalue.HashDomain("next-committee")
	pv := append(append([]byte{}, prev.Bytes()...), next.Bytes()...)
	proof := NewProof([]byte("backend-blob"), pv)

	decoded, err := DecodeProof(proof.MarshalCanonical())
	if err != nil {
		t.Fatalf("DecodeProof: %v", err)
	}

	got1, err := decoded.ReadHash()
	if err != nil || !got1.Equal(prev) {
		t.Fatalf("first ReadHash: got %v, err %v", got1, err)
	}
	got2, err := decoded.ReadHash()
	if err != nil || !got2.Equal(next) {
		t.Fatalf("second ReadHash: got %v, err %v", got2, err)
	}
	if decoded.Remaining() != 0 {
		t.Fatalf("expected no remaining public values, got %d", decoded.Remaining())
	}
	if _, err := decoded.ReadHash(); !errors.Is(err, ErrPublicValuesExhausted) {
		t.Fatalf("expected ErrPublicValuesExhausted, got %v", err)
	}
}
