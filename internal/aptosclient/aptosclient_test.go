package aptosclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samuelburnham/zk-light-clients/internal/hashvalue"
	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
)

func TestFetchLedgerInfo(t *testing.T) {
	want := ledgerinfo.LedgerInfoWithSignatures{
		Info:               ledgerinfo.LedgerInfo{Epoch: 7, Version: 900, AccumulatorRoot: hashvalue.HashDomain("root-7")},
		AggregateSignature: []byte("sig"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ledger_info" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write(want.MarshalCanonical())
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.FetchLedgerInfo(context.Background())
	if err != nil {
		t.Fatalf("FetchLedgerInfo: %v", err)
	}
	if got.Info.Epoch != want.Info.Epoch || got.Info.Version != want.Info.Version {
		t.Fatalf("got %+v, want %+v", got.Info, want.Info)
	}
}

func TestFetchLedgerInfoPropagatesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchLedgerInfo(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	var fe *FetcherError
	if got, ok := err.(*FetcherError); ok {
		fe = got
	}
	if fe == nil {
		t.Fatalf("expected a *FetcherError, got %T: %v", err, err)
	}
}

func TestFetchEpochChangeProofIncludesFromEpoch(t *testing.T) {
	var gotQuery string
	empty := ledgerinfo.EpochChangeProof{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(empty.MarshalCanonical())
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchEpochChangeProof(context.Background(), 12); err != nil {
		t.Fatalf("FetchEpochChangeProof: %v", err)
	}
	if gotQuery != "epoch_number=12" {
		t.Fatalf("expected epoch_number=12 in query, got %q", gotQuery)
	}
}

func TestFetchInclusionWitnessRoundTrip(t *testing.T) {
	want := ledgerinfo.InclusionWitness{
		Address:           [32]byte{0xAB},
		SparseMerkleProof: []byte("proof"),
		LeafValue:         []byte("leaf"),
		LedgerInfo: ledgerinfo.LedgerInfoWithSignatures{
			Info:               ledgerinfo.LedgerInfo{Epoch: 7, AccumulatorRoot: hashvalue.HashDomain("root-7")},
			AggregateSignature: []byte("sig"),
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(want.MarshalCanonical())
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.FetchInclusionWitness(context.Background(), [32]byte{0xAB})
	if err != nil {
		t.Fatalf("FetchInclusionWitness: %v", err)
	}
	if got.Address != want.Address || string(got.LeafValue) != "leaf" {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
