package rpcoracle

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
	"github.com/samuelburnham/zk-light-clients/internal/protocol"
	"github.com/samuelburnham/zk-light-clients/internal/transport"
)

// scriptedServer accepts a single connection per request, decodes it,
// and replies with whatever scriptedServer.respond returns for that
// RequestKind. It stands in for a real proof server so rpcoracle can be
// exercised without a proving backend.
type scriptedServer struct {
	ln      net.Listener
	respond func(protocol.Request) []byte
}

func startScriptedServer(t *testing.T, respond func(protocol.Request) []byte) *scriptedServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &scriptedServer{ln: ln, respond: respond}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *scriptedServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			reqBytes, err := transport.ReadFrame(conn, 0)
			if err != nil {
				return
			}
			req, err := protocol.DecodeRequest(reqBytes)
			if err != nil {
				return
			}
			_ = transport.WriteFrame(conn, s.respond(req))
		}()
	}
}

func (s *scriptedServer) addr() string {
	return s.ln.Addr().String()
}

func TestProveEpochChangeRoundTrip(t *testing.T) {
	wantProof := protocol.NewProof([]byte("backend-blob"), []byte("public-values"))
	var gotKind protocol.RequestKind
	srv := startScriptedServer(t, func(req protocol.Request) []byte {
		gotKind = req.Kind
		return wantProof.MarshalCanonical()
	})

	o := New(srv.addr())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	proof, err := o.ProveEpochChange(ctx, ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{})
	if err != nil {
		t.Fatalf("ProveEpochChange: %v", err)
	}
	if gotKind != protocol.KindProveEpochChange {
		t.Fatalf("expected KindProveEpochChange, got %v", gotKind)
	}
	if string(proof.Backend) != "backend-blob" || string(proof.PublicValues) != "public-values" {
		t.Fatalf("unexpected proof: %+v", proof)
	}
}

func TestProveInclusionRoundTrip(t *testing.T) {
	wantProof := protocol.NewProof([]byte("backend"), []byte("pv"))
	var gotKind protocol.RequestKind
	srv := startScriptedServer(t, func(req protocol.Request) []byte {
		gotKind = req.Kind
		return wantProof.MarshalCanonical()
	})

	o := New(srv.addr())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	proof, err := o.ProveInclusion(ctx, ledgerinfo.EpochState{}, ledgerinfo.InclusionWitness{})
	if err != nil {
		t.Fatalf("ProveInclusion: %v", err)
	}
	if gotKind != protocol.KindProveInclusion {
		t.Fatalf("expected KindProveInclusion, got %v", gotKind)
	}
	if string(proof.Backend) != "backend" {
		t.Fatalf("unexpected proof backend: %q", proof.Backend)
	}
}

func TestVerifyEpochChangeAccepts(t *testing.T) {
	srv := startScriptedServer(t, func(protocol.Request) []byte {
		return []byte{verifyByteOK}
	})
	o := New(srv.addr())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := o.VerifyEpochChange(ctx, protocol.NewProof(nil, nil)); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestVerifyInclusionRejects(t *testing.T) {
	srv := startScriptedServer(t, func(protocol.Request) []byte {
		return []byte{0x00}
	})
	o := New(srv.addr())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := o.VerifyInclusion(ctx, protocol.NewProof(nil, nil))
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestVerifyResponseMalformedLength(t *testing.T) {
	srv := startScriptedServer(t, func(protocol.Request) []byte {
		return []byte{0x01, 0x02}
	})
	o := New(srv.addr())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := o.VerifyEpochChange(ctx, protocol.NewProof(nil, nil))
	if err == nil {
		t.Fatal("expected a decode error for a malformed verify response")
	}
	if errors.Is(err, ErrRejected) {
		t.Fatal("a malformed-length response is not the same as a rejection")
	}
}

func TestRoundTripDialFailure(t *testing.T) {
	o := New("127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := o.ProveEpochChange(ctx, ledgerinfo.EpochState{}, ledgerinfo.EpochChangeProof{}); err == nil {
		t.Fatal("expected a dial error against a closed port")
	}
}
