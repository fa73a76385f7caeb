package wire

import (
	"testing"

	"github.com/cometbft/cometbft/crypto/tmhash"
)

func TestRoundTripScalars(t *testing.T) {
	w := NewWriter()
	w.PutUint8(7)
	w.PutUint32(1234567)
	w.PutUint64(9876543210)
	w.PutFixed([]byte{1, 2, 3, 4})
	w.PutBytes([]byte("hello world"))

	r := NewReader(w.Bytes())

	u8, err := r.Uint8()
	if err != nil || u8 != 7 {
		t.Fatalf("Uint8: got %d, %v", u8, err)
	}
	u32, err := r.Uint32()
	if err != nil || u32 != 1234567 {
		t.Fatalf("Uint32: got %d, %v", u32, err)
	}
	u64, err := r.Uint64()
	if err != nil || u64 != 9876543210 {
		t.Fatalf("Uint64: got %d, %v", u64, err)
	}
	fixed, err := r.Fixed(4)
	if err != nil || string(fixed) != "\x01\x02\x03\x04" {
		t.Fatalf("Fixed: got %v, %v", fixed, err)
	}
	str, err := r.Bytes()
	if err != nil || string(str) != "hello world" {
		t.Fatalf("Bytes: got %q, %v", str, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected no remaining bytes, got %d", r.Remaining())
	}
}

// TestRoundTripFixedDigest exercises PutFixed/Fixed with a real 32-byte
// digest rather than an arbitrary byte slice, since every HashValue this
// codec carries in production is exactly this shape.
func TestRoundTripFixedDigest(t *testing.T) {
	digest := tmhash.Sum([]byte("aptos-light-client fixture"))
	if len(digest) != 32 {
		t.Fatalf("expected a 32-byte digest, got %d", len(digest))
	}

	w := NewWriter()
	w.PutFixed(digest)
	r := NewReader(w.Bytes())

	got, err := r.Fixed(32)
	if err != nil {
		t.Fatalf("Fixed: %v", err)
	}
	for i := range digest {
		if got[i] != digest[i] {
			t.Fatalf("byte %d mismatch: got %x want %x", i, got[i], digest[i])
		}
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.Uint32(); err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestBytesUpToSizeCap(t *testing.T) {
	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i)
	}
	w := NewWriter()
	w.PutBytes(payload)

	r := NewReader(w.Bytes())
	got, err := r.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d mismatch", i)
		}
	}
}
