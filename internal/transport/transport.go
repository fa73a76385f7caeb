// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package transport implements the length-prefixed framing the client
// and proof server speak over a fresh TCP connection per request
// (spec.md §4.1, §8 S5): a big-endian uint32 length followed by that
// many payload bytes, with a configurable size cap so a corrupt or
// hostile length prefix cannot force an unbounded allocation.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize bounds a single frame's payload. 256 MiB is large
// enough for any proof this client expects to see and small enough that
// a garbage length prefix cannot exhaust memory.
const DefaultMaxFrameSize = 256 * 1024 * 1024

// ErrTruncated is returned when the connection closes before a full
// frame (length prefix or payload) has been read.
var ErrTruncated = errors.New("transport: truncated frame")

// ErrOverSize is returned when a frame's declared length exceeds the
// configured cap.
var ErrOverSize = errors.New("transport: frame exceeds size cap")

// WriteFrame writes b to w as a single length-prefixed frame.
func WriteFrame(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport: write length prefix: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("transport: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads a single length-prefixed frame from r, enforcing
// maxSize on the declared length. A maxSize of 0 selects
// DefaultMaxFrameSize.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: length prefix: %v", ErrTruncated, err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxSize {
		return nil, fmt.Errorf("%w: %d bytes > cap %d", ErrOverSize, n, maxSize)
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrTruncated, err)
	}
	return buf, nil
}
