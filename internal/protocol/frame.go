// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package protocol implements the control protocol (§4.10): a framed
// TCP wire format clients use to register, bind to stops, manage
// plans, and stream trains.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame's payload, guarding against a
// corrupt or malicious length prefix forcing an unbounded allocation.
const maxFrameSize = 64 * 1024 * 1024

// WriteFrame writes payload prefixed with its 4-byte big-endian length
// (§4.10's framing).
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("protocol: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("protocol: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. Any read error, including
// a short read partway through the payload or a length exceeding
// maxFrameSize, is returned so the caller can close the connection,
// matching §4.10's "malformed/short reads close the connection".
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("protocol: frame size %d exceeds limit", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("protocol: short frame read: %w", err)
	}
	return buf, nil
}
