// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wal implements the segmented, mmap-backed write-ahead log
// (§4.8): every worker owns a private directory of fixed-size segments
// it appends records to, and a Relay that forwards or delays each
// batch depending on downstream pressure.
package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultSegmentSize is the size of one mmapped segment file when the
// caller doesn't override it.
const DefaultSegmentSize int64 = 10 * 1024 * 1024

// Writer owns one worker's segmented log directory. Only one goroutine
// should drive it (the WAL worker that owns this Writer); Append is
// still safe for concurrent callers.
type Writer struct {
	dir         string
	segmentSize int64

	mu         sync.Mutex
	segmentIdx int
	file       *os.File
	mapping    []byte
	offset     int64
}

// NewWriter creates (after wiping, per §4.8: the WAL is process-
// lifetime only) `<base>/wal_<workerID>/` and opens its first segment.
func NewWriter(base, workerID string, segmentSize int64) (*Writer, error) {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	dir := filepath.Join(base, fmt.Sprintf("wal_%s", workerID))
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("wal: wiping %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("wal: creating %s: %w", dir, err)
	}

	w := &Writer{dir: dir, segmentSize: segmentSize}
	if err := w.openSegment(0); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) segmentPath(idx int) string {
	return filepath.Join(w.dir, fmt.Sprintf("segment_%06d.log", idx))
}

func (w *Writer) openSegment(idx int) error {
	f, err := os.OpenFile(w.segmentPath(idx), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("wal: opening segment %d: %w", idx, err)
	}
	if err := f.Truncate(w.segmentSize); err != nil {
		f.Close()
		return fmt.Errorf("wal: sizing segment %d: %w", idx, err)
	}
	mapping, err := unix.Mmap(int(f.Fd()), 0, int(w.segmentSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return fmt.Errorf("wal: mmap segment %d: %w", idx, err)
	}

	w.file = f
	w.mapping = mapping
	w.segmentIdx = idx
	w.offset = 0
	return nil
}

func (w *Writer) rotate() error {
	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := unix.Munmap(w.mapping); err != nil {
		return fmt.Errorf("wal: unmap segment %d: %w", w.segmentIdx, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wal: closing segment %d: %w", w.segmentIdx, err)
	}
	return w.openSegment(w.segmentIdx + 1)
}

func (w *Writer) syncLocked() error {
	return unix.Msync(w.mapping, unix.MS_SYNC)
}

// Append writes record followed by a 0x0A separator, rotating to a
// fresh segment first if it would not fit in the remainder of the
// current one. It returns the location a Relay needs to re-read this
// exact record later.
func (w *Writer) Append(record []byte) (loc Location, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	need := int64(len(record)) + 1
	if w.offset+need > w.segmentSize {
		if err := w.rotate(); err != nil {
			return Location{}, err
		}
	}

	start := w.offset
	copy(w.mapping[start:], record)
	w.mapping[start+int64(len(record))] = 0x0A
	w.offset += need

	return Location{SegmentIdx: w.segmentIdx, Offset: start, Size: int64(len(record))}, nil
}

// ReadAt re-reads exactly one previously appended record, reopening
// its segment file if it is not the one currently mapped.
func (w *Writer) ReadAt(loc Location) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if loc.SegmentIdx == w.segmentIdx {
		buf := make([]byte, loc.Size)
		copy(buf, w.mapping[loc.Offset:loc.Offset+loc.Size])
		return buf, nil
	}

	f, err := os.Open(w.segmentPath(loc.SegmentIdx))
	if err != nil {
		return nil, fmt.Errorf("wal: reopening segment %d: %w", loc.SegmentIdx, err)
	}
	defer f.Close()

	buf := make([]byte, loc.Size)
	if _, err := f.ReadAt(buf, loc.Offset); err != nil {
		return nil, fmt.Errorf("wal: reading segment %d at %d: %w", loc.SegmentIdx, loc.Offset, err)
	}
	return buf, nil
}

// Close flushes and unmaps the current segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := unix.Munmap(w.mapping); err != nil {
		return err
	}
	return w.file.Close()
}
