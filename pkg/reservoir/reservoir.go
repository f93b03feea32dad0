// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reservoir implements the concurrent, ordered value buffer that
// Scan/IndexScan operators (§4.5) drain from: a thin mutex-guarded slice
// with an insertion counter and an optional source tag applied to every
// value drained after SetSource is called.
package reservoir

import "sync"

// Reservoir is a concurrent, insertion-ordered collection of values,
// uniquely indexed by an internal counter that doubles as insertion
// order. Readers block only briefly, under a mutex; pushes never copy
// the slice and never allocate beyond what append needs.
type Reservoir[T any] struct {
	mu     sync.Mutex
	buf    []T
	count  uint64
	source int
	tagged bool
}

// New returns an empty, untagged reservoir.
func New[T any]() *Reservoir[T] {
	return &Reservoir[T]{}
}

// Append adds every value in list, in order.
func (r *Reservoir[T]) Append(list []T) {
	if len(list) == 0 {
		return
	}
	r.mu.Lock()
	r.buf = append(r.buf, list...)
	r.count += uint64(len(list))
	r.mu.Unlock()
}

// Add adds a single value.
func (r *Reservoir[T]) Add(v T) {
	r.mu.Lock()
	r.buf = append(r.buf, v)
	r.count++
	r.mu.Unlock()
}

// Len reports the number of values currently buffered.
func (r *Reservoir[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Count reports the total number of values ever inserted, including
// ones already drained.
func (r *Reservoir[T]) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// SetSource tags every value this reservoir yields on future drains with
// provenance index i. Scan operators call this once, at attach time;
// Wagonize (pkg/value) is applied by the caller using the returned
// index, not by the reservoir itself, since T is not constrained to
// value.Value here.
func (r *Reservoir[T]) SetSource(i int) {
	r.mu.Lock()
	r.source = i
	r.tagged = true
	r.mu.Unlock()
}

// Source returns the provenance index set by SetSource and whether one
// was ever set.
func (r *Reservoir[T]) Source() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source, r.tagged
}

// Drain atomically clears the reservoir and returns everything it held,
// in insertion order.
func (r *Reservoir[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		return nil
	}
	out := r.buf
	r.buf = nil
	return out
}
