// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package timer implements the time annotator (§4.8): every record
// entering the engine is stamped with a monotonic id and a wall-clock
// timestamp before anything downstream sees it.
package timer

import (
	"sync/atomic"
	"time"

	"github.com/railwire/datatracks/pkg/value"
)

// batchSize is how many ids a worker's localAllocator reserves from
// the shared Counter per atomic add, so only one id in a million needs
// the atomic itself.
const batchSize = 1_000_000

// Initial is a record as it arrives at the annotator, before it has
// been assigned an id.
type Initial struct {
	Value value.Value
	Meta  map[string]string
}

// Timed is a record after the annotator has stamped it.
type Timed struct {
	ID          uint64
	TimestampMs int64
	Name        string
	Value       value.Value
	Meta        map[string]string
}

// Counter is the single global id source every annotator worker's
// localAllocator draws batches from. ids are strictly monotonic within
// one worker's allocator but carry no ordering guarantee across
// workers (§4.8).
type Counter struct {
	next uint64
}

// Allocate reserves count consecutive ids and returns the first one.
func (c *Counter) Allocate(count uint64) uint64 {
	return atomic.AddUint64(&c.next, count) - count
}

// localAllocator hands out ids from one reserved batch at a time.
type localAllocator struct {
	counter   *Counter
	next      uint64
	remaining uint64
}

func newLocalAllocator(counter *Counter) *localAllocator {
	return &localAllocator{counter: counter}
}

func (a *localAllocator) Next() uint64 {
	if a.remaining == 0 {
		a.next = a.counter.Allocate(batchSize)
		a.remaining = batchSize
	}
	id := a.next
	a.next++
	a.remaining--
	return id
}

// Annotator is one worker's view of the time annotator: it draws ids
// from a shared Counter's batches and stamps every record it sees with
// its own name.
type Annotator struct {
	name      string
	allocator *localAllocator
}

// NewAnnotator returns an Annotator that stamps every record with name
// and draws ids from counter.
func NewAnnotator(counter *Counter, name string) *Annotator {
	return &Annotator{name: name, allocator: newLocalAllocator(counter)}
}

// Annotate stamps rec with this worker's next id and the current
// wall-clock time.
func (a *Annotator) Annotate(rec Initial) Timed {
	return Timed{
		ID:          a.allocator.Next(),
		TimestampMs: time.Now().UnixMilli(),
		Name:        a.name,
		Value:       rec.Value,
		Meta:        rec.Meta,
	}
}
