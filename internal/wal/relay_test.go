// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayForwardsImmediatelyWithoutPressure(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "0", DefaultSegmentSize)
	require.NoError(t, err)
	defer w.Close()

	var mu sync.Mutex
	var forwarded []string
	relay := NewRelay(w, func() int64 { return 0 }, func(b []byte) {
		mu.Lock()
		forwarded = append(forwarded, string(b))
		mu.Unlock()
	})

	loc, err := w.Append([]byte("a"))
	require.NoError(t, err)
	relay.Offer(loc, []byte("a"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, forwarded)
	assert.Equal(t, 0, relay.Pending())
}

func TestRelayDelaysUnderPressureThenReplaysFIFOOnTick(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "0", DefaultSegmentSize)
	require.NoError(t, err)
	defer w.Close()

	downstream := DelayThreshold
	var mu sync.Mutex
	var forwarded []string
	relay := NewRelay(w, func() int64 { return downstream }, func(b []byte) {
		mu.Lock()
		forwarded = append(forwarded, string(b))
		mu.Unlock()
	})

	for _, rec := range []string{"first", "second", "third"} {
		loc, err := w.Append([]byte(rec))
		require.NoError(t, err)
		relay.Offer(loc, []byte(rec))
	}
	assert.Equal(t, 3, relay.Pending(), "downstream is over DelayThreshold, everything should be queued")

	// Still congested: a Tick should change nothing.
	relay.Tick()
	assert.Equal(t, 3, relay.Pending())

	// Pressure eases under ReplayThreshold: now Tick should drain FIFO.
	downstream = 0
	relay.Tick()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, forwarded)
	assert.Equal(t, 0, relay.Pending())
}
