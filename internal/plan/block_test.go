// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonBlockPassesThrough(t *testing.T) {
	b := NewNonBlock()
	flushed, ready := b.Push(1, trainAt(0, 1))
	require.True(t, ready)
	assert.Len(t, flushed, 1)
}

func TestSpecificBlockBuffersUntilNonBlockingArrives(t *testing.T) {
	b := NewSpecificBlock([]int{1})

	_, ready := b.Push(1, trainAt(0, 10))
	assert.False(t, ready, "blocking upstream 1 must not flush on its own")

	flushed, ready := b.Push(2, trainAt(0, 20))
	require.True(t, ready)
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Values, 2, "buffered train from 1 merges with the trigger train from 2")
}

func TestSpecificBlockFlushesEmptyBufferAsTrigger(t *testing.T) {
	b := NewSpecificBlock([]int{1})
	flushed, ready := b.Push(2, trainAt(0, 20))
	require.True(t, ready)
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Values, 1)
}

func TestAllBlockWaitsForEveryInput(t *testing.T) {
	b := NewAllBlock([]int{1, 2, 3})

	_, ready := b.Push(1, trainAt(0, 1))
	assert.False(t, ready)
	_, ready = b.Push(2, trainAt(0, 2))
	assert.False(t, ready)

	flushed, ready := b.Push(3, trainAt(0, 3))
	require.True(t, ready)
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Values, 3)
}

func TestAllBlockResetsAfterFlush(t *testing.T) {
	b := NewAllBlock([]int{1, 2})
	b.Push(1, trainAt(0, 1))
	flushed, ready := b.Push(2, trainAt(0, 2))
	require.True(t, ready)
	require.Len(t, flushed, 1)

	_, ready = b.Push(1, trainAt(0, 10))
	assert.False(t, ready, "a fresh round must wait for every input again")
}
