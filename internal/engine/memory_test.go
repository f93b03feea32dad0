// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/value"
)

func TestMemoryEngineStoreAndGet(t *testing.T) {
	e := NewMemoryEngine()
	require.NoError(t, e.Store([]byte("k"), value.Int(7)))

	got, ok := e.Get([]byte("k"))
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(7)))
	assert.Equal(t, 1, e.Len())
}

func TestMemoryEngineOverwritesExistingKey(t *testing.T) {
	e := NewMemoryEngine()
	require.NoError(t, e.Store([]byte("k"), value.Int(1)))
	require.NoError(t, e.Store([]byte("k"), value.Int(2)))

	got, ok := e.Get([]byte("k"))
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(2)))
	assert.Equal(t, 1, e.Len())
}
