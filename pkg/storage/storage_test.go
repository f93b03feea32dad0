// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))

	v, ok, err := s.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	_, ok, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("a"), []byte("2")))

	v, ok, err := s.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2"), v)
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Delete([]byte("a")))

	_, ok, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanOrdering(t *testing.T) {
	s := openTemp(t)
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put([]byte(k), []byte(k)))
	}

	var seen []string
	require.NoError(t, s.Scan(nil, func(k, v []byte) bool {
		seen = append(seen, string(k))
		return true
	}))
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestTransactionCommit(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Put([]byte("tx"), []byte("v")))
	require.NoError(t, s.Commit())

	v, ok, err := s.Get([]byte("tx"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestTransactionRollback(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Begin())
	require.NoError(t, s.Put([]byte("tx"), []byte("v")))
	require.NoError(t, s.Rollback())

	require.NoError(t, s.Begin())
	require.NoError(t, s.Commit())
}
