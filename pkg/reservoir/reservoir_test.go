// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reservoir

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAddDrain(t *testing.T) {
	r := New[int]()
	r.Append([]int{1, 2, 3})
	r.Add(4)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, uint64(4), r.Count())

	out := r.Drain()
	assert.Equal(t, []int{1, 2, 3, 4}, out)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, uint64(4), r.Count(), "count is cumulative, unaffected by drain")
}

func TestDrainEmptyReturnsNil(t *testing.T) {
	r := New[string]()
	assert.Nil(t, r.Drain())
}

func TestSetSource(t *testing.T) {
	r := New[int]()
	_, ok := r.Source()
	assert.False(t, ok)

	r.SetSource(2)
	idx, ok := r.Source()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestConcurrentAddDrain(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			r.Add(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, uint64(100), r.Count())
	assert.Equal(t, 100, len(r.Drain()))
}
