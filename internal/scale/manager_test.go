// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scale

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/workerpool"
)

func TestManagerAlwaysSpawnsFirstWorker(t *testing.T) {
	pool := workerpool.New()
	var started int32
	m := New(pool, "t", 10, 3, time.Millisecond, func() int64 { return 0 },
		func(n int) workerpool.Body {
			return func(meta *workerpool.Meta) {
				atomic.AddInt32(&started, 1)
				for !meta.ShouldStop() {
					time.Sleep(time.Millisecond)
				}
			}
		})

	stop := make(chan struct{})
	go m.Run(stop)
	defer close(stop)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&started) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"t-0"}, m.Workers())
}

func TestManagerSpawnsUnderSustainedPressure(t *testing.T) {
	pool := workerpool.New()
	var queue int64 = 100
	m := New(pool, "p", 10, 3, time.Millisecond, func() int64 { return atomic.LoadInt64(&queue) },
		func(n int) workerpool.Body {
			return func(meta *workerpool.Meta) {
				for !meta.ShouldStop() {
					time.Sleep(time.Millisecond)
				}
			}
		})

	stop := make(chan struct{})
	go m.Run(stop)
	defer close(stop)

	require.Eventually(t, func() bool { return len(m.Workers()) >= 2 }, time.Second, time.Millisecond)
}

func TestManagerRetiresNewestWhenIdleButKeepsOne(t *testing.T) {
	pool := workerpool.New()
	var queue int64
	m := New(pool, "i", 10, 2, time.Millisecond, func() int64 { return atomic.LoadInt64(&queue) },
		func(n int) workerpool.Body {
			return func(meta *workerpool.Meta) {
				for !meta.ShouldStop() {
					time.Sleep(time.Millisecond)
				}
			}
		})

	// Force a worker into existence directly; Run then spawns "i-2" on
	// top of it, and sustained idleness (queue==0) retires that newest
	// one back down to one.
	m.mu.Lock()
	m.workers = append(m.workers, "i-1")
	m.spawned = 2
	m.mu.Unlock()
	pool.ExecuteAsync("i-1", func(meta *workerpool.Meta) {
		for !meta.ShouldStop() {
			time.Sleep(time.Millisecond)
		}
	}, nil)

	stop := make(chan struct{})
	go m.Run(stop)
	defer close(stop)

	require.Eventually(t, func() bool { return len(m.Workers()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"i-1"}, m.Workers())
}
