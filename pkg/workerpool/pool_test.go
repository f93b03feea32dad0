// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package workerpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSyncRunsAndStops(t *testing.T) {
	p := New()
	ran := make(chan struct{})
	p.ExecuteSync("w1", func(meta *Meta) {
		close(ran)
		for !meta.ShouldStop() {
			time.Sleep(time.Millisecond)
		}
	}, nil)

	<-ran
	p.SendControl("w1", Stop("w1"))
	require.NoError(t, p.JoinWithTimeout("w1", time.Second))
}

func TestExecuteAsyncDepsOrdering(t *testing.T) {
	p := New()
	var order []string
	done := make(chan struct{})

	p.ExecuteAsync("first", func(meta *Meta) {
		order = append(order, "first")
	}, nil)
	require.NoError(t, p.Join("first"))

	p.ExecuteAsync("second", func(meta *Meta) {
		order = append(order, "second")
		close(done)
	}, []string{"first"})

	<-done
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPanicRecoverySendsStop(t *testing.T) {
	p := New()
	recv := p.ControlReceiver()

	p.ExecuteAsync("boom", func(meta *Meta) {
		panic("kaboom")
	}, nil)

	require.NoError(t, p.Join("boom"))

	seenReady, seenStop := false, false
	for i := 0; i < 2; i++ {
		cmd, ok := recv.Recv()
		require.True(t, ok)
		switch cmd.Kind {
		case CmdReady:
			seenReady = true
		case CmdStop:
			seenStop = true
		}
	}
	assert.True(t, seenReady)
	assert.True(t, seenStop)
}

func TestJoinUnknownWorker(t *testing.T) {
	p := New()
	err := p.Join("nope")
	assert.Error(t, err)
}

func TestJoinWithTimeoutExpires(t *testing.T) {
	p := New()
	block := make(chan struct{})
	p.ExecuteAsync("slow", func(meta *Meta) {
		<-block
	}, nil)

	err := p.JoinWithTimeout("slow", 10*time.Millisecond)
	assert.Error(t, err)
	close(block)
	require.NoError(t, p.Join("slow"))
}

func TestWorkersListsRegistered(t *testing.T) {
	p := New()
	p.ExecuteAsync("a", func(meta *Meta) {}, nil)
	p.ExecuteAsync("b", func(meta *Meta) {}, nil)
	require.NoError(t, p.Join("a"))
	require.NoError(t, p.Join("b"))

	ids := p.Workers()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestJoinAllWaitsForEveryWorker(t *testing.T) {
	p := New()
	p.ExecuteAsync("a", func(meta *Meta) { time.Sleep(10 * time.Millisecond) }, nil)
	p.ExecuteAsync("b", func(meta *Meta) { time.Sleep(20 * time.Millisecond) }, nil)

	require.NoError(t, p.JoinAll([]string{"a", "b"}))
}

func TestJoinAllReportsUnknownWorker(t *testing.T) {
	p := New()
	p.ExecuteAsync("a", func(meta *Meta) {}, nil)

	assert.Error(t, p.JoinAll([]string{"a", "missing"}))
}
