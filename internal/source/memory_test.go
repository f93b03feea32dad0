// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func TestMemorySourcePublishesPushedTrains(t *testing.T) {
	pool := workerpool.New()
	fanout := channel.NewBroadcast[*value.Train]("stop")
	sub := fanout.Subscribe()

	src := NewMemorySource(4)
	_, err := src.Operate("in0", fanout, pool)
	require.NoError(t, err)

	want := &value.Train{Values: []value.Value{value.Int(5)}}
	src.Push(want)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := sub.TryRecv(); ok {
			assert.Same(t, want, got)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("pushed train was never delivered")
}

func TestMemorySourceStopsOnClose(t *testing.T) {
	pool := workerpool.New()
	fanout := channel.NewBroadcast[*value.Train]("stop")

	src := NewMemorySource(1)
	workerID, err := src.Operate("in0", fanout, pool)
	require.NoError(t, err)

	src.Close()
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, pool.JoinWithTimeout(workerID, time.Second))
}
