// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleSendRecv(t *testing.T) {
	s := NewSingle[int]("test")
	assert.Equal(t, 0, s.Len())
	s.Send(1)
	s.Send(2)
	assert.Equal(t, 2, s.Len())

	v, ok := s.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = s.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = s.TryRecv()
	assert.False(t, ok)
}

func TestSingleCloseUnblocksRecv(t *testing.T) {
	s := NewSingle[int]("test")
	done := make(chan struct{})
	go func() {
		_, ok := s.Recv()
		assert.False(t, ok)
		close(done)
	}()
	s.Close()
	<-done
}

func TestBroadcastFanout(t *testing.T) {
	b := NewBroadcast[int]("fanout")
	subs := []*Subscription[int]{b.Subscribe(), b.Subscribe(), b.Subscribe()}

	b.Send(42)

	for _, s := range subs {
		v, ok := s.TryRecv()
		require.True(t, ok)
		assert.Equal(t, 42, v)
		_, ok = s.TryRecv()
		assert.False(t, ok, "each subscriber receives the value exactly once")
	}
}

func TestBroadcastLateSubscriberMissesBackfill(t *testing.T) {
	b := NewBroadcast[int]("late")
	early := b.Subscribe()
	b.Send(1)
	late := b.Subscribe()
	b.Send(2)

	v, ok := early.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = early.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = late.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 2, v, "late subscriber only sees values sent after it subscribed")
	_, ok = late.TryRecv()
	assert.False(t, ok)
}

func TestBroadcastUnsubscribeDropsSlotOnNextSend(t *testing.T) {
	b := NewBroadcast[int]("drop")
	sub := b.Subscribe()
	assert.Equal(t, 1, b.Len())
	sub.Unsubscribe()
	b.Send(1)
	assert.Equal(t, 0, b.Len())
}
