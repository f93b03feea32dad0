// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func TestPlatformPassthroughFlushSendsUnchanged(t *testing.T) {
	station := NewStation(2, []int{1})
	platform := NewPlatform(station)
	sub := station.Sender.Subscribe()

	platform.flush([]*value.Train{trainAt(0, 42)})

	out, ok := sub.TryRecv()
	require.True(t, ok)
	require.Len(t, out.Values, 1)
	assert.True(t, out.Values[0].Equal(value.Int(42)))
}

func TestPlatformAppliesTransformOnFlush(t *testing.T) {
	station := NewStation(2, []int{1})
	expr, err := algebra.CompileExpr("_ * 10")
	require.NoError(t, err)
	root := algebra.NewRoot()
	scan := algebra.NewScan(root.Alloc(), "in", reservoir.New[value.Value]())
	station.Transform = algebra.NewProject(root.Alloc(), scan, expr, false)

	platform := NewPlatform(station)
	sub := station.Sender.Subscribe()

	tr := value.NewTrain([]value.Value{value.Int(2), value.Int(3)}, value.NewTime(0, 0))
	platform.flush([]*value.Train{tr})

	out, ok := sub.TryRecv()
	require.True(t, ok)
	require.Len(t, out.Values, 2)
	assert.True(t, out.Values[0].Equal(value.Int(20)))
	assert.True(t, out.Values[1].Equal(value.Int(30)))
	assert.Equal(t, station.ID, out.Last(), "drain_to_train marks the train at this station's stop id")
}

func TestPlatformWindowBuffersUntilBucketCloses(t *testing.T) {
	station := NewStation(2, []int{1})
	station.Window = NewTumblingWindow(1000)
	platform := NewPlatform(station)
	sub := station.Sender.Subscribe()

	platform.flush([]*value.Train{trainAt(100, 1)})
	_, ok := sub.TryRecv()
	assert.False(t, ok, "bucket still open, nothing should have been sent yet")

	platform.flush([]*value.Train{trainAt(1500, 2)})
	out, ok := sub.TryRecv()
	require.True(t, ok, "watermark advanced past the first bucket, it should now flush")
	assert.True(t, out.Values[0].Equal(value.Int(1)))
}

// TestPlatformBlockAllSynchronizesBothInputs is scenario 6: a stop with
// inputs=[1,2] and block=[1,2] must not emit until a train has arrived
// from both, and the emitted train must carry both marks.
func TestPlatformBlockAllSynchronizesBothInputs(t *testing.T) {
	station := NewStation(3, []int{1, 2})
	station.Block = NewAllBlock([]int{1, 2})
	platform := NewPlatform(station)
	sub := station.Sender.Subscribe()

	pool := workerpool.New()
	workerID := "platform-3"
	pool.ExecuteAsync(workerID, platform.Run, nil)
	defer func() {
		pool.SendControl(workerID, workerpool.Stop(workerID))
		pool.Join(workerID)
	}()

	a := value.NewTrain([]value.Value{value.Int(1)}, value.NewTime(0, 0)).Mark(1, value.NewTime(0, 0))
	platform.Accept(1, a)

	_, ok := sub.TryRecv()
	assert.False(t, ok, "only one of the two required inputs has arrived")

	b := value.NewTrain([]value.Value{value.Int(2)}, value.NewTime(0, 0)).Mark(2, value.NewTime(0, 0))
	platform.Accept(2, b)

	deadline := time.Now().Add(2 * time.Second)
	var out *value.Train
	for time.Now().Before(deadline) {
		if tr, ok := sub.TryRecv(); ok {
			out = tr
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, out, "both inputs arrived, exactly one train should flush")
	require.Len(t, out.Values, 2)
	_, hasA := out.Marks[1]
	_, hasB := out.Marks[2]
	assert.True(t, hasA && hasB, "merged train must carry both upstream marks")

	_, ok = sub.TryRecv()
	assert.False(t, ok, "no second train should follow from this single round")
}
