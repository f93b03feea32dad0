// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// fakeSource feeds a fixed batch of trains into its fanout once started.
type fakeSource struct{ trains []*value.Train }

func (s *fakeSource) Type() string               { return "fake" }
func (s *fakeSource) Configs() map[string]Config { return map[string]Config{} }
func (s *fakeSource) Operate(id string, fanout MultiSender, pool *workerpool.Pool) (string, error) {
	workerID := "fake-source-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		for _, tr := range s.trains {
			fanout.Send(tr)
		}
		for !meta.ShouldStop() {
			time.Sleep(time.Millisecond)
		}
	}, nil)
	return workerID, nil
}

// fakeDestination collects whatever trains reach it.
type fakeDestination struct {
	in       *channel.Single[*value.Train]
	received chan *value.Train
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{in: channel.NewSingle[*value.Train]("fake-dest"), received: make(chan *value.Train, 16)}
}

func (d *fakeDestination) Type() string                      { return "fake" }
func (d *fakeDestination) In() *channel.Single[*value.Train] { return d.in }
func (d *fakeDestination) Serialize() DestinationModel       { return DestinationModel{Type: "fake"} }
func (d *fakeDestination) Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (string, error) {
	workerID := "fake-dest-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		for !meta.ShouldStop() {
			tr, ok := inbound.TryRecv()
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			d.received <- tr
		}
	}, nil)
	return workerID, nil
}

func TestDeploymentWiresSourceThroughToDestination(t *testing.T) {
	p, err := ParsePlan("1 -- 2\nIn\nfake{}:1\nOut\nfake{}:2")
	require.NoError(t, err)

	src := &fakeSource{trains: []*value.Train{
		{Values: []value.Value{value.Int(1)}},
		{Values: []value.Value{value.Int(2)}},
	}}
	dst := newFakeDestination()

	pool := workerpool.New()
	dep := Deploy(p, pool)
	reg := Registry{
		Sources:      map[string]SourceFactory{"fake": func(json.RawMessage) (Source, error) { return src, nil }},
		Destinations: map[string]DestFactory{"fake": func(json.RawMessage) (Destination, error) { return dst, nil }},
	}
	require.NoError(t, dep.Bind(reg))
	require.NoError(t, dep.Start())

	received := make([]*value.Train, 0, 2)
	deadline := time.Now().Add(2 * time.Second)
	for len(received) < 2 && time.Now().Before(deadline) {
		select {
		case tr := <-dst.received:
			received = append(received, tr)
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.Len(t, received, 2)
	assert.Equal(t, value.Int(1), received[0].Values[0])
	assert.Equal(t, value.Int(2), received[1].Values[0])

	require.NoError(t, dep.Stop())
}

func TestDeploymentBoundResolvesSourceFanout(t *testing.T) {
	p, err := ParsePlan("1\nIn\nfake{}:1")
	require.NoError(t, err)

	pool := workerpool.New()
	dep := Deploy(p, pool)
	reg := Registry{
		Sources: map[string]SourceFactory{"fake": func(json.RawMessage) (Source, error) {
			return &fakeSource{}, nil
		}},
	}
	require.NoError(t, dep.Bind(reg))

	_, ok := dep.Bound(2)
	assert.False(t, ok)

	fanout, ok := dep.Bound(1)
	require.True(t, ok)
	assert.NotNil(t, fanout)

	require.NoError(t, dep.Stop())
}

func TestDeploymentBindRejectsUnknownDriver(t *testing.T) {
	p, err := ParsePlan("1\nIn\nmystery{}:1")
	require.NoError(t, err)

	pool := workerpool.New()
	dep := Deploy(p, pool)
	err = dep.Bind(Registry{})
	assert.Error(t, err)
}
