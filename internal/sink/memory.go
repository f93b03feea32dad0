// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"sync"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// MemoryDestination collects every Train it receives, in arrival
// order. Used by tests and by callers draining a plan in-process.
type MemoryDestination struct {
	in *channel.Single[*value.Train]

	mu       sync.Mutex
	received []*value.Train
}

func NewMemoryDestination() *MemoryDestination {
	return &MemoryDestination{in: channel.NewSingle[*value.Train]("memory-sink")}
}

func (d *MemoryDestination) Type() string                      { return "memory" }
func (d *MemoryDestination) In() *channel.Single[*value.Train] { return d.in }

func (d *MemoryDestination) Serialize() plan.DestinationModel {
	return plan.DestinationModel{Type: "memory", Options: map[string]interface{}{}}
}

// Received returns every Train collected so far.
func (d *MemoryDestination) Received() []*value.Train {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*value.Train, len(d.received))
	copy(out, d.received)
	return out
}

func (d *MemoryDestination) Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (string, error) {
	workerID := "memory-sink-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		drainToDestination(meta, inbound, workerID, d.write, RetryPolicy{MaxAttempts: 1})
	}, nil)
	return workerID, nil
}

func (d *MemoryDestination) write(tr *value.Train) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append(d.received, tr)
	return nil
}
