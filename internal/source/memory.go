// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// MemorySource publishes pre-supplied or programmatically pushed
// Trains directly, with no transport or decoding step. It is the
// driver used by tests and by any caller feeding a plan directly from
// in-process code.
type MemorySource struct {
	trains chan *value.Train
}

// NewMemorySource creates a driver with room for buffer pending Trains
// before Push blocks.
func NewMemorySource(buffer int) *MemorySource {
	return &MemorySource{trains: make(chan *value.Train, buffer)}
}

// Push enqueues tr for delivery. It blocks if the driver's buffer is
// full and no worker has started draining it yet.
func (s *MemorySource) Push(tr *value.Train) { s.trains <- tr }

// Close signals no more Trains will be pushed; the driver's worker
// exits once the buffer drains.
func (s *MemorySource) Close() { close(s.trains) }

func (s *MemorySource) Type() string { return "memory" }

func (s *MemorySource) Configs() map[string]plan.Config { return map[string]plan.Config{} }

func (s *MemorySource) Operate(id string, fanout plan.MultiSender, pool *workerpool.Pool) (string, error) {
	workerID := "memory-source-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		for {
			if meta.ShouldStop() {
				return
			}
			tr, ok := <-s.trains
			if !ok {
				return
			}
			fanout.Send(tr)
		}
	}, nil)
	return workerID, nil
}
