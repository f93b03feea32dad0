// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/internal/timer"
	"github.com/railwire/datatracks/pkg/value"
)

func TestPersisterPicksCheapestCandidate(t *testing.T) {
	cheap := NewMemoryEngine()
	pricey := NewMemoryEngine()

	p := NewPersister()
	p.Register(Definition{
		Name: "events",
		Candidates: []Candidate{
			{Engine: pricey, Cost: FixedCost(100)},
			{Engine: cheap, Cost: FixedCost(1)},
		},
	})

	rec := timer.Timed{ID: 42, Value: value.Int(7)}
	require.NoError(t, p.Store("events", rec))

	_, ok := cheap.Get([]byte("42"))
	assert.True(t, ok, "the cheaper candidate should have received the record")
	_, ok = pricey.Get([]byte("42"))
	assert.False(t, ok, "the pricier candidate must not have been used")
}

func TestPersisterAppliesMapBeforeStoring(t *testing.T) {
	mem := NewMemoryEngine()
	p := NewPersister()
	p.Register(Definition{
		Name: "doubled",
		Candidates: []Candidate{
			{Engine: mem, Cost: FixedCost(1), Map: func(rec timer.Timed) value.Value {
				return value.Int(int64(rec.Value.(value.Int)) * 2)
			}},
		},
	})

	require.NoError(t, p.Store("doubled", timer.Timed{ID: 1, Value: value.Int(21)}))

	got, ok := mem.Get([]byte("1"))
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(42)))
}

func TestPersisterUsesCustomKeyFunc(t *testing.T) {
	mem := NewMemoryEngine()
	p := NewPersister()
	p.Register(Definition{
		Name:       "keyed",
		Candidates: []Candidate{{Engine: mem, Cost: FixedCost(1)}},
		Key:        func(rec timer.Timed) []byte { return []byte(fmt.Sprintf("k-%d", rec.ID)) },
	})

	require.NoError(t, p.Store("keyed", timer.Timed{ID: 9, Value: value.Int(1)}))

	_, ok := mem.Get([]byte("k-9"))
	assert.True(t, ok)
}

func TestPersisterRecordsFailureForUnknownDefinition(t *testing.T) {
	p := NewPersister()
	err := p.Store("missing", timer.Timed{ID: 1, Value: value.Int(1)})
	require.Error(t, err)

	failures := p.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "missing", failures[0].Definition)
}

func TestPersisterRecordsFailureWhenEngineErrors(t *testing.T) {
	p := NewPersister()
	p.Register(Definition{
		Name:       "broken",
		Candidates: []Candidate{{Engine: failingEngine{}, Cost: FixedCost(1)}},
	})

	err := p.Store("broken", timer.Timed{ID: 1, Value: value.Int(1)})
	require.Error(t, err)
	assert.Len(t, p.Failures(), 1)
}

type failingEngine struct{}

func (failingEngine) Name() string                          { return "failing" }
func (failingEngine) Store(key []byte, v value.Value) error { return fmt.Errorf("boom") }
