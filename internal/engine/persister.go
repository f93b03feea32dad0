// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package engine implements the engine dispatcher (§4.9): a Persister
// picks, per incoming record, whichever catalog engine is currently
// cheapest for that record's definition, maps the record, and stores
// it.
package engine

import (
	"fmt"
	"sync"

	"github.com/railwire/datatracks/internal/timer"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
)

// Engine is implemented by every concrete storage backend a Persister
// can route records to.
type Engine interface {
	Name() string
	Store(key []byte, v value.Value) error
}

// CostFunc estimates how expensive it would be for its engine to store
// rec; the Persister always picks the candidate reporting the lowest
// cost.
type CostFunc func(rec timer.Timed) float64

// MapFunc transforms a record's value before it reaches its chosen
// engine (e.g. projecting fields an object-storage engine doesn't
// need). A nil MapFunc stores the value unchanged.
type MapFunc func(rec timer.Timed) value.Value

// KeyFunc derives the storage key for rec. A Definition without one
// falls back to the record's annotator-assigned id.
type KeyFunc func(rec timer.Timed) []byte

// Candidate pairs one engine with its cost and mapping functions for
// one Definition.
type Candidate struct {
	Engine Engine
	Cost   CostFunc
	Map    MapFunc
}

// Definition names one persistence target and the engines able to
// serve it, matching §4.9's "per-(definition, engine) costs".
type Definition struct {
	Name       string
	Candidates []Candidate
	Key        KeyFunc
}

// Failure records one dropped record: the core never retries
// automatically (§4.9), so every failure is only ever recorded, never
// replayed.
type Failure struct {
	Definition string
	Err        error
}

// Persister dispatches incoming records to whichever engine is
// currently cheapest for their definition. Dispatch is single-threaded
// per Persister instance — concurrency comes from the pool hosting
// many instances, not from sharing one across goroutines.
type Persister struct {
	mu          sync.Mutex
	definitions map[string]*Definition
	failures    []Failure
}

// NewPersister returns an empty Persister; call Register to populate
// its catalog before Store.
func NewPersister() *Persister {
	return &Persister{definitions: map[string]*Definition{}}
}

// Register adds def to the catalog, replacing any prior definition of
// the same name.
func (p *Persister) Register(def Definition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := def
	p.definitions[def.Name] = &d
}

// Store picks the cheapest candidate engine registered for
// definitionName, maps rec through that candidate's MapFunc, and
// stores the result. A failure (unknown definition, no candidates, or
// the engine's own Store erroring) is recorded and the record is
// dropped — the caller gets the error back but must not retry it
// itself, matching §4.9's "no automatic retry in the core".
func (p *Persister) Store(definitionName string, rec timer.Timed) error {
	p.mu.Lock()
	def, ok := p.definitions[definitionName]
	p.mu.Unlock()
	if !ok {
		err := fmt.Errorf("engine: unknown definition %q", definitionName)
		p.recordFailure(definitionName, err)
		return err
	}
	if len(def.Candidates) == 0 {
		err := fmt.Errorf("engine: definition %q has no candidate engines", definitionName)
		p.recordFailure(definitionName, err)
		return err
	}

	best := def.Candidates[0]
	bestCost := best.Cost(rec)
	for _, c := range def.Candidates[1:] {
		if cost := c.Cost(rec); cost < bestCost {
			best, bestCost = c, cost
		}
	}

	mapped := rec.Value
	if best.Map != nil {
		mapped = best.Map(rec)
	}

	key := []byte(fmt.Sprintf("%d", rec.ID))
	if def.Key != nil {
		key = def.Key(rec)
	}

	if err := best.Engine.Store(key, mapped); err != nil {
		wrapped := fmt.Errorf("engine: %s store via %s: %w", definitionName, best.Engine.Name(), err)
		p.recordFailure(definitionName, wrapped)
		return wrapped
	}
	return nil
}

func (p *Persister) recordFailure(definition string, err error) {
	p.mu.Lock()
	p.failures = append(p.failures, Failure{Definition: definition, Err: err})
	p.mu.Unlock()
	log.Errorf("engine: %s: %v", definition, err)
}

// Failures returns every failure recorded so far, oldest first.
func (p *Persister) Failures() []Failure {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Failure, len(p.failures))
	copy(out, p.failures)
	return out
}
