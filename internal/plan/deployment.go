// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// SourceFactory builds a Source driver from a SourceSpec's raw (still
// unvalidated) Options. internal/source's constructors are wrapped into
// factories one layer up (cmd/datatracks), since neither internal/plan
// nor internal/source may import the other without a cycle.
type SourceFactory func(options json.RawMessage) (Source, error)

// DestFactory is the Destination-side counterpart of SourceFactory.
type DestFactory func(options json.RawMessage) (Destination, error)

// Registry resolves a plan's `In`/`Out` driver type names into concrete
// drivers, mirroring original_source's Storage, which keeps a
// `HashMap<String, fn(Map<String,Value>) -> Sources>` per driver kind.
type Registry struct {
	Sources      map[string]SourceFactory
	Destinations map[string]DestFactory
}

// Deployment is a fully wired, running instance of a Plan (§4.7/§6):
// every Station has a Platform driving it, every Station's Sender is
// pumped into its downstream Stations' Platform.Accept, and every
// In/Out line is a running driver goroutine feeding or draining a stop.
type Deployment struct {
	Plan      *Plan
	Pool      *workerpool.Pool
	Platforms map[int]*Platform

	sourceFanouts map[int]MultiSender // stop id -> a bound Source's fanout, for Train injection (§4.10)
	workerIDs     []string
}

// Deploy builds (but does not start or bind drivers for) a Platform per
// station of p. Call Bind, then Start.
func Deploy(p *Plan, pool *workerpool.Pool) *Deployment {
	platforms := make(map[int]*Platform, len(p.Stations))
	for id, station := range p.Stations {
		platforms[id] = NewPlatform(station)
	}

	return &Deployment{
		Plan:          p,
		Pool:          pool,
		Platforms:     platforms,
		sourceFanouts: map[int]MultiSender{},
	}
}

// Bind resolves the Source/Destination drivers this Deployment's plan
// names against reg and starts their I/O goroutines, without yet
// starting the Platforms themselves. Separated from Deploy so an
// unknown driver type or a rejected option blob surfaces before
// anything is running.
func (d *Deployment) Bind(reg Registry) error {
	for _, spec := range d.Plan.Sources {
		if _, ok := d.Plan.Stations[spec.StopID]; !ok {
			return fmt.Errorf("plan: In line references unknown stop %d", spec.StopID)
		}
		factory, ok := reg.Sources[spec.Type]
		if !ok {
			return fmt.Errorf("plan: no Source driver registered for %q", spec.Type)
		}
		src, err := factory(spec.Options)
		if err != nil {
			return fmt.Errorf("plan: build %q source for stop %d: %w", spec.Type, spec.StopID, err)
		}
		if _, err := ValidateOptions(src.Configs(), spec.Options); err != nil {
			return fmt.Errorf("plan: options for %q source at stop %d: %w", spec.Type, spec.StopID, err)
		}

		fanout := d.Platforms[spec.StopID].station.Sender
		workerID, err := src.Operate(fmt.Sprintf("%d", spec.StopID), fanout, d.Pool)
		if err != nil {
			return fmt.Errorf("plan: start %q source for stop %d: %w", spec.Type, spec.StopID, err)
		}
		d.sourceFanouts[spec.StopID] = fanout
		d.workerIDs = append(d.workerIDs, workerID)
	}

	for _, spec := range d.Plan.Destinations {
		if _, ok := d.Plan.Stations[spec.StopID]; !ok {
			return fmt.Errorf("plan: Out line references unknown stop %d", spec.StopID)
		}
		factory, ok := reg.Destinations[spec.Type]
		if !ok {
			return fmt.Errorf("plan: no Destination driver registered for %q", spec.Type)
		}
		dst, err := factory(spec.Options)
		if err != nil {
			return fmt.Errorf("plan: build %q destination for stop %d: %w", spec.Type, spec.StopID, err)
		}

		sub := d.Platforms[spec.StopID].station.Sender.Subscribe()
		workerID, err := dst.Operate(fmt.Sprintf("%d", spec.StopID), dst.In(), d.Pool)
		if err != nil {
			return fmt.Errorf("plan: start %q destination for stop %d: %w", spec.Type, spec.StopID, err)
		}
		pumpID := fmt.Sprintf("pump-out-%d-%s", spec.StopID, spec.Type)
		d.Pool.ExecuteAsync(pumpID, pumpIntoSingle(sub, dst.In()), nil)
		d.workerIDs = append(d.workerIDs, workerID, pumpID)
	}

	return nil
}

// Start launches every station's Platform loop, then pumps each
// station's Sender into every downstream station that lists it as an
// Input, reproducing the chain topology a plan's lines describe.
func (d *Deployment) Start() error {
	for id, platform := range d.Platforms {
		workerID := fmt.Sprintf("platform-%d", id)
		d.Pool.ExecuteAsync(workerID, platform.Run, nil)
		d.workerIDs = append(d.workerIDs, workerID)
	}

	for id, platform := range d.Platforms {
		for _, from := range platform.station.Inputs {
			upstream, ok := d.Platforms[from]
			if !ok {
				return fmt.Errorf("plan: stop %d depends on unknown stop %d", id, from)
			}
			sub := upstream.station.Sender.Subscribe()
			pumpID := fmt.Sprintf("pump-%d-to-%d", from, id)
			d.Pool.ExecuteAsync(pumpID, pumpIntoPlatform(from, sub, platform), nil)
			d.workerIDs = append(d.workerIDs, pumpID)
		}
	}
	return nil
}

// Bound reports the fanout a live In-line stop publishes through, so a
// control-protocol server handling a Train message (§4.10) can deliver
// it the same way that stop's own driver would.
func (d *Deployment) Bound(stopID int) (MultiSender, bool) {
	fanout, ok := d.sourceFanouts[stopID]
	return fanout, ok
}

// Stop signals every worker this Deployment spawned and waits for them
// to unwind.
func (d *Deployment) Stop() error {
	for _, id := range d.workerIDs {
		d.Pool.SendControl(id, workerpool.Stop(id))
	}
	return d.Pool.JoinAll(d.workerIDs)
}

// pumpIntoPlatform forwards every train a Subscription yields into a
// downstream Platform's Accept, tagged with the upstream stop id the
// Block gate keys Specific/All gating on.
func pumpIntoPlatform(from int, sub *channel.Subscription[*value.Train], to *Platform) workerpool.Body {
	return func(meta *workerpool.Meta) {
		defer sub.Unsubscribe()
		for !meta.ShouldStop() {
			tr, ok := sub.TryRecv()
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			to.Accept(from, tr)
		}
	}
}

// pumpIntoSingle forwards every train a Subscription yields into a
// Destination's inbound channel.
func pumpIntoSingle(sub *channel.Subscription[*value.Train], in *channel.Single[*value.Train]) workerpool.Body {
	return func(meta *workerpool.Meta) {
		defer sub.Unsubscribe()
		for !meta.ShouldStop() {
			tr, ok := sub.TryRecv()
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			in.Send(tr)
		}
	}
}
