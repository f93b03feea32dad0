// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

var pressureGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "datatracks",
	Subsystem: "platform",
	Name:      "pressure",
	Help:      "Incoming queue depth sampled by each platform's loop.",
}, []string{"stop_id"})

func init() {
	prometheus.MustRegister(pressureGauge)
}

// incomingTrain tags a train with the upstream stop id it arrived from,
// so the Block gate can route it (Specific/All distinguish blocking
// from non-blocking upstreams by this id).
type incomingTrain struct {
	from  int
	train *value.Train
}

// Platform is the per-stop runtime (§4.7): it owns the incoming
// channel, the Block gate, the compiled transform's iterator, the
// outbound Sender, and a pressure gauge sampled every loop iteration.
type Platform struct {
	station  *Station
	incoming *channel.Single[incomingTrain]

	pressure     int64 // atomic: current incoming queue depth
	threshold    int64 // atomic: overflow threshold, updatable via Threshold(t)
	signaledHigh int32 // atomic bool: has Threshold already been sent upstream

	pending []*value.Train // trains buffered by Window, awaiting a closed bucket
}

// NewPlatform returns a Platform for station, with an empty incoming
// queue and a default overflow threshold.
func NewPlatform(station *Station) *Platform {
	return &Platform{
		station:   station,
		incoming:  channel.NewSingle[incomingTrain](fmt.Sprintf("platform-%d-in", station.ID)),
		threshold: 10_000,
	}
}

// Incoming is the channel upstream Senders publish trains to, tagged
// with their own stop id.
func (p *Platform) Incoming() *channel.Single[incomingTrain] { return p.incoming }

// Accept is how an upstream Sender hands a train to this platform.
func (p *Platform) Accept(fromStop int, tr *value.Train) {
	p.incoming.Send(incomingTrain{from: fromStop, train: tr})
	atomic.AddInt64(&p.pressure, 1)
}

// Run is the Platform's loop body, meant to be handed to
// workerpool.Pool.ExecuteSync/ExecuteAsync. The pool wrapper already
// sends Ready(id) before calling body and Stop(id) on return (including
// on panic recovery), so Run itself only implements the loop's own
// steps (§4.7's numbered list, items 2–3); it never sends those two
// commands directly.
func (p *Platform) Run(meta *workerpool.Meta) {
	for !meta.ShouldStop() {
		p.sampleAndSignal(meta)

		if cmd, ok := meta.Inbound.TryRecv(); ok {
			switch cmd.Kind {
			case workerpool.CmdStop:
				return
			case workerpool.CmdThreshold:
				atomic.StoreInt64(&p.threshold, cmd.Threshold)
			}
		}

		msg, ok := p.incoming.TryRecv()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		atomic.AddInt64(&p.pressure, -1)

		if !p.station.Layout.Accepts(inferLayout(msg.train)) {
			continue
		}

		flushed, ready := p.station.Block.Push(msg.from, msg.train)
		if !ready {
			continue
		}
		p.flush(flushed)
	}
}

// sampleAndSignal implements §4.7 step 2's threshold bookkeeping:
// emitting Threshold when pressure crosses the configured limit from
// below, and Okay symmetrically when it drops back under it.
func (p *Platform) sampleAndSignal(meta *workerpool.Meta) {
	pressure := atomic.LoadInt64(&p.pressure)
	threshold := atomic.LoadInt64(&p.threshold)
	pressureGauge.WithLabelValues(fmt.Sprintf("%d", p.station.ID)).Set(float64(pressure))

	if pressure > threshold {
		if atomic.CompareAndSwapInt32(&p.signaledHigh, 0, 1) {
			meta.Outbound.Send(workerpool.Threshold(pressure))
		}
	} else {
		if atomic.CompareAndSwapInt32(&p.signaledHigh, 1, 0) {
			meta.Outbound.Send(workerpool.Okay(meta.ID))
		}
	}
}

// flush implements §4.7 step 3: window.take(trains) → iterator.load →
// drain_to_train(stop_id) → sender.send.
func (p *Platform) flush(trains []*value.Train) {
	p.pending = append(p.pending, trains...)
	for _, t := range trains {
		p.station.Watermark.Observe(t.EventTime)
	}

	ready, rest := p.station.Window.Take(p.pending, p.station.Watermark.Current())
	p.pending = rest

	for _, tr := range ready {
		out := p.drainThrough(tr)
		p.station.Sender.Send(out)
	}
}

// drainThrough runs tr through the station's compiled transform, if
// any, producing the train to publish downstream. A fresh iterator is
// requested per flush (Algebraic.Iterator() always starts empty) so
// its Scan reservoirs start drained; the incoming values are appended
// to every reservoir it reports before draining once.
//
// Stations whose transform reaches more than one Scan (a relational
// join across two distinct upstream stops) load every reservoir with
// the same flattened value list: true multi-stop joins are expected to
// be fed through a feeder station that unions its inputs first, so the
// join's own two Scan/IndexScan leaves are tagged at compile time and
// read from one already-merged stream here.
//
// A panic here is deliberately left to propagate: §4.7's failure
// semantics make a transform panic fatal to this platform only, and
// that is exactly what Run returning via panic, caught by the pool's
// own per-worker recover (workerpool.Pool.ExecuteSync/ExecuteAsync),
// already gives us — recovering locally here would hide the failure
// from the pool instead.
func (p *Platform) drainThrough(tr *value.Train) *value.Train {
	if p.station.Transform == nil {
		return tr
	}

	it := p.station.Transform.Iterator()
	for _, res := range it.GetStorages() {
		res.Append(tr.Values)
	}

	return algebra.DrainToTrain(it, p.station.ID, tr.EventTime)
}

// inferLayout derives the coarse Layout a train's first value exhibits,
// for the station's Layout.Accepts gate in step 2.
func inferLayout(tr *value.Train) algebra.Layout {
	if len(tr.Values) == 0 {
		return algebra.AnyLayout()
	}
	if d, ok := value.Unwrap(tr.Values[0]).(*value.Dict); ok {
		return algebra.Layout{Kind: algebra.LayoutDict, DictKeys: d.Keys()}
	}
	return algebra.Layout{Kind: algebra.LayoutScalar, ScalarKind: tr.Values[0].Kind()}
}
