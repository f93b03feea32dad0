// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wal

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/railwire/datatracks/pkg/log"
)

// §4.8's delayed-replay thresholds: forward a batch directly when
// downstream is under DelayThreshold; once backed up past it, queue
// the batch's location and only start draining the delayed queue once
// downstream has eased back under ReplayThreshold.
const (
	DelayThreshold  int64 = 200_000
	ReplayThreshold int64 = 100_000
	ReplayTick            = 50 * time.Millisecond
)

// Location pinpoints one record previously appended to a Writer.
type Location struct {
	SegmentIdx int
	Offset     int64
	Size       int64
}

// Relay decides, per record, whether to forward it downstream
// immediately or delay it until pressure eases, and replays delayed
// records in FIFO order once it has.
type Relay struct {
	writer        *Writer
	downstreamLen func() int64
	forward       func([]byte)

	mu      sync.Mutex
	delayed []Location
}

// NewRelay returns a Relay reading replayed records back out of
// writer, probing downstream queue depth via downstreamLen, and
// handing every forwarded record to forward.
func NewRelay(writer *Writer, downstreamLen func() int64, forward func([]byte)) *Relay {
	return &Relay{writer: writer, downstreamLen: downstreamLen, forward: forward}
}

// Offer is called once per appended record: it forwards immediately if
// downstream is under DelayThreshold, otherwise queues loc for replay.
func (r *Relay) Offer(loc Location, record []byte) {
	if r.downstreamLen() >= DelayThreshold {
		r.mu.Lock()
		r.delayed = append(r.delayed, loc)
		r.mu.Unlock()
		return
	}
	r.forward(record)
}

// Tick drains every delayed record in FIFO order if downstream has
// eased under ReplayThreshold; meant to be called roughly every
// ReplayTick.
func (r *Relay) Tick() {
	if r.downstreamLen() >= ReplayThreshold {
		return
	}

	r.mu.Lock()
	pending := r.delayed
	r.delayed = nil
	r.mu.Unlock()

	for _, loc := range pending {
		record, err := r.writer.ReadAt(loc)
		if err != nil {
			log.Errorf("wal: replaying %+v: %v", loc, err)
			continue
		}
		r.forward(record)
	}
}

// Pending reports how many records are currently queued for replay.
func (r *Relay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delayed)
}

// Run drives Tick every ReplayTick until stop is closed.
func (r *Relay) Run(stop <-chan struct{}) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Errorf("wal: relay: new scheduler: %v", err)
		return
	}
	if _, err := scheduler.NewJob(gocron.DurationJob(ReplayTick), gocron.NewTask(r.Tick)); err != nil {
		log.Errorf("wal: relay: schedule replay tick: %v", err)
		return
	}
	scheduler.Start()

	<-stop
	if err := scheduler.Shutdown(); err != nil {
		log.Errorf("wal: relay: scheduler shutdown: %v", err)
	}
}
