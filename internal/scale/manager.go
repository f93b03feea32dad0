// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scale implements the adaptive worker-scaling skeleton shared
// by the time annotator and the WAL (§4.8): one worker always runs;
// sustained queue pressure spawns another, sustained idleness retires
// the newest one.
package scale

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// WorkerFactory returns the Body the n-th worker this Manager spawns
// should run (n is 0 for the always-running first worker, then 1, 2,
// ... for each one spawned under pressure).
type WorkerFactory func(n int) workerpool.Body

// Manager samples a queue length on every tick and spawns or retires
// workerpool.Pool workers accordingly. It never retires below one
// worker. A spawned worker's own CancellationToken is simply
// workerpool.Meta.ShouldStop(): retiring sends it a Stop command and
// lets it notice on its own next poll, the same shutdown path every
// other pool worker already uses.
type Manager struct {
	pool       *workerpool.Pool
	prefix     string
	threshold  int64
	repetition int
	tick       time.Duration
	queueLen   func() int64
	factory    WorkerFactory

	mu      sync.Mutex
	workers []string
	spawned int
}

// New returns a Manager that will host its workers on pool, name them
// "<prefix>-<n>", spawn one more whenever queueLen() exceeds threshold
// for repetition consecutive samples taken every tick, and retire the
// newest one whenever queueLen() reads zero for repetition consecutive
// samples (while more than one worker is running).
func New(pool *workerpool.Pool, prefix string, threshold int64, repetition int, tick time.Duration, queueLen func() int64, factory WorkerFactory) *Manager {
	return &Manager{
		pool:       pool,
		prefix:     prefix,
		threshold:  threshold,
		repetition: repetition,
		tick:       tick,
		queueLen:   queueLen,
		factory:    factory,
	}
}

// Run starts the first worker, then samples queueLen every tick and
// grows or shrinks the fleet until stop is closed. It is meant to be
// run in its own goroutine.
func (m *Manager) Run(stop <-chan struct{}) {
	m.spawn()

	over, idle := 0, 0
	sample := func() {
		n := m.queueLen()
		switch {
		case n > m.threshold:
			over++
			idle = 0
		case n == 0:
			idle++
			over = 0
		default:
			over, idle = 0, 0
		}

		if over >= m.repetition {
			m.spawn()
			over = 0
		}
		if idle >= m.repetition {
			m.retireNewest()
			idle = 0
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Errorf("scale: %s: new scheduler: %v", m.prefix, err)
		return
	}
	if _, err := scheduler.NewJob(gocron.DurationJob(m.tick), gocron.NewTask(sample)); err != nil {
		log.Errorf("scale: %s: schedule sampler: %v", m.prefix, err)
		return
	}
	scheduler.Start()

	<-stop
	if err := scheduler.Shutdown(); err != nil {
		log.Errorf("scale: %s: scheduler shutdown: %v", m.prefix, err)
	}
}

// Workers returns the ids of every worker this Manager has spawned so
// far, in spawn order (element 0 is the always-running first worker).
func (m *Manager) Workers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.workers))
	copy(out, m.workers)
	return out
}

func (m *Manager) spawn() {
	m.mu.Lock()
	n := m.spawned
	m.spawned++
	id := fmt.Sprintf("%s-%d", m.prefix, n)
	m.workers = append(m.workers, id)
	m.mu.Unlock()

	m.pool.ExecuteAsync(id, m.factory(n), nil)
}

func (m *Manager) retireNewest() {
	m.mu.Lock()
	if len(m.workers) <= 1 {
		m.mu.Unlock()
		return
	}
	newest := m.workers[len(m.workers)-1]
	m.workers = m.workers[:len(m.workers)-1]
	m.mu.Unlock()

	m.pool.SendControl(newest, workerpool.Stop(newest))
}
