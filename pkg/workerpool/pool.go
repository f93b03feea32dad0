// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
)

// Meta is handed to every worker body: its private inbound command
// channel, the pool-shared outbound command channel, and a should-stop
// flag the body must poll.
type Meta struct {
	ID       string
	Inbound  *channel.Single[Command]
	Outbound *channel.Single[Command]
	stop     *atomicBool
	Deps     []string
}

func (m *Meta) ShouldStop() bool { return m.stop.Load() }

// atomicBool is a tiny bool wrapper so Meta can be copied by value
// without losing the shared stop flag.
type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (a *atomicBool) Load() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (a *atomicBool) Store(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v = v
}

// Body is the function every worker runs; it must return when
// meta.ShouldStop() becomes true or its control channel yields Stop.
type Body func(meta *Meta)

type handle struct {
	id   string
	kind string // "sync" or "async"
	meta *Meta
	done chan struct{}
}

// Pool is the hybrid worker pool: a shared control-command channel plus
// a registry of running workers, each either a dedicated OS thread
// (ExecuteSync) or a cooperative goroutine (ExecuteAsync).
type Pool struct {
	mu       sync.Mutex
	workers  map[string]*handle
	outbound *channel.Single[Command]
}

// New creates an empty pool. outbound is the channel every worker's
// Meta.Outbound is bound to; callers read it via ControlReceiver.
func New() *Pool {
	return &Pool{
		workers:  map[string]*handle{},
		outbound: channel.NewSingle[Command]("pool-control"),
	}
}

// ControlReceiver returns the shared channel every worker's lifecycle
// commands are published on.
func (p *Pool) ControlReceiver() *channel.Single[Command] { return p.outbound }

func (p *Pool) register(id, kind string, deps []string) (*Meta, *handle) {
	meta := &Meta{
		ID:       id,
		Inbound:  channel.NewSingle[Command]("worker-" + id + "-in"),
		Outbound: p.outbound,
		stop:     &atomicBool{},
		Deps:     deps,
	}
	h := &handle{id: id, kind: kind, meta: meta, done: make(chan struct{})}
	p.mu.Lock()
	p.workers[id] = h
	p.mu.Unlock()
	return meta, h
}

func (p *Pool) awaitDeps(deps []string) {
	for _, dep := range deps {
		p.mu.Lock()
		h, ok := p.workers[dep]
		p.mu.Unlock()
		if !ok {
			continue
		}
		<-h.done
	}
}

// ExecuteSync runs body on a dedicated OS thread (runtime.LockOSThread),
// waiting for every id in deps to have finished before starting.
func (p *Pool) ExecuteSync(name string, body Body, deps []string) string {
	meta, h := p.register(name, "sync", deps)
	go func() {
		defer close(h.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		p.awaitDeps(deps)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("workerpool: sync worker %s panicked: %v", name, r)
			}
			meta.Outbound.Send(Stop(name))
		}()
		meta.Outbound.Send(Ready(name))
		body(meta)
	}()
	return name
}

// ExecuteAsync runs body as a cooperative goroutine on the shared
// runtime scheduler, waiting for its deps the same way as ExecuteSync.
func (p *Pool) ExecuteAsync(name string, body Body, deps []string) string {
	meta, h := p.register(name, "async", deps)
	go func() {
		defer close(h.done)
		p.awaitDeps(deps)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("workerpool: async worker %s panicked: %v", name, r)
			}
			meta.Outbound.Send(Stop(name))
		}()
		meta.Outbound.Send(Ready(name))
		body(meta)
	}()
	return name
}

// SendControl delivers cmd to the named worker's inbound channel.
func (p *Pool) SendControl(id string, cmd Command) {
	p.mu.Lock()
	h, ok := p.workers[id]
	p.mu.Unlock()
	if !ok {
		return
	}
	if cmd.Kind == CmdStop {
		h.meta.stop.Store(true)
	}
	h.meta.Inbound.Send(cmd)
}

// Join blocks until the named worker has returned.
func (p *Pool) Join(id string) error {
	p.mu.Lock()
	h, ok := p.workers[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("workerpool: unknown worker %q", id)
	}
	<-h.done
	return nil
}

// JoinWithTimeout blocks until the worker returns or the timeout
// elapses; a timeout surfaces an error but never forcibly terminates
// the worker (per §5).
func (p *Pool) JoinWithTimeout(id string, timeout time.Duration) error {
	p.mu.Lock()
	h, ok := p.workers[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("workerpool: unknown worker %q", id)
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("workerpool: join timed out waiting for worker %q", id)
	}
}

// JoinAll waits for every named worker concurrently, returning the
// first error encountered (an unknown id among them does not stop the
// others from being waited on).
func (p *Pool) JoinAll(ids []string) error {
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error { return p.Join(id) })
	}
	return g.Wait()
}

// Workers returns the ids of every worker currently registered,
// regardless of whether it has finished.
func (p *Pool) Workers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.workers))
	for id := range p.workers {
		out = append(out, id)
	}
	return out
}
