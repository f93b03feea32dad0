// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package channel implements the typed channel fabric stations and
// sources/destinations communicate over: a single MPMC queue with a
// length probe, and a broadcast fan-out that delivers every value to
// every subscriber present at send time.
package channel

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Named is implemented by both channel kinds so callers that only need
// the name/len probe (pressure sampling, debug dumps) don't have to
// know which kind they hold.
type Named interface {
	Name() string
	Len() int
}

var channelDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "datatracks",
	Subsystem: "channel",
	Name:      "depth",
	Help:      "Number of buffered messages per named channel.",
}, []string{"name"})

func init() {
	prometheus.MustRegister(channelDepth)
}

// Single is an unbounded, multi-producer multi-consumer channel with a
// non-blocking length probe. Any holder may Send; any holder may Recv;
// messages are delivered to whichever receiver calls Recv/TryRecv first
// (fan-in/fan-out, not fan-out-to-all - see Broadcast for that).
type Single[T any] struct {
	name string
	mu   sync.Mutex
	cond *sync.Cond
	buf  []T
	closed bool
}

// NewSingle creates a named, empty Single channel.
func NewSingle[T any](name string) *Single[T] {
	s := &Single[T]{name: name}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *Single[T]) Name() string { return s.name }

// Len returns the number of buffered, unreceived messages.
func (s *Single[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Send appends a value and wakes one blocked receiver, if any. Sending
// on a closed channel is a no-op: the spec's ownership model has no
// concept of a "send error", only readers observing closure.
func (s *Single[T]) Send(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.buf = append(s.buf, v)
	channelDepth.WithLabelValues(s.name).Set(float64(len(s.buf)))
	s.mu.Unlock()
	s.cond.Signal()
}

// Close marks the channel closed; blocked and future Recv calls return
// ok=false once the buffer drains.
func (s *Single[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// TryRecv is non-blocking: it returns immediately with ok=false if no
// message is buffered.
func (s *Single[T]) TryRecv() (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return v, false
	}
	v = s.buf[0]
	s.buf = s.buf[1:]
	channelDepth.WithLabelValues(s.name).Set(float64(len(s.buf)))
	return v, true
}

// Recv blocks until a message is available or the channel closes.
func (s *Single[T]) Recv() (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.buf) == 0 {
		return v, false
	}
	v = s.buf[0]
	s.buf = s.buf[1:]
	channelDepth.WithLabelValues(s.name).Set(float64(len(s.buf)))
	return v, true
}

// subscription is one Broadcast subscriber's private mailbox.
type subscription[T any] struct {
	ch *Single[T]
}

// Broadcast delivers every Sent value to every subscriber present at
// send time. Subscribers created after a Send do not receive it.
// Dropping a subscriber (Unsubscribe) removes its slot at once, so no
// later Send reaches it.
type Broadcast[T any] struct {
	name string
	mu   sync.Mutex
	subs map[int]*subscription[T]
	next int
}

func NewBroadcast[T any](name string) *Broadcast[T] {
	return &Broadcast[T]{name: name, subs: map[int]*subscription[T]{}}
}

func (b *Broadcast[T]) Name() string { return b.name }

// Len returns the current subscriber count (the broadcast fabric has no
// single queue depth; subscriber count is the closest analogue used by
// the platform's pressure sampling).
func (b *Broadcast[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Subscription is a handle a consumer reads from and releases.
type Subscription[T any] struct {
	id int
	b  *Broadcast[T]
	ch *Single[T]
}

func (s *Subscription[T]) Recv() (T, bool)    { return s.ch.Recv() }
func (s *Subscription[T]) TryRecv() (T, bool) { return s.ch.TryRecv() }
func (s *Subscription[T]) Len() int           { return s.ch.Len() }

// Unsubscribe removes this subscription's slot from the broadcaster
// immediately and closes its mailbox; the next Send no longer sees it.
func (s *Subscription[T]) Unsubscribe() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.subs, s.id)
	s.ch.Close()
}

// Subscribe registers a new subscriber. It receives only values sent
// after this call.
func (b *Broadcast[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	sub := &subscription[T]{ch: NewSingle[T](b.name)}
	b.subs[id] = sub
	return &Subscription[T]{id: id, b: b, ch: sub.ch}
}

// Send fans v out to every subscriber currently registered.
func (b *Broadcast[T]) Send(v T) {
	b.mu.Lock()
	subs := make([]*subscription[T], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.ch.Send(v)
	}
}
