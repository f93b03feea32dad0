// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"errors"

	"github.com/railwire/datatracks/pkg/value"
)

// WatermarkKind tags a WatermarkStrategy's variant (§4.7).
type WatermarkKind uint8

const (
	WatermarkMonotonic WatermarkKind = iota
	WatermarkPeriodic
	WatermarkPunctuated
)

// WatermarkStrategy tracks a platform's current watermark: the maximum
// event time assumed fully observed, which gates window eligibility.
type WatermarkStrategy struct {
	kind     WatermarkKind
	offsetMs int64
	max      value.Time
	current  value.Time
}

// NewMonotonicWatermark advances the current watermark to the maximum
// event time observed so far, every time a later one arrives.
func NewMonotonicWatermark() *WatermarkStrategy {
	return &WatermarkStrategy{kind: WatermarkMonotonic}
}

// NewPeriodicWatermark lags offsetMs milliseconds behind the maximum
// event time observed, tolerating that much out-of-order arrival.
func NewPeriodicWatermark(offsetMs int64) *WatermarkStrategy {
	return &WatermarkStrategy{kind: WatermarkPeriodic, offsetMs: offsetMs}
}

// NewPunctuatedWatermark only advances when an explicit marker arrives
// via Advance; Observe still tracks the maximum seen but never moves
// the current watermark on its own.
func NewPunctuatedWatermark() *WatermarkStrategy {
	return &WatermarkStrategy{kind: WatermarkPunctuated}
}

func (w *WatermarkStrategy) Kind() WatermarkKind { return w.kind }

// Observe records an event time crossing this platform and, for
// Monotonic/Periodic, recomputes the current watermark immediately.
func (w *WatermarkStrategy) Observe(t value.Time) {
	if t.After(w.max) {
		w.max = t
	}
	switch w.kind {
	case WatermarkMonotonic:
		w.current = w.max
	case WatermarkPeriodic:
		w.current = w.max.AddMillis(-w.offsetMs)
	case WatermarkPunctuated:
		// current only moves on an explicit Advance call.
	}
}

// Advance moves the current watermark to marker; only meaningful for
// Punctuated (others ignore it since Observe already drives them).
func (w *WatermarkStrategy) Advance(marker value.Time) {
	if w.kind != WatermarkPunctuated {
		return
	}
	if marker.After(w.current) {
		w.current = marker
	}
}

// Current returns the watermark a platform currently publishes to its
// subscribers.
func (w *WatermarkStrategy) Current() value.Time { return w.current }

// ErrWatermarkUnimplemented is returned by Attach/Detach: the original
// system stubs these (todo!()) and the spec treats them as defined but
// optional, to be refused with a clear error rather than guessed at.
var ErrWatermarkUnimplemented = errors.New("plan: watermark attach/detach is not implemented")

// Attach would register a downstream consumer's watermark channel so
// it receives this platform's watermark independently of the train
// fabric. Left unimplemented per the spec's Open Question.
func (w *WatermarkStrategy) Attach(id string) error { return ErrWatermarkUnimplemented }

// Detach would unregister a previously attached consumer. Left
// unimplemented for the same reason as Attach.
func (w *WatermarkStrategy) Detach(id string) error { return ErrWatermarkUnimplemented }
