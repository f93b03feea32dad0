// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"sort"

	"github.com/railwire/datatracks/pkg/value"
)

// Window buckets trains by event time into fixed-size, non-overlapping
// (tumbling) intervals and decides which buckets are safe to fire given
// the platform's current watermark. A zero-size Window is unbounded:
// every pending train fires immediately, matching a station with no
// `(<window_spec>)` clause.
//
// This is a simplified, single-window-type rendering of the richer
// windowing/triggering machinery the distillation's original source
// carried (tumbling windows with on-time/early/late trigger firing);
// the spec's own description of this step is just "window.take(trains)".
type Window struct {
	sizeMs int64
}

// NewTumblingWindow returns a Window that buckets by sizeMs-wide,
// non-overlapping intervals aligned to the epoch.
func NewTumblingWindow(sizeMs int64) Window {
	if sizeMs <= 0 {
		return Window{}
	}
	return Window{sizeMs: sizeMs}
}

// NewUnboundedWindow returns a Window that never buffers: every call to
// Take fires everything immediately.
func NewUnboundedWindow() Window { return Window{} }

// Unbounded reports whether this window has no size, i.e. fires
// immediately.
func (w Window) Unbounded() bool { return w.sizeMs == 0 }

// Take partitions pending by tumbling bucket (using each train's
// EventTime) and returns, in bucket order, one merged train per bucket
// whose upper bound is at or before watermark — i.e. the bucket is
// closed — plus the trains from buckets still open, unmodified,
// grouped by bucket in ascending bucket order (arrival order within a
// bucket), to be retried on a later call.
func (w Window) Take(pending []*value.Train, watermark value.Time) (fired []*value.Train, rest []*value.Train) {
	if w.Unbounded() || len(pending) == 0 {
		return pending, nil
	}

	buckets := map[int64][]*value.Train{}
	var order []int64
	for _, t := range pending {
		b := w.bucketOf(t.EventTime)
		if _, seen := buckets[b]; !seen {
			order = append(order, b)
		}
		buckets[b] = append(buckets[b], t)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, b := range order {
		if w.bucketUpper(b).After(watermark) {
			rest = append(rest, buckets[b]...)
			continue
		}
		merged := buckets[b][0]
		for _, t := range buckets[b][1:] {
			merged = merged.Merge(t)
		}
		fired = append(fired, merged)
	}
	return fired, rest
}

func (w Window) bucketOf(t value.Time) int64 {
	if t.Ms >= 0 {
		return t.Ms / w.sizeMs
	}
	return (t.Ms - w.sizeMs + 1) / w.sizeMs
}

// bucketUpper returns the (exclusive) upper bound of bucket b: a bucket
// fires once the watermark reaches or passes this instant.
func (w Window) bucketUpper(b int64) value.Time {
	return value.NewTime((b+1)*w.sizeMs, 0)
}
