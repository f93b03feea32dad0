// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package timer

import (
	"fmt"
	"time"

	"github.com/railwire/datatracks/internal/scale"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// Threshold and Repetition are §4.8's adaptive-scaling parameters for
// the time annotator: spawn another worker once the incoming queue has
// held above 10,000 for 10 consecutive samples; retire the newest one
// once it has read zero for 10 samples.
const (
	Threshold  int64 = 10_000
	Repetition       = 10
)

// NewScaler returns a scale.Manager that spawns Annotator workers
// pulling from in and publishing their stamped output to out, every
// worker's id allocator drawing from the shared counter.
func NewScaler(pool *workerpool.Pool, counter *Counter, in *channel.Single[Initial], out *channel.Single[Timed], tick time.Duration) *scale.Manager {
	return scale.New(pool, "timer", Threshold, Repetition, tick,
		func() int64 { return int64(in.Len()) },
		func(n int) workerpool.Body {
			ann := NewAnnotator(counter, fmt.Sprintf("timer-worker-%d", n))
			return func(meta *workerpool.Meta) {
				for !meta.ShouldStop() {
					rec, ok := in.TryRecv()
					if !ok {
						time.Sleep(time.Millisecond)
						continue
					}
					out.Send(ann.Annotate(rec))
				}
			}
		})
}
