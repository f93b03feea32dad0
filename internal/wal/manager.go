// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wal

import (
	"time"

	"github.com/railwire/datatracks/internal/scale"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// Threshold and Repetition are §4.8's adaptive-scaling parameters for
// WAL workers: spawn another once the incoming queue has held above
// 100,000 for 3 consecutive samples; retire the newest one once it has
// read zero for 3 samples.
const (
	Threshold  int64 = 100_000
	Repetition       = 3
)

// Record is one serialized batch a WAL worker durably logs before
// forwarding or delaying it.
type Record struct {
	Bytes []byte
}

// NewScaler returns a scale.Manager that spawns WAL workers under base,
// each with its own segmented Writer and Relay. in is the channel
// records arrive on; forward publishes a record downstream once the
// Relay decides to; downstreamLen probes the downstream queue depth
// the Relay's forward/delay decision is based on; stop, shared by
// every spawned worker's Relay, tears every replay loop down together.
func NewScaler(pool *workerpool.Pool, base string, segmentSize int64, in *channel.Single[Record], forward func([]byte), downstreamLen func() int64, tick time.Duration, stop <-chan struct{}) *scale.Manager {
	return scale.New(pool, "wal", Threshold, Repetition, tick,
		func() int64 { return int64(in.Len()) },
		func(n int) workerpool.Body {
			return func(meta *workerpool.Meta) {
				writer, err := NewWriter(base, meta.ID, segmentSize)
				if err != nil {
					log.Errorf("wal: worker %s: %v", meta.ID, err)
					return
				}
				defer writer.Close()

				relay := NewRelay(writer, downstreamLen, forward)
				go relay.Run(stop)

				for !meta.ShouldStop() {
					rec, ok := in.TryRecv()
					if !ok {
						time.Sleep(time.Millisecond)
						continue
					}
					loc, err := writer.Append(rec.Bytes)
					if err != nil {
						log.Errorf("wal: worker %s append: %v", meta.ID, err)
						continue
					}
					relay.Offer(loc, rec.Bytes)
				}
			}
		})
}
