// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package source implements the concrete input drivers bound to a
// plan's `In` stops (§6's Source contract): NATS, MQTT, an HTTP/
// WebSocket listener, and an in-memory driver used in tests and for
// programmatic feeds. Every driver decodes whatever raw payload its
// transport hands it into a *value.Train via a pluggable Decoder, then
// publishes it on the stop's fan-out.
package source

import (
	"time"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// Decoder turns one raw transport payload into a Train. Drivers default
// to DecodeLineProtocol but accept any Decoder at construction.
type Decoder func(raw []byte) (*value.Train, error)

// drainRawInto runs until meta.ShouldStop(), decoding every payload raw
// yields and publishing the result on fanout. A malformed message is
// logged and dropped rather than killing the driver.
func drainRawInto(meta *workerpool.Meta, raw *channel.Single[[]byte], decode Decoder, fanout plan.MultiSender) {
	for {
		if meta.ShouldStop() {
			return
		}
		payload, ok := raw.TryRecv()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		tr, err := decode(payload)
		if err != nil {
			log.Errorf("source: decode failed: %v", err)
			continue
		}
		if tr == nil {
			continue
		}
		fanout.Send(tr)
	}
}
