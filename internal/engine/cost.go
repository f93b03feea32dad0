// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"

	"github.com/railwire/datatracks/internal/timer"
	"github.com/railwire/datatracks/pkg/value"
)

// SizeCost returns a CostFunc proportional to rec's encoded byte
// length, scaled by weight. A cheap-per-byte engine (an in-memory map)
// gets a small weight; a pricier one (a network object store) gets a
// larger one — the same per-(definition,engine) cost signal
// `original_source/engine/src/mongo.rs`'s opcounter-rate sampling
// approximates by measuring live load instead; this rewrite keeps the
// same intent (a numeric, per-candidate cost the Persister minimizes
// over) without requiring a running backend to sample at selection
// time.
func SizeCost(weight float64) CostFunc {
	return func(rec timer.Timed) float64 {
		var buf bytes.Buffer
		if err := value.Encode(&buf, rec.Value); err != nil {
			return weight
		}
		return float64(buf.Len()) * weight
	}
}

// FixedCost returns a CostFunc reporting cost regardless of rec, for
// engines whose cost doesn't vary by record.
func FixedCost(cost float64) CostFunc {
	return func(timer.Timed) float64 { return cost }
}
