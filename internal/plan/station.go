// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package plan implements the parsed plan topology and the per-stop
// runtime that executes it (§4.7): Station holds one stop's static
// configuration, Platform is the goroutine/thread that drives it.
package plan

import (
	"fmt"

	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
)

// Station is one stop's static configuration, compiled once from plan
// text and shared (read-only, after compile) by every Platform running
// it. Stop and line ids are integers, per the plan text grammar.
type Station struct {
	ID     int
	Inputs []int // upstream stop ids, in plan-text order

	Block     *Block
	Transform algebra.Algebraic // nil means passthrough: trains forward unchanged
	Window    Window
	Layout    algebra.Layout
	Watermark *WatermarkStrategy

	// Sender multicasts every train this station produces to every
	// downstream station subscribed to it (multi-sink fanout).
	Sender *channel.Broadcast[*value.Train]
}

// NewStation returns a Station with a Non block gate, an unbounded
// window, AnyLayout, and a Monotonic watermark — the defaults a plan
// line with no `(<window_spec>)`/`[<block_spec>]` clause gets.
func NewStation(id int, inputs []int) *Station {
	return &Station{
		ID:        id,
		Inputs:    append([]int(nil), inputs...),
		Block:     NewNonBlock(),
		Window:    NewUnboundedWindow(),
		Layout:    algebra.AnyLayout(),
		Watermark: NewMonotonicWatermark(),
		Sender:    channel.NewBroadcast[*value.Train](fmt.Sprintf("station-%d", id)),
	}
}
