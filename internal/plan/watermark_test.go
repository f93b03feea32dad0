// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/railwire/datatracks/pkg/value"
)

func TestMonotonicWatermarkTracksMax(t *testing.T) {
	w := NewMonotonicWatermark()
	w.Observe(value.NewTime(100, 0))
	w.Observe(value.NewTime(50, 0))
	w.Observe(value.NewTime(300, 0))
	assert.Equal(t, value.NewTime(300, 0), w.Current())
}

func TestPeriodicWatermarkLagsByOffset(t *testing.T) {
	w := NewPeriodicWatermark(50)
	w.Observe(value.NewTime(300, 0))
	assert.Equal(t, value.NewTime(250, 0), w.Current())
}

func TestPunctuatedWatermarkIgnoresObserve(t *testing.T) {
	w := NewPunctuatedWatermark()
	w.Observe(value.NewTime(300, 0))
	assert.Equal(t, value.NewTime(0, 0), w.Current(), "punctuated watermarks only move on an explicit marker")

	w.Advance(value.NewTime(200, 0))
	assert.Equal(t, value.NewTime(200, 0), w.Current())

	w.Advance(value.NewTime(100, 0))
	assert.Equal(t, value.NewTime(200, 0), w.Current(), "advance never moves the watermark backwards")
}

func TestWatermarkAttachDetachRefuse(t *testing.T) {
	w := NewMonotonicWatermark()
	assert.ErrorIs(t, w.Attach("sub"), ErrWatermarkUnimplemented)
	assert.ErrorIs(t, w.Detach("sub"), ErrWatermarkUnimplemented)
}
