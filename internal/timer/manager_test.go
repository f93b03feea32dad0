// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func TestScalerAnnotatesRecordsEndToEnd(t *testing.T) {
	pool := workerpool.New()
	counter := &Counter{}
	in := channel.NewSingle[Initial]("timer-in")
	out := channel.NewSingle[Timed]("timer-out")

	m := NewScaler(pool, counter, in, out, time.Millisecond)
	stop := make(chan struct{})
	go m.Run(stop)
	defer close(stop)

	in.Send(Initial{Value: value.Int(7)})

	require.Eventually(t, func() bool {
		_, ok := out.TryRecv()
		return ok
	}, time.Second, time.Millisecond)
}
