// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func TestScalerAppendsAndForwardsEndToEnd(t *testing.T) {
	pool := workerpool.New()
	in := channel.NewSingle[Record]("wal-in")

	var mu sync.Mutex
	var forwarded []string

	stop := make(chan struct{})
	defer close(stop)

	m := NewScaler(pool, t.TempDir(), DefaultSegmentSize, in, func(b []byte) {
		mu.Lock()
		forwarded = append(forwarded, string(b))
		mu.Unlock()
	}, func() int64 { return 0 }, time.Millisecond, stop)

	go m.Run(stop)

	in.Send(Record{Bytes: []byte("payload")})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(forwarded) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"payload"}, forwarded)
}
