// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestWebSocketSourceDecodesInboundFrames(t *testing.T) {
	pool := workerpool.New()
	fanout := channel.NewBroadcast[*value.Train]("stop")
	sub := fanout.Subscribe()

	addr := freeAddr(t)
	src := NewWebSocketSource(WebSocketConfig{Addr: addr, Path: "/ingest"})
	_, err := src.Operate("in0", fanout, pool)
	require.NoError(t, err)

	var conn *websocket.Conn
	url := fmt.Sprintf("ws://%s/ingest", addr)
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("cpu value=1 1700000000000000000\n")))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tr, ok := sub.TryRecv(); ok {
			require.Len(t, tr.Values, 1)
			dict := tr.Values[0].(*value.Dict)
			got, ok := dict.Get("value")
			require.True(t, ok)
			assert.True(t, got.Equal(value.NewFloatFromFloat64(1)))
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("frame was never decoded and forwarded")
}
