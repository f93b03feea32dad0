// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
)

type fakeAPI struct {
	plans   []string
	fanouts map[int]plan.MultiSender
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{fanouts: map[int]plan.MultiSender{}}
}

func (f *fakeAPI) GetPlans() ([]string, error) { return f.plans, nil }
func (f *fakeAPI) CreatePlan(name, text string) (string, error) {
	f.plans = append(f.plans, name)
	return name, nil
}
func (f *fakeAPI) DeletePlan(name string) error { return nil }
func (f *fakeAPI) StartPlan(name string) error  { return nil }
func (f *fakeAPI) StopPlan(name string) error   { return nil }
func (f *fakeAPI) Bind(stopID int) (plan.MultiSender, bool) {
	fo, ok := f.fanouts[stopID]
	return fo, ok
}

func startTestServer(t *testing.T, api API) (*Server, net.Conn) {
	t.Helper()
	srv := NewServer(api, NewTokenIssuer([]byte("secret"), 0))
	stop := make(chan struct{})
	ready := make(chan struct{})

	go func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv.mu.Lock()
		srv.listener = ln
		srv.mu.Unlock()
		close(ready)
		go func() {
			<-stop
			ln.Close()
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			srv.wg.Add(1)
			go func() {
				defer srv.wg.Done()
				srv.handleConn(conn)
			}()
		}
	}()
	<-ready
	t.Cleanup(func() { close(stop) })

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func send(t *testing.T, conn net.Conn, msg Message) {
	t.Helper()
	payload, err := EncodeToBytes(msg)
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, payload))
}

func recv(t *testing.T, conn net.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	payload, err := ReadFrame(conn)
	require.NoError(t, err)
	msg, err := Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	return msg
}

func TestServerRegistersAndAcknowledges(t *testing.T) {
	_, conn := startTestServer(t, newFakeAPI())

	send(t, conn, RegisterRequest{Token: "any"})
	reply := recv(t, conn)

	reg, ok := reply.(RegisterResponse)
	require.True(t, ok)
	assert.Equal(t, StatusOk, reg.Status.Kind)
	assert.NotEmpty(t, reg.ConnectionID)
}

func TestServerRejectsNonRegisterFirstMessage(t *testing.T) {
	_, conn := startTestServer(t, newFakeAPI())

	send(t, conn, GetPlansRequest{})

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := conn.Read(buf)
	assert.Error(t, err, "server must close the connection instead of replying")
}

func TestServerDispatchesPlanManagement(t *testing.T) {
	api := newFakeAPI()
	_, conn := startTestServer(t, api)

	send(t, conn, RegisterRequest{Token: "any"})
	recv(t, conn)

	send(t, conn, CreatePlanRequest{Name: "p1", Text: "In a => Out b"})
	created := recv(t, conn).(CreatePlanResponse)
	assert.Equal(t, StatusOk, created.Status.Kind)
	assert.Equal(t, "p1", created.Name)

	send(t, conn, GetPlansRequest{})
	plans := recv(t, conn).(GetPlansResponse)
	assert.Equal(t, []string{"p1"}, plans.Plans)
}

func TestServerRoutesTrainIntoBoundFanout(t *testing.T) {
	api := newFakeAPI()
	fanout := channel.NewBroadcast[*value.Train]("stop-0")
	sub := fanout.Subscribe()
	api.fanouts[0] = fanout

	_, conn := startTestServer(t, api)
	send(t, conn, RegisterRequest{Token: "any"})
	recv(t, conn)

	tr := &value.Train{Values: []value.Value{value.Int(9)}, EventTime: value.NewTime(1, 0)}
	send(t, conn, Train{StopID: 0, Train: tr})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := sub.TryRecv(); ok {
			assert.True(t, got.Values[0].Equal(value.Int(9)))
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("train was never forwarded to the bound fanout")
}

func TestServerClosesOnMalformedFrame(t *testing.T) {
	_, conn := startTestServer(t, newFakeAPI())

	send(t, conn, RegisterRequest{Token: "any"})
	recv(t, conn)

	conn.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := conn.Read(buf)
	assert.Error(t, err)
}
