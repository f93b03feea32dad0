// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package workerpool implements the hybrid worker pool (§4.3): a shared
// control plane that runs named tasks either as dedicated OS threads or
// as cooperative goroutines on the shared runtime scheduler, and routes
// lifecycle commands between them.
package workerpool

import "github.com/railwire/datatracks/pkg/channel"

// CommandKind tags a Command's variant.
type CommandKind uint8

const (
	CmdReady CommandKind = iota
	CmdStop
	CmdOverflow
	CmdThreshold
	CmdOkay
	CmdAttach
	CmdDetach
)

// Command is the lifecycle message workers and the pool exchange over
// the control plane.
type Command struct {
	Kind      CommandKind
	WorkerID  string
	Threshold int64
	Attach    *AttachPayload
}

// AttachPayload carries the sender handles for a CmdAttach command.
type AttachPayload struct {
	TrainTx     *channel.Single[any]
	WatermarkTx *channel.Single[any]
}

func Ready(id string) Command    { return Command{Kind: CmdReady, WorkerID: id} }
func Stop(id string) Command     { return Command{Kind: CmdStop, WorkerID: id} }
func Overflow(id string) Command { return Command{Kind: CmdOverflow, WorkerID: id} }
func Okay(id string) Command     { return Command{Kind: CmdOkay, WorkerID: id} }
func Threshold(value int64) Command {
	return Command{Kind: CmdThreshold, Threshold: value}
}
func Attach(id string, trainTx, watermarkTx *channel.Single[any]) Command {
	return Command{Kind: CmdAttach, WorkerID: id, Attach: &AttachPayload{TrainTx: trainTx, WatermarkTx: watermarkTx}}
}
func Detach(id string) Command { return Command{Kind: CmdDetach, WorkerID: id} }
