// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"bufio"
	"fmt"
	"os"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/log"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// DebugConfig names an optional file every Train this destination
// receives is also appended to, one line per Train. Leave Path empty
// to only log at debug level.
type DebugConfig struct {
	Path string `json:"path"`
}

// DebugDestination is an administration/diagnostic sink: it does not
// forward trains anywhere, it just makes the last trains a stop saw
// observable, for wiring a plan's tail onto while developing it.
type DebugDestination struct {
	in   *channel.Single[*value.Train]
	path string

	file   *os.File
	writer *bufio.Writer
}

func NewDebugDestination(cfg DebugConfig) *DebugDestination {
	return &DebugDestination{in: channel.NewSingle[*value.Train]("debug-sink"), path: cfg.Path}
}

func (d *DebugDestination) Type() string                      { return "debug" }
func (d *DebugDestination) In() *channel.Single[*value.Train] { return d.in }

func (d *DebugDestination) Serialize() plan.DestinationModel {
	return plan.DestinationModel{Type: "debug", Options: map[string]interface{}{"path": d.path}}
}

func (d *DebugDestination) Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (string, error) {
	if d.path != "" {
		f, err := os.Create(d.path)
		if err != nil {
			return "", fmt.Errorf("debug destination: create %s: %w", d.path, err)
		}
		d.file = f
		d.writer = bufio.NewWriter(f)
	}

	workerID := "debug-sink-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		defer d.close()
		drainToDestination(meta, inbound, workerID, d.write, RetryPolicy{MaxAttempts: 1})
	}, nil)
	return workerID, nil
}

func (d *DebugDestination) write(tr *value.Train) error {
	log.Debugf("debug sink: last=%d values=%v", tr.Last(), tr.Values)
	if d.writer == nil {
		return nil
	}
	if _, err := fmt.Fprintf(d.writer, "%v\n", tr); err != nil {
		return err
	}
	return d.writer.Flush()
}

func (d *DebugDestination) close() {
	if d.file == nil {
		return
	}
	d.writer.Flush()
	d.file.Close()
}
