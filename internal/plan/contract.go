// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// MultiSender is what a Source's driver goroutine feeds trains into:
// it multicasts to every station subscribed at the stop, per §6's
// "out_fanout is a MultiSender<Train> accepting cloned trains".
type MultiSender = *channel.Broadcast[*value.Train]

// Source is implemented by every concrete input driver (internal/source).
// operate spawns whatever I/O loop the driver needs on pool and returns
// the worker id it registered under, so callers can Join/SendControl it.
type Source interface {
	// Operate starts the driver: id is the stop it feeds, fanout is
	// where it publishes every Train it produces.
	Operate(id string, fanout MultiSender, pool *workerpool.Pool) (workerID string, err error)
	// Type names the driver kind (e.g. "nats", "mqtt", "http").
	Type() string
	// Configs describes this driver's accepted option keys, for plan
	// validation and diagnostics.
	Configs() map[string]Config
}

// Destination is implemented by every concrete output driver (internal/sink).
type Destination interface {
	// Operate starts the driver: id is the stop it drains, inbound is
	// the channel trains arrive on.
	Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (workerID string, err error)
	// In returns the same channel Operate was given, for callers that
	// need to attach before Operate is called (fan-in wiring).
	In() *channel.Single[*value.Train]
	Type() string
	// Serialize returns this destination's persisted model, for plan
	// round-tripping (CreatePlan/GetPlans over the control protocol).
	Serialize() DestinationModel
}

// DestinationModel is the JSON-serializable form of a Destination's
// configuration, round-tripped through the control protocol and plan
// text `Out` lines.
type DestinationModel struct {
	Type    string                 `json:"type"`
	StopID  string                 `json:"stop_id"`
	Options map[string]interface{} `json:"options"`
}

// Config describes one accepted option key a Source/Destination/
// Transformer driver understands, surfaced for plan validation.
type Config struct {
	Required bool
	Kind     value.Kind
	Default  interface{}
}

// OutputDerivationStrategyKind tags a Transformer's output-layout
// derivation approach.
type OutputDerivationStrategyKind uint8

const (
	StrategyQueryBased OutputDerivationStrategyKind = iota
	StrategyUserDefined
	StrategyCombined
	StrategyContentBased
	StrategyExternal
	StrategyUndefined
)

// OutputDerivationStrategy describes how a Transformer's output layout
// is determined.
type OutputDerivationStrategy struct {
	Kind              OutputDerivationStrategyKind
	Query             string
	Language          string
	PrecomputedLayout *algebra.Layout
	UserDefinedLayout *algebra.Layout
	Combined          []OutputDerivationStrategy
}

// Transformer is implemented by every plugin bound to a `$name`
// Transform clause; it compiles its configured operation into an
// algebra iterator once the plan's named variable bindings are known.
type Transformer interface {
	// Optimize compiles this transformer into a pull iterator, given
	// every named transform bound elsewhere in the plan (Variable
	// nodes that reference one another).
	Optimize(namedTransforms map[string]algebra.Transform) (algebra.Iterator, error)
	DeriveInputLayout() (algebra.Layout, bool)
	OutputDerivationStrategy() OutputDerivationStrategy
}
