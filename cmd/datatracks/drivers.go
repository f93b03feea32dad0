// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/internal/sink"
	"github.com/railwire/datatracks/internal/source"
)

// mongoOptions is the JSON shape an `Out mongo{...}:<stop>` line
// supplies; the database connection itself is a process-wide resource
// set up once at startup, not something a plan line can configure.
type mongoOptions struct {
	Collection string `json:"collection"`
}

// buildRegistry wires every concrete internal/source and internal/sink
// driver into the names a plan's `In`/`Out` lines reference, the way
// original_source's Storage keeps one constructor per driver kind.
// mongoDB is nil unless the program configuration selects the mongo
// storage driver; the "mongo" destination factory reports a clear error
// instead of wiring a nil database when a plan reaches for it anyway.
func buildRegistry(mongoDB *mongo.Database) plan.Registry {
	return plan.Registry{
		Sources: map[string]plan.SourceFactory{
			"nats": func(raw json.RawMessage) (plan.Source, error) {
				var cfg source.NATSConfig
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("nats source options: %w", err)
				}
				return source.NewNATSSource(cfg), nil
			},
			"mqtt": func(raw json.RawMessage) (plan.Source, error) {
				var cfg source.MQTTConfig
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("mqtt source options: %w", err)
				}
				return source.NewMQTTSource(cfg), nil
			},
			"websocket": func(raw json.RawMessage) (plan.Source, error) {
				var cfg source.WebSocketConfig
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("websocket source options: %w", err)
				}
				return source.NewWebSocketSource(cfg), nil
			},
			"memory": func(raw json.RawMessage) (plan.Source, error) {
				return source.NewMemorySource(1024), nil
			},
		},
		Destinations: map[string]plan.DestFactory{
			"s3": func(raw json.RawMessage) (plan.Destination, error) {
				var cfg sink.S3Config
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("s3 destination options: %w", err)
				}
				return sink.NewS3Destination(cfg)
			},
			"mongo": func(raw json.RawMessage) (plan.Destination, error) {
				if mongoDB == nil {
					return nil, fmt.Errorf("mongo destination: storage_driver is not \"mongo\"")
				}
				var opts mongoOptions
				if err := json.Unmarshal(raw, &opts); err != nil {
					return nil, fmt.Errorf("mongo destination options: %w", err)
				}
				if opts.Collection == "" {
					return nil, fmt.Errorf("mongo destination: \"collection\" is required")
				}
				coll := mongoDB.Collection(opts.Collection)
				return sink.NewMongoDestination(coll, sink.MongoConfig{CollectionName: opts.Collection}), nil
			},
			"memory": func(raw json.RawMessage) (plan.Destination, error) {
				return sink.NewMemoryDestination(), nil
			},
			"debug": func(raw json.RawMessage) (plan.Destination, error) {
				var cfg sink.DebugConfig
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("debug destination options: %w", err)
				}
				return sink.NewDebugDestination(cfg), nil
			},
		},
	}
}
