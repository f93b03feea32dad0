// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// MongoConfig configures a MongoDestination.
type MongoConfig struct {
	CollectionName string
	Retry          RetryPolicy
}

type trainDoc struct {
	ID    string `bson:"_id"`
	Bytes []byte `bson:"bytes"`
}

// MongoDestination inserts one document per Train it receives.
type MongoDestination struct {
	cfg  MongoConfig
	coll *mongo.Collection
	in   *channel.Single[*value.Train]
	seq  atomic.Uint64
}

// NewMongoDestination wraps an already-connected collection, mirroring
// the teacher's singleton-client pattern: connection lifecycle is the
// caller's concern, not the driver's.
func NewMongoDestination(coll *mongo.Collection, cfg MongoConfig) *MongoDestination {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &MongoDestination{cfg: cfg, coll: coll, in: channel.NewSingle[*value.Train]("mongo-sink")}
}

func (d *MongoDestination) Type() string                      { return "mongo" }
func (d *MongoDestination) In() *channel.Single[*value.Train] { return d.in }

func (d *MongoDestination) Serialize() plan.DestinationModel {
	return plan.DestinationModel{
		Type:    "mongo",
		Options: map[string]interface{}{"collection": d.cfg.CollectionName},
	}
}

func (d *MongoDestination) Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (string, error) {
	workerID := "mongo-sink-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		drainToDestination(meta, inbound, workerID, d.write, d.cfg.Retry)
	}, nil)
	return workerID, nil
}

func (d *MongoDestination) write(tr *value.Train) error {
	var buf bytes.Buffer
	if err := value.EncodeTrain(&buf, tr); err != nil {
		return fmt.Errorf("sink/mongo: encode train: %w", err)
	}

	doc := trainDoc{ID: fmt.Sprintf("%020d", d.seq.Add(1)), Bytes: buf.Bytes()}
	_, err := d.coll.ReplaceOne(context.Background(), bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("sink/mongo: replace document %q: %w", doc.ID, err)
	}
	return nil
}
