// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/railwire/datatracks/pkg/value"
)

// MongoEngine persists values as documents in a MongoDB collection,
// keyed by their storage key — the catalog's choice for records a
// downstream consumer wants to query by secondary fields, which none
// of the byte-oriented engines offer.
type MongoEngine struct {
	coll *mongo.Collection
}

// NewMongoEngine wraps an already-connected collection.
func NewMongoEngine(coll *mongo.Collection) *MongoEngine {
	return &MongoEngine{coll: coll}
}

func (e *MongoEngine) Name() string { return "mongo" }

type mongoDoc struct {
	Key   string `bson:"_id"`
	Bytes []byte `bson:"bytes"`
}

func (e *MongoEngine) Store(key []byte, v value.Value) error {
	var buf bytes.Buffer
	if err := value.Encode(&buf, v); err != nil {
		return fmt.Errorf("engine/mongo: encode: %w", err)
	}

	doc := mongoDoc{Key: string(key), Bytes: buf.Bytes()}
	_, err := e.coll.ReplaceOne(context.Background(), bson.M{"_id": doc.Key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("engine/mongo: upsert %s: %w", doc.Key, err)
	}
	return nil
}
