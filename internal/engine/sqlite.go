// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"fmt"

	"github.com/railwire/datatracks/pkg/storage"
	"github.com/railwire/datatracks/pkg/value"
)

// SQLiteEngine persists values into a pkg/storage key-ordered store
// (C4), the durable, queryable middle tier between MemoryEngine and
// the network-backed engines.
type SQLiteEngine struct {
	store *storage.Store
}

// NewSQLiteEngine wraps an already-open storage.Store.
func NewSQLiteEngine(store *storage.Store) *SQLiteEngine {
	return &SQLiteEngine{store: store}
}

func (e *SQLiteEngine) Name() string { return "sqlite" }

func (e *SQLiteEngine) Store(key []byte, v value.Value) error {
	var buf bytes.Buffer
	if err := value.Encode(&buf, v); err != nil {
		return fmt.Errorf("engine/sqlite: encode: %w", err)
	}
	return e.store.Put(key, buf.Bytes())
}
