// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"sync"

	"github.com/railwire/datatracks/pkg/value"
)

// MemoryEngine keeps every stored value in a process-local map: the
// cheapest candidate in any catalog, and the right choice when a
// definition's records never need to survive a restart.
type MemoryEngine struct {
	mu   sync.RWMutex
	data map[string]value.Value
}

// NewMemoryEngine returns an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: map[string]value.Value{}}
}

func (e *MemoryEngine) Name() string { return "memory" }

func (e *MemoryEngine) Store(key []byte, v value.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[string(key)] = v
	return nil
}

// Get returns the value last stored under key, if any — used by tests
// and the debug surface, never by the dispatch path itself.
func (e *MemoryEngine) Get(key []byte) (value.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[string(key)]
	return v, ok
}

// Len reports how many distinct keys are currently stored.
func (e *MemoryEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}
