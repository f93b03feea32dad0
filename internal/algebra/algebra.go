// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package algebra implements the operator tree (§4.5): a tagged union
// of Scan/Project/Filter/Join/Union/Aggregate/Sort/Variable/Set nodes,
// pull-based lazy iteration, layout derivation, and the per-operator
// cost function the optimizer minimizes.
package algebra

import (
	"fmt"

	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Kind tags an Algebraic node's concrete variant.
type Kind uint8

const (
	KindDual Kind = iota
	KindScan
	KindIndexScan
	KindProject
	KindFilter
	KindJoin
	KindUnion
	KindAggregate
	KindSort
	KindVariable
	KindSet
)

// Algebraic is the operator-tree node interface every variant
// implements. Nodes are immutable once a plan is running (§3
// Lifecycle); Iterator() produces a fresh, independent pull-iterator
// each time it is called, which is how a plan forks a shared tree into
// per-platform pipelines.
type Algebraic interface {
	InputDerivable
	OutputDerivable
	Kind() Kind
	ID() int
	Cost() Cost
	Iterator() Iterator
	Clone() Algebraic
}

// Parent is implemented by every non-leaf operator (everything but Dual,
// Scan/IndexScan, and Set). It lets the optimizer (internal/optimize)
// walk and rebuild the tree generically, without its own per-kind type
// switch: Inputs returns the direct children in positional order,
// WithInputs returns a new node of the same kind and id with those
// children replaced.
type Parent interface {
	Inputs() []Algebraic
	WithInputs(ins []Algebraic) Algebraic
}

// Transform is a named, bound operation a Variable node dispatches to.
// Binding happens via Iterator.Enrich, bottom-up, after plan compile.
type Transform func(value.Value) (value.Value, error)

// Iterator is the pull-based contract every operator's Iterator()
// method returns (§4.5). Values are pulled through the tree on Next;
// side effects happen only inside leaf iterators (Scan/IndexScan).
type Iterator interface {
	// Next pulls the next value; ok is false once upstream is
	// exhausted.
	Next() (value.Value, bool)
	// GetStorages enumerates the reservoirs this iterator (and its
	// descendants) will drain, so a platform can attach inputs.
	GetStorages() []*reservoir.Reservoir[value.Value]
	// CloneBoxed produces an independent iterator starting empty,
	// used when a plan forks at a Set/fork point.
	CloneBoxed() Iterator
	// Enrich binds named Variable transforms, applied bottom-up.
	// It returns a replacement iterator only when this node (or a
	// descendant) needed binding; otherwise ok is false and the
	// receiver is left unchanged.
	Enrich(transforms map[string]Transform) (Iterator, bool)
}

// Drain pulls every remaining value out of it, in order.
func Drain(it Iterator) []value.Value {
	var out []value.Value
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// DrainToTrain greedily drains it and wraps the result in a Train
// marked at stopID, per the iterator contract's drain_to_train.
func DrainToTrain(it Iterator, stopID int, eventTime value.Time) *value.Train {
	tr := value.NewTrain(Drain(it), eventTime)
	tr.Mark(stopID, eventTime)
	return tr
}

// Root owns an operator tree's node-id allocation, aliasing, and named-
// variable bindings. Compiling a plan stop's transform text produces a
// Root; IDs are unique within it, which is what lets the optimizer
// (internal/optimize) address nodes unambiguously.
type Root struct {
	nextID    int
	nodes     map[int]Algebraic
	aliases   map[string]int
	variables map[string]Transform
}

// NewRoot returns an empty Root.
func NewRoot() *Root {
	return &Root{
		nodes:     map[int]Algebraic{},
		aliases:   map[string]int{},
		variables: map[string]Transform{},
	}
}

// Alloc reserves the next node id.
func (r *Root) Alloc() int {
	id := r.nextID
	r.nextID++
	return id
}

// Register records node under its own ID, optionally under alias too.
func (r *Root) Register(node Algebraic, alias string) {
	r.nodes[node.ID()] = node
	if alias != "" {
		r.aliases[alias] = node.ID()
	}
}

// Node looks up a registered node by id.
func (r *Root) Node(id int) (Algebraic, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// ByAlias looks up a registered node by its alias.
func (r *Root) ByAlias(alias string) (Algebraic, bool) {
	id, ok := r.aliases[alias]
	if !ok {
		return nil, false
	}
	return r.Node(id)
}

// BindVariable registers a named transform for Variable nodes.
func (r *Root) BindVariable(name string, t Transform) {
	r.variables[name] = t
}

// Variables returns the full name→Transform binding map, as passed to
// Iterator.Enrich.
func (r *Root) Variables() map[string]Transform {
	out := make(map[string]Transform, len(r.variables))
	for k, v := range r.variables {
		out[k] = v
	}
	return out
}

// errUnconfigured is the error a Variable iterator's Next panics with
// when no transform has been bound for its name (§4.5 "unconfigured iteration
// fails fast").
func errUnconfigured(name string) error {
	return fmt.Errorf("algebra: variable %q has no bound transform", name)
}
