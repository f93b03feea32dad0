// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Union concatenates its inputs positionally. If Distinct is set, rows
// are deduplicated by hash as they're yielded, in encounter order.
type Union struct {
	id       int
	inputs   []Algebraic
	distinct bool
}

func NewUnion(id int, inputs []Algebraic, distinct bool) *Union {
	return &Union{id: id, inputs: inputs, distinct: distinct}
}

func (u *Union) Kind() Kind { return KindUnion }
func (u *Union) ID() int    { return u.id }
func (u *Union) Cost() Cost {
	c := NewCost(len(u.inputs))
	product := NewCost(1)
	for _, in := range u.inputs {
		product = product.Mul(in.Cost())
	}
	return c.Add(product)
}
func (u *Union) Clone() Algebraic {
	clones := make([]Algebraic, len(u.inputs))
	for i, in := range u.inputs {
		clones[i] = in.Clone()
	}
	return &Union{id: u.id, inputs: clones, distinct: u.distinct}
}

// Inputs and WithInputs implement Parent.
func (u *Union) Inputs() []Algebraic { return append([]Algebraic(nil), u.inputs...) }
func (u *Union) WithInputs(ins []Algebraic) Algebraic {
	return &Union{id: u.id, inputs: ins, distinct: u.distinct}
}

func (u *Union) DeriveInputLayout() (Layout, bool) { return Layout{}, false }
func (u *Union) DeriveOutputLayout(inputs map[string]Layout) (Layout, bool) {
	if len(u.inputs) == 0 {
		return AnyLayout(), false
	}
	layout, ok := u.inputs[0].DeriveOutputLayout(inputs)
	for _, in := range u.inputs[1:] {
		other, otherOk := in.DeriveOutputLayout(inputs)
		if !otherOk {
			continue
		}
		layout, ok = layout.Merge(other), true
	}
	return layout, ok
}

// Iterator panics if Union has zero inputs: a union over nothing has
// no sensible output layout to derive, so this fails fast here rather
// than silently yielding an iterator that never produces a value.
func (u *Union) Iterator() Iterator {
	if len(u.inputs) == 0 {
		panic("algebra: Union requires at least one input")
	}

	its := make([]Iterator, len(u.inputs))
	for i, in := range u.inputs {
		its[i] = in.Iterator()
	}
	return &unionIterator{inputs: its, distinct: u.distinct, seen: map[uint64]bool{}}
}

type unionIterator struct {
	inputs   []Iterator
	idx      int
	distinct bool
	seen     map[uint64]bool
}

func (it *unionIterator) Next() (value.Value, bool) {
	for it.idx < len(it.inputs) {
		v, ok := it.inputs[it.idx].Next()
		if !ok {
			it.idx++
			continue
		}
		if it.distinct {
			h := v.Hash()
			if it.seen[h] {
				continue
			}
			it.seen[h] = true
		}
		return v, true
	}
	return nil, false
}

func (it *unionIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	var out []*reservoir.Reservoir[value.Value]
	for _, in := range it.inputs {
		out = append(out, in.GetStorages()...)
	}
	return out
}

func (it *unionIterator) CloneBoxed() Iterator {
	clones := make([]Iterator, len(it.inputs))
	for i, in := range it.inputs {
		clones[i] = in.CloneBoxed()
	}
	return &unionIterator{inputs: clones, distinct: it.distinct, seen: map[uint64]bool{}}
}

func (it *unionIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	changed := false
	for i, in := range it.inputs {
		if enriched, ok := in.Enrich(transforms); ok {
			it.inputs[i] = enriched
			changed = true
		}
	}
	return it, changed
}
