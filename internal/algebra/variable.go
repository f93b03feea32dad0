// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Variable binds a named transform (§6) across one input stream.
// Construction does not require the transform to exist yet; Iterator's
// Enrich call binds it. Calling Next before enrichment fails fast,
// matching "unconfigured iteration fails fast".
type Variable struct {
	id    int
	name  string
	input Algebraic
}

func NewVariable(id int, name string, input Algebraic) *Variable {
	return &Variable{id: id, name: name, input: input}
}

func (v *Variable) Kind() Kind { return KindVariable }
func (v *Variable) ID() int    { return v.id }
func (v *Variable) Cost() Cost { return NewCost(1) }
func (v *Variable) Clone() Algebraic {
	return &Variable{id: v.id, name: v.name, input: v.input.Clone()}
}

// Inputs and WithInputs implement Parent.
func (v *Variable) Inputs() []Algebraic { return []Algebraic{v.input} }
func (v *Variable) WithInputs(ins []Algebraic) Algebraic {
	return &Variable{id: v.id, name: v.name, input: ins[0]}
}

func (v *Variable) DeriveInputLayout() (Layout, bool) { return v.input.DeriveInputLayout() }
func (v *Variable) DeriveOutputLayout(map[string]Layout) (Layout, bool) {
	return AnyLayout(), false
}

func (v *Variable) Iterator() Iterator {
	return &variableIterator{name: v.name, input: v.input.Iterator()}
}

type variableIterator struct {
	name      string
	input     Iterator
	transform Transform
	bound     bool
}

func (it *variableIterator) Next() (value.Value, bool) {
	if !it.bound {
		panic(errUnconfigured(it.name))
	}
	row, ok := it.input.Next()
	if !ok {
		return nil, false
	}
	out, err := it.transform(row)
	if err != nil {
		panic(err)
	}
	return out, true
}

func (it *variableIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.input.GetStorages()
}

func (it *variableIterator) CloneBoxed() Iterator {
	return &variableIterator{name: it.name, input: it.input.CloneBoxed(), transform: it.transform, bound: it.bound}
}

// Enrich binds this Variable's transform if named in transforms, and
// recurses into its input regardless.
func (it *variableIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	changed := false
	if t, ok := transforms[it.name]; ok {
		it.transform = t
		it.bound = true
		changed = true
	}
	if enriched, ok := it.input.Enrich(transforms); ok {
		it.input = enriched
		changed = true
	}
	return it, changed
}
