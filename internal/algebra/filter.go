// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Filter short-circuits rows whose predicate does not evaluate truthy.
// A predicate that errors or evaluates to a non-Bool is treated as
// false, matching the spec's "short-circuits non-truthy rows" wording.
type Filter struct {
	id        int
	input     Algebraic
	predicate *Expr
}

func NewFilter(id int, input Algebraic, predicate *Expr) *Filter {
	return &Filter{id: id, input: input, predicate: predicate}
}

func (f *Filter) Kind() Kind { return KindFilter }
func (f *Filter) ID() int    { return f.id }
func (f *Filter) Cost() Cost { return NewCost(1).Add(f.input.Cost()).Add(exprCost) }
func (f *Filter) Clone() Algebraic {
	return &Filter{id: f.id, input: f.input.Clone(), predicate: f.predicate}
}

// Predicate exposes the compiled predicate the optimizer's merge-filter
// rule reads when fusing two consecutive Filters.
func (f *Filter) Predicate() *Expr { return f.predicate }

// Inputs and WithInputs implement Parent.
func (f *Filter) Inputs() []Algebraic { return []Algebraic{f.input} }
func (f *Filter) WithInputs(ins []Algebraic) Algebraic {
	return &Filter{id: f.id, input: ins[0], predicate: f.predicate}
}

func (f *Filter) DeriveInputLayout() (Layout, bool) { return f.input.DeriveInputLayout() }
func (f *Filter) DeriveOutputLayout(inputs map[string]Layout) (Layout, bool) {
	return f.input.DeriveOutputLayout(inputs)
}

func (f *Filter) Iterator() Iterator {
	return &filterIterator{input: f.input.Iterator(), predicate: f.predicate}
}

type filterIterator struct {
	input     Iterator
	predicate *Expr
}

func (it *filterIterator) Next() (value.Value, bool) {
	for {
		row, ok := it.input.Next()
		if !ok {
			return nil, false
		}
		result, err := it.predicate.Eval(row)
		if err != nil {
			continue
		}
		if truthy(result) {
			return row, true
		}
	}
}

func truthy(v value.Value) bool {
	b, ok := value.Unwrap(v).(value.Bool)
	return ok && bool(b)
}

func (it *filterIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.input.GetStorages()
}

func (it *filterIterator) CloneBoxed() Iterator {
	return &filterIterator{input: it.input.CloneBoxed(), predicate: it.predicate}
}

func (it *filterIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	if enriched, ok := it.input.Enrich(transforms); ok {
		it.input = enriched
		return it, true
	}
	return it, false
}
