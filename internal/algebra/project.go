// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Project applies a per-row function. If setValued is true, the
// expression is expected to evaluate to an Array, and one output row is
// emitted per element (the set-constructor special case, §4.5) instead
// of one output row for the whole result.
type Project struct {
	id        int
	input     Algebraic
	expr      *Expr
	setValued bool
}

func NewProject(id int, input Algebraic, expr *Expr, setValued bool) *Project {
	return &Project{id: id, input: input, expr: expr, setValued: setValued}
}

func (p *Project) Kind() Kind { return KindProject }
func (p *Project) ID() int    { return p.id }
func (p *Project) Cost() Cost { return NewCost(1).Add(p.input.Cost()).Add(exprCost) }
func (p *Project) Clone() Algebraic {
	return &Project{id: p.id, input: p.input.Clone(), expr: p.expr, setValued: p.setValued}
}

// Expr and SetValued expose the fields the optimizer's merge-project
// rule needs to read when deciding whether two consecutive Projects
// fuse.
func (p *Project) Expr() *Expr     { return p.expr }
func (p *Project) SetValued() bool { return p.setValued }

// Inputs and WithInputs implement Parent, letting the optimizer walk
// and rebuild the tree without a per-kind switch of its own.
func (p *Project) Inputs() []Algebraic { return []Algebraic{p.input} }
func (p *Project) WithInputs(ins []Algebraic) Algebraic {
	return &Project{id: p.id, input: ins[0], expr: p.expr, setValued: p.setValued}
}

func (p *Project) DeriveInputLayout() (Layout, bool) { return p.input.DeriveInputLayout() }
func (p *Project) DeriveOutputLayout(inputs map[string]Layout) (Layout, bool) {
	if p.setValued {
		return Layout{Kind: LayoutArray, ArrayLen: -1}, true
	}
	return AnyLayout(), false
}

func (p *Project) Iterator() Iterator {
	return &projectIterator{input: p.input.Iterator(), expr: p.expr, setValued: p.setValued}
}

type projectIterator struct {
	input     Iterator
	expr      *Expr
	setValued bool
	pending   []value.Value
}

func (it *projectIterator) Next() (value.Value, bool) {
	for {
		if it.setValued {
			if len(it.pending) > 0 {
				v := it.pending[0]
				it.pending = it.pending[1:]
				return v, true
			}
		}

		row, ok := it.input.Next()
		if !ok {
			return nil, false
		}

		out, err := it.expr.Eval(row)
		if err != nil {
			continue
		}

		if !it.setValued {
			return out, true
		}

		arr, ok := out.(value.Array)
		if !ok {
			continue
		}
		it.pending = arr
	}
}

func (it *projectIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.input.GetStorages()
}

func (it *projectIterator) CloneBoxed() Iterator {
	return &projectIterator{input: it.input.CloneBoxed(), expr: it.expr, setValued: it.setValued}
}

func (it *projectIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	if enriched, ok := it.input.Enrich(transforms); ok {
		it.input = enriched
		return it, true
	}
	return it, false
}
