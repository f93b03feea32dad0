// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// JoinKind tags a Join's semantics.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinCross
)

// Join is a nested-loop join: for every left row, scan right in full.
// Cross joins ignore the predicate (every pair matches); inner/left
// evaluate it per pair, and left additionally emits an unmatched left
// row once, with a Null-filled right side.
type Join struct {
	id        int
	left      Algebraic
	right     Algebraic
	predicate *Expr // nil for JoinCross
	kind      JoinKind
}

func NewJoin(id int, left, right Algebraic, predicate *Expr, kind JoinKind) *Join {
	return &Join{id: id, left: left, right: right, predicate: predicate, kind: kind}
}

func (j *Join) Kind() Kind { return KindJoin }
func (j *Join) ID() int    { return j.id }
func (j *Join) Cost() Cost { return NewCost(2).Add(j.left.Cost()).Add(j.right.Cost()) }
func (j *Join) Clone() Algebraic {
	return &Join{id: j.id, left: j.left.Clone(), right: j.right.Clone(), predicate: j.predicate, kind: j.kind}
}

// Inputs and WithInputs implement Parent.
func (j *Join) Inputs() []Algebraic { return []Algebraic{j.left, j.right} }
func (j *Join) WithInputs(ins []Algebraic) Algebraic {
	return &Join{id: j.id, left: ins[0], right: ins[1], predicate: j.predicate, kind: j.kind}
}

func (j *Join) DeriveInputLayout() (Layout, bool) { return Layout{}, false }
func (j *Join) DeriveOutputLayout(map[string]Layout) (Layout, bool) {
	return Layout{Kind: LayoutTuple, TupleNames: []string{"left", "right"}}, true
}

func (j *Join) Iterator() Iterator {
	right := Drain(j.right.Iterator())
	return &joinIterator{
		left:      j.left.Iterator(),
		rightAll:  right,
		predicate: j.predicate,
		kind:      j.kind,
	}
}

type joinIterator struct {
	left      Iterator
	rightAll  []value.Value
	predicate *Expr
	kind      JoinKind

	curLeft   value.Value
	haveLeft  bool
	rightIdx  int
	leftMatch bool
}

func pairRow(l, r value.Value) value.Value {
	d := value.NewDict()
	d.Set("left", l)
	d.Set("right", r)
	return d
}

func (it *joinIterator) Next() (value.Value, bool) {
	for {
		if !it.haveLeft {
			l, ok := it.left.Next()
			if !ok {
				return nil, false
			}
			it.curLeft = l
			it.haveLeft = true
			it.rightIdx = 0
			it.leftMatch = false
		}

		for it.rightIdx < len(it.rightAll) {
			r := it.rightAll[it.rightIdx]
			it.rightIdx++

			if it.kind == JoinCross {
				return pairRow(it.curLeft, r), true
			}

			matched, err := it.predicate.Eval(pairRow(it.curLeft, r))
			if err != nil || !truthy(matched) {
				continue
			}
			it.leftMatch = true
			return pairRow(it.curLeft, r), true
		}

		// Right exhausted for this left row.
		exhaustedLeft := it.curLeft
		matched := it.leftMatch
		it.haveLeft = false

		if it.kind == JoinLeft && !matched {
			return pairRow(exhaustedLeft, value.Null{}), true
		}
	}
}

func (it *joinIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.left.GetStorages()
}

func (it *joinIterator) CloneBoxed() Iterator {
	return &joinIterator{
		left:      it.left.CloneBoxed(),
		rightAll:  it.rightAll,
		predicate: it.predicate,
		kind:      it.kind,
	}
}

func (it *joinIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	if enriched, ok := it.left.Enrich(transforms); ok {
		it.left = enriched
		return it, true
	}
	return it, false
}
