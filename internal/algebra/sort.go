// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"sort"

	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// SortOrder is the direction of a Sort.
type SortOrder uint8

const (
	SortAsc SortOrder = iota
	SortDesc
)

// Sort stably orders its input by evaluating Key against each row
// (§4.5: "stable merge-sort into a tree-ordered map keyed by the order
// expression"). Go's sort.SliceStable gives the same stability
// guarantee without hand-rolling merge sort.
type Sort struct {
	id    int
	input Algebraic
	key   *Expr
	order SortOrder
}

func NewSort(id int, input Algebraic, key *Expr, order SortOrder) *Sort {
	return &Sort{id: id, input: input, key: key, order: order}
}

func (s *Sort) Kind() Kind { return KindSort }
func (s *Sort) ID() int    { return s.id }
func (s *Sort) Cost() Cost { return NewCost(1).Add(s.input.Cost()).Add(exprCost) }
func (s *Sort) Clone() Algebraic {
	return &Sort{id: s.id, input: s.input.Clone(), key: s.key, order: s.order}
}

// Inputs and WithInputs implement Parent.
func (s *Sort) Inputs() []Algebraic { return []Algebraic{s.input} }
func (s *Sort) WithInputs(ins []Algebraic) Algebraic {
	return &Sort{id: s.id, input: ins[0], key: s.key, order: s.order}
}

func (s *Sort) DeriveInputLayout() (Layout, bool) { return s.input.DeriveInputLayout() }
func (s *Sort) DeriveOutputLayout(inputs map[string]Layout) (Layout, bool) {
	return s.input.DeriveOutputLayout(inputs)
}

func (s *Sort) Iterator() Iterator {
	return &sortIterator{input: s.input.Iterator(), key: s.key, order: s.order}
}

type sortIterator struct {
	input   Iterator
	key     *Expr
	order   SortOrder
	sorted  []value.Value
	idx     int
	didSort bool
}

func (it *sortIterator) sortNow() {
	type keyed struct {
		row value.Value
		key value.Value
	}
	var rows []keyed
	for {
		row, ok := it.input.Next()
		if !ok {
			break
		}
		k, err := it.key.Eval(row)
		if err != nil {
			k = value.Null{}
		}
		rows = append(rows, keyed{row: row, key: k})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := rows[i].key.Compare(rows[j].key)
		if it.order == SortDesc {
			return c > 0
		}
		return c < 0
	})
	it.sorted = make([]value.Value, len(rows))
	for i, r := range rows {
		it.sorted[i] = r.row
	}
	it.didSort = true
}

func (it *sortIterator) Next() (value.Value, bool) {
	if !it.didSort {
		it.sortNow()
	}
	if it.idx >= len(it.sorted) {
		return nil, false
	}
	v := it.sorted[it.idx]
	it.idx++
	return v, true
}

func (it *sortIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.input.GetStorages()
}

func (it *sortIterator) CloneBoxed() Iterator {
	return &sortIterator{input: it.input.CloneBoxed(), key: it.key, order: it.order}
}

func (it *sortIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	if enriched, ok := it.input.Enrich(transforms); ok {
		it.input = enriched
		return it, true
	}
	return it, false
}
