// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// AggFunc tags a grouped reduction kind.
type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
	AggMin
	AggMax
)

// AggregateExpr names one output column: Func applied to Field (field
// is ignored for Count).
type AggregateExpr struct {
	Name  string
	Func  AggFunc
	Field string
}

// Aggregate performs a grouped reduction: rows are bucketed by GroupBy
// (a dict-key list; empty means a single global group), then each
// bucket folds through every AggregateExpr.
type Aggregate struct {
	id         int
	input      Algebraic
	aggregates []AggregateExpr
	groupBy    []string
}

func NewAggregate(id int, input Algebraic, aggregates []AggregateExpr, groupBy []string) *Aggregate {
	return &Aggregate{id: id, input: input, aggregates: aggregates, groupBy: groupBy}
}

func (a *Aggregate) Kind() Kind { return KindAggregate }
func (a *Aggregate) ID() int    { return a.id }
func (a *Aggregate) Cost() Cost {
	return NewCost(1).Add(NewCost(len(a.aggregates)).Mul(a.input.Cost()))
}
func (a *Aggregate) Clone() Algebraic {
	return &Aggregate{id: a.id, input: a.input.Clone(), aggregates: a.aggregates, groupBy: a.groupBy}
}

// Inputs and WithInputs implement Parent.
func (a *Aggregate) Inputs() []Algebraic { return []Algebraic{a.input} }
func (a *Aggregate) WithInputs(ins []Algebraic) Algebraic {
	return &Aggregate{id: a.id, input: ins[0], aggregates: a.aggregates, groupBy: a.groupBy}
}

func (a *Aggregate) DeriveInputLayout() (Layout, bool) { return a.input.DeriveInputLayout() }
func (a *Aggregate) DeriveOutputLayout(map[string]Layout) (Layout, bool) {
	names := make([]string, len(a.aggregates))
	for i, e := range a.aggregates {
		names[i] = e.Name
	}
	return Layout{Kind: LayoutTuple, TupleNames: names}, true
}

func (a *Aggregate) Iterator() Iterator {
	return &aggregateIterator{input: a.input.Iterator(), aggregates: a.aggregates, groupBy: a.groupBy}
}

type aggBucket struct {
	key    value.Value
	counts map[string]int64
	sums   map[string]value.Value
	mins   map[string]value.Value
	maxs   map[string]value.Value
}

type aggregateIterator struct {
	input      Iterator
	aggregates []AggregateExpr
	groupBy    []string

	computed bool
	order    []value.Value
	buckets  map[uint64]*aggBucket
	emitIdx  int
}

// groupKey derives the bucket a row folds into. A Dict row groups by
// the named fields (the common case: group-by on selected columns). A
// row that unwound to a bare scalar (wordcount's `split` output, for
// example) has no field to select, so it groups by its own value —
// the only grouping a scalar stream can mean.
func groupKey(row value.Value, groupBy []string) value.Value {
	d, ok := row.(*value.Dict)
	if !ok {
		if len(groupBy) == 0 {
			return value.Null{}
		}
		return row
	}
	if len(groupBy) == 0 {
		return value.Null{}
	}
	key := value.NewDict()
	for _, g := range groupBy {
		if v, ok := d.Get(g); ok {
			key.Set(g, v)
		}
	}
	return key
}

func fieldOf(row value.Value, field string) (value.Value, bool) {
	d, ok := row.(*value.Dict)
	if !ok {
		return nil, false
	}
	return d.Get(field)
}

func (it *aggregateIterator) compute() {
	it.buckets = map[uint64]*aggBucket{}
	for {
		row, ok := it.input.Next()
		if !ok {
			break
		}
		key := groupKey(row, it.groupBy)
		h := key.Hash()
		b, ok := it.buckets[h]
		if !ok {
			b = &aggBucket{
				key:    key,
				counts: map[string]int64{},
				sums:   map[string]value.Value{},
				mins:   map[string]value.Value{},
				maxs:   map[string]value.Value{},
			}
			it.buckets[h] = b
			it.order = append(it.order, key)
		}
		for _, agg := range it.aggregates {
			switch agg.Func {
			case AggCount:
				b.counts[agg.Name]++
			case AggSum:
				if v, ok := fieldOf(row, agg.Field); ok {
					if cur, ok := b.sums[agg.Name]; ok {
						if sum, err := value.Add(cur, v); err == nil {
							b.sums[agg.Name] = sum
						}
					} else {
						b.sums[agg.Name] = v
					}
				}
			case AggMin:
				if v, ok := fieldOf(row, agg.Field); ok {
					if cur, ok := b.mins[agg.Name]; !ok || v.Compare(cur) < 0 {
						b.mins[agg.Name] = v
					}
				}
			case AggMax:
				if v, ok := fieldOf(row, agg.Field); ok {
					if cur, ok := b.maxs[agg.Name]; !ok || v.Compare(cur) > 0 {
						b.maxs[agg.Name] = v
					}
				}
			}
		}
	}
	it.computed = true
}

func (it *aggregateIterator) Next() (value.Value, bool) {
	if !it.computed {
		it.compute()
	}
	for it.emitIdx < len(it.order) {
		key := it.order[it.emitIdx]
		it.emitIdx++
		b := it.buckets[key.Hash()]

		out := value.NewDict()
		if kd, ok := key.(*value.Dict); ok {
			for _, k := range kd.Keys() {
				v, _ := kd.Get(k)
				out.Set(k, v)
			}
		} else if len(it.groupBy) > 0 {
			out.Set(it.groupBy[0], key)
		}
		for _, agg := range it.aggregates {
			switch agg.Func {
			case AggCount:
				out.Set(agg.Name, value.Int(b.counts[agg.Name]))
			case AggSum:
				if v, ok := b.sums[agg.Name]; ok {
					out.Set(agg.Name, v)
				}
			case AggMin:
				if v, ok := b.mins[agg.Name]; ok {
					out.Set(agg.Name, v)
				}
			case AggMax:
				if v, ok := b.maxs[agg.Name]; ok {
					out.Set(agg.Name, v)
				}
			}
		}
		return out, true
	}
	return nil, false
}

func (it *aggregateIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return it.input.GetStorages()
}

func (it *aggregateIterator) CloneBoxed() Iterator {
	return &aggregateIterator{input: it.input.CloneBoxed(), aggregates: it.aggregates, groupBy: it.groupBy}
}

func (it *aggregateIterator) Enrich(transforms map[string]Transform) (Iterator, bool) {
	if enriched, ok := it.input.Enrich(transforms); ok {
		it.input = enriched
		return it, true
	}
	return it, false
}
