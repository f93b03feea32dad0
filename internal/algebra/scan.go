// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Scan drains a named reservoir. IndexScan additionally tags every
// yielded value with the reservoir's source index via value.Wagonize,
// used when a station needs to remember which upstream input a row
// came from.
type Scan struct {
	id        int
	name      string
	indexed   bool
	reservoir *reservoir.Reservoir[value.Value]
}

// NewScan returns a plain TableScan over res, named for diagnostics.
func NewScan(id int, name string, res *reservoir.Reservoir[value.Value]) *Scan {
	return &Scan{id: id, name: name, reservoir: res}
}

// NewIndexScan returns a Scan that wagonizes every value it yields.
func NewIndexScan(id int, name string, res *reservoir.Reservoir[value.Value]) *Scan {
	return &Scan{id: id, name: name, reservoir: res, indexed: true}
}

func (s *Scan) Kind() Kind {
	if s.indexed {
		return KindIndexScan
	}
	return KindScan
}
func (s *Scan) ID() int    { return s.id }
func (s *Scan) Cost() Cost { return NewCost(1) }
func (s *Scan) Clone() Algebraic {
	return &Scan{id: s.id, name: s.name, indexed: s.indexed, reservoir: s.reservoir}
}

func (s *Scan) DeriveInputLayout() (Layout, bool) { return Layout{}, false }
func (s *Scan) DeriveOutputLayout(map[string]Layout) (Layout, bool) {
	return AnyLayout(), false
}

func (s *Scan) Iterator() Iterator {
	return &scanIterator{res: s.reservoir, indexed: s.indexed}
}

type scanIterator struct {
	res     *reservoir.Reservoir[value.Value]
	indexed bool
	buf     []value.Value
	drained bool
}

func (it *scanIterator) Next() (value.Value, bool) {
	if !it.drained {
		it.buf = it.res.Drain()
		it.drained = true
	}
	for len(it.buf) > 0 {
		v := it.buf[0]
		it.buf = it.buf[1:]
		if it.indexed {
			if idx, ok := it.res.Source(); ok {
				v = value.Wagonize(v, idx)
			}
		}
		return v, true
	}
	return nil, false
}

func (it *scanIterator) GetStorages() []*reservoir.Reservoir[value.Value] {
	return []*reservoir.Reservoir[value.Value]{it.res}
}

func (it *scanIterator) CloneBoxed() Iterator {
	return &scanIterator{res: it.res, indexed: it.indexed}
}

func (it *scanIterator) Enrich(map[string]Transform) (Iterator, bool) { return it, false }
