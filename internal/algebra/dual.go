// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// Dual is the one-row "unit" source: it yields Int(1) exactly once,
// the way SQL's implicit "FROM dual" lets a query project constants
// without a real table.
type Dual struct {
	id int
}

func NewDual(id int) *Dual { return &Dual{id: id} }

func (d *Dual) Kind() Kind       { return KindDual }
func (d *Dual) ID() int          { return d.id }
func (d *Dual) Cost() Cost       { return NewCost(1) }
func (d *Dual) Clone() Algebraic { return &Dual{id: d.id} }

func (d *Dual) DeriveInputLayout() (Layout, bool) { return Layout{}, false }
func (d *Dual) DeriveOutputLayout(map[string]Layout) (Layout, bool) {
	return Layout{Kind: LayoutScalar, ScalarKind: value.KindInt}, true
}

func (d *Dual) Iterator() Iterator { return &dualIterator{} }

type dualIterator struct {
	done bool
}

func (it *dualIterator) Next() (value.Value, bool) {
	if it.done {
		return nil, false
	}
	it.done = true
	return value.Int(1), true
}

func (it *dualIterator) GetStorages() []*reservoir.Reservoir[value.Value] { return nil }
func (it *dualIterator) CloneBoxed() Iterator                             { return &dualIterator{} }
func (it *dualIterator) Enrich(map[string]Transform) (Iterator, bool)     { return it, false }
