// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

func scanOf(t *testing.T, rows ...value.Value) *algebra.Scan {
	t.Helper()
	res := reservoir.New[value.Value]()
	res.Append(rows)
	return algebra.NewScan(0, "t", res)
}

func mustExpr(t *testing.T, src string) *algebra.Expr {
	t.Helper()
	e, err := algebra.CompileExpr(src)
	require.NoError(t, err)
	return e
}

// Project-of-project collapses into one Project, per §8's named
// scenario: Project(input, Project(input, Scan("t"))) optimizes to
// Project(input, Scan("t")).
func TestOptimizeCollapsesProjectOfProject(t *testing.T) {
	scan := scanOf(t, value.Int(1), value.Int(2))
	inner := algebra.NewProject(1, scan, mustExpr(t, "_ + 1"), false)
	outer := algebra.NewProject(2, inner, mustExpr(t, "_ * 10"), false)

	opt := New(algebra.NewRoot(), DefaultRules()...)
	optimized, err := opt.Optimize(outer)
	require.NoError(t, err)

	p, ok := optimized.(*algebra.Project)
	require.True(t, ok)
	_, inputIsProject := p.Inputs()[0].(*algebra.Project)
	assert.False(t, inputIsProject, "project-of-project should have collapsed to a single Project")
	_, inputIsScan := p.Inputs()[0].(*algebra.Scan)
	assert.True(t, inputIsScan)

	// Semantics preserved: (x+1)*10 for each row.
	got := algebra.Drain(optimized.Iterator())
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(value.Int(20)))
	assert.True(t, got[1].Equal(value.Int(30)))
}

func TestOptimizeCollapsesFilterOfFilter(t *testing.T) {
	scan := scanOf(t, value.Int(1), value.Int(2), value.Int(3), value.Int(4))
	inner := algebra.NewFilter(1, scan, mustExpr(t, "_ % 2 == 0"))
	outer := algebra.NewFilter(2, inner, mustExpr(t, "_ > 2"))

	opt := New(algebra.NewRoot(), DefaultRules()...)
	optimized, err := opt.Optimize(outer)
	require.NoError(t, err)

	f, ok := optimized.(*algebra.Filter)
	require.True(t, ok)
	_, inputIsFilter := f.Inputs()[0].(*algebra.Filter)
	assert.False(t, inputIsFilter, "filter-of-filter should have collapsed to a single Filter")

	got := algebra.Drain(optimized.Iterator())
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(value.Int(4)))
}

// Cost never increases after optimization (§8's cost-non-increase
// property).
func TestOptimizeNeverIncreasesCost(t *testing.T) {
	scan := scanOf(t, value.Int(1))
	inner := algebra.NewProject(1, scan, mustExpr(t, "_ + 1"), false)
	outer := algebra.NewProject(2, inner, mustExpr(t, "_ * 2"), false)

	before := outer.Cost()
	opt := New(algebra.NewRoot(), DefaultRules()...)
	optimized, err := opt.Optimize(outer)
	require.NoError(t, err)
	assert.False(t, before.Less(optimized.Cost()))
}

// Applying the merge-project rule twice in succession is equivalent to
// once: re-optimizing an already-optimized tree is a no-op.
func TestOptimizeIdempotent(t *testing.T) {
	scan := scanOf(t, value.Int(1))
	inner := algebra.NewProject(1, scan, mustExpr(t, "_ + 1"), false)
	outer := algebra.NewProject(2, inner, mustExpr(t, "_ * 2"), false)

	opt := New(algebra.NewRoot(), DefaultRules()...)
	once, err := opt.Optimize(outer)
	require.NoError(t, err)

	twice, err := opt.Optimize(once)
	require.NoError(t, err)

	assert.Equal(t, once.Cost(), twice.Cost())
}

func TestOptimizeLeavesUnmergeableTreeAlone(t *testing.T) {
	scan := scanOf(t, value.Int(1), value.Int(2))
	filtered := algebra.NewFilter(1, scan, mustExpr(t, "_ > 0"))
	projected := algebra.NewProject(2, filtered, mustExpr(t, "_ * 2"), false)

	opt := New(algebra.NewRoot(), DefaultRules()...)
	optimized, err := opt.Optimize(projected)
	require.NoError(t, err)

	p, ok := optimized.(*algebra.Project)
	require.True(t, ok)
	_, ok = p.Inputs()[0].(*algebra.Filter)
	assert.True(t, ok, "Project-over-Filter has nothing to merge and should pass through unchanged")
}
