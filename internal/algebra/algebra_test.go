// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

func rowsReservoir(rows ...value.Value) *reservoir.Reservoir[value.Value] {
	r := reservoir.New[value.Value]()
	r.Append(rows)
	return r
}

func dictRow(pairs map[string]value.Value) value.Value {
	d := value.NewDict()
	for k, v := range pairs {
		d.Set(k, v)
	}
	return d
}

func TestDualYieldsOneRow(t *testing.T) {
	it := NewDual(0).Iterator()
	v, ok := it.Next()
	require.True(t, ok)
	assert.True(t, v.Equal(value.Int(1)))
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestScanDrainsReservoirInOrder(t *testing.T) {
	res := rowsReservoir(value.Int(1), value.Int(2), value.Int(3))
	it := NewScan(0, "t", res).Iterator()
	got := Drain(it)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(value.Int(1)))
	assert.True(t, got[2].Equal(value.Int(3)))
}

func TestIndexScanWagonizes(t *testing.T) {
	res := rowsReservoir(value.Int(5))
	res.SetSource(7)
	it := NewIndexScan(0, "t", res).Iterator()
	v, ok := it.Next()
	require.True(t, ok)
	w, ok := v.(value.Wagon)
	require.True(t, ok)
	assert.Equal(t, 7, w.SourceIndex)
}

func TestFilterShortCircuitsNonTruthy(t *testing.T) {
	res := rowsReservoir(value.Int(1), value.Int(2), value.Int(3), value.Int(4))
	pred, err := CompileExpr(`_ % 2 == 0`)
	require.NoError(t, err)
	f := NewFilter(1, NewScan(0, "t", res), pred)
	got := Drain(f.Iterator())
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(value.Int(2)))
	assert.True(t, got[1].Equal(value.Int(4)))
}

func TestProjectAppliesExpression(t *testing.T) {
	res := rowsReservoir(value.Int(1), value.Int(2))
	expr, err := CompileExpr(`_ * 10`)
	require.NoError(t, err)
	p := NewProject(1, NewScan(0, "t", res), expr, false)
	got := Drain(p.Iterator())
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(value.Int(10)))
	assert.True(t, got[1].Equal(value.Int(20)))
}

func TestUnionConcatenatesPositionally(t *testing.T) {
	a := NewScan(0, "a", rowsReservoir(value.Int(1)))
	b := NewScan(1, "b", rowsReservoir(value.Int(2)))
	u := NewUnion(2, []Algebraic{a, b}, false)
	got := Drain(u.Iterator())
	require.Len(t, got, 2)
}

func TestUnionDistinctDeduplicates(t *testing.T) {
	a := NewScan(0, "a", rowsReservoir(value.Int(1), value.Int(2)))
	b := NewScan(1, "b", rowsReservoir(value.Int(2), value.Int(3)))
	u := NewUnion(2, []Algebraic{a, b}, true)
	got := Drain(u.Iterator())
	assert.Len(t, got, 3)
}

// TestWordcountSplitThenGroupEndToEnd is scenario 3: a split of one
// text row into words (Project's set-valued unwind special case),
// grouped by the word itself and counted, packed back into an
// Array[word, count] pair per group.
func TestWordcountSplitThenGroupEndToEnd(t *testing.T) {
	res := rowsReservoir(dictRow(map[string]value.Value{"text": value.Text("Hey Hallo")}))
	scan := NewScan(0, "t", res)

	splitExpr, err := CompileExpr(`split(text, " ")`)
	require.NoError(t, err)
	unwind := NewProject(1, scan, splitExpr, true)

	agg := NewAggregate(2, unwind, []AggregateExpr{{Name: "n", Func: AggCount}}, []string{"unwind"})

	packExpr, err := CompileExpr(`[unwind, n]`)
	require.NoError(t, err)
	pack := NewProject(3, agg, packExpr, false)

	got := Drain(pack.Iterator())
	require.Len(t, got, 2)

	first := got[0].(value.Array)
	assert.Equal(t, "Hey", string(first[0].(value.Text)))
	assert.Equal(t, value.Int(1), first[1])

	second := got[1].(value.Array)
	assert.Equal(t, "Hallo", string(second[0].(value.Text)))
	assert.Equal(t, value.Int(1), second[1])
}

func TestUnionZeroInputsFailsFast(t *testing.T) {
	u := NewUnion(0, nil, false)
	assert.Panics(t, func() { u.Iterator() })
}

func TestSortOnEmptyInputYieldsEmptyIterator(t *testing.T) {
	res := rowsReservoir()
	key, err := CompileExpr("_")
	require.NoError(t, err)
	s := NewSort(1, NewScan(0, "t", res), key, SortAsc)
	got := Drain(s.Iterator())
	assert.Len(t, got, 0)
}

func TestJoinCrossProduct(t *testing.T) {
	left := NewScan(0, "l", rowsReservoir(value.Int(1), value.Int(2)))
	right := NewScan(1, "r", rowsReservoir(value.Text("a"), value.Text("b")))
	j := NewJoin(2, left, right, nil, JoinCross)
	got := Drain(j.Iterator())
	assert.Len(t, got, 4)
}

func TestJoinInnerFiltersByPredicate(t *testing.T) {
	left := NewScan(0, "l", rowsReservoir(value.Int(1), value.Int(2)))
	right := NewScan(1, "r", rowsReservoir(value.Int(2), value.Int(3)))
	pred, err := CompileExpr(`left == right`)
	require.NoError(t, err)
	j := NewJoin(2, left, right, pred, JoinInner)
	got := Drain(j.Iterator())
	require.Len(t, got, 1)
}

func TestJoinLeftEmitsUnmatched(t *testing.T) {
	left := NewScan(0, "l", rowsReservoir(value.Int(1), value.Int(2)))
	right := NewScan(1, "r", rowsReservoir(value.Int(2)))
	pred, err := CompileExpr(`left == right`)
	require.NoError(t, err)
	j := NewJoin(2, left, right, pred, JoinLeft)
	got := Drain(j.Iterator())
	require.Len(t, got, 2)
}

func TestAggregateCountGroupBy(t *testing.T) {
	res := rowsReservoir(
		dictRow(map[string]value.Value{"k": value.Text("a")}),
		dictRow(map[string]value.Value{"k": value.Text("a")}),
		dictRow(map[string]value.Value{"k": value.Text("b")}),
	)
	agg := NewAggregate(1, NewScan(0, "t", res),
		[]AggregateExpr{{Name: "n", Func: AggCount}}, []string{"k"})
	got := Drain(agg.Iterator())
	require.Len(t, got, 2)
}

func TestSortStableAscending(t *testing.T) {
	res := rowsReservoir(value.Int(3), value.Int(1), value.Int(2))
	key, err := CompileExpr(`_`)
	require.NoError(t, err)
	s := NewSort(1, NewScan(0, "t", res), key, SortAsc)
	got := Drain(s.Iterator())
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(value.Int(1)))
	assert.True(t, got[2].Equal(value.Int(3)))
}

func TestVariableFailsFastUnconfigured(t *testing.T) {
	res := rowsReservoir(value.Int(1))
	v := NewVariable(1, "myTransform", NewScan(0, "t", res))
	it := v.Iterator()
	assert.Panics(t, func() { it.Next() })
}

func TestVariableEnrichBinds(t *testing.T) {
	res := rowsReservoir(value.Int(1))
	v := NewVariable(1, "double", NewScan(0, "t", res))
	it := v.Iterator()
	enriched, ok := it.Enrich(map[string]Transform{
		"double": func(v value.Value) (value.Value, error) {
			return value.Add(v, v)
		},
	})
	require.True(t, ok)
	got, ok := enriched.Next()
	require.True(t, ok)
	assert.True(t, got.Equal(value.Int(2)))
}

func TestSetCostIsMinimumMember(t *testing.T) {
	res := rowsReservoir(value.Int(1))
	cheap := NewScan(0, "t", res)
	expensive := NewFilter(1, NewScan(0, "t", res), mustCompile(t, "true"))
	set := NewSet(2, expensive)
	set.AddMember(cheap)
	assert.Equal(t, cheap.Cost(), set.Cost())
	assert.Equal(t, KindScan, set.Collapse().Kind())
}

func mustCompile(t *testing.T, src string) *Expr {
	t.Helper()
	e, err := CompileExpr(src)
	require.NoError(t, err)
	return e
}

func TestCostFormulas(t *testing.T) {
	res := rowsReservoir(value.Int(1))
	scan := NewScan(0, "t", res)
	assert.Equal(t, NewCost(1), scan.Cost())

	filter := NewFilter(1, scan, mustCompile(t, "true"))
	assert.Equal(t, NewCost(1).Add(scan.Cost()).Add(exprCost), filter.Cost())

	join := NewJoin(2, scan, scan, nil, JoinCross)
	assert.Equal(t, NewCost(2).Add(scan.Cost()).Add(scan.Cost()), join.Cost())
}
