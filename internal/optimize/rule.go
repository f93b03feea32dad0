// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package optimize

import "github.com/railwire/datatracks/internal/algebra"

// Rule is one rewrite the optimizer tries at every equivalence class
// (§4.6). CanApply inspects a Set without mutating it; Apply returns
// the alternative forms to add as new members — it never replaces an
// existing member, matching "rule results are added to the set, never
// replacing".
type Rule interface {
	Name() string
	CanApply(s *algebra.Set) bool
	Apply(s *algebra.Set) []algebra.Algebraic
}

// MergeProjectRule collapses a Project whose input is (through one Set
// layer) another Project into a single Project with a composed
// expression, unless either side is set-valued — the set-constructor
// special case changes row cardinality, so fusing across it would
// change semantics, not just representation.
type MergeProjectRule struct{}

func (MergeProjectRule) Name() string { return "merge-consecutive-projects" }

func (MergeProjectRule) CanApply(s *algebra.Set) bool {
	_, _, ok := mergeableProjects(s)
	return ok
}

func (MergeProjectRule) Apply(s *algebra.Set) []algebra.Algebraic {
	outer, inner, ok := mergeableProjects(s)
	if !ok {
		return nil
	}
	merged := algebra.NewProject(outer.ID(), inner.Inputs()[0], algebra.ComposeExpr(outer.Expr(), inner.Expr()), false)
	return []algebra.Algebraic{merged}
}

func mergeableProjects(s *algebra.Set) (outer, inner *algebra.Project, ok bool) {
	outer, ok = s.Collapse().(*algebra.Project)
	if !ok || outer.SetValued() {
		return nil, nil, false
	}
	innerSet, ok := outer.Inputs()[0].(*algebra.Set)
	if !ok {
		return nil, nil, false
	}
	inner, ok = innerSet.Collapse().(*algebra.Project)
	if !ok || inner.SetValued() {
		return nil, nil, false
	}
	return outer, inner, true
}

// MergeFilterRule collapses a Filter whose input is (through one Set
// layer) another Filter into a single Filter whose predicate is the
// logical AND of both.
type MergeFilterRule struct{}

func (MergeFilterRule) Name() string { return "merge-consecutive-filters" }

func (MergeFilterRule) CanApply(s *algebra.Set) bool {
	_, _, ok := mergeableFilters(s)
	return ok
}

func (MergeFilterRule) Apply(s *algebra.Set) []algebra.Algebraic {
	outer, inner, ok := mergeableFilters(s)
	if !ok {
		return nil
	}
	merged := algebra.NewFilter(outer.ID(), inner.Inputs()[0], algebra.ComposeAndExpr(outer.Predicate(), inner.Predicate()))
	return []algebra.Algebraic{merged}
}

func mergeableFilters(s *algebra.Set) (outer, inner *algebra.Filter, ok bool) {
	outer, ok = s.Collapse().(*algebra.Filter)
	if !ok {
		return nil, nil, false
	}
	innerSet, ok := outer.Inputs()[0].(*algebra.Set)
	if !ok {
		return nil, nil, false
	}
	inner, ok = innerSet.Collapse().(*algebra.Filter)
	if !ok {
		return nil, nil, false
	}
	return outer, inner, true
}

// DefaultRules returns the rule set a RuleBased optimizer runs by
// default (§4.6: "Defined rules: merge-consecutive-projects,
// merge-consecutive-filters (more may be added)").
func DefaultRules() []Rule {
	return []Rule{MergeProjectRule{}, MergeFilterRule{}}
}
