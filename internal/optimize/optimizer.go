// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package optimize implements the rule-based algebra-tree rewriter
// (§4.6): every node is wrapped in an algebra.Set equivalence class,
// rules add alternative forms to each Set without removing the
// original, and the driver repeats until two successive passes yield
// no cost improvement, then collapses every Set to its minimum-cost
// member.
package optimize

import (
	"fmt"

	"github.com/railwire/datatracks/internal/algebra"
)

// ErrInfiniteLoop is returned when a round count exceeds
// len(rules)*100 without converging, matching the spec's "Max rounds
// ... otherwise surface 'infinite loop'".
type ErrInfiniteLoop struct{ Rounds int }

func (e *ErrInfiniteLoop) Error() string {
	return fmt.Sprintf("optimize: infinite loop detected after %d rounds", e.Rounds)
}

// Optimizer rewrites an algebra tree in place (conceptually — Algebraic
// nodes are immutable, so every step returns a new tree) using a fixed
// rule set.
type Optimizer struct {
	rules []Rule
	root  *algebra.Root
}

// New returns an Optimizer using rules, allocating fresh Set ids from
// root (the same Root the plan compiler used for its operator ids).
func New(root *algebra.Root, rules ...Rule) *Optimizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Optimizer{rules: rules, root: root}
}

// Optimize wraps raw in per-edge Sets, repeatedly applies every rule at
// every Set until convergence, and collapses back to a plain tree.
func (o *Optimizer) Optimize(raw algebra.Algebraic) (algebra.Algebraic, error) {
	wrapped := o.wrap(raw)

	round := 0
	uneventful := 0
	maxRounds := len(o.rules) * 100

	for uneventful < 2 {
		if round > maxRounds {
			return nil, &ErrInfiniteLoop{Rounds: round}
		}

		initialCost := wrapped.Cost()
		wrapped = o.pass(wrapped)

		// Uneventful means cost did not improve (spec: "initial_cost
		// <= cost after this round"); it resets only on improvement.
		if wrapped.Cost().Less(initialCost) {
			uneventful = 0
		} else {
			uneventful++
		}
		round++
	}

	return unwrap(wrapped), nil
}

// wrap inserts a *Set at every edge of the tree, bottom-up, mirroring
// the original's add_set: a node's children are wrapped first, the
// node is rebuilt over the wrapped children, then the node itself is
// wrapped too.
func (o *Optimizer) wrap(a algebra.Algebraic) algebra.Algebraic {
	if p, ok := a.(algebra.Parent); ok {
		children := p.Inputs()
		wrappedChildren := make([]algebra.Algebraic, len(children))
		for i, c := range children {
			wrappedChildren[i] = o.wrap(c)
		}
		a = p.WithInputs(wrappedChildren)
	}
	return algebra.NewSet(o.root.Alloc(), a)
}

// pass applies every rule once at every Set reached by descending
// through the current minimum-cost member of each Set, so merges can
// happen at any depth, not only at the top. Set.AddMember mutates in
// place, so a nested Set's improved cost is visible to every ancestor
// immediately (an ancestor's Cost() recomputes through its child's
// Cost() on every call) without needing to rebuild and reattach the
// ancestor itself.
func (o *Optimizer) pass(a algebra.Algebraic) algebra.Algebraic {
	set, ok := a.(*algebra.Set)
	if !ok {
		return a
	}

	for _, rule := range o.rules {
		if rule.CanApply(set) {
			for _, variant := range rule.Apply(set) {
				set.AddMember(variant)
			}
		}
	}

	if p, ok := set.Collapse().(algebra.Parent); ok {
		for _, child := range p.Inputs() {
			o.pass(child)
		}
	}

	return set
}

// unwrap collapses every Set to its minimum-cost member, recursively,
// producing a plain tree with no Sets left — the inverse of wrap.
func unwrap(a algebra.Algebraic) algebra.Algebraic {
	if set, ok := a.(*algebra.Set); ok {
		return unwrap(set.Collapse())
	}
	if p, ok := a.(algebra.Parent); ok {
		children := p.Inputs()
		newChildren := make([]algebra.Algebraic, len(children))
		for i, c := range children {
			newChildren[i] = unwrap(c)
		}
		return p.WithInputs(newChildren)
	}
	return a
}
