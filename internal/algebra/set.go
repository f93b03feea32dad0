// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

// Set is an equivalence class of algebras used during optimization
// (§4.5, §4.6): the optimizer wraps every node in a Set, rule
// application adds variants to Set.Members (never replacing), and
// after convergence the Set collapses to its minimum-cost member.
type Set struct {
	id      int
	Initial Algebraic
	Members []Algebraic
}

// NewSet wraps initial in a fresh equivalence class containing only
// itself.
func NewSet(id int, initial Algebraic) *Set {
	return &Set{id: id, Initial: initial, Members: []Algebraic{initial}}
}

func (s *Set) Kind() Kind { return KindSet }
func (s *Set) ID() int    { return s.id }

// Cost is the minimum cost across every member, matching the spec's
// "Set = minimum cost across members".
func (s *Set) Cost() Cost {
	best := s.Members[0].Cost()
	for _, m := range s.Members[1:] {
		if c := m.Cost(); c.Less(best) {
			best = c
		}
	}
	return best
}

// AddMember appends a rewrite result to the set without removing any
// existing member.
func (s *Set) AddMember(a Algebraic) { s.Members = append(s.Members, a) }

// Collapse returns the minimum-cost member, which replaces this Set in
// the tree once the optimizer has converged.
func (s *Set) Collapse() Algebraic {
	best := s.Members[0]
	bestCost := best.Cost()
	for _, m := range s.Members[1:] {
		if c := m.Cost(); c.Less(bestCost) {
			best, bestCost = m, c
		}
	}
	return best
}

func (s *Set) Clone() Algebraic {
	members := make([]Algebraic, len(s.Members))
	for i, m := range s.Members {
		members[i] = m.Clone()
	}
	return &Set{id: s.id, Initial: s.Initial.Clone(), Members: members}
}

func (s *Set) DeriveInputLayout() (Layout, bool) { return s.Initial.DeriveInputLayout() }
func (s *Set) DeriveOutputLayout(inputs map[string]Layout) (Layout, bool) {
	return s.Initial.DeriveOutputLayout(inputs)
}

// Iterator delegates to the current minimum-cost member — a Set is
// never executed directly once a plan compiles (it collapses first),
// but tests and the optimizer's cost recomputation exercise this path.
func (s *Set) Iterator() Iterator { return s.Collapse().Iterator() }
