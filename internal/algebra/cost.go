// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

// Cost is the recursive integer cost the optimizer (internal/optimize)
// minimizes over. It is just an int with named constructors/arithmetic
// so call sites read like the spec's cost formulas (§4.5) instead of
// bare integer math.
type Cost int

func NewCost(n int) Cost { return Cost(n) }

func (c Cost) Add(other Cost) Cost { return c + other }
func (c Cost) Mul(other Cost) Cost { return c * other }

func (c Cost) Less(other Cost) bool { return c < other }

// exprCost approximates the cost of a single expr-lang expression leaf
// (Project/Filter predicates). The spec's original cost formula charges
// a fixed per-expression constant rather than walking the expression's
// AST, so we do the same here: every compiled expression costs 1,
// regardless of its complexity.
const exprCost Cost = 1
