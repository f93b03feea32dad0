// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/railwire/datatracks/pkg/value"
)

// Expr wraps a compiled expr-lang program evaluated against a single
// row. Filter and Project both compile their option text through this:
// Filter treats the result as a Bool, Project treats it as the
// projected Value. Rows are exposed to expressions as plain Go values
// (via toNative/fromNative) so expr's own operators (arithmetic,
// comparisons, indexing) work without a custom Value-aware VM.
type Expr struct {
	source  string
	program *vm.Program
	compose *composeExpr
}

// composeKind distinguishes the two ways the optimizer's merge rules
// fuse a pair of expressions, since Project and Filter combine their
// stages differently (§4.6's merge-consecutive-projects/filters).
type composeKind uint8

const (
	// composeChain evaluates inner then feeds its result to outer —
	// Project-of-project fusion.
	composeChain composeKind = iota
	// composeAnd evaluates both against the same row and ANDs the
	// truthy results — Filter-of-filter fusion.
	composeAnd
)

type composeExpr struct {
	kind         composeKind
	outer, inner *Expr
}

// ComposeExpr fuses two Project expressions into one: the merged
// expression evaluates inner against the row, then outer against
// inner's result. Used by the optimizer's merge-consecutive-projects
// rule so two Project nodes collapse into a single node instead of
// re-parsing concatenated source text.
func ComposeExpr(outer, inner *Expr) *Expr {
	return &Expr{
		source:  fmt.Sprintf("(%s) after (%s)", outer.source, inner.source),
		compose: &composeExpr{kind: composeChain, outer: outer, inner: inner},
	}
}

// ComposeAndExpr fuses two Filter predicates into one: the merged
// predicate evaluates both against the same row and passes only if
// both are truthy. Used by the optimizer's merge-consecutive-filters
// rule.
func ComposeAndExpr(outer, inner *Expr) *Expr {
	return &Expr{
		source:  fmt.Sprintf("(%s) && (%s)", outer.source, inner.source),
		compose: &composeExpr{kind: composeAnd, outer: outer, inner: inner},
	}
}

// CompileExpr compiles source once; evaluation (Eval) is then cheap and
// allocation-light, matching the pull-iterator's per-row hot path.
func CompileExpr(source string) (*Expr, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("algebra: compile expression %q: %w", source, err)
	}
	return &Expr{source: source, program: program}, nil
}

func (e *Expr) String() string { return e.source }

// Eval runs the expression with row's fields bound as top-level
// variables (row must be a value.Dict; Array/scalar rows are bound
// under the name "_"). A composed expression (see ComposeExpr/
// ComposeAndExpr) evaluates its two stages directly instead of
// running a compiled program.
func (e *Expr) Eval(row value.Value) (value.Value, error) {
	if e.compose != nil {
		return e.evalComposed(row)
	}
	env := rowEnv(row)
	out, err := expr.Run(e.program, env)
	if err != nil {
		return nil, fmt.Errorf("algebra: evaluate %q: %w", e.source, err)
	}
	return fromNative(out), nil
}

func (e *Expr) evalComposed(row value.Value) (value.Value, error) {
	switch e.compose.kind {
	case composeChain:
		mid, err := e.compose.inner.Eval(row)
		if err != nil {
			return nil, err
		}
		return e.compose.outer.Eval(mid)
	case composeAnd:
		a, err := e.compose.inner.Eval(row)
		if err != nil {
			return nil, err
		}
		if !truthy(a) {
			return value.Bool(false), nil
		}
		b, err := e.compose.outer.Eval(row)
		if err != nil {
			return nil, err
		}
		return value.Bool(truthy(b)), nil
	default:
		return nil, fmt.Errorf("algebra: unknown compose kind")
	}
}

func rowEnv(row value.Value) map[string]interface{} {
	if d, ok := row.(*value.Dict); ok {
		env := make(map[string]interface{}, len(d.Keys()))
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			env[k] = toNative(v)
		}
		return env
	}
	return map[string]interface{}{"_": toNative(row)}
}

// toNative converts a value.Value into the closest native Go type so
// expr-lang's built-in operators apply directly.
func toNative(v value.Value) interface{} {
	switch x := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return bool(x)
	case value.Int:
		return int64(x)
	case value.Float:
		return x.Float64()
	case value.Text:
		return string(x)
	case value.Time:
		return x
	case value.Date:
		return x
	case value.Array:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = toNative(e)
		}
		return out
	case *value.Dict:
		out := make(map[string]interface{}, len(x.Keys()))
		for _, k := range x.Keys() {
			e, _ := x.Get(k)
			out[k] = toNative(e)
		}
		return out
	case value.Wagon:
		return toNative(x.Inner)
	default:
		return v
	}
}

// fromNative converts an expr-lang evaluation result back into a
// value.Value.
func fromNative(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(x)
	case int:
		return value.Int(x)
	case int64:
		return value.Int(x)
	case float64:
		return value.NewFloatFromFloat64(x)
	case string:
		return value.Text(x)
	case value.Value:
		return x
	case []interface{}:
		arr := make(value.Array, len(x))
		for i, e := range x {
			arr[i] = fromNative(e)
		}
		return arr
	case []string:
		arr := make(value.Array, len(x))
		for i, e := range x {
			arr[i] = value.Text(e)
		}
		return arr
	case map[string]interface{}:
		d := value.NewDict()
		for k, e := range x {
			d.Set(k, fromNative(e))
		}
		return d
	default:
		return value.Text(fmt.Sprintf("%v", x))
	}
}
