// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package value

import "fmt"

// Wagon annotates a value with the index of the input stream it
// originated from. Wagonization is idempotent and last-writer-wins:
// re-wagonizing an already-wagonized value replaces the provenance
// rather than nesting it. Equality and ordering unwrap both sides
// recursively, so a Wagon is transparent to everything except code
// that explicitly asks for SourceIndex.
type Wagon struct {
	Inner       Value
	SourceIndex int
}

// Wagonize wraps v with provenance index idx. If v is already a Wagon,
// its SourceIndex is overwritten (last-writer-wins) rather than
// nesting a second layer.
func Wagonize(v Value, idx int) Wagon {
	return Wagon{Inner: Unwrap(v), SourceIndex: idx}
}

func (Wagon) Kind() Kind { return KindWagon }

func (w Wagon) String() string {
	return fmt.Sprintf("wagon(%d, %s)", w.SourceIndex, w.Inner.String())
}

// Equal unwraps both sides: provenance never affects equality.
func (w Wagon) Equal(o Value) bool { return w.Inner.Equal(Unwrap(o)) }

// Hash is defined over the unwrapped value, matching Equal.
func (w Wagon) Hash() uint64 { return w.Inner.Hash() }

// Compare unwraps both sides, matching Equal/Hash.
func (w Wagon) Compare(o Value) int { return w.Inner.Compare(Unwrap(o)) }

// Add implements transparent arithmetic unwrapping: arithmetic helpers
// operate on wagons by unwrapping, computing, and (when either operand
// carried provenance) re-wagonizing the result with the left operand's
// source index.
func Add(a, b Value) (Value, error) {
	return arith(a, b, func(x, y int64) int64 { return x + y })
}

func Sub(a, b Value) (Value, error) {
	return arith(a, b, func(x, y int64) int64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return arith(a, b, func(x, y int64) int64 { return x * y })
}

func arith(a, b Value, op func(int64, int64) int64) (Value, error) {
	wa, aIsWagon := a.(Wagon)
	wb, bIsWagon := b.(Wagon)
	ua, ub := Unwrap(a), Unwrap(b)
	an, as := asFixed(ua)
	bn, bs := asFixed(ub)
	if !isNumeric(ua.Kind()) || !isNumeric(ub.Kind()) {
		return nil, fmt.Errorf("value: arithmetic requires numeric operands, got %T and %T", ua, ub)
	}
	shift := as
	if bs > shift {
		shift = bs
	}
	result := Value(NewFloat(op(scaleTo(an, as, shift), scaleTo(bn, bs, shift)), shift))
	if as == 0 && bs == 0 {
		result = Int(op(an, bn))
	}
	switch {
	case aIsWagon:
		return Wagonize(result, wa.SourceIndex), nil
	case bIsWagon:
		return Wagonize(result, wb.SourceIndex), nil
	default:
		return result, nil
	}
}
