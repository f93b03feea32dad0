// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package algebra

import "github.com/railwire/datatracks/pkg/value"

// LayoutKind tags a Layout's shape.
type LayoutKind uint8

const (
	LayoutAny LayoutKind = iota
	LayoutScalar
	LayoutArray
	LayoutDict
	LayoutTuple
)

// Layout describes the shape a station or operator requires or
// produces: default (any), a scalar of a known value.Kind, an array
// (optionally fixed-length), a dict with a known key set, or a tuple
// of named positional slots.
type Layout struct {
	Kind       LayoutKind
	ScalarKind value.Kind
	ArrayLen   int // -1 means unbounded
	DictKeys   []string
	TupleNames []string
}

// AnyLayout accepts anything.
func AnyLayout() Layout { return Layout{Kind: LayoutAny} }

// Accepts reports whether a value shaped like other satisfies this
// layout. LayoutAny accepts everything; otherwise the kinds and, for
// Dict/Tuple, the declared name sets must match.
func (l Layout) Accepts(other Layout) bool {
	if l.Kind == LayoutAny {
		return true
	}
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LayoutScalar:
		return l.ScalarKind == other.ScalarKind
	case LayoutArray:
		return l.ArrayLen < 0 || l.ArrayLen == other.ArrayLen
	case LayoutDict:
		return sameSet(l.DictKeys, other.DictKeys)
	case LayoutTuple:
		return sameSlice(l.TupleNames, other.TupleNames)
	}
	return true
}

// Merge combines two layouts: Any merged with anything yields the other
// side, identical layouts merge to themselves, and two different
// non-Any layouts widen to Any. This
// mirrors the spec's layout derivation being pure and idempotent: an
// operator's required input layout is the merge of everything beneath
// it that constrains shape.
func (l Layout) Merge(other Layout) Layout {
	if l.Kind == LayoutAny {
		return other
	}
	if other.Kind == LayoutAny {
		return l
	}
	if l.Equal(other) {
		return l
	}
	return AnyLayout()
}

func (l Layout) Equal(other Layout) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LayoutScalar:
		return l.ScalarKind == other.ScalarKind
	case LayoutArray:
		return l.ArrayLen == other.ArrayLen
	case LayoutDict:
		return sameSet(l.DictKeys, other.DictKeys)
	case LayoutTuple:
		return sameSlice(l.TupleNames, other.TupleNames)
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, k := range a {
		seen[k] = true
	}
	for _, k := range b {
		if !seen[k] {
			return false
		}
	}
	return true
}

func sameSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InputDerivable is implemented by every operator: the layout it
// requires from its input(s), if any constraint applies.
type InputDerivable interface {
	DeriveInputLayout() (Layout, bool)
}

// OutputDerivable is implemented by every operator: the layout it
// produces, given the (possibly per-named-input) layouts of its
// children.
type OutputDerivable interface {
	DeriveOutputLayout(inputs map[string]Layout) (Layout, bool)
}
