// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package value implements the tagged value model that every record
// flowing through the engine is expressed in: a totally-ordered,
// hashable sum type with a canonical binary codec. Values are used as
// map keys (reservoir indices, aggregate group keys) so every variant
// must define Compare, Equal and Hash consistently with each other.
package value

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags a Value's variant for fast switches and canonical ordering.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindTime
	KindDate
	KindText
	KindArray
	KindDict
	KindNode
	KindEdge
	KindWagon
)

// Value is the interface every variant implements. Comparisons and
// hashing must agree: Equal(a,b) implies Hash(a) == Hash(b), and
// Compare(a,b) == 0 implies Equal(a,b).
type Value interface {
	Kind() Kind
	// Compare returns <0, 0, >0 in the canonical total order (§4.1).
	Compare(other Value) int
	Equal(other Value) bool
	Hash() uint64
	String() string
}

// orderRank gives the canonical cross-kind ordering:
// Null < Bool < numeric < Time < Date < Text < Array < Dict < Node < Edge.
// Wagon is transparent: it ranks as its unwrapped value.
func orderRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindTime:
		return 3
	case KindDate:
		return 4
	case KindText:
		return 5
	case KindArray:
		return 6
	case KindDict:
		return 7
	case KindNode:
		return 8
	case KindEdge:
		return 9
	default:
		return 10
	}
}

// Unwrap strips any number of Wagon layers and returns the inner value.
func Unwrap(v Value) Value {
	for {
		w, ok := v.(Wagon)
		if !ok {
			return v
		}
		v = w.Inner
	}
}

// compareCross compares across kinds using orderRank, after unwrapping
// wagons. Same-kind comparisons are delegated to the variant itself.
func compareCross(a, b Value) int {
	a, b = Unwrap(a), Unwrap(b)
	ak, bk := a.Kind(), b.Kind()
	if isNumeric(ak) && isNumeric(bk) {
		return compareNumeric(a, b)
	}
	if ak != bk {
		ra, rb := orderRank(ak), orderRank(bk)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		default:
			return 0
		}
	}
	switch av := a.(type) {
	case Null:
		return 0
	case Bool:
		return av.Compare(b)
	case Time:
		return av.Compare(b)
	case Date:
		return av.Compare(b)
	case Text:
		return av.Compare(b)
	case Array:
		return av.Compare(b)
	case Dict:
		return av.Compare(b)
	case Node:
		return av.Compare(b)
	case Edge:
		return av.Compare(b)
	}
	return 0
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

// asFixed returns a value's numeric representation as a fixed-point pair
// (number, shift), so Int and Float compare on a common scale.
func asFixed(v Value) (int64, uint8) {
	switch n := v.(type) {
	case Int:
		return int64(n), 0
	case Float:
		return n.Number, n.Shift
	}
	return 0, 0
}

func compareNumeric(a, b Value) int {
	an, as := asFixed(a)
	bn, bs := asFixed(b)
	shift := as
	if bs > shift {
		shift = bs
	}
	av := scaleTo(an, as, shift)
	bv := scaleTo(bn, bs, shift)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func scaleTo(n int64, from, to uint8) int64 {
	for from < to {
		n *= 10
		from++
	}
	return n
}

// --- Null ---

// Null is the absence-of-value variant.
type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }
func (n Null) Equal(o Value) bool {
	_, ok := Unwrap(o).(Null)
	return ok
}
func (n Null) Hash() uint64        { return hashKindSeed(KindNull) }
func (n Null) Compare(o Value) int { return compareCross(n, o) }

// --- Bool ---

// Bool is a boolean variant.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Bool)
	return ok && ov == b
}
func (b Bool) Hash() uint64 {
	if b {
		return hashKindSeed(KindBool) ^ 1
	}
	return hashKindSeed(KindBool)
}
func (b Bool) Compare(o Value) int {
	ov := Unwrap(o)
	if other, ok := ov.(Bool); ok {
		switch {
		case b == other:
			return 0
		case !bool(b) && bool(other):
			return -1
		default:
			return 1
		}
	}
	return compareCross(b, o)
}

// --- Int ---

// Int is a signed 64-bit integer variant.
type Int int64

func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (i Int) Equal(o Value) bool {
	ov := Unwrap(o)
	if !isNumeric(ov.Kind()) {
		return false
	}
	return compareNumeric(i, ov) == 0
}
func (i Int) Hash() uint64        { return hashNumeric(int64(i), 0) }
func (i Int) Compare(o Value) int { return compareCross(i, o) }

// --- Float ---

// Float is a decimal fixed-point number: Number * 10^-Shift.
type Float struct {
	Number int64
	Shift  uint8
}

func NewFloat(number int64, shift uint8) Float { return Float{Number: number, Shift: shift} }

// NewFloatFromFloat64 converts a binary float64 into the decimal
// fixed-point representation, at a fixed shift of 6 digits — enough
// precision for the expr-lang bridge (internal/algebra) without the
// caller having to pick a shift explicitly.
func NewFloatFromFloat64(f float64) Float {
	const shift = 6
	scale := 1.0
	for i := 0; i < shift; i++ {
		scale *= 10
	}
	return Float{Number: int64(f * scale), Shift: shift}
}

// Float64 returns the fixed-point value as a binary float64.
func (f Float) Float64() float64 {
	div := 1.0
	for i := uint8(0); i < f.Shift; i++ {
		div *= 10
	}
	return float64(f.Number) / div
}

func (Float) Kind() Kind { return KindFloat }
func (f Float) String() string {
	if f.Shift == 0 {
		return fmt.Sprintf("%d", f.Number)
	}
	div := int64(1)
	for i := uint8(0); i < f.Shift; i++ {
		div *= 10
	}
	whole := f.Number / div
	frac := f.Number % div
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%0*d", whole, f.Shift, frac)
}
func (f Float) Equal(o Value) bool {
	ov := Unwrap(o)
	if !isNumeric(ov.Kind()) {
		return false
	}
	return compareNumeric(f, ov) == 0
}
func (f Float) Hash() uint64        { return hashNumeric(f.Number, f.Shift) }
func (f Float) Compare(o Value) int { return compareCross(f, o) }

// --- Time ---

// Time is a UTC instant; Ns is normalized into Ms on overflow.
type Time struct {
	Ms int64
	Ns uint32
}

func NewTime(ms int64, ns uint32) Time {
	ms += int64(ns / 1_000_000)
	ns = ns % 1_000_000
	return Time{Ms: ms, Ns: ns}
}

func (Time) Kind() Kind       { return KindTime }
func (t Time) String() string { return fmt.Sprintf("time(%d.%06d)", t.Ms, t.Ns) }
func (t Time) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Time)
	return ok && ov == t
}
func (t Time) Hash() uint64 {
	return hashKindSeed(KindTime) ^ uint64(t.Ms)*31 ^ uint64(t.Ns)
}
func (t Time) Compare(o Value) int {
	ov := Unwrap(o)
	if other, ok := ov.(Time); ok {
		switch {
		case t.Ms != other.Ms:
			if t.Ms < other.Ms {
				return -1
			}
			return 1
		case t.Ns != other.Ns:
			if t.Ns < other.Ns {
				return -1
			}
			return 1
		default:
			return 0
		}
	}
	return compareCross(t, o)
}
func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }
func (t Time) After(o Time) bool  { return t.Compare(o) > 0 }

// AddMillis returns t shifted by ms milliseconds (negative shifts back).
func (t Time) AddMillis(ms int64) Time { return NewTime(t.Ms+ms, t.Ns) }

// SubMillis returns t minus o, in whole milliseconds (sub-millisecond
// Ns is dropped), used by watermark offsets and window bucketing.
func (t Time) SubMillis(o Time) int64 { return t.Ms - o.Ms }

// --- Date ---

// Date is a day count from the Unix epoch.
type Date struct {
	Days int64
}

func (Date) Kind() Kind       { return KindDate }
func (d Date) String() string { return fmt.Sprintf("date(%d)", d.Days) }
func (d Date) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Date)
	return ok && ov == d
}
func (d Date) Hash() uint64 { return hashKindSeed(KindDate) ^ uint64(d.Days) }
func (d Date) Compare(o Value) int {
	ov := Unwrap(o)
	if other, ok := ov.(Date); ok {
		switch {
		case d.Days < other.Days:
			return -1
		case d.Days > other.Days:
			return 1
		default:
			return 0
		}
	}
	return compareCross(d, o)
}

// --- Text ---

// Text is a UTF-8 string variant.
type Text string

func (Text) Kind() Kind       { return KindText }
func (t Text) String() string { return string(t) }
func (t Text) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Text)
	return ok && ov == t
}
func (t Text) Hash() uint64 { return hashKindSeed(KindText) ^ fnv1a(string(t)) }
func (t Text) Compare(o Value) int {
	ov := Unwrap(o)
	if other, ok := ov.(Text); ok {
		return strings.Compare(string(t), string(other))
	}
	return compareCross(t, o)
}

// --- Array ---

// Array is an ordered sequence of values.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a Array) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Array)
	if !ok || len(ov) != len(a) {
		return false
	}
	for i := range a {
		if !a[i].Equal(ov[i]) {
			return false
		}
	}
	return true
}
func (a Array) Hash() uint64 {
	h := hashKindSeed(KindArray)
	for _, v := range a {
		h = h*1099511628211 ^ v.Hash()
	}
	return h
}
func (a Array) Compare(o Value) int {
	ov := Unwrap(o)
	other, ok := ov.(Array)
	if !ok {
		return compareCross(a, o)
	}
	for i := 0; i < len(a) && i < len(other); i++ {
		if c := a[i].Compare(other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(other):
		return -1
	case len(a) > len(other):
		return 1
	default:
		return 0
	}
}

// --- Dict ---

// Dict is an ordered mapping of unique text keys to values. Insertion
// order is preserved for String()/iteration; canonical ordering and
// hashing operate on sorted keys so equal dicts built in different
// insertion orders compare equal.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

func DictOf(pairs map[string]Value) *Dict {
	d := NewDict()
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, pairs[k])
	}
	return d
}

func (d *Dict) Set(key string, v Value) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dict) Len() int { return len(d.keys) }

func (Dict) Kind() Kind { return KindDict }

// sortedKeys returns a copy of keys sorted for canonical comparison.
func (d *Dict) sortedKeys() []string {
	keys := d.Keys()
	sort.Strings(keys)
	return keys
}

func (d *Dict) String() string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, d.values[k].String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) Equal(o Value) bool {
	ov, ok := Unwrap(o).(*Dict)
	if !ok || ov.Len() != d.Len() {
		return false
	}
	for _, k := range d.keys {
		bv, ok := ov.Get(k)
		if !ok || !d.values[k].Equal(bv) {
			return false
		}
	}
	return true
}

func (d *Dict) Hash() uint64 {
	h := hashKindSeed(KindDict)
	for _, k := range d.sortedKeys() {
		h = h*1099511628211 ^ fnv1a(k)
		h = h*1099511628211 ^ d.values[k].Hash()
	}
	return h
}

func (d *Dict) Compare(o Value) int {
	ov := Unwrap(o)
	other, ok := ov.(*Dict)
	if !ok {
		return compareCross(d, o)
	}
	ak, bk := d.sortedKeys(), other.sortedKeys()
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
	}
	if len(ak) != len(bk) {
		if len(ak) < len(bk) {
			return -1
		}
		return 1
	}
	for _, k := range ak {
		if c := d.values[k].Compare(other.values[k]); c != 0 {
			return c
		}
	}
	return 0
}

// Kind method receiver needs pointer for Dict since it carries mutable
// internal maps; satisfy the Value interface via pointer receivers above
// (*Dict implements Value, not Dict).
var _ Value = (*Dict)(nil)

// --- Node ---

// Node is a labelled property-graph vertex.
type Node struct {
	ID         int64
	Labels     []string
	Properties *Dict
}

func (Node) Kind() Kind { return KindNode }
func (n Node) String() string {
	return fmt.Sprintf("Node(%d, %v, %s)", n.ID, n.Labels, n.Properties.String())
}
func (n Node) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Node)
	if !ok || ov.ID != n.ID || len(ov.Labels) != len(n.Labels) {
		return false
	}
	if !sameLabelSet(n.Labels, ov.Labels) {
		return false
	}
	return n.Properties.Equal(ov.Properties)
}
func (n Node) Hash() uint64 {
	h := hashKindSeed(KindNode) ^ uint64(n.ID)
	for _, l := range sortedCopy(n.Labels) {
		h = h*1099511628211 ^ fnv1a(l)
	}
	return h ^ n.Properties.Hash()
}
func (n Node) Compare(o Value) int {
	ov := Unwrap(o)
	other, ok := ov.(Node)
	if !ok {
		return compareCross(n, o)
	}
	if n.ID != other.ID {
		if n.ID < other.ID {
			return -1
		}
		return 1
	}
	return n.Properties.Compare(other.Properties)
}

func sameLabelSet(a, b []string) bool {
	as, bs := sortedCopy(a), sortedCopy(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// --- Edge ---

// Edge is a labelled property-graph relationship between two nodes.
type Edge struct {
	ID         int64
	StartNode  int64
	EndNode    int64
	Label      string
	Properties *Dict
}

func (Edge) Kind() Kind { return KindEdge }
func (e Edge) String() string {
	return fmt.Sprintf("Edge(%d, %d->%d, %s)", e.ID, e.StartNode, e.EndNode, e.Label)
}
func (e Edge) Equal(o Value) bool {
	ov, ok := Unwrap(o).(Edge)
	if !ok {
		return false
	}
	return ov.ID == e.ID && ov.StartNode == e.StartNode && ov.EndNode == e.EndNode &&
		ov.Label == e.Label && e.Properties.Equal(ov.Properties)
}
func (e Edge) Hash() uint64 {
	h := hashKindSeed(KindEdge) ^ uint64(e.ID)
	h = h*1099511628211 ^ fnv1a(e.Label)
	return h ^ e.Properties.Hash()
}
func (e Edge) Compare(o Value) int {
	ov := Unwrap(o)
	other, ok := ov.(Edge)
	if !ok {
		return compareCross(e, o)
	}
	if e.ID != other.ID {
		if e.ID < other.ID {
			return -1
		}
		return 1
	}
	return e.Properties.Compare(other.Properties)
}

// --- hashing helpers (FNV-1a, 64-bit) ---

func fnv1a(s string) uint64 {
	const (
		offset uint64 = 14695981039346656037
		prime  uint64 = 1099511628211
	)
	h := offset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

func hashKindSeed(k Kind) uint64 {
	return fnv1a(string(rune('A' + int(k))))
}

func hashNumeric(n int64, shift uint8) uint64 {
	scaled := scaleTo(n, shift, 8)
	h := hashKindSeed(KindInt)
	return h ^ uint64(scaled)*2654435761
}
