// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package value

// Train is the batch envelope moving between platforms. It carries an
// optional slice of values, the timestamp at which it crossed each stop
// it has passed through, and the event time the producer considers
// authoritative for the batch.
type Train struct {
	Values    []Value
	Marks     map[int]Time
	EventTime Time
}

// NewTrain builds a Train carrying values, with an empty mark set and
// the given event time as authoritative.
func NewTrain(values []Value, eventTime Time) *Train {
	return &Train{Values: values, Marks: map[int]Time{}, EventTime: eventTime}
}

// Mark records that this train crossed stop at time t and returns the
// train for chaining, matching the teacher's builder-returns-self idiom.
func (t *Train) Mark(stop int, at Time) *Train {
	if t.Marks == nil {
		t.Marks = map[int]Time{}
	}
	t.Marks[stop] = at
	return t
}

// Last returns the maximum stop id recorded in Marks, or -1 if Marks is
// empty.
func (t *Train) Last() int {
	last := -1
	for stop := range t.Marks {
		if stop > last {
			last = stop
		}
	}
	return last
}

// Merge combines t and other into a single train: values concatenate
// in t-then-other order, marks union (keeping the later timestamp on
// overlap), and the event time is whichever of the two is later. Used
// when a block gate or window flushes several buffered trains as one.
func (t *Train) Merge(other *Train) *Train {
	values := make([]Value, 0, len(t.Values)+len(other.Values))
	values = append(values, t.Values...)
	values = append(values, other.Values...)

	marks := make(map[int]Time, len(t.Marks)+len(other.Marks))
	for k, v := range t.Marks {
		marks[k] = v
	}
	for k, v := range other.Marks {
		if cur, ok := marks[k]; !ok || v.After(cur) {
			marks[k] = v
		}
	}

	eventTime := t.EventTime
	if other.EventTime.After(eventTime) {
		eventTime = other.EventTime
	}
	return &Train{Values: values, Marks: marks, EventTime: eventTime}
}

// Clone returns a shallow copy: the Values slice and Marks map are
// copied so mutating the clone never affects the original (trains fork
// at broadcast sends).
func (t *Train) Clone() *Train {
	values := make([]Value, len(t.Values))
	copy(values, t.Values)
	marks := make(map[int]Time, len(t.Marks))
	for k, v := range t.Marks {
		marks[k] = v
	}
	return &Train{Values: values, Marks: marks, EventTime: t.EventTime}
}
