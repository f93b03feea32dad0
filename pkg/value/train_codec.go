// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package value

import "io"

// EncodeTrain writes tr's values (via Encode), its mark set, and its
// event time — the at-rest/on-wire form shared by the protocol's Train
// message and any sink persisting whole trains.
func EncodeTrain(w io.Writer, tr *Train) error {
	if err := writeUint32(w, uint32(len(tr.Values))); err != nil {
		return err
	}
	for _, v := range tr.Values {
		if err := Encode(w, v); err != nil {
			return err
		}
	}
	if err := writeUint32(w, uint32(len(tr.Marks))); err != nil {
		return err
	}
	for stop, t := range tr.Marks {
		if err := writeUint32(w, uint32(stop)); err != nil {
			return err
		}
		if err := writeTrainTime(w, t); err != nil {
			return err
		}
	}
	return writeTrainTime(w, tr.EventTime)
}

// DecodeTrain reads a Train written by EncodeTrain.
func DecodeTrain(r io.Reader) (*Train, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	values := make([]Value, n)
	for i := range values {
		values[i], err = Decode(r)
		if err != nil {
			return nil, err
		}
	}

	markCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	marks := make(map[int]Time, markCount)
	for i := uint32(0); i < markCount; i++ {
		stop, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		t, err := readTrainTime(r)
		if err != nil {
			return nil, err
		}
		marks[int(stop)] = t
	}

	eventTime, err := readTrainTime(r)
	if err != nil {
		return nil, err
	}
	return &Train{Values: values, Marks: marks, EventTime: eventTime}, nil
}

func writeTrainTime(w io.Writer, t Time) error {
	if err := writeUint64(w, uint64(t.Ms)); err != nil {
		return err
	}
	return writeUint32(w, t.Ns)
}

func readTrainTime(r io.Reader) (Time, error) {
	ms, err := readUint64(r)
	if err != nil {
		return Time{}, err
	}
	ns, err := readUint32(r)
	if err != nil {
		return Time{}, err
	}
	return NewTime(int64(ms), ns), nil
}
