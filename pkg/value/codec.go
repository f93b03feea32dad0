// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package value

import (
	"encoding/binary"
	"fmt"
	"io"
)

// tag bytes for the canonical codec. Stable across versions: the WAL and
// the storage layer persist these bytes on disk, so changing them breaks
// every existing segment.
const (
	tagNull byte = iota
	tagBool
	tagInt
	tagFloat
	tagTime
	tagDate
	tagText
	tagArray
	tagDict
	tagNode
	tagEdge
	tagWagon
)

// Encode writes v's canonical binary representation to w: one tag byte
// followed by a type-specific, little-endian body. Round-tripping
// through Encode/Decode is guaranteed bit-identical (§4.1, §8).
func Encode(w io.Writer, v Value) error {
	switch t := v.(type) {
	case Null:
		return writeByte(w, tagNull)
	case Bool:
		if err := writeByte(w, tagBool); err != nil {
			return err
		}
		b := byte(0)
		if t {
			b = 1
		}
		return writeByte(w, b)
	case Int:
		if err := writeByte(w, tagInt); err != nil {
			return err
		}
		return writeUint64(w, uint64(t))
	case Float:
		if err := writeByte(w, tagFloat); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.Number)); err != nil {
			return err
		}
		return writeByte(w, t.Shift)
	case Time:
		if err := writeByte(w, tagTime); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.Ms)); err != nil {
			return err
		}
		return writeUint32(w, t.Ns)
	case Date:
		if err := writeByte(w, tagDate); err != nil {
			return err
		}
		return writeUint64(w, uint64(t.Days))
	case Text:
		if err := writeByte(w, tagText); err != nil {
			return err
		}
		return writeBytes(w, []byte(t))
	case Array:
		if err := writeByte(w, tagArray); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(t))); err != nil {
			return err
		}
		for _, e := range t {
			if err := Encode(w, e); err != nil {
				return err
			}
		}
		return nil
	case *Dict:
		if err := writeByte(w, tagDict); err != nil {
			return err
		}
		keys := t.Keys()
		if err := writeUint32(w, uint32(len(keys))); err != nil {
			return err
		}
		for _, k := range keys {
			if err := writeBytes(w, []byte(k)); err != nil {
				return err
			}
			val, _ := t.Get(k)
			if err := Encode(w, val); err != nil {
				return err
			}
		}
		return nil
	case Node:
		if err := writeByte(w, tagNode); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.ID)); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(t.Labels))); err != nil {
			return err
		}
		for _, l := range t.Labels {
			if err := writeBytes(w, []byte(l)); err != nil {
				return err
			}
		}
		return Encode(w, t.Properties)
	case Edge:
		if err := writeByte(w, tagEdge); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.ID)); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.StartNode)); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(t.EndNode)); err != nil {
			return err
		}
		if err := writeBytes(w, []byte(t.Label)); err != nil {
			return err
		}
		return Encode(w, t.Properties)
	case Wagon:
		if err := writeByte(w, tagWagon); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(t.SourceIndex)); err != nil {
			return err
		}
		return Encode(w, t.Inner)
	default:
		return fmt.Errorf("value: unknown variant %T", v)
	}
}

// Decode reads a single canonical-encoded value from r.
func Decode(r io.Reader) (Value, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return Null{}, nil
	case tagBool:
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case tagInt:
		n, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return Int(int64(n)), nil
	case tagFloat:
		n, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		shift, err := readByte(r)
		if err != nil {
			return nil, err
		}
		return Float{Number: int64(n), Shift: shift}, nil
	case tagTime:
		ms, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		ns, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return Time{Ms: int64(ms), Ns: ns}, nil
	case tagDate:
		days, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return Date{Days: int64(days)}, nil
	case tagText:
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return Text(b), nil
	case tagArray:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		arr := make(Array, n)
		for i := range arr {
			v, err := Decode(r)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case tagDict:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		d := NewDict()
		for i := uint32(0); i < n; i++ {
			k, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			v, err := Decode(r)
			if err != nil {
				return nil, err
			}
			d.Set(string(k), v)
		}
		return d, nil
	case tagNode:
		id, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		labels := make([]string, n)
		for i := range labels {
			b, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			labels[i] = string(b)
		}
		props, err := Decode(r)
		if err != nil {
			return nil, err
		}
		d, ok := props.(*Dict)
		if !ok {
			return nil, fmt.Errorf("value: node properties must be a dict")
		}
		return Node{ID: int64(id), Labels: labels, Properties: d}, nil
	case tagEdge:
		id, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		start, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		end, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		label, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		props, err := Decode(r)
		if err != nil {
			return nil, err
		}
		d, ok := props.(*Dict)
		if !ok {
			return nil, fmt.Errorf("value: edge properties must be a dict")
		}
		return Edge{ID: int64(id), StartNode: int64(start), EndNode: int64(end), Label: string(label), Properties: d}, nil
	case tagWagon:
		idx, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		inner, err := Decode(r)
		if err != nil {
			return nil, err
		}
		return Wagon{Inner: inner, SourceIndex: int(idx)}, nil
	default:
		return nil, fmt.Errorf("value: unknown tag byte %d", tag)
	}
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
