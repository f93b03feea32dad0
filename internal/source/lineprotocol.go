// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/railwire/datatracks/pkg/value"
)

// DecodeLineProtocol decodes one batch of InfluxDB line-protocol points
// into a single Train, one Dict value per point holding its tags and
// fields, mirroring the teacher's internal/memorystore DecodeLine but
// generalized: no metric-schema lookup, no cluster/host-specific tag
// handling, every tag and field key is carried through verbatim.
func DecodeLineProtocol(raw []byte) (*value.Train, error) {
	dec := lineprotocol.NewDecoderWithBytes(raw)
	var values []value.Value
	latest := time.Time{}

	for dec.Next() {
		measurement, err := dec.Measurement()
		if err != nil {
			return nil, fmt.Errorf("source: line-protocol measurement: %w", err)
		}

		dict := value.NewDict()
		dict.Set("_measurement", value.Text(measurement))

		for {
			key, val, err := dec.NextTag()
			if err != nil {
				return nil, fmt.Errorf("source: line-protocol tag: %w", err)
			}
			if key == nil {
				break
			}
			dict.Set(string(key), value.Text(val))
		}

		for {
			key, val, err := dec.NextField()
			if err != nil {
				return nil, fmt.Errorf("source: line-protocol field: %w", err)
			}
			if key == nil {
				break
			}
			dict.Set(string(key), fieldValue(val))
		}

		t, err := dec.Time(lineprotocol.Nanosecond, latest)
		if err != nil {
			t = time.Now()
		}
		latest = t
		values = append(values, dict)
	}

	ms := latest.UnixMilli()
	return &value.Train{
		Values:    values,
		Marks:     map[int]value.Time{},
		EventTime: value.NewTime(ms, uint32(latest.Nanosecond()%1_000_000)),
	}, nil
}

func fieldValue(val lineprotocol.Value) value.Value {
	switch val.Kind() {
	case lineprotocol.Float:
		return value.NewFloatFromFloat64(val.FloatV())
	case lineprotocol.Int:
		return value.Int(val.IntV())
	case lineprotocol.Uint:
		return value.Int(int64(val.UintV()))
	case lineprotocol.String:
		return value.Text(val.StringV())
	case lineprotocol.Bool:
		return value.Bool(val.BoolV())
	default:
		return value.Text(fmt.Sprintf("%v", val))
	}
}
