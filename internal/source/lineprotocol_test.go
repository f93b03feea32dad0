// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/value"
)

func TestDecodeLineProtocolParsesTagsAndFields(t *testing.T) {
	line := []byte("cpu,host=a,region=eu value=42.5,count=3i 1700000000000000000\n")

	tr, err := DecodeLineProtocol(line)
	require.NoError(t, err)
	require.Len(t, tr.Values, 1)

	dict, ok := tr.Values[0].(*value.Dict)
	require.True(t, ok)

	measurement, ok := dict.Get("_measurement")
	require.True(t, ok)
	assert.True(t, measurement.Equal(value.Text("cpu")))

	host, ok := dict.Get("host")
	require.True(t, ok)
	assert.True(t, host.Equal(value.Text("a")))

	count, ok := dict.Get("count")
	require.True(t, ok)
	assert.True(t, count.Equal(value.Int(3)))
}

func TestDecodeLineProtocolHandlesMultiplePoints(t *testing.T) {
	line := []byte("temp value=1 1700000000000000000\ntemp value=2 1700000001000000000\n")

	tr, err := DecodeLineProtocol(line)
	require.NoError(t, err)
	assert.Len(t, tr.Values, 2)
}

func TestDecodeLineProtocolRejectsMalformedInput(t *testing.T) {
	_, err := DecodeLineProtocol([]byte(`cpu value="unterminated` + "\n"))
	assert.Error(t, err)
}
