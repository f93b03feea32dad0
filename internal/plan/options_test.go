// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwire/datatracks/pkg/value"
)

func TestValidateOptionsFillsDefaults(t *testing.T) {
	configs := map[string]Config{
		"url":    {Required: true, Kind: value.KindText},
		"prefix": {Required: false, Kind: value.KindText, Default: "p-"},
	}
	out, err := ValidateOptions(configs, json.RawMessage(`{"url": "nats://localhost"}`))
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost", out["url"])
	assert.Equal(t, "p-", out["prefix"])
}

func TestValidateOptionsRejectsMissingRequired(t *testing.T) {
	configs := map[string]Config{
		"url": {Required: true, Kind: value.KindText},
	}
	_, err := ValidateOptions(configs, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestValidateOptionsRejectsWrongType(t *testing.T) {
	configs := map[string]Config{
		"bucket": {Required: true, Kind: value.KindText},
	}
	_, err := ValidateOptions(configs, json.RawMessage(`{"bucket": 5}`))
	require.Error(t, err)
}

func TestValidateOptionsAcceptsEmptyRawWithNoRequired(t *testing.T) {
	configs := map[string]Config{
		"limit": {Required: false, Kind: value.KindInt, Default: 10},
	}
	out, err := ValidateOptions(configs, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, out["limit"])
}
