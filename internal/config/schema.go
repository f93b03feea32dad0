// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

// configSchema describes the accepted keys of the program configuration
// file. Unknown top-level keys are also rejected later by
// json.Decoder.DisallowUnknownFields in Init, but failing fast here
// gives a readable "additionalProperties" message instead of a raw
// decode error.
var configSchema = `
{
  "type": "object",
  "properties": {
    "listen_addr": {
      "description": "Address the control protocol listens on, e.g. '0.0.0.0:9090'.",
      "type": "string"
    },
    "plan_dir": {
      "description": "Directory plan-text files are persisted to.",
      "type": "string"
    },
    "jwt_secret": {
      "description": "HMAC secret signing control-protocol registration tokens.",
      "type": "string"
    },
    "jwt_max_age": {
      "description": "Registration token lifetime as a duration string, '0' for no expiry.",
      "type": "string"
    },
    "storage_driver": {
      "description": "Engine backend.",
      "type": "string",
      "enum": ["sqlite", "s3", "mongo"]
    },
    "storage_dsn": {
      "description": "Driver-specific location: a file path, bucket name, or mongo connection URI.",
      "type": "string"
    },
    "wal_dir": {
      "description": "Directory write-ahead-log segments are written to.",
      "type": "string"
    },
    "wal_segment_bytes": {
      "description": "Maximum size of a single WAL segment before rotation.",
      "type": "integer",
      "minimum": 1
    },
    "gops": {
      "description": "Start a github.com/google/gops/agent debug listener.",
      "type": "boolean"
    },
    "log_level": {
      "description": "debug, info, notice, warn, err or crit.",
      "type": "string",
      "enum": ["debug", "info", "notice", "warn", "err", "fatal", "crit"]
    }
  },
  "additionalProperties": false
}`
