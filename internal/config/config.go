// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the program's JSON configuration
// file, the way the teacher's internal/config loads its ProgramConfig:
// a package-level Keys value holding defaults, overwritten field-by-field
// by whatever a config file provides, validated against a JSON Schema
// first so a typo surfaces as a readable error instead of a zero-valued
// field.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/railwire/datatracks/pkg/log"
)

// ProgramConfig is the shape of the JSON configuration file.
type ProgramConfig struct {
	// ListenAddr is where the control protocol (internal/protocol) accepts
	// connections, e.g. "0.0.0.0:9090".
	ListenAddr string `json:"listen_addr"`

	// PlanDir is where plan-text files (CreatePlan, GetPlans) are persisted.
	PlanDir string `json:"plan_dir"`

	// JWTSecret signs control-protocol registration tokens. Empty means
	// the server echoes back whatever token a client already holds
	// instead of minting its own (see internal/protocol.TokenIssuer).
	JWTSecret string `json:"jwt_secret"`

	// JWTMaxAge is a duration string ("1h", "0" for no expiry).
	JWTMaxAge string `json:"jwt_max_age"`

	// StorageDriver selects the engine backend: "sqlite", "s3" or "mongo".
	StorageDriver string `json:"storage_driver"`

	// StorageDSN is driver-specific: a file path for sqlite, a bucket
	// name for s3, a connection URI for mongo (the collection is chosen
	// per Out line).
	StorageDSN string `json:"storage_dsn"`

	// WALDir holds the write-ahead-log segment files (internal/wal).
	WALDir string `json:"wal_dir"`

	// WALSegmentBytes caps a single WAL segment's size before rotation.
	WALSegmentBytes int64 `json:"wal_segment_bytes"`

	// EnableGops starts a github.com/google/gops/agent debug listener.
	EnableGops bool `json:"gops"`

	// LogLevel is one of debug/info/notice/warn/err/crit, see pkg/log.
	LogLevel string `json:"log_level"`
}

// Keys holds the process-wide configuration, starting from defaults
// sensible for running a single node on a workstation.
var Keys = ProgramConfig{
	ListenAddr:      ":9090",
	PlanDir:         "./var/plans",
	JWTSecret:       "",
	JWTMaxAge:       "0",
	StorageDriver:   "sqlite",
	StorageDSN:      "./var/datatracks.db",
	WALDir:          "./var/wal",
	WALSegmentBytes: 64 << 20,
	EnableGops:      false,
	LogLevel:        "info",
}

// Init loads ".env" overrides (if present), then reads and validates
// flagConfigFile, decoding it over Keys. A missing config file is not
// an error — the defaults above apply, the same tolerance the teacher's
// Init gives a missing "./config.json".
func Init(flagConfigFile string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("config: load .env: %w", err)
	}

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", flagConfigFile, err)
	}

	if err := Validate(configSchema, raw); err != nil {
		return fmt.Errorf("config: validate %s: %w", flagConfigFile, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return fmt.Errorf("config: decode %s: %w", flagConfigFile, err)
	}

	if Keys.ListenAddr == "" {
		return fmt.Errorf("config: listen_addr must not be empty")
	}
	if Keys.PlanDir == "" {
		return fmt.Errorf("config: plan_dir must not be empty")
	}

	log.SetLogLevel(Keys.LogLevel)
	return nil
}
