// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/railwire/datatracks/pkg/value"
)

// ValidateOptions checks a SourceSpec/DestSpec/TransformSpec's raw
// Options against the accepted keys a driver declares via Configs,
// compiling a JSON Schema document from them the way
// internal/config.Validate compiles the program configuration schema.
// Any accepted key raw did not set is filled in from its Config.Default.
func ValidateOptions(configs map[string]Config, raw json.RawMessage) (map[string]interface{}, error) {
	parsed := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("plan: decode options: %w", err)
		}
	}

	schemaBytes, err := json.Marshal(optionsSchema(configs))
	if err != nil {
		return nil, fmt.Errorf("plan: marshal options schema: %w", err)
	}
	sch, err := jsonschema.CompileString("options.json", string(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("plan: compile options schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("plan: validate options: %#v", err)
	}

	for key, cfg := range configs {
		if _, ok := parsed[key]; !ok && cfg.Default != nil {
			parsed[key] = cfg.Default
		}
	}
	return parsed, nil
}

func optionsSchema(configs map[string]Config) map[string]interface{} {
	props := map[string]interface{}{}
	var required []string
	for key, cfg := range configs {
		props[key] = map[string]interface{}{"type": jsonTypeOf(cfg.Kind)}
		if cfg.Required {
			required = append(required, key)
		}
	}
	doc := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func jsonTypeOf(k value.Kind) string {
	switch k {
	case value.KindBool:
		return "boolean"
	case value.KindInt:
		return "integer"
	case value.KindFloat:
		return "number"
	case value.KindDict:
		return "object"
	default:
		return "string"
	}
}
