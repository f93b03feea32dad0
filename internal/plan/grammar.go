// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/railwire/datatracks/internal/algebra"
	"github.com/railwire/datatracks/pkg/reservoir"
	"github.com/railwire/datatracks/pkg/value"
)

// SourceSpec is a parsed `In` line: the driver type, its raw JSON
// options, and the stop id it feeds. Deployment.Bind resolves Type
// into a concrete Source driver through a Registry built outside this
// package; plan itself stays free of internal/source.
type SourceSpec struct {
	Type    string
	Options json.RawMessage
	StopID  int
}

// DestSpec is a parsed `Out` line, the Destination-side counterpart of
// SourceSpec.
type DestSpec struct {
	Type    string
	Options json.RawMessage
	StopID  int
}

// TransformSpec is a parsed `Transform` line: a name other stops'
// inline expressions or Variable nodes can reference, bound to a
// driver type and its raw JSON options. It is kept on the Plan as
// parsed; Deployment does not resolve Type or bind it to a Variable.
type TransformSpec struct {
	Name    string
	Type    string
	Options json.RawMessage
}

// Plan is the fully parsed plan text (§6): every station, keyed by
// stop id, every line (an ordered stop-id chain), and the source/
// destination/transform bindings attached to stop ids.
type Plan struct {
	Stations map[int]*Station
	Lines    map[int][]int

	Sources      []SourceSpec
	Destinations []DestSpec
	Transforms   []TransformSpec
}

// ParsePlan parses plan text (§4.7/§6's grammar) into a Plan. An In,
// Out or Transform entry is either written inline ("In nats{...}:1")
// or listed after a bare "In"/"Out"/"Transform" header line; after a
// header, every following line belongs to that section until the next
// header. It never instantiates drivers or starts platforms — Deployment
// does that, resolving every SourceSpec/DestSpec against a Registry.
func ParsePlan(text string) (*Plan, error) {
	p := &Plan{Stations: map[int]*Station{}, Lines: map[int][]int{}}
	nextLineID := 0
	section := ""

	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "In" || line == "Out" || line == "Transform" {
			section = line
			continue
		}
		if section != "" && !hasKeyword(line, section) {
			line = section + " " + line
		}

		switch {
		case hasKeyword(line, "In"):
			spec, err := parseSourceLine(line)
			if err != nil {
				return nil, fmt.Errorf("plan: line %d: %w", lineNo+1, err)
			}
			p.Sources = append(p.Sources, spec)

		case hasKeyword(line, "Out"):
			spec, err := parseDestLine(line)
			if err != nil {
				return nil, fmt.Errorf("plan: line %d: %w", lineNo+1, err)
			}
			p.Destinations = append(p.Destinations, spec)

		case hasKeyword(line, "Transform"):
			spec, err := parseTransformLine(line)
			if err != nil {
				return nil, fmt.Errorf("plan: line %d: %w", lineNo+1, err)
			}
			p.Transforms = append(p.Transforms, spec)

		default:
			ids, err := parseChainLine(line, p.Stations)
			if err != nil {
				return nil, fmt.Errorf("plan: line %d: %w", lineNo+1, err)
			}
			p.Lines[nextLineID] = ids
			nextLineID++
		}
	}
	return p, nil
}

// hasKeyword reports whether line starts with keyword followed by
// whitespace, the way `In`/`Out`/`Transform` lines do.
func hasKeyword(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) {
		return false
	}
	rest := line[len(keyword):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// extractBalanced finds the first occurrence of open in s and returns
// everything between it and its matching close (honoring nesting),
// plus whatever in s came before open and after close.
func extractBalanced(s string, open, close byte) (before, content, after string, ok bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", "", "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[:start], s[start+1 : i], s[i+1:], true
			}
		}
	}
	return "", "", "", false
}

func parseSourceLine(line string) (SourceSpec, error) {
	rest := strings.TrimSpace(line[len("In"):])
	typeName, content, after, ok := extractBalanced(rest, '{', '}')
	if !ok {
		return SourceSpec{}, fmt.Errorf("malformed In line: %q", line)
	}
	typeName = strings.TrimSpace(typeName)
	after = strings.TrimPrefix(strings.TrimSpace(after), ":")
	id, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return SourceSpec{}, fmt.Errorf("malformed In line stop id: %w", err)
	}
	return SourceSpec{Type: typeName, Options: json.RawMessage(content), StopID: id}, nil
}

func parseDestLine(line string) (DestSpec, error) {
	rest := strings.TrimSpace(line[len("Out"):])
	typeName, content, after, ok := extractBalanced(rest, '{', '}')
	if !ok {
		return DestSpec{}, fmt.Errorf("malformed Out line: %q", line)
	}
	typeName = strings.TrimSpace(typeName)
	after = strings.TrimPrefix(strings.TrimSpace(after), ":")
	id, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		return DestSpec{}, fmt.Errorf("malformed Out line stop id: %w", err)
	}
	return DestSpec{Type: typeName, Options: json.RawMessage(content), StopID: id}, nil
}

func parseTransformLine(line string) (TransformSpec, error) {
	rest := strings.TrimSpace(line[len("Transform"):])
	if !strings.HasPrefix(rest, "$") {
		return TransformSpec{}, fmt.Errorf("malformed Transform line: %q", line)
	}
	rest = rest[1:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return TransformSpec{}, fmt.Errorf("malformed Transform line: %q", line)
	}
	name := strings.TrimSpace(rest[:colon])
	typeAndOpts := rest[colon+1:]
	typeName, content, _, ok := extractBalanced(typeAndOpts, '{', '}')
	if !ok {
		return TransformSpec{}, fmt.Errorf("malformed Transform line: %q", line)
	}
	return TransformSpec{Name: name, Type: strings.TrimSpace(typeName), Options: json.RawMessage(content)}, nil
}

// parseChainLine parses `<stop_id> [{<query>}] [(<window_spec>)]
// [[<block_spec>]] -- <next_stop_id> ...`, registering or reusing a
// Station per id in stations, and wiring each stop's Inputs from its
// left neighbor on the chain.
func parseChainLine(line string, stations map[int]*Station) ([]int, error) {
	segments := strings.Split(line, "--")
	ids := make([]int, 0, len(segments))

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		id, query, windowSpec, blockSpec, err := parseStopToken(seg)
		if err != nil {
			return nil, err
		}

		station, exists := stations[id]
		if !exists {
			station = NewStation(id, nil)
			stations[id] = station
		}
		if len(ids) > 0 {
			prev := ids[len(ids)-1]
			if !containsInt(station.Inputs, prev) {
				station.Inputs = append(station.Inputs, prev)
			}
		}
		if query != "" {
			if err := applyInlineQuery(station, query); err != nil {
				return nil, err
			}
		}
		if windowSpec != "" {
			w, err := parseWindowSpec(windowSpec)
			if err != nil {
				return nil, err
			}
			station.Window = w
		}
		if blockSpec != "" {
			station.Block = parseBlockSpec(blockSpec, station.Inputs)
		}

		ids = append(ids, id)
	}
	return ids, nil
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// parseStopToken splits one `<stop_id> [{...}] [(...)] [[...]]` segment
// into its id and the three optional clauses, in any order.
func parseStopToken(seg string) (id int, query, windowSpec, blockSpec string, err error) {
	idEnd := 0
	for idEnd < len(seg) && (seg[idEnd] == '-' || (seg[idEnd] >= '0' && seg[idEnd] <= '9')) {
		idEnd++
	}
	if idEnd == 0 {
		return 0, "", "", "", fmt.Errorf("expected a stop id, got %q", seg)
	}
	id, err = strconv.Atoi(seg[:idEnd])
	if err != nil {
		return 0, "", "", "", fmt.Errorf("invalid stop id %q: %w", seg[:idEnd], err)
	}

	rest := seg[idEnd:]
	for len(strings.TrimSpace(rest)) > 0 {
		trimmed := strings.TrimSpace(rest)
		switch trimmed[0] {
		case '{':
			_, content, after, ok := extractBalanced(trimmed, '{', '}')
			if !ok {
				return 0, "", "", "", fmt.Errorf("unbalanced {} in %q", seg)
			}
			query = content
			rest = after
		case '(':
			_, content, after, ok := extractBalanced(trimmed, '(', ')')
			if !ok {
				return 0, "", "", "", fmt.Errorf("unbalanced () in %q", seg)
			}
			windowSpec = content
			rest = after
		case '[':
			_, content, after, ok := extractBalanced(trimmed, '[', ']')
			if !ok {
				return 0, "", "", "", fmt.Errorf("unbalanced [] in %q", seg)
			}
			blockSpec = content
			rest = after
		default:
			return 0, "", "", "", fmt.Errorf("unexpected token %q in %q", trimmed, seg)
		}
	}
	return id, strings.TrimSpace(query), strings.TrimSpace(windowSpec), strings.TrimSpace(blockSpec), nil
}

// applyInlineQuery compiles a `{<query>}` clause as a single expr-lang
// expression and installs it as the station's transform (a Project
// over whatever Scan the platform loads incoming values into). This is
// deliberately not a relational query language: plan text carries at
// most one opaque expression per stop, matching the spec's
// Non-goal that excludes a hand-written SQL-/MQL-like parser.
func applyInlineQuery(station *Station, query string) error {
	expr, err := algebra.CompileExpr(query)
	if err != nil {
		return fmt.Errorf("compiling inline query for stop %d: %w", station.ID, err)
	}
	root := algebra.NewRoot()
	scan := algebra.NewScan(root.Alloc(), fmt.Sprintf("stop-%d", station.ID), reservoir.New[value.Value]())
	station.Transform = algebra.NewProject(root.Alloc(), scan, expr, false)
	return nil
}

// parseWindowSpec parses a `(<window_spec>)` clause: empty/"0" means
// unbounded, otherwise a Go duration string ("5s", "200ms") sized to a
// tumbling window.
func parseWindowSpec(spec string) (Window, error) {
	if spec == "" || spec == "0" {
		return NewUnboundedWindow(), nil
	}
	d, err := time.ParseDuration(spec)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window spec %q: %w", spec, err)
	}
	return NewTumblingWindow(d.Milliseconds()), nil
}

// parseBlockSpec parses a `[<block_spec>]` clause: empty means Non,
// "*" means All(inputs), and anything else is a comma-separated list
// of upstream stop ids to block on (Specific).
func parseBlockSpec(spec string, inputs []int) *Block {
	if spec == "" {
		return NewNonBlock()
	}
	if spec == "*" {
		return NewAllBlock(inputs)
	}
	var blocks []int
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if id, err := strconv.Atoi(tok); err == nil {
			blocks = append(blocks, id)
		}
	}
	return NewSpecificBlock(blocks)
}
