// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plan

import "github.com/railwire/datatracks/pkg/value"

// BlockKind tags a Block gate's variant (§4.7).
type BlockKind uint8

const (
	BlockNon BlockKind = iota
	BlockSpecific
	BlockAll
)

// Block is the three-variant gate a Platform pushes every accepted
// train through before it reaches the iterator pipeline:
//
//   - Non: passes every train straight through.
//   - Specific(blocks): buffers trains arriving from any upstream id in
//     blocks; a train from any other (non-blocking) upstream id flushes
//     the buffer, merged with the trigger train, downstream.
//   - All(inputs): buffers every train by upstream id; once every id in
//     inputs has contributed at least one train since the last flush,
//     everything buffered is merged and flushed together.
type Block struct {
	kind   BlockKind
	blocks map[int]bool
	inputs []int

	buffers map[int][]*value.Train
	seen    map[int]bool
}

// NewNonBlock returns a gate that never buffers.
func NewNonBlock() *Block { return &Block{kind: BlockNon} }

// NewSpecificBlock returns a gate that buffers trains from blocks and
// releases on any other upstream id.
func NewSpecificBlock(blocks []int) *Block {
	set := make(map[int]bool, len(blocks))
	for _, b := range blocks {
		set[b] = true
	}
	return &Block{kind: BlockSpecific, blocks: set, buffers: map[int][]*value.Train{}}
}

// NewAllBlock returns a gate that waits for every id in inputs to
// contribute before flushing.
func NewAllBlock(inputs []int) *Block {
	return &Block{
		kind:    BlockAll,
		inputs:  append([]int(nil), inputs...),
		buffers: map[int][]*value.Train{},
		seen:    map[int]bool{},
	}
}

// Kind reports this gate's variant.
func (b *Block) Kind() BlockKind { return b.kind }

// Push feeds one accepted train, tagged with the upstream stop id it
// arrived from, through the gate. ready reports whether flushed holds
// one or more trains to send on to the iterator pipeline this call.
func (b *Block) Push(fromStop int, tr *value.Train) (flushed []*value.Train, ready bool) {
	switch b.kind {
	case BlockNon:
		return []*value.Train{tr}, true

	case BlockSpecific:
		if b.blocks[fromStop] {
			b.buffers[fromStop] = append(b.buffers[fromStop], tr)
			return nil, false
		}
		merged := b.drainMerged()
		if merged == nil {
			return []*value.Train{tr}, true
		}
		merged = merged.Merge(tr)
		return []*value.Train{merged}, true

	case BlockAll:
		b.buffers[fromStop] = append(b.buffers[fromStop], tr)
		b.seen[fromStop] = true
		if !b.allSeen() {
			return nil, false
		}
		merged := b.drainMerged()
		b.seen = map[int]bool{}
		return []*value.Train{merged}, merged != nil

	default:
		return []*value.Train{tr}, true
	}
}

func (b *Block) allSeen() bool {
	for _, id := range b.inputs {
		if !b.seen[id] {
			return false
		}
	}
	return true
}

// drainMerged empties every per-stop buffer and merges everything it
// held into a single train, nil if nothing was buffered.
func (b *Block) drainMerged() *value.Train {
	var merged *value.Train
	for id, trains := range b.buffers {
		for _, t := range trains {
			if merged == nil {
				merged = t
			} else {
				merged = merged.Merge(t)
			}
		}
		delete(b.buffers, id)
	}
	return merged
}
