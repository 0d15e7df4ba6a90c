//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"fmt"
	"sort"

	"github.com/flowgraph/flowgraph/board"
)

// Instance is a board compiled against a logic registry: every node bound to
// its logic, every pin connection resolved to run-time pin references
// (including layer relay pins). An instance is immutable and may back many
// runs; per-run state lives in the pin value cells, which Reset clears.
type Instance struct {
	board *board.Board
	nodes map[string]*RuntimeNode
	pins  map[string]*RuntimePin
}

// Compile resolves a board against a registry. The board is snapshotted:
// later board edits do not affect the instance.
func Compile(b *board.Board, registry *Registry) (*Instance, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	inst := &Instance{
		board: b,
		nodes: make(map[string]*RuntimeNode, len(b.Nodes)),
		pins:  make(map[string]*RuntimePin),
	}

	// Phase 1: create every pin cell, node pins and layer relay pins alike.
	for _, node := range b.Nodes {
		for _, pin := range node.Pins {
			inst.pins[pin.ID] = newRuntimePin(pin, false)
		}
	}
	for _, layer := range b.Layers {
		for _, pin := range layer.Pins {
			if _, ok := inst.pins[pin.ID]; ok {
				continue
			}
			inst.pins[pin.ID] = newRuntimePin(pin, true)
		}
	}

	// Phase 2: wire connections now that every endpoint exists.
	wire := func(pin *board.Pin) {
		rp := inst.pins[pin.ID]
		rp.connected = inst.resolve(pin.ConnectedTo)
		rp.dependsOn = inst.resolve(pin.DependsOn)
	}
	for _, node := range b.Nodes {
		for _, pin := range node.Pins {
			wire(pin)
		}
	}
	for _, layer := range b.Layers {
		for _, pin := range layer.Pins {
			wire(pin)
		}
	}

	// Phase 3: bind logic and attach pins to their owning nodes.
	for id, node := range b.Nodes {
		logic, err := registry.Instantiate(node)
		if err != nil {
			return nil, fmt.Errorf("compile node %s: %w", id, err)
		}
		rn := &RuntimeNode{
			def:    node.Clone(),
			logic:  logic,
			pins:   make(map[string]*RuntimePin, len(node.Pins)),
			byName: make(map[string][]*RuntimePin),
		}
		for _, pin := range node.Pins {
			rp := inst.pins[pin.ID]
			rp.node = rn
			rn.pins[pin.ID] = rp
			rn.byName[pin.Name] = append(rn.byName[pin.Name], rp)
		}
		for name := range rn.byName {
			pins := rn.byName[name]
			sort.Slice(pins, func(i, j int) bool { return pins[i].Index < pins[j].Index })
		}
		inst.nodes[id] = rn
	}

	return inst, nil
}

func (i *Instance) resolve(ids []string) []*RuntimePin {
	pins := make([]*RuntimePin, 0, len(ids))
	for _, id := range ids {
		if pin, ok := i.pins[id]; ok {
			pins = append(pins, pin)
		}
	}
	return pins
}

// Board returns the board this instance was compiled from.
func (i *Instance) Board() *board.Board { return i.board }

// Node returns the run-time node with the given ID.
func (i *Instance) Node(id string) (*RuntimeNode, bool) {
	n, ok := i.nodes[id]
	return n, ok
}

// Pin returns the run-time pin with the given ID.
func (i *Instance) Pin(id string) (*RuntimePin, bool) {
	p, ok := i.pins[id]
	return p, ok
}

// NodeCount returns the number of compiled nodes.
func (i *Instance) NodeCount() int { return len(i.nodes) }

// Reset clears every pin value cell and invocation counter so the instance
// can back a fresh run.
func (i *Instance) Reset() {
	for _, pin := range i.pins {
		pin.Reset()
	}
	for _, node := range i.nodes {
		node.execCalls.Store(0)
	}
}
