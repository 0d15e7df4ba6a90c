//
// Copyright (C) 2025 The flowgraph Authors.  All rights reserved.
//
// flowgraph is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"sort"
	"sync/atomic"

	"github.com/flowgraph/flowgraph/board"
)

// NodeState is the lifecycle state of one node invocation.
type NodeState uint8

const (
	// StateIdle means the node has not started.
	StateIdle NodeState = iota
	// StateRunning means the node's logic is executing.
	StateRunning
	// StateSuccess means the logic returned without error.
	StateSuccess
	// StateError means the logic failed.
	StateError
)

// String returns the state name.
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

// RuntimeNode binds a node definition to its logic and run-time pins for one
// compiled instance. Like RuntimePin, everything except counters is
// immutable after compilation.
type RuntimeNode struct {
	def    *board.Node
	logic  Logic
	pins   map[string]*RuntimePin
	byName map[string][]*RuntimePin

	// execCalls counts invocations within one run; the runner uses it as a
	// last-resort brake against runaway propagation.
	execCalls atomic.Uint64
}

// ID returns the node's board ID.
func (n *RuntimeNode) ID() string { return n.def.ID }

// Name returns the node's registry name.
func (n *RuntimeNode) Name() string { return n.def.Name }

// Definition returns the immutable node definition snapshot.
func (n *RuntimeNode) Definition() *board.Node { return n.def }

// Logic returns the node's behavior.
func (n *RuntimeNode) Logic() Logic { return n.logic }

// Pin returns the run-time pin with the given board pin ID.
func (n *RuntimeNode) Pin(id string) (*RuntimePin, bool) {
	pin, ok := n.pins[id]
	return pin, ok
}

// PinByName returns the lowest-index pin with the given name.
func (n *RuntimeNode) PinByName(name string) (*RuntimePin, bool) {
	pins := n.byName[name]
	if len(pins) == 0 {
		return nil, false
	}
	return pins[0], true
}

// PinsByName returns every pin with the given name in index order. Nodes may
// declare several same-named exec outputs to form a fan-out group.
func (n *RuntimeNode) PinsByName(name string) []*RuntimePin {
	return n.byName[name]
}

// OutputExecPins returns the node's output execution pins in declaration
// order. Propagation enumerates them in exactly this order.
func (n *RuntimeNode) OutputExecPins() []*RuntimePin {
	var pins []*RuntimePin
	for _, pin := range n.pins {
		if pin.Type == board.PinOutput && pin.DataType == board.DataTypeExecution {
			pins = append(pins, pin)
		}
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Index < pins[j].Index })
	return pins
}

// ExecCalls returns the number of invocations so far in this run.
func (n *RuntimeNode) ExecCalls() uint64 { return n.execCalls.Load() }
